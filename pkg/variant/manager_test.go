package variant

import (
	"context"
	"testing"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, plan domain.Plan, r *mockRenderer, demo bool) *Manager {
	t.Helper()
	pipeline, err := generator.NewPipeline(r, nil, generator.Config{})
	require.NoError(t, err)
	m, err := NewManager(plan, pipeline, Options{Demo: demo})
	require.NoError(t, err)
	m.newID = sequentialIDs()
	return m
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(testPlan(1), nil, Options{})
	assert.Error(t, err)

	pipeline, err := generator.NewPipeline(&mockRenderer{}, nil, generator.Config{})
	require.NoError(t, err)
	_, err = NewManager(domain.Plan{ID: "empty"}, pipeline, Options{})
	assert.Error(t, err)
}

func TestManager_GeneratePatterns(t *testing.T) {
	ctx := context.Background()

	t.Run("パターンは順番に描画され、最初のパターンが既定の採用先になるのだ", func(t *testing.T) {
		r := &mockRenderer{}
		m := newTestManager(t, testPlan(3), r, true)

		var order []string
		created := m.GeneratePatterns(ctx, 2, func(ev generator.Event) {
			if ev.Type == generator.EventItemStarted {
				order = append(order, ev.PatternID)
			}
		})

		require.Len(t, created, 2)
		assert.Equal(t, []string{"pattern-1", "pattern-1", "pattern-1", "pattern-2", "pattern-2", "pattern-2"}, order)
		assert.Equal(t, "パターン 1", created[0].Label)
		assert.Equal(t, "パターン 2", created[1].Label)
		assert.True(t, created[0].Demo)
		assert.Equal(t, domain.SelectionMap{"item-1": "pattern-1", "item-2": "pattern-1", "item-3": "pattern-1"}, m.Selection())
		assert.Len(t, m.Patterns(), 2)
	})

	t.Run("最初のパターンで失敗したアイテムは後のパターンが既定になる", func(t *testing.T) {
		r := &mockRenderer{fail: func(call int, _ domain.ImageGenerationRequest) bool { return call == 1 }}
		m := newTestManager(t, testPlan(3), r, false)

		m.GeneratePatterns(ctx, 2, nil)

		assert.Equal(t, domain.SelectionMap{"item-1": "pattern-1", "item-2": "pattern-2", "item-3": "pattern-1"}, m.Selection())
	})

	t.Run("キャンセル済みなら新しいパターンを作らない", func(t *testing.T) {
		m := newTestManager(t, testPlan(2), &mockRenderer{}, false)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		assert.Empty(t, m.GeneratePatterns(canceled, 3, nil))
		assert.Empty(t, m.Patterns())
	})
}

func TestManager_Adopt(t *testing.T) {
	ctx := context.Background()
	r := &mockRenderer{fail: func(call int, _ domain.ImageGenerationRequest) bool { return call == 4 }}
	m := newTestManager(t, testPlan(3), r, false)
	m.GeneratePatterns(ctx, 2, nil)

	t.Run("パターン全体の採用は2回行っても同じ結果なのだ", func(t *testing.T) {
		require.NoError(t, m.AdoptPattern("pattern-2"))
		first := m.Selection()
		require.NoError(t, m.AdoptPattern("pattern-2"))
		assert.Equal(t, first, m.Selection())
		// pattern-2 の item-2 は失敗しているので pattern-1 のまま
		assert.Equal(t, domain.SelectionMap{"item-1": "pattern-2", "item-2": "pattern-1", "item-3": "pattern-2"}, first)
	})

	t.Run("画像の無いアイテムは採用できない", func(t *testing.T) {
		err := m.AdoptItem("item-2", "pattern-2")
		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("未知のパターンやアイテムはエラー", func(t *testing.T) {
		assert.ErrorIs(t, m.AdoptPattern("nope"), ErrUnknownPattern)
		assert.ErrorIs(t, m.AdoptItem("item-1", "nope"), ErrUnknownPattern)
		assert.ErrorIs(t, m.AdoptItem("nope", "pattern-1"), generator.ErrUnknownItem)
	})

	t.Run("採用してもパターンは変化しない", func(t *testing.T) {
		before := m.Patterns()
		require.NoError(t, m.AdoptItem("item-1", "pattern-1"))
		assert.Equal(t, before, m.Patterns())
	})

	t.Run("Selection はコピーを返す", func(t *testing.T) {
		sel := m.Selection()
		sel["item-1"] = "tampered"
		assert.Equal(t, "pattern-1", m.Selection()["item-1"])
	})
}

func TestManager_SelectedResults(t *testing.T) {
	ctx := context.Background()

	t.Run("採用先、画像を持つ最初のパターン、pending の順に解決するのだ", func(t *testing.T) {
		// pattern-1: item-1 ok, item-2 NG, item-3 NG / pattern-2: item-1 ok, item-2 ok, item-3 NG
		r := &mockRenderer{fail: func(call int, _ domain.ImageGenerationRequest) bool {
			return call == 1 || call == 2 || call == 5
		}}
		m := newTestManager(t, testPlan(3), r, false)
		m.GeneratePatterns(ctx, 2, nil)
		require.NoError(t, m.AdoptItem("item-1", "pattern-2"))

		got := m.SelectedResults()
		require.Len(t, got, 3)
		assert.Equal(t, "pattern-2", got[0].PatternID)
		assert.Equal(t, "https://img.example.com/3.png", got[0].ImageURL)
		assert.Equal(t, "pattern-2", got[1].PatternID)
		assert.Equal(t, domain.StatusPending, got[2].Status)
		assert.Equal(t, "item-3", got[2].Item.ID)
		assert.Empty(t, got[2].ImageURL)
	})

	t.Run("パターンが無ければすべて pending", func(t *testing.T) {
		m := newTestManager(t, testPlan(2), &mockRenderer{}, false)
		for _, res := range m.SelectedResults() {
			assert.Equal(t, domain.StatusPending, res.Status)
		}
	})
}

func TestManager_RetryItem(t *testing.T) {
	ctx := context.Background()

	t.Run("失敗したアイテムを再生成すると採用先になるのだ", func(t *testing.T) {
		failing := true
		r := &mockRenderer{fail: func(call int, _ domain.ImageGenerationRequest) bool { return failing && call == 1 }}
		m := newTestManager(t, testPlan(3), r, false)
		m.GeneratePatterns(ctx, 1, nil)
		_, selected := m.Selection()["item-2"]
		require.False(t, selected)

		failing = false
		res, err := m.RetryItem(ctx, "pattern-1", "item-2")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDone, res.Status)
		assert.Equal(t, "pattern-1", m.Selection()["item-2"])

		p, ok := m.Pattern("pattern-1")
		require.True(t, ok)
		assert.Equal(t, domain.StatusDone, p.Status)
	})

	t.Run("再生成に失敗すると採用が外れる", func(t *testing.T) {
		r := &mockRenderer{fail: func(call int, _ domain.ImageGenerationRequest) bool { return call == 2 }}
		m := newTestManager(t, testPlan(2), r, false)
		m.GeneratePatterns(ctx, 1, nil)

		res, err := m.RetryItem(ctx, "pattern-1", "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusError, res.Status)
		_, selected := m.Selection()["item-1"]
		assert.False(t, selected)
	})

	t.Run("未知のパターン", func(t *testing.T) {
		m := newTestManager(t, testPlan(1), &mockRenderer{}, false)
		_, err := m.RetryItem(ctx, "nope", "item-1")
		assert.ErrorIs(t, err, ErrUnknownPattern)
	})
}
