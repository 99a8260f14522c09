package studio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/history"
	"github.com/shouni/gemini-content-studio/pkg/imgutil"
	"github.com/shouni/gemini-content-studio/pkg/lifelog"
	"github.com/shouni/gemini-content-studio/pkg/variant"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, backends BackendFactory, mutate ...func(*Options)) *Service {
	t.Helper()
	store, err := history.NewStore(history.NewMemoryKV(), 0)
	require.NoError(t, err)
	opts := Options{Backends: backends, History: store}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	store, _ := history.NewStore(history.NewMemoryKV(), 0)
	_, err = New(Options{Backends: &mockBackends{}})
	assert.Error(t, err)
	s, err := New(Options{Backends: &mockBackends{}, History: store})
	require.NoError(t, err)
	assert.NotNil(t, s.Catalog())
}

func TestCredential_Merge(t *testing.T) {
	got := Credential{GeminiAPIKey: "req"}.Merge(Credential{GeminiAPIKey: "env", LimitlessAPIKey: "lim"})
	assert.Equal(t, Credential{GeminiAPIKey: "req", LimitlessAPIKey: "lim"}, got)
}

func TestService_Generate_NoCredential(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, NewDefaultBackends(BackendSettings{}))

	rc := RunConfig{Domain: domain.KindSlides}
	session, err := s.Generate(ctx, rc, "AI活用の全体像\n導入事例\nまとめ", nil)
	require.NoError(t, err)

	t.Run("デモのプランとプレースホルダー描画になるのだ", func(t *testing.T) {
		view := session.View()
		assert.Equal(t, "fallback:no_credential", view.PlanStatus)
		assert.True(t, view.Demo)
		require.Len(t, view.Patterns, 1)
		assert.True(t, view.Patterns[0].Demo)
		assert.Equal(t, domain.StatusDone, view.Patterns[0].Status)
		for _, res := range view.Selected {
			assert.Equal(t, domain.StatusDone, res.Status)
			assert.True(t, imgutil.IsDataURI(res.ImageURL))
		}
	})

	t.Run("最初のパターンが履歴に残る", func(t *testing.T) {
		entries := s.History(ctx, domain.KindSlides)
		require.Len(t, entries, 1)
		assert.Equal(t, session.ID(), entries[0].ID)
		assert.Equal(t, domain.KindSlides, entries[0].Category)

		got, err := s.Session(session.ID())
		require.NoError(t, err)
		got.GeneratePatterns(ctx, 1, nil)
		assert.Len(t, s.History(ctx, domain.KindSlides), 1)
	})

	t.Run("採用画像を縦に結合する", func(t *testing.T) {
		n := len(session.View().Plan.Items)
		comp, err := session.Compose(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, imgutil.DefaultStackWidth, comp.Width)
		assert.Equal(t, n*imgutil.ScaledHeight(640, 360, imgutil.DefaultStackWidth), comp.Height)
	})
}

func TestService_Generate_WithBackend(t *testing.T) {
	ctx := context.Background()
	backends := &mockBackends{backend: Backend{
		Text:     &mockTextModel{err: errors.New("upstream down")},
		Renderer: &mockRenderer{failAt: map[int]bool{1: true}},
	}}
	s := newTestService(t, backends, func(o *Options) {
		o.Defaults = Credential{GeminiAPIKey: "server-key"}
	})

	var events []generator.Event
	rc := RunConfig{
		Credential: Credential{OpenAIAPIKey: "req-key"},
		Domain:     domain.KindLP,
		Options:    RunOptions{Patterns: 9},
	}
	session, err := s.Generate(ctx, rc, "新サービスのLP", func(ev generator.Event) { events = append(events, ev) })
	require.NoError(t, err)

	t.Run("認証情報は既定値で補われるのだ", func(t *testing.T) {
		require.Len(t, backends.creds, 1)
		assert.Equal(t, Credential{GeminiAPIKey: "server-key", OpenAIAPIKey: "req-key"}, backends.creds[0])
	})

	t.Run("パターン数は上限で切り詰められる", func(t *testing.T) {
		view := session.View()
		assert.Len(t, view.Patterns, MaxPatterns)
		assert.Equal(t, "fallback:upstream_error", view.PlanStatus)
		assert.False(t, view.Demo)
		assert.Equal(t, domain.StatusError, view.Patterns[0].Status)
		assert.Equal(t, domain.StatusDone, view.Patterns[1].Status)
		// 1つ目のパターンで失敗した2番目のアイテムは2つ目のパターンが採用先になる
		second := view.Plan.Items[1].ID
		assert.Equal(t, view.Patterns[1].ID, view.Selection[second])
	})

	t.Run("イベントが流れる", func(t *testing.T) {
		var done int
		for _, ev := range events {
			if ev.Type == generator.EventPatternDone {
				done++
			}
		}
		assert.Equal(t, MaxPatterns, done)
	})

	t.Run("採用と再生成", func(t *testing.T) {
		view := session.View()
		first := view.Patterns[0].ID
		item := view.Plan.Items[1].ID

		_, err := session.AdoptItem(item, first)
		assert.ErrorIs(t, err, variant.ErrNoImage)

		res, err := session.RetryItem(ctx, first, item)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDone, res.Status)

		sel, err := session.AdoptPattern(first)
		require.NoError(t, err)
		assert.Equal(t, first, sel[item])
	})

	t.Run("URL の画像は取得手段が無いと結合できない", func(t *testing.T) {
		_, err := session.Compose(ctx, 0)
		assert.Error(t, err)
	})

	t.Run("未知のセッション", func(t *testing.T) {
		_, err := s.Session("nope")
		assert.ErrorIs(t, err, ErrUnknownSession)
	})
}

func TestService_Compose_URL(t *testing.T) {
	ctx := context.Background()
	backends := &mockBackends{backend: Backend{Renderer: &mockRenderer{}}}

	t.Run("安全でない URL の画像は取得しないのだ", func(t *testing.T) {
		fetcher := &mockFetcher{}
		s := newTestService(t, backends, func(o *Options) { o.Fetcher = fetcher })
		session, err := s.Generate(ctx, RunConfig{Domain: domain.KindLP}, "新サービスのLP", nil)
		require.NoError(t, err)

		_, err = session.Compose(ctx, 0)
		assert.ErrorIs(t, err, ErrUnsafeURL)
		assert.Empty(t, fetcher.fetched)
	})

	t.Run("安全な URL は取得クライアントに渡す", func(t *testing.T) {
		fetcher := &mockFetcher{safe: true}
		s := newTestService(t, backends, func(o *Options) { o.Fetcher = fetcher })
		session, err := s.Generate(ctx, RunConfig{Domain: domain.KindLP}, "新サービスのLP", nil)
		require.NoError(t, err)

		_, err = session.Compose(ctx, 0)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnsafeURL)
		assert.Len(t, fetcher.fetched, 1)
	})
}

func TestService_SessionLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, NewDefaultBackends(BackendSettings{}), func(o *Options) { o.MaxSessions = 2 })

	var ids []string
	for range 3 {
		session, err := s.Generate(ctx, RunConfig{Domain: domain.KindDigest}, "学び", nil)
		require.NoError(t, err)
		ids = append(ids, session.ID())
	}

	t.Run("上限を超えると最も古いセッションから破棄されるのだ", func(t *testing.T) {
		_, err := s.Session(ids[0])
		assert.ErrorIs(t, err, ErrUnknownSession)
		for _, id := range ids[1:] {
			_, err := s.Session(id)
			assert.NoError(t, err)
		}
	})

	t.Run("既定の上限", func(t *testing.T) {
		assert.Equal(t, DefaultMaxSessions, newTestService(t, &mockBackends{}).opts.MaxSessions)
	})
}

func TestService_Plan(t *testing.T) {
	s := newTestService(t, &mockBackends{backend: Backend{Text: &mockTextModel{text: "Bold red title, shocked face"}}})
	out, err := s.Plan(context.Background(), RunConfig{Domain: domain.KindThumbnail, Options: RunOptions{Count: 3}}, "Go入門")
	require.NoError(t, err)
	assert.True(t, out.IsOk())
	assert.Len(t, out.Value.Items, 3)

	failing := newTestService(t, &mockBackends{err: errors.New("bad key")})
	_, err = failing.Plan(context.Background(), RunConfig{Domain: domain.KindLP}, "x")
	assert.Error(t, err)
}

func TestService_Evaluate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		eval   Evaluator
		reason domain.FallbackReason
		score  float64
	}{
		{"採点モデルが無ければ既定の評価なのだ", nil, domain.ReasonNoCredential, 8},
		{"採点に失敗したら既定の評価", &mockEvaluator{err: errors.New("boom")}, domain.ReasonUpstream, 8},
		{"採点結果をそのまま返す", &mockEvaluator{eval: domain.Evaluation{Score: 6.5, Advice: "文字を大きく"}}, "", 6.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, &mockBackends{backend: Backend{Evaluator: tt.eval}})
			out := s.Evaluate(ctx, Credential{}, "data:image/png;base64,AAAA")
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, tt.score, out.Value.Score)
		})
	}
}

func TestService_Digest(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lim-key", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"data":{"lifelogs":[
			{"id":"a","title":"設計レビュー","markdown":"学び"},
			{"id":"b","title":"読書","text":"本"}
		]}}`))
	}))
	defer srv.Close()

	s := newTestService(t, NewDefaultBackends(BackendSettings{}), func(o *Options) {
		o.LimitlessEndpoint = srv.URL
		o.Defaults = Credential{LimitlessAPIKey: "lim-key"}
		o.HTTP = httpkit.New(time.Second, httpkit.WithSkipNetworkValidation(true), httpkit.WithMaxRetries(0))
	})
	s.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, lifelog.JST) }

	t.Run("プレビューはログ一覧だけなのだ", func(t *testing.T) {
		res, err := s.Digest(ctx, DigestRequest{Mode: lifelog.ModeDaily, PreviewOnly: true})
		require.NoError(t, err)
		assert.Equal(t, "2026-10-18", res.Range.Label)
		assert.Equal(t, 2, res.LogCount)
		require.Len(t, res.Logs, 2)
		assert.Nil(t, res.Summary)
		assert.Nil(t, res.Pattern)
	})

	t.Run("選んだログを要約して1枚描画し、履歴に残す", func(t *testing.T) {
		res, err := s.Digest(ctx, DigestRequest{Mode: lifelog.ModeWeekly, Date: "2026-10-18", SelectedIDs: []string{"b"}})
		require.NoError(t, err)
		require.NotNil(t, res.Summary)
		assert.Equal(t, "fallback:no_credential", res.SummaryStatus)
		assert.Equal(t, []string{"1. 読書"}, res.Summary.Lessons)
		assert.Contains(t, res.HTML, "<h1>")
		require.NotNil(t, res.Pattern)
		assert.True(t, res.Pattern.Demo)
		assert.Equal(t, domain.StatusDone, res.Pattern.Status)
		assert.Equal(t, domain.KindDigest, res.Plan.Kind)
		assert.Len(t, s.History(ctx, domain.KindDigest), 1)
	})

	t.Run("選択が何も一致しなければ入力エラー", func(t *testing.T) {
		_, err := s.Digest(ctx, DigestRequest{SelectedIDs: []string{"zzz"}})
		assert.ErrorIs(t, err, lifelog.ErrNoLogsSelected)
		assert.True(t, domain.IsInputError(err))
	})

	t.Run("Limitless のキーが無ければ入力エラー", func(t *testing.T) {
		bare := newTestService(t, NewDefaultBackends(BackendSettings{}))
		_, err := bare.Digest(ctx, DigestRequest{})
		assert.True(t, domain.IsInputError(err))
	})
}
