package variant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"

	"github.com/google/uuid"
)

var (
	// ErrUnknownPattern は存在しないパターンIDが指定されたことを示します。
	ErrUnknownPattern = errors.New("unknown pattern")
	// ErrNoImage は採用しようとしたアイテムがそのパターンで画像を持たないことを示します。
	ErrNoImage = errors.New("item has no image in pattern")
)

// PatternRenderer はパターン単位の描画と1アイテムの再生成を行います。
// *generator.Pipeline がこれを満たします。
type PatternRenderer interface {
	RenderAll(ctx context.Context, plan domain.Plan, pattern *domain.Pattern, opts generator.RunOptions, sink func(generator.Event)) domain.ItemStatus
	RetryItem(ctx context.Context, plan domain.Plan, pattern *domain.Pattern, itemID string, opts generator.RunOptions) (domain.ItemResult, error)
}

// Options は Manager の設定です。
type Options struct {
	Run generator.RunOptions
	// Demo はプレースホルダー描画で作ったパターンに印を付けます。
	Demo bool
}

// Manager は1つのプランに対する複数のパターンと、アイテムごとの採用状態を管理します。
// ゴルーチンセーフではありません。同時に使う場合は呼び出し側で排他してください。
type Manager struct {
	plan      domain.Plan
	renderer  PatternRenderer
	opts      Options
	patterns  []*domain.Pattern
	selection domain.SelectionMap

	newID func() string
	now   func() time.Time
}

// NewManager は Manager を作成します。
func NewManager(plan domain.Plan, renderer PatternRenderer, opts Options) (*Manager, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if len(plan.Items) == 0 {
		return nil, fmt.Errorf("plan %q has no items", plan.ID)
	}
	return &Manager{
		plan:      plan,
		renderer:  renderer,
		opts:      opts,
		selection: domain.SelectionMap{},
		newID:     uuid.NewString,
		now:       time.Now,
	}, nil
}

// Plan は管理対象のプランを返します。
func (m *Manager) Plan() domain.Plan {
	return m.plan
}

// Demo はデモ描画のセッションかどうかを返します。
func (m *Manager) Demo() bool {
	return m.opts.Demo
}

// NewPattern は全アイテムが pending の新しいパターンを追加します。label が空なら連番の名前を付けます。
func (m *Manager) NewPattern(label string) *domain.Pattern {
	if label == "" {
		label = fmt.Sprintf("パターン %d", len(m.patterns)+1)
	}
	p := domain.NewPattern(m.newID(), label, m.plan, m.now())
	p.Demo = m.opts.Demo
	m.patterns = append(m.patterns, p)
	return p
}

// GeneratePattern は新しいパターンを1つ作って描画します。
// 完了後、まだ採用先の無いアイテムはこのパターンで画像があれば既定の採用先になります。
func (m *Manager) GeneratePattern(ctx context.Context, label string, sink func(generator.Event)) *domain.Pattern {
	p := m.NewPattern(label)
	m.renderer.RenderAll(ctx, m.plan, p, m.opts.Run, sink)
	m.adoptDefaults(p)
	return p
}

// GeneratePatterns は n 個のパターンを順番に描画します。1つが完了してから次を始めます。
// ctx がキャンセルされた場合はそれ以降のパターンを作りません。
func (m *Manager) GeneratePatterns(ctx context.Context, n int, sink func(generator.Event)) []*domain.Pattern {
	created := make([]*domain.Pattern, 0, n)
	for range n {
		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "パターン生成を中断しました", "plan_id", m.plan.ID, "created", len(created), "error", err)
			break
		}
		created = append(created, m.GeneratePattern(ctx, "", sink))
	}
	return created
}

// Pattern は指定IDのパターンを返します。
func (m *Manager) Pattern(id string) (*domain.Pattern, bool) {
	for _, p := range m.patterns {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Patterns は作成順のパターンのスナップショットを返します。
func (m *Manager) Patterns() []domain.Pattern {
	out := make([]domain.Pattern, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = *p
		out[i].Items = slices.Clone(p.Items)
	}
	return out
}

// AdoptPattern はパターン内で画像を持つすべてのアイテムをそのパターンに切り替えます。
// 画像の無いアイテムは現在の採用先を保ちます。同じパターンを何度採用しても結果は同じです。
func (m *Manager) AdoptPattern(patternID string) error {
	p, ok := m.Pattern(patternID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPattern, patternID)
	}
	for _, r := range p.Items {
		if r.HasImage() {
			m.selection[r.Item.ID] = p.ID
		}
	}
	return nil
}

// AdoptItem は1アイテムの採用先を指定パターンに切り替えます。
func (m *Manager) AdoptItem(itemID, patternID string) error {
	p, ok := m.Pattern(patternID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPattern, patternID)
	}
	r, ok := p.Result(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", generator.ErrUnknownItem, itemID)
	}
	if !r.HasImage() {
		return fmt.Errorf("%w: item=%s pattern=%s", ErrNoImage, itemID, patternID)
	}
	m.selection[itemID] = patternID
	return nil
}

// Selection は現在の採用状態のコピーを返します。
func (m *Manager) Selection() domain.SelectionMap {
	return m.selection.Clone()
}

// SelectedResults はプランの順にアイテムごとの採用結果を返します。
// 採用先の画像、無ければ画像を持つ最初のパターン、それも無ければ pending の空の結果です。
func (m *Manager) SelectedResults() []domain.ItemResult {
	out := make([]domain.ItemResult, len(m.plan.Items))
	for i, item := range m.plan.Items {
		out[i] = m.resolve(item)
	}
	return out
}

func (m *Manager) resolve(item domain.Item) domain.ItemResult {
	if pid, ok := m.selection[item.ID]; ok {
		if p, ok := m.Pattern(pid); ok {
			if r, ok := p.Result(item.ID); ok && r.HasImage() {
				return *r
			}
		}
	}
	for _, p := range m.patterns {
		if r, ok := p.Result(item.ID); ok && r.HasImage() {
			return *r
		}
	}
	return domain.ItemResult{Item: item, Status: domain.StatusPending}
}

// RetryItem はパターン内の1アイテムを描画し直します。
// 失敗して画像を失った場合、そのパターンを指していた採用状態は外れます。
func (m *Manager) RetryItem(ctx context.Context, patternID, itemID string) (domain.ItemResult, error) {
	p, ok := m.Pattern(patternID)
	if !ok {
		return domain.ItemResult{}, fmt.Errorf("%w: %s", ErrUnknownPattern, patternID)
	}
	res, err := m.renderer.RetryItem(ctx, m.plan, p, itemID, m.opts.Run)
	if err != nil {
		return domain.ItemResult{}, err
	}

	switch {
	case res.HasImage():
		if _, selected := m.selection[itemID]; !selected {
			m.selection[itemID] = patternID
		}
	case m.selection[itemID] == patternID:
		delete(m.selection, itemID)
	}
	return res, nil
}

// adoptDefaults は採用先の無いアイテムを、p で画像が得られていれば p に割り当てます。
func (m *Manager) adoptDefaults(p *domain.Pattern) {
	for _, r := range p.Items {
		if _, selected := m.selection[r.Item.ID]; selected {
			continue
		}
		if r.HasImage() {
			m.selection[r.Item.ID] = p.ID
		}
	}
}
