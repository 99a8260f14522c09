package generator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// ErrUnknownItem はパターンに存在しないアイテムが指定されたことを示します。
var ErrUnknownItem = errors.New("unknown item")

const interruptedMessage = "描画が中断されました"

// Pipeline はプランのアイテムを順番に描画し、パターンを更新します。
// 連鎖するドメインでは直前に成功した画像を次のアイテムの参照画像として渡します。
type Pipeline struct {
	renderer  ImageRenderer
	templates TemplateSource
	cfg       Config
}

// NewPipeline は Pipeline を作成します。templates は nil も許容します（テンプレート参照なし）。
func NewPipeline(renderer ImageRenderer, templates TemplateSource, cfg Config) (*Pipeline, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	return &Pipeline{
		renderer:  renderer,
		templates: templates,
		cfg:       cfg.withDefaults(),
	}, nil
}

// Run はプランを1パターン分描画するイベント列を返します。
// 反復するたびに1アイテムずつ描画し、pattern をその場で更新します。
// 失敗したアイテムは error として記録して次へ進み、継続性の参照は直前の成功画像のまま保ちます。
// 利用側が反復を止めた場合や ctx がキャンセルされた場合は、次のアイテムの前で停止します。
func (p *Pipeline) Run(ctx context.Context, plan domain.Plan, pattern *domain.Pattern, opts RunOptions) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		profile := ProfileFor(plan.Kind)
		total := len(plan.Items)
		previous := ""
		pattern.Status = domain.StatusGenerating

		slog.InfoContext(ctx, "パターンの描画を開始します",
			"plan_id", plan.ID, "pattern_id", pattern.ID, "kind", plan.Kind, "items", total)

		for i, item := range plan.Items {
			res, ok := pattern.Result(item.ID)
			if !ok {
				slog.WarnContext(ctx, "パターンにアイテムが存在しないためスキップします", "pattern_id", pattern.ID, "item_id", item.ID)
				continue
			}
			if err := ctx.Err(); err != nil {
				p.interrupt(ctx, pattern, i, err)
				return
			}

			req := p.request(ctx, &plan, i, previous, opts)
			res.MarkGenerating(req.Prompt)
			if !yield(p.event(EventItemStarted, pattern, i, total, res)) {
				p.interrupt(ctx, pattern, i, nil)
				return
			}

			handle, err := p.render(ctx, req)
			if err != nil {
				res.MarkError(err.Error())
				slog.WarnContext(ctx, "アイテムの描画に失敗しました。次のアイテムへ進みます",
					"pattern_id", pattern.ID, "item_id", item.ID, "index", i, "error", err)
				if !yield(p.event(EventItemFailed, pattern, i, total, res)) {
					p.interrupt(ctx, pattern, i+1, nil)
					return
				}
				continue
			}

			res.MarkDone(handle)
			if profile.Chained {
				previous = handle
			}
			if !yield(p.event(EventItemDone, pattern, i, total, res)) {
				p.interrupt(ctx, pattern, i+1, nil)
				return
			}
		}

		pattern.Status = pattern.AggregateStatus()
		slog.InfoContext(ctx, "パターンの描画が完了しました",
			"pattern_id", pattern.ID, "status", pattern.Status, "failed", pattern.Failed())
		yield(Event{Type: EventPatternDone, PatternID: pattern.ID, Index: total, Total: total, Status: pattern.Status})
	}
}

// RenderAll は Run のイベントをすべて消費し、最後のパターン状態を返します。
// sink が nil でなければ各イベントを渡します。
func (p *Pipeline) RenderAll(ctx context.Context, plan domain.Plan, pattern *domain.Pattern, opts RunOptions, sink func(Event)) domain.ItemStatus {
	for ev := range p.Run(ctx, plan, pattern, opts) {
		if sink != nil {
			sink(ev)
		}
	}
	return pattern.Status
}

// RetryItem はパターン内の1アイテムだけを描画し直します。
// 連鎖するドメインでは、同じパターンの直前のアイテムが画像を持っていればそれを参照にします。
// 描画の失敗は結果の error 状態として返し、error を返すのはアイテムが見つからない場合だけです。
func (p *Pipeline) RetryItem(ctx context.Context, plan domain.Plan, pattern *domain.Pattern, itemID string, opts RunOptions) (domain.ItemResult, error) {
	index := plan.ItemIndex(itemID)
	res, ok := pattern.Result(itemID)
	if index < 0 || !ok {
		return domain.ItemResult{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	previous := ""
	if ProfileFor(plan.Kind).Chained && index > 0 {
		if prev, ok := pattern.Result(plan.Items[index-1].ID); ok && prev.HasImage() {
			previous = prev.ImageURL
		}
	}

	req := p.request(ctx, &plan, index, previous, opts)
	res.MarkGenerating(req.Prompt)
	handle, err := p.render(ctx, req)
	if err != nil {
		res.MarkError(err.Error())
		slog.WarnContext(ctx, "アイテムの再生成に失敗しました", "pattern_id", pattern.ID, "item_id", itemID, "error", err)
	} else {
		res.MarkDone(handle)
		slog.InfoContext(ctx, "アイテムを再生成しました", "pattern_id", pattern.ID, "item_id", itemID)
	}
	pattern.Status = pattern.AggregateStatus()
	return *res, nil
}

// request は1アイテム分の描画要求を組み立てます。
// 参照画像は継続性の画像、固定参照、テンプレートのレイアウトの順に並べます。
func (p *Pipeline) request(ctx context.Context, plan *domain.Plan, index int, previous string, opts RunOptions) domain.ImageGenerationRequest {
	item := plan.Items[index]
	profile := ProfileFor(plan.Kind)

	var tpl *catalog.Template
	if p.templates != nil {
		if t, ok := p.templates.Lookup(plan.Kind, item.TemplateID); ok {
			tpl = &t
		}
	}

	prompt := BuildPrompt(PromptInput{
		Plan:        plan,
		Index:       index,
		HasPrevious: previous != "",
		References:  opts.References,
		Template:    tpl,
		ExtraStyle:  opts.ExtraStyle,
		Locale:      p.cfg.Locale,
	})

	var refs []string
	if previous != "" {
		refs = append(refs, previous)
	}
	refs = append(refs, opts.References.URLs()...)
	if profile.TemplateLayout && tpl != nil && opts.References.Layout == "" {
		uri, err := p.templates.LayoutReference(plan.Kind, tpl.ID)
		if err != nil {
			slog.WarnContext(ctx, "テンプレートのレイアウト参照を作成できませんでした", "template_id", tpl.ID, "error", err)
		} else if uri != "" {
			refs = append(refs, uri)
		}
	}

	return domain.ImageGenerationRequest{
		Prompt:         prompt,
		NegativePrompt: opts.NegativePrompt,
		AspectRatio:    profile.AspectRatio,
		ImageSize:      p.cfg.ImageSize,
		ReferenceURLs:  refs,
		Seed:           opts.Seed,
	}
}

// render は描画呼び出しごとにタイムアウトを設け、失敗を分類済みのエラーとして返します。
func (p *Pipeline) render(ctx context.Context, req domain.ImageGenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.renderer.Render(ctx, req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return "", domain.ClassifyUpstream(err)
	}
	if resp == nil {
		return "", &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "描画結果が空です"}
	}
	handle := resp.Handle()
	if handle == "" {
		return "", &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "画像が返されませんでした"}
	}
	return handle, nil
}

// interrupt は描画されなかったアイテムを error として記録し、パターンの状態を確定します。
func (p *Pipeline) interrupt(ctx context.Context, pattern *domain.Pattern, from int, cause error) {
	msg := interruptedMessage
	if cause != nil {
		msg = domain.ClassifyUpstream(cause).Error()
	}
	for i := from; i < len(pattern.Items); i++ {
		r := &pattern.Items[i]
		if r.Status == domain.StatusPending || r.Status == domain.StatusGenerating {
			r.MarkError(msg)
		}
	}
	pattern.Status = pattern.AggregateStatus()
	slog.InfoContext(ctx, "パターンの描画を中断しました", "pattern_id", pattern.ID, "from", from, "status", pattern.Status)
}

func (p *Pipeline) event(t EventType, pattern *domain.Pattern, index, total int, res *domain.ItemResult) Event {
	snapshot := *res
	ev := Event{
		Type:      t,
		PatternID: pattern.ID,
		Index:     index,
		Total:     total,
		ItemID:    res.Item.ID,
		Result:    &snapshot,
	}
	if t == EventItemFailed {
		ev.Error = res.Error
	}
	return ev
}
