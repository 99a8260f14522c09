package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"

	"github.com/google/uuid"
)

// TextModel はプラン生成に使うテキスト生成モデルです。
type TextModel interface {
	GenerateText(ctx context.Context, req domain.TextRequest) (string, error)
}

// Planner はブリーフを構造化された Plan に変換します。
// text が nil の場合は認証情報なしとみなし、決定的な代替プランを返します。
type Planner struct {
	text    TextModel
	catalog *catalog.Catalog
	newID   func() string
}

// New は Planner を作成します。cat が nil の場合は埋め込みのカタログを使います。
func New(text TextModel, cat *catalog.Catalog) *Planner {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Planner{
		text:    text,
		catalog: cat,
		newID:   uuid.NewString,
	}
}

// Available はテキストモデルが設定されているかどうかを返します。
func (p *Planner) Available() bool {
	return p.text != nil
}

type normalizer func(doc any, fallback domain.Plan) (domain.Plan, error)

// Plan はブリーフからプランを作成します。エラーは返さず、
// 上流の失敗や解釈できない応答は代替プランを持つ Fallback として表します。
func (p *Planner) Plan(ctx context.Context, brief domain.Brief) domain.Outcome[domain.Plan] {
	out := p.plan(ctx, brief)

	plan := out.Value
	if len(plan.Items) == 0 {
		plan = genericPlan(brief)
	}
	plan.ID = p.newID()
	plan.Kind = brief.Kind
	plan.Brief = brief.Text
	plan.Items = slices.Clone(plan.Items)
	uniqueIDs(plan.Items)
	out.Value = plan

	slog.InfoContext(ctx, "プランを作成しました",
		"kind", brief.Kind,
		"plan_id", plan.ID,
		"items", len(plan.Items),
		"status", out.Status(),
		"warnings", len(out.Warnings))
	return out
}

func (p *Planner) plan(ctx context.Context, brief domain.Brief) domain.Outcome[domain.Plan] {
	switch brief.Kind {
	case domain.KindThumbnail:
		return p.planThumbnail(ctx, brief)

	case domain.KindLP:
		return p.planJSON(ctx, brief.Kind, fallbackLP(brief.Text), lpRequest(brief), normalizeLP)

	case domain.KindSlides:
		templates := p.templates(domain.KindSlides, brief.TemplateIDs)
		target := slideCount(brief.Count, brief.Text)
		return p.planJSON(ctx, brief.Kind,
			fallbackSlides(brief.Text, templates, target),
			slidesRequest(brief, templates, target),
			func(doc any, fb domain.Plan) (domain.Plan, error) {
				return normalizeSlides(doc, fb, templates)
			})

	case domain.KindManga:
		templates := p.templates(domain.KindManga, brief.TemplateIDs)
		return p.planJSON(ctx, brief.Kind,
			fallbackManga(brief.Text, templates, brief.Vibe),
			mangaRequest(brief, templates),
			func(doc any, fb domain.Plan) (domain.Plan, error) {
				return normalizeManga(doc, fb, templates, brief.Vibe)
			})

	case domain.KindDigest:
		return p.planJSON(ctx, brief.Kind, fallbackDigest(brief.Text), digestRequest(brief), normalizeDigest)

	default:
		return domain.Fallback(genericPlan(brief), domain.ReasonParse, fmt.Sprintf("未対応のドメインです: %q", brief.Kind))
	}
}

// planThumbnail はテンプレートに沿った基本プロンプトをモデルで洗練し、バリエーションを作ります。
func (p *Planner) planThumbnail(ctx context.Context, brief domain.Brief) domain.Outcome[domain.Plan] {
	tpl := p.thumbnailTemplate(brief.TemplateIDs)
	base := fallbackThumbnailBase(brief, tpl)
	fallback := thumbnailPlan(brief, tpl, base)

	raw, degraded, ok := p.generate(ctx, brief.Kind, fallback, thumbnailRequest(brief, tpl))
	if !ok {
		return degraded
	}
	return domain.Ok(thumbnailPlan(brief, tpl, raw))
}

// planJSON は JSON を返すモデル呼び出しを行い、スキーマ検証と正規化を経てプランにします。
func (p *Planner) planJSON(ctx context.Context, kind domain.Kind, fallback domain.Plan, req domain.TextRequest, normalize normalizer) domain.Outcome[domain.Plan] {
	raw, degraded, ok := p.generate(ctx, kind, fallback, req)
	if !ok {
		return degraded
	}

	block, found := ExtractJSONBlock(raw)
	if !found {
		slog.WarnContext(ctx, "モデルの応答から JSON を取り出せなかったため代替プランを使用します",
			"kind", kind, "response", utils.TruncateRunes(raw, 200))
		return domain.Fallback(fallback, domain.ReasonParse, "応答に JSON が含まれていません")
	}

	var doc any
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		slog.WarnContext(ctx, "モデルの JSON を解析できなかったため代替プランを使用します", "kind", kind, "error", err)
		return domain.Fallback(fallback, domain.ReasonParse, err.Error())
	}

	warnings := Validate(kind, block)
	for _, w := range warnings {
		slog.WarnContext(ctx, "モデル出力がスキーマに一致しません", "kind", kind, "violation", w)
	}

	plan, err := normalize(doc, fallback)
	if err != nil {
		slog.WarnContext(ctx, "モデル出力を正規化できなかったため代替プランを使用します", "kind", kind, "error", err)
		out := domain.Fallback(fallback, domain.ReasonParse, err.Error())
		out.Warnings = warnings
		return out
	}

	out := domain.Ok(plan)
	out.Warnings = warnings
	return out
}

// generate はテキストモデルを呼び出します。続行できない場合は縮退結果と false を返します。
func (p *Planner) generate(ctx context.Context, kind domain.Kind, fallback domain.Plan, req domain.TextRequest) (string, domain.Outcome[domain.Plan], bool) {
	if p.text == nil {
		return "", domain.Fallback(fallback, domain.ReasonNoCredential, "認証情報が無いためデモ用のプランを使用します"), false
	}

	raw, err := p.text.GenerateText(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyResponse) {
			slog.WarnContext(ctx, "モデルの応答が空のため代替プランを使用します", "kind", kind)
			return "", domain.Fallback(fallback, domain.ReasonEmpty, err.Error()), false
		}
		ue := domain.ClassifyUpstream(err)
		slog.WarnContext(ctx, "プラン生成に失敗したため代替プランを使用します", "kind", kind, "category", ue.Kind, "error", err)
		return "", domain.Fallback(fallback, domain.ReasonUpstream, ue.Error()), false
	}
	if strings.TrimSpace(raw) == "" {
		slog.WarnContext(ctx, "モデルの応答が空のため代替プランを使用します", "kind", kind)
		return "", domain.Fallback(fallback, domain.ReasonEmpty, domain.ErrEmptyResponse.Error()), false
	}
	return strings.TrimSpace(raw), domain.Outcome[domain.Plan]{}, true
}

// templates は指定IDに絞ったテンプレート一覧を返します。該当が無ければ全件です。
func (p *Planner) templates(kind domain.Kind, ids []string) []catalog.Template {
	all := p.catalog.Templates(kind)
	if len(ids) == 0 {
		return all
	}
	var picked []catalog.Template
	for _, id := range ids {
		if t, ok := p.catalog.Lookup(kind, id); ok {
			picked = append(picked, t)
		}
	}
	if len(picked) == 0 {
		return all
	}
	return picked
}

func (p *Planner) thumbnailTemplate(ids []string) catalog.Template {
	for _, id := range ids {
		if t, ok := p.catalog.Thumbnail(id); ok {
			return t
		}
	}
	if ts := p.catalog.Templates(domain.KindThumbnail); len(ts) > 0 {
		return ts[0]
	}
	return catalog.Template{ID: "1", Name: "thumbnail", Structure: "bold composition"}
}

// genericPlan はブリーフ全体を1アイテムとして扱う最小のプランです。
func genericPlan(brief domain.Brief) domain.Plan {
	title := "Untitled"
	if lines := utils.NonEmptyLines(brief.Text); len(lines) > 0 {
		title = utils.TruncateRunes(lines[0], 60)
	}
	return domain.Plan{
		Kind:  brief.Kind,
		Title: title,
		Items: []domain.Item{{
			ID:         "item-1",
			TemplateID: "default",
			Title:      title,
			Prompt:     utils.FirstNonEmpty(brief.Text, title),
		}},
	}
}
