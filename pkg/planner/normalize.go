package planner

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"
)

const (
	maxPalette      = 5
	maxSlideBody    = 5
	maxKeywords     = 6
	maxMangaKeyword = 6
)

var mangaPhaseNames = []string{"intro", "rise", "fall", "climax", "resolution"}

// field はキー候補のうち最初に見つかった空でない文字列値を返します。
// 数値は文字列に変換します。
func field(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// lines は配列または区切り文字入りの文字列を最大 limit 件の行に変換します。
func lines(v any, seps string, limit int) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			var s string
			switch ev := e.(type) {
			case string:
				s = strings.TrimSpace(ev)
			case nil:
			default:
				s = strings.TrimSpace(fmt.Sprint(ev))
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case string:
		if seps == "" {
			return nil
		}
		out = utils.SplitAny(t, seps)
	}
	return utils.Limit(out, limit)
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asObjects(v any) []map[string]any {
	arr, _ := v.([]any)
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		} else {
			out = append(out, map[string]any{})
		}
	}
	return out
}

// normalizeLP はLPプランの候補を正規化します。欠けた項目は同じ位置（なければ最後）の代替セクションで補います。
func normalizeLP(doc any, fallback domain.Plan) (domain.Plan, error) {
	m, ok := asObject(doc)
	if !ok {
		return fallback, fmt.Errorf("LPプランが JSON オブジェクトではありません")
	}

	plan := fallback
	plan.Theme = utils.FirstNonEmpty(field(m, "theme"), fallback.Theme)
	plan.Tone = utils.FirstNonEmpty(field(m, "tone"), fallback.Tone)
	if palette := lines(m["palette"], "", maxPalette); len(palette) > 0 {
		plan.Palette = palette
	}

	sections := asObjects(m["sections"])
	if len(sections) == 0 {
		return plan, nil
	}

	items := make([]domain.Item, len(sections))
	for i, s := range sections {
		fb := fallback.Items[min(i, len(fallback.Items)-1)]
		idSource := utils.FirstNonEmpty(field(s, "id", "slug", "title"), fmt.Sprintf("section-%d", i))
		items[i] = domain.Item{
			ID:          utils.ToSlug(idSource, fmt.Sprintf("section-%d", i+1)),
			TemplateID:  lpTemplateID,
			Title:       utils.FirstNonEmpty(field(s, "title"), fb.Title),
			Goal:        utils.FirstNonEmpty(field(s, "goal", "purpose"), fb.Goal),
			VisualStyle: utils.FirstNonEmpty(field(s, "visualStyle", "style"), fb.VisualStyle),
			Prompt:      utils.FirstNonEmpty(field(s, "prompt", "visualPrompt"), fb.Prompt),
			Copy:        utils.FirstNonEmpty(field(s, "copy", "headline"), fb.Copy),
			CTA:         utils.FirstNonEmpty(field(s, "cta"), fb.CTA),
		}
	}
	plan.Items = items
	return plan, nil
}

// normalizeSlides はスライド配列の候補を正規化します。未知のテンプレートIDは先頭テンプレートに置き換えます。
func normalizeSlides(doc any, fallback domain.Plan, templates []catalog.Template) (domain.Plan, error) {
	arr, ok := doc.([]any)
	if !ok {
		// {"slides": [...]} で返すモデルもある
		if m, isObj := asObject(doc); isObj {
			arr, ok = m["slides"].([]any)
		}
	}
	if !ok {
		return fallback, fmt.Errorf("スライドプランが JSON 配列ではありません")
	}
	if len(arr) == 0 {
		return fallback, nil
	}

	ids := templateIDs(templates)
	defaultTemplate := "intro"
	if len(ids) > 0 {
		defaultTemplate = ids[0]
	}

	items := make([]domain.Item, 0, len(arr))
	for i, s := range asObjects(arr) {
		templateID := field(s, "templateId", "template", "layout")
		if !slices.Contains(ids, templateID) {
			templateID = defaultTemplate
		}
		item := domain.Item{
			ID:         utils.ToSlug(field(s, "id"), fmt.Sprintf("slide-%d", i+1)),
			TemplateID: templateID,
			Title:      utils.FirstNonEmpty(field(s, "title"), fmt.Sprintf("スライド %d", i+1)),
			Body:       lines(s["body"], "\n、。", maxSlideBody),
			Notes:      field(s, "notes"),
			Tone:       field(s, "tone"),
			Emphasis:   field(s, "emphasis"),
			CTA:        field(s, "cta"),
			CarryOver:  field(s, "carryOver"),
			Keywords:   lines(s["keywords"], "", maxKeywords),
		}
		item.Prompt = slidePrompt(item)
		items = append(items, item)
	}

	plan := fallback
	plan.Title = items[0].Title
	plan.Items = items
	return plan, nil
}

// normalizeManga は漫画ストーリーの候補を正規化します。
func normalizeManga(doc any, fallback domain.Plan, templates []catalog.Template, extraStyle string) (domain.Plan, error) {
	m, ok := asObject(doc)
	if !ok {
		return fallback, fmt.Errorf("漫画プランが JSON オブジェクトではありません")
	}

	plan := fallback
	plan.Title = utils.FirstNonEmpty(field(m, "title"), fallback.Title)
	plan.Theme = utils.FirstNonEmpty(field(m, "theme"), fallback.Theme)

	chars := *fallback.Characters
	if c, ok := asObject(m["characters"]); ok {
		chars.Protagonist = utils.FirstNonEmpty(field(c, "protagonist"), chars.Protagonist)
		if style := field(c, "style"); style != "" {
			chars.Style = withExtraStyle(style, extraStyle)
		}
	}
	plan.Characters = &chars

	panels := asObjects(m["panels"])
	if len(panels) == 0 {
		return plan, nil
	}

	ids := templateIDs(templates)
	if len(ids) == 0 {
		ids = defaultMangaTemplateIDs
	}

	items := make([]domain.Item, len(panels))
	for i, p := range panels {
		templateID := field(p, "templateId", "template", "layout")
		if !slices.Contains(ids, templateID) {
			templateID = ids[i%len(ids)]
		}
		phase := field(p, "narrativePhase", "phase")
		if !slices.Contains(mangaPhaseNames, phase) {
			phase = "intro"
			if i < len(mangaPhaseNames) {
				phase = mangaPhaseNames[i]
			}
		}
		keywords := lines(p["visualKeywords"], ",、\n", maxMangaKeyword)
		if len(keywords) == 0 {
			keywords = lines(p["keywords"], ",、\n", maxMangaKeyword)
		}
		if len(keywords) == 0 {
			keywords = []string{"dramatic lighting", "inked style", "high contrast"}
		}

		items[i] = domain.Item{
			ID:             utils.ToSlug(field(p, "id"), fmt.Sprintf("panel-%d", i+1)),
			TemplateID:     templateID,
			Title:          utils.FirstNonEmpty(field(p, "title"), fmt.Sprintf("パネル %d", i+1)),
			NarrativePhase: phase,
			Prompt:         utils.FirstNonEmpty(field(p, "description", "prompt"), "感情を大きく描写するシーン。"),
			Dialogue:       utils.FirstNonEmpty(field(p, "dialogue"), "「ここから逆転する！」"),
			Narration:      utils.FirstNonEmpty(field(p, "narration"), "運命が少しだけ動き始めた。"),
			Tone:           utils.FirstNonEmpty(field(p, "tone"), "決意"),
			Keywords:       keywords,
		}
	}
	plan.Items = items
	return plan, nil
}

// normalizeDigest は要約 JSON を1枚のインフォグラフィックプランに変換します。
func normalizeDigest(doc any, fallback domain.Plan) (domain.Plan, error) {
	m, ok := asObject(doc)
	if !ok {
		return fallback, fmt.Errorf("要約が JSON オブジェクトではありません")
	}
	fb := fallback.Items[0]
	headline := utils.FirstNonEmpty(field(m, "headline", "title"), fb.Title)
	bullets := lines(m["lessons"], "", 5)
	if len(bullets) == 0 {
		bullets = fb.Body
	}
	base := utils.FirstNonEmpty(field(m, "image_prompt", "imagePrompt"), InfographicPrompt(headline, ""))

	plan := fallback
	plan.Title = headline
	plan.Theme = field(m, "summary")
	plan.Items = []domain.Item{digestItem(headline, bullets, base)}
	return plan, nil
}

func templateIDs(templates []catalog.Template) []string {
	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	return ids
}

// uniqueIDs は重複したアイテムIDに連番の接尾辞を付けます。
func uniqueIDs(items []domain.Item) {
	used := make(map[string]bool, len(items))
	for i := range items {
		id := items[i].ID
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s-%d", items[i].ID, n)
		}
		used[id] = true
		items[i].ID = id
	}
}
