package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"
)

const localeMarker = "All text content displayed within the generated image must be in"

// PromptInput は1アイテムのプロンプト組み立てに必要な情報です。
type PromptInput struct {
	Plan        *domain.Plan
	Index       int
	HasPrevious bool
	References  domain.References
	Template    *catalog.Template
	ExtraStyle  string
	Locale      string
}

// BuildPrompt はアイテムの内容、ドメインの固定指示、継続性の注記、参照画像の注記、
// 言語指定を " | " 区切りで連結した描画プロンプトを作ります。
func BuildPrompt(in PromptInput) string {
	plan := in.Plan
	item := plan.Items[in.Index]
	profile := ProfileFor(plan.Kind)

	var cues []string
	switch plan.Kind {
	case domain.KindLP:
		cues = lpCues(plan, item)
	case domain.KindSlides:
		cues = slideCues(item, in.Template, in.Index, len(plan.Items))
	case domain.KindManga:
		cues = mangaCues(plan, item, in.Template, in.Index, len(plan.Items), in.ExtraStyle)
	case domain.KindThumbnail, domain.KindDigest:
		cues = []string{item.Prompt}
	default:
		cues = []string{item.Title, item.Prompt}
	}

	if profile.Chained {
		if in.HasPrevious {
			cues = append(cues, profile.ContinuityNote)
		} else {
			cues = append(cues, profile.FirstNote)
		}
	}
	cues = append(cues, profile.Directives...)
	cues = append(cues, referenceNotes(in.References)...)

	if profile.Chained && strings.TrimSpace(plan.Brief) != "" {
		cues = append(cues, "Reference brief: "+utils.TruncateRunes(strings.TrimSpace(plan.Brief), briefExcerptLength))
	}

	prompt := joinCues(cues)
	if !strings.Contains(prompt, localeMarker) {
		prompt = joinCues([]string{prompt, LocaleDirective(in.Locale)})
	}
	return prompt
}

func lpCues(plan *domain.Plan, item domain.Item) []string {
	return []string{
		"Section: " + item.Title,
		item.Prompt,
		labeled("Visual style", item.VisualStyle),
		labeled("Goal", item.Goal),
		labeled("Brand theme", plan.Theme),
		labeled("Tone", plan.Tone),
		labeled("Palette", strings.Join(plan.Palette, ", ")),
		labeled("Key copy", item.Copy),
		labeled("CTA", item.CTA),
	}
}

func slideCues(item domain.Item, tpl *catalog.Template, index, total int) []string {
	var layout string
	if tpl != nil {
		layout = fmt.Sprintf("Slide %d/%d: %s layout (%s)", index+1, total, tpl.Name, tpl.Structure)
	} else {
		layout = fmt.Sprintf("Slide %d/%d", index+1, total)
	}
	cues := []string{
		layout,
		labeled("Headline", item.Title),
		labeled("Emphasize", item.Emphasis),
		labeled("Body lines", strings.Join(item.Body, " | ")),
		labeled("CTA", item.CTA),
		labeled("Tone", item.Tone),
		labeled("Visual notes", item.Notes),
		labeled("Consistency note", item.CarryOver),
		labeled("Style keywords", strings.Join(item.Keywords, ", ")),
	}
	if item.Notes == "" && item.Prompt != item.Title && item.Prompt != item.Emphasis {
		cues = append(cues, labeled("Visual notes", item.Prompt))
	}
	return cues
}

func mangaCues(plan *domain.Plan, item domain.Item, tpl *catalog.Template, index, total int, extraStyle string) []string {
	var protagonist, style string
	if plan.Characters != nil {
		protagonist = plan.Characters.Protagonist
		style = plan.Characters.Style
	}
	if extraStyle = strings.TrimSpace(extraStyle); extraStyle != "" && !strings.Contains(style, extraStyle) {
		style = strings.TrimPrefix(style+", "+extraStyle, ", ")
	}

	cues := []string{
		fmt.Sprintf("Manga LP panel %d of %d (%s)", index+1, total, utils.FirstNonEmpty(item.NarrativePhase, "intro")),
		labeled("Story", plan.Title),
		labeled("Theme", plan.Theme),
		labeled("Protagonist", protagonist),
		labeled("Art style", style),
	}
	if tpl != nil {
		cues = append(cues, fmt.Sprintf("Follow layout template %q (%s)", tpl.Name, tpl.Structure))
	}
	return append(cues,
		labeled("Scene description", item.Prompt),
		labeled("Dialogue (speech bubble)", item.Dialogue),
		labeled("Narration (on-page text)", item.Narration),
		labeled("Emotional tone", item.Tone),
		labeled("Style keywords", strings.Join(item.Keywords, ", ")),
	)
}

// referenceNotes はアップロードされた固定参照画像ごとの注記を返します。
func referenceNotes(refs domain.References) []string {
	var notes []string
	if refs.Main != "" {
		notes = append(notes, "Align composition with the main reference image.")
	}
	if refs.Color != "" {
		notes = append(notes, "Respect the uploaded color palette reference for tones and gradients.")
	}
	if refs.Face != "" {
		notes = append(notes, "Keep spokesperson/face icon consistent with uploaded reference.")
	}
	if refs.Layout != "" {
		notes = append(notes, "Follow the uploaded layout reference for structure only.")
	}
	return notes
}

func labeled(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + ": " + value
}

func joinCues(cues []string) string {
	kept := make([]string, 0, len(cues))
	for _, c := range cues {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " | ")
}
