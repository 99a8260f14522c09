package generator

import (
	"strings"
	"testing"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("LP はセクション情報と継続性の注記を含むのだ", func(t *testing.T) {
		plan := domain.Plan{
			Kind:  domain.KindLP,
			Theme: "信頼",
			Brief: strings.Repeat("あ", 300),
			Items: []domain.Item{
				{ID: "hero", Title: "ヒーロー", Prompt: "hero prompt", Goal: "価値を伝える", CTA: "今すぐ"},
				{ID: "cta", Title: "CTA", Prompt: "cta prompt"},
			},
		}

		first := BuildPrompt(PromptInput{Plan: &plan, Index: 0, References: domain.References{Color: "c", Face: "f"}})
		assert.True(t, strings.HasPrefix(first, "Section: ヒーロー | hero prompt"))
		assert.Contains(t, first, "Goal: 価値を伝える")
		assert.Contains(t, first, "Brand theme: 信頼")
		assert.Contains(t, first, "CTA: 今すぐ")
		assert.Contains(t, first, "Respect the uploaded color palette reference")
		assert.Contains(t, first, "Keep spokesperson/face icon consistent")
		assert.NotContains(t, first, "previous section")
		assert.Contains(t, first, "Reference brief: "+strings.Repeat("あ", briefExcerptLength)+" |")
		assert.True(t, strings.HasSuffix(first, LocaleDirective("ja")))

		second := BuildPrompt(PromptInput{Plan: &plan, Index: 1, HasPrevious: true})
		assert.Contains(t, second, "Ensure seamless visual continuity with the previous section reference image.")
	})

	t.Run("スライドの起点には基調を決める注記", func(t *testing.T) {
		plan := domain.Plan{Kind: domain.KindSlides, Items: []domain.Item{
			{ID: "1", Title: "はじめに", Body: []string{"a", "b"}, CarryOver: "青い鳥を踏襲", Prompt: "はじめに"},
		}}
		tpl := catalog.Template{Name: "イントロ", Structure: "left"}
		got := BuildPrompt(PromptInput{Plan: &plan, Index: 0, Template: &tpl})
		assert.Contains(t, got, "Slide 1/1: イントロ layout (left)")
		assert.Contains(t, got, "Body lines: a | b")
		assert.Contains(t, got, "Consistency note: 青い鳥を踏襲")
		assert.Contains(t, got, "Establish the base palette and hero look on this first slide.")
		assert.NotContains(t, got, "Visual notes")
	})

	t.Run("漫画は登場人物と追加の画風を含む", func(t *testing.T) {
		plan := domain.Plan{
			Kind:       domain.KindManga,
			Title:      "再起",
			Characters: &domain.Characters{Protagonist: "職人", Style: "劇画"},
			Items:      []domain.Item{{ID: "p1", Prompt: "工場", Dialogue: "「やるぞ」", NarrativePhase: "rise"}},
		}
		got := BuildPrompt(PromptInput{Plan: &plan, Index: 0, ExtraStyle: "水彩"})
		assert.Contains(t, got, "Manga LP panel 1 of 1 (rise)")
		assert.Contains(t, got, "Protagonist: 職人")
		assert.Contains(t, got, "Art style: 劇画, 水彩")
		assert.Contains(t, got, "Scene description: 工場")
	})

	t.Run("言語指定はすでに含まれていれば重ねない", func(t *testing.T) {
		plan := domain.Plan{Kind: domain.KindThumbnail, Items: []domain.Item{{ID: "v1", Prompt: "base | " + LocaleDirective("ja")}}}
		got := BuildPrompt(PromptInput{Plan: &plan, Index: 0})
		assert.Equal(t, 1, strings.Count(got, localeMarker))
	})

	t.Run("ロケールを切り替えられる", func(t *testing.T) {
		plan := domain.Plan{Kind: domain.KindDigest, Items: []domain.Item{{ID: "d", Prompt: "infographic"}}}
		got := BuildPrompt(PromptInput{Plan: &plan, Index: 0, Locale: "en"})
		assert.Contains(t, got, "must be in English")
		assert.Contains(t, got, "#3181FC")
	})
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		kind    domain.Kind
		aspect  string
		chained bool
	}{
		{domain.KindThumbnail, "16:9", false},
		{domain.KindLP, "9:16", true},
		{domain.KindSlides, "16:9", true},
		{domain.KindManga, "3:4", true},
		{domain.KindDigest, "16:9", false},
		{"other", "1:1", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p := ProfileFor(tt.kind)
			assert.Equal(t, tt.aspect, p.AspectRatio)
			assert.Equal(t, tt.chained, p.Chained)
			assert.Equal(t, tt.kind.Chained(), p.Chained)
		})
	}
}
