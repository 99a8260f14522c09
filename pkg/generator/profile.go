package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// StyleProfile はドメインごとの描画設定と固定の指示文です。
type StyleProfile struct {
	Kind        domain.Kind
	AspectRatio string
	// Chained が true の場合、直前に成功した画像を次のアイテムの参照にします。
	Chained bool
	// Directives はすべてのアイテムのプロンプト末尾に付ける指示です。
	Directives []string
	// ContinuityNote は直前の画像を参照に渡すときに付ける指示です。
	ContinuityNote string
	// FirstNote は連鎖の起点になるアイテムに付ける指示です。
	FirstNote string
	// TemplateLayout はテンプレートのワイヤーフレームを参照画像として渡すかどうかです。
	TemplateLayout bool
}

var profiles = map[domain.Kind]StyleProfile{
	domain.KindThumbnail: {
		Kind:        domain.KindThumbnail,
		AspectRatio: "16:9",
	},
	domain.KindLP: {
		Kind:        domain.KindLP,
		AspectRatio: "9:16",
		Chained:     true,
		Directives: []string{
			"Design a full landing page slice from top padding to bottom divider, vertical 9:16 frame, layered UI mockups, premium typography, gradients, soft shadows",
			"Show entire section composition ready to be stacked with others",
		},
		ContinuityNote: "Ensure seamless visual continuity with the previous section reference image.",
	},
	domain.KindSlides: {
		Kind:        domain.KindSlides,
		AspectRatio: "16:9",
		Chained:     true,
		Directives: []string{
			"Use the provided template reference ONLY for layout/structure, not for colors.",
			"16:9 presentation slide, clean margins, modern Japanese typography, no watermark, export-ready.",
		},
		ContinuityNote: "Match palette, typography, and characters to the previous slide reference image for continuity.",
		FirstNote:      "Establish the base palette and hero look on this first slide.",
		TemplateLayout: true,
	},
	domain.KindManga: {
		Kind:        domain.KindManga,
		AspectRatio: "3:4",
		Chained:     true,
		Directives: []string{
			"Vertical framing for scrolling LP manga, keep gutters clean and allow room for speech bubbles.",
			"Include speech bubbles with Japanese text, keep characters consistent through the sequence.",
		},
		ContinuityNote: "Align characters, outfit, and colors with the previous panel reference.",
		TemplateLayout: true,
	},
	domain.KindDigest: {
		Kind:        domain.KindDigest,
		AspectRatio: "16:9",
		Directives: []string{
			"Style: clean infographic, bold Japanese typography, icons per bullet, blue and white palette (#3181FC base), soft gradients.",
		},
	},
}

// ProfileFor はドメインのスタイルプロファイルを返します。未知のドメインは連鎖なしの 1:1 です。
func ProfileFor(kind domain.Kind) StyleProfile {
	if p, ok := profiles[kind]; ok {
		return p
	}
	return StyleProfile{Kind: kind, AspectRatio: "1:1"}
}

var localeNames = map[string]string{
	"ja": "Japanese",
	"en": "English",
	"zh": "Chinese",
	"ko": "Korean",
}

// LocaleDirective は画像内の文字を指定言語に固定する指示文を返します。
func LocaleDirective(locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if lang == "" {
		lang = DefaultLocale
	}
	if name, ok := localeNames[lang]; ok {
		lang = name
	}
	return fmt.Sprintf("IMPORTANT: All text content displayed within the generated image must be in %s. "+
		"This includes titles, labels, captions, CTA buttons, and any other text elements. "+
		"Only tool names or technical terms that are commonly used in English (like 'YouTube', 'Instagram', etc.) may remain in English if necessary.", lang)
}
