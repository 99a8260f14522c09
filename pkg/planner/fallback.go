package planner

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"
)

const (
	// DefaultThumbnailCount はサムネイルのバリエーション数の既定値です。
	DefaultThumbnailCount = 2
	// MaxThumbnailCount はサムネイルのバリエーション数の上限です。
	MaxThumbnailCount = 8
	// DefaultSlideCount はアウトラインが空のときのスライド枚数です。
	DefaultSlideCount = 6

	minSlides = 3
	maxSlides = 10

	lpBasePrompt = "High fidelity landing page section mockup, layered cards, neumorphic shadows, glassmorphic highlights, " +
		"premium typography, 9:16 vertical canvas, cinematic gradient background, responsive web UI"
	lpTemplateID     = "section"
	digestTemplateID = "infographic"
)

// fallbackLP はブリーフの1行目を見出しにした5セクション構成のLPプランを作ります。
func fallbackLP(text string) domain.Plan {
	lines := utils.NonEmptyLines(text)
	headline := "新しいプロダクト"
	if len(lines) > 0 {
		headline = lines[0]
	}
	detail := headline
	if len(lines) > 1 {
		detail = utils.FirstNonEmpty(utils.TruncateRunes(strings.Join(lines[1:], " "), 140), headline)
	}

	section := func(id, title, goal, style, layout, copyText, cta string) domain.Item {
		return domain.Item{
			ID:          id,
			TemplateID:  lpTemplateID,
			Title:       title,
			Goal:        goal,
			VisualStyle: style,
			Prompt:      fmt.Sprintf("%s | %s for %s | %s | %s", lpBasePrompt, layout, headline, layoutDetail[id], JapaneseTextInstruction),
			Copy:        copyText,
			CTA:         cta,
		}
	}

	return domain.Plan{
		Kind:    domain.KindLP,
		Title:   headline,
		Theme:   headline + " LP",
		Tone:    "信頼感があり前向きなトーン",
		Palette: []string{"#0EA5E9", "#F97316", "#0F172A", "#FDE68A"},
		Items: []domain.Item{
			section("hero", "ヒーローセクション", "ファーストビューで価値とCTAを明確に伝える",
				"Floating device mockups, strong hero typography, gradient sky, subtle grid, top navigation",
				"HERO layout", headline, "今すぐ始める"),
			section("problem", "課題提起", "ターゲットが抱える課題・痛みを整理し共感を得る",
				"Split cards highlighting pain points, muted background, highlighted warning tags",
				"PROBLEM section", detail, ""),
			section("solution", "ソリューション & 価値訴求", "サービスの仕組みとベネフィットを段階的に説明する",
				"Step-by-step flow with arrows, glowing highlight behind main panel, clean white cards",
				"SOLUTION section", "3ステップで成果を実現", ""),
			section("proof", "証拠 / 社会的証明", "導入実績や声を示し信頼を強化する",
				"Testimonial cards, avatar chips, rating stars, press logos, soft shadows",
				"SOCIAL PROOF section", "導入企業・ユーザーの声", ""),
			section("cta", "クローズ / CTA", "最後の後押しとコンバージョン行動を促す",
				"Bold centered CTA card, contrasting gradient background, floating sparkles",
				"CTA section", "今すぐ無料で試す", "無料で試す"),
		},
	}
}

var layoutDetail = map[string]string{
	"hero":     "show oversized headline text, CTA pill buttons, product screenshot frames, ambient light",
	"problem":  "stack cards describing pains, use contrasting warning colors, include caption icons",
	"solution": "illustrate 3-step workflow with arrows, include UI overlays and benefit callouts",
	"proof":    "grid of testimonials, avatars, 5-star badges, featured logos",
	"cta":      "centered big CTA card, countdown badge, supportive text, background gradient",
}

// slideCount は要求枚数を [3, 10] に丸めます。
// 0 以下ならアウトラインの文の数から決めます。
func slideCount(target int, text string) int {
	if target <= 0 {
		target = len(outlineSentences(text))
		if target == 0 {
			target = DefaultSlideCount
		}
	}
	return utils.Clamp(target, minSlides, maxSlides)
}

func outlineSentences(text string) []string {
	return utils.SplitAny(text, "\n\r。")
}

// fallbackSlides はアウトラインを文単位に分け、均等に各スライドへ割り振ります。
func fallbackSlides(text string, templates []catalog.Template, target int) domain.Plan {
	count := slideCount(target, text)
	sentences := outlineSentences(text)
	chunkSize := max(1, (len(sentences)+count-1)/count)

	items := make([]domain.Item, 0, count)
	for i := range count {
		lo := min(i*chunkSize, len(sentences))
		hi := min((i+1)*chunkSize, len(sentences))
		chunk := sentences[lo:hi]

		templateID := "intro"
		if len(templates) > 0 {
			templateID = templates[min(i, len(templates)-1)].ID
		}

		item := domain.Item{
			ID:         fmt.Sprintf("fallback-%d", i+1),
			TemplateID: templateID,
			Title:      fmt.Sprintf("スライド %d", i+1),
			Tone:       "落ち着いたトーン",
		}
		if len(chunk) > 0 {
			item.Title = chunk[0]
			item.Emphasis = chunk[0]
			item.Body = utils.Limit(chunk[1:], 4)
		}
		if i == 0 {
			item.Notes = "ブランドやテーマカラーを決める冒頭スライド"
			item.CarryOver = "最初のスライドで決めた色味・人物・アイコンを次のスライドでも踏襲"
		}
		item.Prompt = slidePrompt(item)
		items = append(items, item)
	}
	items[len(items)-1].CTA = "次のアクションを明示"

	return domain.Plan{
		Kind:  domain.KindSlides,
		Title: items[0].Title,
		Items: items,
	}
}

// slidePrompt はスライドの描画内容の要約を作ります。
func slidePrompt(item domain.Item) string {
	return utils.FirstNonEmpty(item.Notes, item.Emphasis, item.Title)
}

type mangaPhase struct {
	phase    string
	desc     string
	tone     string
	dialogue string
}

var mangaPhases = []mangaPhase{
	{"intro", "極貧で苦しむ主人公が小さな希望を探す。", "絶望", "「もう後がない…」"},
	{"rise", "ある思想や出会いで光を掴み必死に挑戦を始める。", "希望", "「これが突破口になるかもしれない！」"},
	{"climax", "一度成功し、世界が一変するが慢心や外部要因で崩れ始める。", "高揚", "「やっとここまで来た…！」"},
	{"fall", "大きな挫折。仲間も去り、孤独に沈む。", "絶望", "「全部失ったのか…？」"},
	{"resolution", "傷を抱えたままもう一度立ち上がり、自分らしい成功を掴む。", "再起", "「次は嘘のない自分で勝つ」"},
}

var defaultMangaTemplateIDs = []string{"hero-single", "duo-contrast", "quad-progress", "dialogue-focus", "background-mood"}

// fallbackManga は起承転結の5パネル構成の漫画プランを作ります。
func fallbackManga(text string, templates []catalog.Template, extraStyle string) domain.Plan {
	headline := "逆転ストーリー"
	if lines := utils.NonEmptyLines(text); len(lines) > 0 {
		headline = lines[0]
	}

	pool := defaultMangaTemplateIDs
	if len(templates) > 0 {
		pool = make([]string, len(templates))
		for i, t := range templates {
			pool[i] = t.ID
		}
	}

	items := make([]domain.Item, len(mangaPhases))
	for i, p := range mangaPhases {
		items[i] = domain.Item{
			ID:             fmt.Sprintf("panel-%d", i+1),
			TemplateID:     pool[i%len(pool)],
			Title:          fmt.Sprintf("パネル %d", i+1),
			NarrativePhase: p.phase,
			Prompt:         fmt.Sprintf("%s (%s)", p.desc, headline),
			Dialogue:       p.dialogue,
			Narration:      p.desc,
			Tone:           p.tone,
			Keywords:       []string{"cinematic shading", "emotive close up", "consistent character"},
		}
	}

	return domain.Plan{
		Kind:  domain.KindManga,
		Title: headline + "の物語",
		Theme: "貧困からの逆転劇",
		Characters: &domain.Characters{
			Protagonist: "貧しさから這い上がる主人公",
			Style:       withExtraStyle("劇画風で力強いタッチ", extraStyle),
		},
		Items: items,
	}
}

func withExtraStyle(style, extra string) string {
	if extra = strings.TrimSpace(extra); extra != "" {
		return style + ", " + extra
	}
	return style
}

// thumbnailCount はバリエーション数を [1, 8] に丸めます。0 以下は既定値です。
func thumbnailCount(n int) int {
	if n <= 0 {
		return DefaultThumbnailCount
	}
	return utils.Clamp(n, 1, MaxThumbnailCount)
}

// fallbackThumbnailBase はテンプレートと入力を連結した基本プロンプトを作ります。
func fallbackThumbnailBase(brief domain.Brief, tpl catalog.Template) string {
	refLine := "No reference images provided."
	if refs := referenceInfo(brief.References); len(refs) > 0 {
		refLine = "Reference images: " + strings.Join(refs, ", ")
	}
	return strings.Join([]string{
		"Template: " + tpl.Name,
		"Structure: " + tpl.Structure,
		"User text: " + brief.Text,
		"Color/Vibe: " + vibeOrFree(brief.Vibe),
		refLine,
		"add: 8k, high resolution, cinematic light, bold typography, trending on artstation",
		JapaneseTextInstruction,
	}, " | ")
}

// thumbnailPlan は1つの基本プロンプトから Count 件のバリエーションを作ります。
func thumbnailPlan(brief domain.Brief, tpl catalog.Template, base string) domain.Plan {
	title := utils.FirstNonEmpty(brief.Text, "thumbnail")
	count := thumbnailCount(brief.Count)

	items := make([]domain.Item, count)
	for i := range count {
		items[i] = domain.Item{
			ID:         fmt.Sprintf("variation-%d", i+1),
			TemplateID: tpl.ID,
			Title:      fmt.Sprintf("%s #%d", utils.TruncateRunes(title, 40), i+1),
			Prompt:     fmt.Sprintf("%s | focus: %s | variation %d", base, tpl.PromptFocus, i+1),
		}
	}
	return domain.Plan{
		Kind:  domain.KindThumbnail,
		Title: title,
		Items: items,
	}
}

// InfographicPrompt は学習用インフォグラフィックの基本プロンプトを組み立てます。
func InfographicPrompt(headline, dateLabel string) string {
	parts := []string{
		"Learning infographic, Japanese text only, clean grid layout, bold headline, 4-5 concise bullet chips, icons for each bullet",
		"Color: #3181FC primary with white background, subtle glassmorphism and soft shadow cards",
		"Aspect ratio 16:9, high resolution, crisp typography, minimal clutter",
		"Headline in Japanese: " + headline,
	}
	if dateLabel != "" {
		parts = append(parts, "Insert date label "+dateLabel)
	}
	parts = append(parts, "Readable font weight, prioritize clarity over decoration")
	return strings.Join(parts, " | ")
}

// fallbackDigest はメモの1行目を見出し、残りを要点にした1枚のインフォグラフィックプランを作ります。
func fallbackDigest(text string) domain.Plan {
	lines := utils.NonEmptyLines(text)
	headline := "学びダイジェスト"
	if len(lines) > 0 {
		headline = utils.TruncateRunes(lines[0], 60)
	}
	var bullets []string
	if len(lines) > 1 {
		bullets = utils.Limit(lines[1:], 5)
	}
	return domain.Plan{
		Kind:  domain.KindDigest,
		Title: headline,
		Items: []domain.Item{digestItem(headline, bullets, InfographicPrompt(headline, ""))},
	}
}

func digestItem(headline string, bullets []string, prompt string) domain.Item {
	if len(bullets) > 0 {
		prompt += " | Key bullets: " + strings.Join(bullets, " / ")
	}
	return domain.Item{
		ID:         "digest",
		TemplateID: digestTemplateID,
		Title:      headline,
		Body:       bullets,
		Prompt:     prompt,
	}
}
