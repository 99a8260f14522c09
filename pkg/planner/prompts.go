package planner

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"
)

const (
	maxLPBrief     = 6000
	maxSlideSource = 6000
	maxMangaBrief  = 4000
	maxDigestNotes = 20000
)

// JapaneseTextInstruction は画像内の文字を日本語に固定する指示文です。
const JapaneseTextInstruction = "IMPORTANT: All text content displayed within the generated image must be in Japanese. " +
	"This includes titles, labels, captions, CTA buttons, and any other text elements. " +
	"Only tool names or technical terms that are commonly used in English (like 'YouTube', 'Instagram', etc.) may remain in English if necessary."

const thumbnailSystemPrompt = `You are an expert AI Prompt Engineer for the "NanoBanana" image generation model.
Your task is to convert the user's request into a highly optimized English prompt for generating a YouTube thumbnail.

Instructions:
1. Follow the provided template structure strictly.
2. Add strong visual keywords (8k, ultra sharp, cinematic lighting, trending on artstation).
3. If reference image exists, mention to align composition with it.
4. IMPORTANT: All text content displayed within the generated image must be in Japanese. This includes titles, labels, captions, and any other text elements. Only tool names or technical terms that are commonly used in English (like "YouTube", "Instagram", etc.) may remain in English if necessary.
5. Output ONLY the final prompt string.`

const lpPlanPrompt = `You are a bilingual (Japanese + English) conversion-focused landing page planner.
Analyze the provided LP brief and output ONLY valid JSON (no markdown fences) that follows this schema:
{
  "theme": "overall visual direction in Japanese",
  "tone": "copy tone and mood in Japanese",
  "palette": ["up to five color hex codes or color names"],
  "sections": [
    {
      "id": "kebab-case identifier",
      "title": "section title in Japanese",
      "goal": "section goal in Japanese",
      "visualStyle": "description in English for composition/layout",
      "prompt": "English visual prompt for NanoBanana/Gemini image generation",
      "copy": "key copy or hook in Japanese",
      "cta": "call to action label in Japanese (optional, empty string ok)"
    }
  ]
}
Constraints:
- Return 10-15 sections to fully cover the detailed structure of the provided brief.
- First section must be a hero, last one a CTA/closing.
- The prompt should mention layout elements (UI mockups, typography, etc.) and 9:16 vertical scrolling frame.
- IMPORTANT: In the "prompt" field, explicitly instruct that all text content displayed within the generated image must be in Japanese. This includes titles, labels, captions, CTA buttons, and any other text elements. Only tool names or technical terms that are commonly used in English (like "YouTube", "Instagram", etc.) may remain in English if necessary.
- Use concise UTF-8 text, no markdown, no explanations.`

const slidePlanPrompt = `You are a presentation slide planner for a NanoBanana (Gemini image) workflow.
Convert the pasted outline into ONLY a JSON array (no markdown fences) following this schema:
[
  {
    "id": 1,
    "templateId": "intro",
    "title": "Japanese headline",
    "body": ["Japanese bullet or line", "another line"],
    "notes": "Japanese description of what to depict",
    "tone": "Japanese tone keywords",
    "emphasis": "Japanese text to enlarge",
    "cta": "Japanese CTA label or empty string",
    "carryOver": "Japanese note describing characters/colors to keep consistent in the next slide",
    "keywords": ["English visual keywords for style/lighting"]
  }
]
Rules:
- Use only the provided templateId options.
- Keep bullet body to 2-4 lines, concise, Japanese.
- Respect TARGET_SLIDE_COUNT (±1) and keep narrative order: opening -> core points -> examples/proof -> closing/CTA.
- First slide should anchor the motif (character/color/icon) and mention it in carryOver for downstream consistency.
- No markdown, no extra text outside the JSON array.`

const mangaStoryPrompt = `You are a manga landing page planner who breaks a provided brief into panel-level instructions.
Return ONLY a JSON object (no markdown fences) that follows this schema:
{
  "title": "series or story title in Japanese",
  "theme": "overall theme in Japanese",
  "characters": {
    "protagonist": "main character description in Japanese",
    "style": "art style or visual look in Japanese"
  },
  "panels": [
    {
      "id": "kebab or numeric id",
      "templateId": "one of the provided template ids",
      "narrativePhase": "intro|rise|fall|climax|resolution",
      "description": "what to draw in this panel (Japanese)",
      "dialogue": "speech bubble text in Japanese",
      "narration": "narration in Japanese",
      "tone": "emotional tone such as 希望/絶望/決意/安堵",
      "visualKeywords": ["English style/lighting keywords"]
    }
  ]
}
Story constraints:
- Emotion should swing like a roller coaster: desperate poverty or struggle -> breakthrough discovery -> first success -> setback/failure -> recovery with scars -> final hopeful momentum.
- Keep protagonist appearance and color motif consistent across panels; mention carry-over cues in narration if needed.
- Prioritize Japanese text for dialogue/narration; English only for style keywords.`

const digestPlanPrompt = `あなたは知識整理と学習支援に特化した編集者です。
以下のメモから学びにフォーカスした要約を作成してください。

必ず以下のJSON形式のみで出力してください（マークダウン禁止）:
{
  "headline": "学びが伝わる日本語のタイトル",
  "summary": "全体像を80-140字で要約",
  "lessons": ["学習・気づき・再現性のあるノウハウを3-6件、日本語"],
  "image_prompt": "上記をもとに日本語テキスト入りの学習用インフォグラフィックを作るための英語プロンプト。構図やアイコン、色（#3181FC基調）、日本語テキスト指定を明記。"
}

重視すること:
- 学び・再現性・気づきに絞り、日常雑談は除外
- 重複はまとめ、具体的な名詞を優先
- すべてのテキストは日本語。image_prompt内での生成指示は英語で書き、画像内に表示する文字が日本語になるよう明記`

// templateGuide はモデルに渡すテンプレート一覧を "- id: name | structure" 形式で組み立てます。
func templateGuide(templates []catalog.Template) string {
	lines := make([]string, len(templates))
	for i, t := range templates {
		lines[i] = fmt.Sprintf("- %s: %s | %s", t.ID, t.Name, t.Structure)
	}
	return strings.Join(lines, "\n")
}

// referenceInfo はアップロード済みの参照画像を説明する文言を返します。
func referenceInfo(refs domain.References) []string {
	var info []string
	if refs.Main != "" {
		info = append(info, "Main reference image provided")
	}
	if refs.Color != "" {
		info = append(info, "Color reference image provided")
	}
	if refs.Face != "" {
		info = append(info, "Face reference image provided")
	}
	if refs.Layout != "" {
		info = append(info, "Layout reference image provided")
	}
	return info
}

func vibeOrFree(vibe string) string {
	return utils.FirstNonEmpty(vibe, "free")
}

func lpRequest(brief domain.Brief) domain.TextRequest {
	text := utils.FirstNonEmpty(utils.TruncateRunes(strings.TrimSpace(brief.Text), maxLPBrief), "LP brief not provided.")
	return domain.TextRequest{
		System: lpPlanPrompt,
		Prompt: fmt.Sprintf("LP BRIEF (Japanese allowed):\n\"\"\"%s\"\"\"", text),
		JSON:   true,
	}
}

func slidesRequest(brief domain.Brief, templates []catalog.Template, target int) domain.TextRequest {
	source := utils.TruncateRunes(strings.TrimSpace(brief.Text), maxSlideSource)
	return domain.TextRequest{
		System: slidePlanPrompt,
		Prompt: fmt.Sprintf("TEMPLATE OPTIONS:\n%s\n\nTARGET_SLIDE_COUNT: %d\n\nSOURCE TEXT (JP allowed, keep concise):\n\"\"\"%s\"\"\"",
			templateGuide(templates), target, source),
		JSON: true,
	}
}

func mangaRequest(brief domain.Brief, templates []catalog.Template) domain.TextRequest {
	text := utils.FirstNonEmpty(utils.TruncateRunes(strings.TrimSpace(brief.Text), maxMangaBrief), "ストーリー設定が未入力です。")
	return domain.TextRequest{
		System: mangaStoryPrompt,
		Prompt: fmt.Sprintf("AVAILABLE TEMPLATES:\n%s\n\nUSER BRIEF (JP allowed):\n\"\"\"%s\"\"\"\n\nRemember: JSON only.",
			templateGuide(templates), text),
		JSON: true,
	}
}

func thumbnailRequest(brief domain.Brief, tpl catalog.Template) domain.TextRequest {
	refs := referenceInfo(brief.References)
	refText := "No reference images provided"
	if len(refs) > 0 {
		refText = strings.Join(refs, ", ")
	}
	return domain.TextRequest{
		System: thumbnailSystemPrompt,
		Prompt: fmt.Sprintf("Template Type: %s - %s\nUser Text: %s\nColor/Vibe: %s\nReference Images: %s",
			tpl.Name, tpl.Structure, brief.Text, vibeOrFree(brief.Vibe), refText),
	}
}

func digestRequest(brief domain.Brief) domain.TextRequest {
	temp, topP, topK := float32(0.3), float32(0.9), float32(32)
	return domain.TextRequest{
		System:          digestPlanPrompt,
		Prompt:          "===== NOTES =====\n" + utils.TruncateRunes(strings.TrimSpace(brief.Text), maxDigestNotes),
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: 2048,
		JSON:            true,
	}
}
