package lifelog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/planner"
	"github.com/shouni/gemini-content-studio/pkg/utils"

	"github.com/yuin/goldmark"
)

const summaryPrompt = `あなたは知識整理と学習支援に特化した編集者です。
以下の Limitless ログから、%s の%sを振り返り、学びにフォーカスした要約を作成してください。

必ず以下のJSON形式のみで出力してください（マークダウン禁止）:
{
  "headline": "学びが伝わる日本語のタイトル",
  "summary": "全体像を80-140字で要約",
  "highlights": ["主要な出来事やトピックを3-6件、日本語"],
  "lessons": ["学習・気づき・再現性のあるノウハウを3-6件、日本語"],
  "actions": ["次に試す/改善することを2-4件、日本語"],
  "keywords": ["検索用キーワードを3-8個、単語で"],
  "image_prompt": "上記をもとに日本語テキスト入りの学習用インフォグラフィックを作るための英語プロンプト。構図やアイコン、色（#3181FC基調）、日本語テキスト指定を明記。"
}

重視すること:
- 学び・再現性・気づきに絞り、日常雑談は除外
- 重複はまとめ、具体的な名詞を優先
- すべてのテキストは日本語。image_prompt内での生成指示は英語で書き、画像内に表示する文字が日本語になるよう明記

===== LOGS =====
%s
`

// Summary はログから作った学びの要約です。
type Summary struct {
	Headline    string   `json:"headline"`
	Summary     string   `json:"summary"`
	Highlights  []string `json:"highlights"`
	Lessons     []string `json:"lessons"`
	Actions     []string `json:"actions"`
	Keywords    []string `json:"keywords"`
	ImagePrompt string   `json:"imagePrompt,omitempty"`
}

type summaryDoc struct {
	Headline    string   `json:"headline"`
	Summary     string   `json:"summary"`
	Highlights  []string `json:"highlights"`
	Lessons     []string `json:"lessons"`
	Actions     []string `json:"actions"`
	Keywords    []string `json:"keywords"`
	ImagePrompt string   `json:"image_prompt"`
}

func periodName(mode Mode) string {
	if mode == ModeWeekly {
		return "1週間"
	}
	return "1日"
}

// FallbackSummary はモデルを使わずにログのタイトルや本文の冒頭から要約を作ります。
func FallbackSummary(logs []Log, r Range) Summary {
	var topics []string
	for _, l := range logs {
		if t := utils.FirstNonEmpty(l.Title, l.Text, l.Markdown); t != "" {
			topics = append(topics, t)
		}
	}
	topics = utils.Limit(topics, 6)

	weekly := r.Mode == ModeWeekly
	s := Summary{Highlights: utils.Limit(topics, 4), Actions: []string{}, Keywords: []string{}}
	if len(topics) > 0 {
		s.Headline = r.Label + "の学びハイライト"
		if weekly {
			s.Headline = r.Label + "の週次学びハイライト"
		}
		for i, t := range topics {
			s.Lessons = append(s.Lessons, fmt.Sprintf("%d. %s", i+1, utils.TruncateRunes(t, 120)))
		}
		s.Summary = strings.Join(utils.Limit(topics, 3), " / ") + "..."
	} else {
		s.Headline = r.Label + "のログなし"
		if weekly {
			s.Headline = r.Label + "の週次ログなし"
		}
		s.Lessons = []string{"学習ログが取得できませんでした。"}
		s.Summary = "Limitless ログが取得できませんでした。"
		s.Highlights = []string{}
	}

	s.ImagePrompt = strings.Join([]string{
		"Design a Japanese learning infographic card focused on key lessons.",
		fmt.Sprintf("Date label: %s (JST)", r.Label),
		"Highlights: " + strings.Join(s.Lessons, " / "),
		"Style: clean infographic, bold Japanese typography, icons per bullet, blue and white palette (#3181FC base), soft gradients.",
		"Ensure all on-image text is in Japanese and easy to read.",
	}, " | ")
	return s
}

// Summarizer はテキストモデルでログを要約します。
type Summarizer struct {
	text planner.TextModel
}

// NewSummarizer は Summarizer を作成します。text が nil の場合は常に代替の要約を返します。
func NewSummarizer(text planner.TextModel) *Summarizer {
	return &Summarizer{text: text}
}

// Summarize はログを要約します。エラーは返さず、縮退時は FallbackSummary を Fallback として返します。
// モデルが返さなかった項目は代替の要約で補います。
func (s *Summarizer) Summarize(ctx context.Context, logs []Log, r Range) domain.Outcome[Summary] {
	fallback := FallbackSummary(logs, r)
	if s.text == nil {
		return domain.Fallback(fallback, domain.ReasonNoCredential, "認証情報が無いため簡易要約を使用します")
	}

	temp, topP, topK := float32(0.3), float32(0.9), float32(32)
	raw, err := s.text.GenerateText(ctx, domain.TextRequest{
		Prompt:          fmt.Sprintf(summaryPrompt, r.Label, periodName(r.Mode), Digest(logs, r)),
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: 2048,
		JSON:            true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyResponse) {
			return domain.Fallback(fallback, domain.ReasonEmpty, err.Error())
		}
		ue := domain.ClassifyUpstream(err)
		slog.WarnContext(ctx, "ログの要約に失敗したため簡易要約を使用します", "category", ue.Kind, "error", err)
		return domain.Fallback(fallback, domain.ReasonUpstream, ue.Error())
	}

	block, ok := planner.ExtractJSONBlock(raw)
	if !ok {
		slog.WarnContext(ctx, "要約の応答から JSON を抽出できませんでした", "length", len(raw))
		return domain.Fallback(fallback, domain.ReasonParse, "要約の応答に JSON が含まれていません")
	}
	var doc summaryDoc
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		slog.WarnContext(ctx, "要約の JSON を解釈できませんでした", "error", err)
		return domain.Fallback(fallback, domain.ReasonParse, err.Error())
	}

	return domain.Ok(Summary{
		Headline:    utils.FirstNonEmpty(doc.Headline, fallback.Headline),
		Summary:     utils.FirstNonEmpty(doc.Summary, fallback.Summary),
		Highlights:  orDefault(doc.Highlights, fallback.Highlights),
		Lessons:     orDefault(doc.Lessons, fallback.Lessons),
		Actions:     orDefault(doc.Actions, fallback.Actions),
		Keywords:    orDefault(doc.Keywords, fallback.Keywords),
		ImagePrompt: utils.FirstNonEmpty(doc.ImagePrompt, fallback.ImagePrompt),
	})
}

// orDefault はモデルが配列を返した場合は空要素を除いて使い、返さなかった場合は def を使います。
func orDefault(values, def []string) []string {
	if values == nil {
		return def
	}
	return slices.DeleteFunc(slices.Clone(values), func(s string) bool { return strings.TrimSpace(s) == "" })
}

// ImagePrompt は要約からインフォグラフィックの描画プロンプトを作ります。
func ImagePrompt(s Summary, r Range) string {
	base := strings.TrimSpace(s.ImagePrompt)
	if base == "" {
		label := "1日のまとめ"
		if r.Mode == ModeWeekly {
			label = "週次まとめ"
		}
		base = planner.InfographicPrompt(s.Headline, fmt.Sprintf("%s (%s)", r.Label, label))
	}

	bullets := s.Lessons
	if len(bullets) == 0 {
		bullets = s.Highlights
	}
	parts := []string{base}
	if len(bullets) > 0 {
		parts = append(parts, "Key bullets: "+strings.Join(utils.Limit(bullets, 5), " / "))
	}
	parts = append(parts, generator.LocaleDirective(generator.DefaultLocale))
	return strings.Join(parts, " | ")
}

// Plan は要約を1枚のインフォグラフィックとして描画するプランにします。
func Plan(id string, s Summary, r Range) domain.Plan {
	return domain.Plan{
		ID:    id,
		Kind:  domain.KindDigest,
		Title: s.Headline,
		Brief: s.Summary,
		Items: []domain.Item{{
			ID:         "digest",
			TemplateID: "infographic",
			Title:      s.Headline,
			Body:       utils.Limit(s.Lessons, 5),
			Keywords:   s.Keywords,
			Prompt:     ImagePrompt(s, r),
		}},
	}
}

// Markdown は要約を書き出し用の Markdown にします。
func (s Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", s.Headline, s.Summary)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
	}
	section("ハイライト", s.Highlights)
	section("学び", s.Lessons)
	section("次のアクション", s.Actions)
	if len(s.Keywords) > 0 {
		fmt.Fprintf(&b, "\n## キーワード\n\n%s\n", strings.Join(s.Keywords, ", "))
	}
	return b.String()
}

// HTML は要約の Markdown を HTML に変換します。
func (s Summary) HTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("要約の HTML 変換に失敗しました: %w", err)
	}
	return buf.String(), nil
}
