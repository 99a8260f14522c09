package adapters

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"google.golang.org/genai"
)

const evaluationPrompt = `You are a YouTube thumbnail reviewer. Score the attached thumbnail from 1 to 10
for click-through potential (readability of the Japanese text, contrast, focal point, emotion).
Answer in Japanese with exactly two lines:
score: <number>/10
advice: <one sentence of the most important improvement>`

var scorePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*/\s*10|score\s*[:：]?\s*(\d+(?:\.\d+)?)`)

// GeminiEvaluator は生成したサムネイルを画像理解モデルで採点します。
type GeminiEvaluator struct {
	imgCore  ImageGeneratorCore
	aiClient ContentGenerator
	model    string
}

// NewGeminiEvaluator は GeminiEvaluator を作成します。
func NewGeminiEvaluator(core ImageGeneratorCore, aiClient ContentGenerator, model string) (*GeminiEvaluator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (ImageGeneratorCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		model = DefaultTextModel
	}
	return &GeminiEvaluator{imgCore: core, aiClient: aiClient, model: model}, nil
}

// Evaluate は画像（data URI または URL）を送って 1〜10 の点数と改善点を得ます。
func (e *GeminiEvaluator) Evaluate(ctx context.Context, imageRef string) (domain.Evaluation, error) {
	imgPart := e.imgCore.PrepareImagePart(ctx, imageRef)
	if imgPart == nil {
		return domain.Evaluation{}, fmt.Errorf("評価対象の画像を読み込めませんでした")
	}

	parts := []*genai.Part{genai.NewPartFromText(evaluationPrompt), imgPart}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := e.aiClient.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("Gemini評価エラー: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return domain.Evaluation{}, fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}
	return ParseEvaluation(resp.Text())
}

// ParseEvaluation は "8/10" や "score: 8" を含む文章から点数と助言を取り出します。
// 点数は 1〜10 に丸められます。
func ParseEvaluation(text string) (domain.Evaluation, error) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return domain.Evaluation{}, fmt.Errorf("評価結果から点数を読み取れませんでした")
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("点数の解析に失敗しました: %w", err)
	}
	score = math.Max(1, math.Min(10, score))

	advice := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "advice") {
			if _, after, ok := strings.Cut(line, ":"); ok {
				advice = strings.TrimSpace(after)
			} else if _, after, ok := strings.Cut(line, "："); ok {
				advice = strings.TrimSpace(after)
			}
			break
		}
	}
	if advice == "" {
		advice = strings.TrimSpace(scorePattern.ReplaceAllString(text, ""))
	}
	return domain.Evaluation{Score: score, Advice: advice}, nil
}

// HeuristicEvaluation は採点モデルを使えないときの既定の評価です。
func HeuristicEvaluation() domain.Evaluation {
	return domain.Evaluation{
		Score:  8,
		Advice: "文字サイズとコントラストを上げ、主役の被写体を1つに絞るとさらに目を引きます。",
	}
}
