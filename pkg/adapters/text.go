package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// DefaultTextModel はプラン作成に使う Gemini モデル名の既定値です。
const DefaultTextModel = "gemini-3-pro-preview"

// GeminiTextModel は Gemini でテキストを生成するアダプターです。
type GeminiTextModel struct {
	aiClient ContentGenerator
	model    string
}

// NewGeminiTextModel は GeminiTextModel を作成します。
func NewGeminiTextModel(aiClient ContentGenerator, model string) (*GeminiTextModel, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		model = DefaultTextModel
	}
	return &GeminiTextModel{aiClient: aiClient, model: model}, nil
}

// GenerateText はプロンプトを送信し、最初の候補のテキストを返します。
func (m *GeminiTextModel) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		TopK:            req.TopK,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := m.aiClient.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Geminiテキスト生成エラー: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Geminiからの有効な応答がありませんでした: %w", domain.ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// OpenAITextModel は OpenAI 互換の Chat Completions API でテキストを生成するアダプターです。
type OpenAITextModel struct {
	client openai.Client
	model  string
}

// NewOpenAITextModel は API キーと任意のベースURLから OpenAITextModel を作成します。
func NewOpenAITextModel(apiKey, baseURL, model string, extra ...option.RequestOption) (*OpenAITextModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	return &OpenAITextModel{client: openai.NewClient(opts...), model: model}, nil
}

// GenerateText はシステムプロンプトとユーザープロンプトを送り、最初の選択肢の本文を返します。
func (m *OpenAITextModel) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.model),
		Messages: msgs,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Temperature))
	}
	if req.TopP != nil {
		params.TopP = openai.Float(float64(*req.TopP))
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAIテキスト生成エラー: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAIからの有効な応答がありませんでした: %w", domain.ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
