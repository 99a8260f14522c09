package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/utils"

	"google.golang.org/genai"
)

// DefaultImageModel は画像生成に使うモデル名の既定値です。
const DefaultImageModel = "gemini-3-pro-image-preview"

// GeminiImageGenerator はプロンプトと参照画像から1枚の画像を生成するアダプターです。
type GeminiImageGenerator struct {
	imgCore  ImageGeneratorCore // 共通ロジック保持（コンポジション）
	aiClient ContentGenerator   // 通信クライアント
	model    string             // 使用するモデル名
}

// NewGeminiImageGenerator は GeminiImageCore と依存関係を注入して初期化します。
func NewGeminiImageGenerator(core ImageGeneratorCore, aiClient ContentGenerator, modelName string) (*GeminiImageGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (ImageGeneratorCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if modelName == "" {
		modelName = DefaultImageModel
	}
	return &GeminiImageGenerator{
		imgCore:  core,
		aiClient: aiClient,
		model:    modelName,
	}, nil
}

// Render はドメインのリクエストを Gemini API の形式に変換して実行します。
// 参照画像は ReferenceURLs の順にパーツとして追加され、読み込めないものは飛ばされます。
func (a *GeminiImageGenerator) Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.FullPrompt())}

	imageCount := 0
	for i, ref := range req.ReferenceURLs {
		if ref == "" {
			continue
		}
		imgPart := a.imgCore.PrepareImagePart(ctx, ref)
		if imgPart == nil {
			slog.WarnContext(ctx, "参照画像の読み込みに失敗しました", "index", i)
			continue
		}
		parts = append(parts, imgPart)
		imageCount++
	}

	slog.DebugContext(ctx, "Geminiに画像生成をリクエストします",
		"model", a.model, "aspect_ratio", req.AspectRatio, "images", imageCount)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		},
		Seed: utils.SeedToPtrInt32(req.Seed),
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := a.aiClient.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini画像生成エラー: %w", err)
	}

	// 入力シード値を UsedSeed の初期値として扱う
	out, err := a.imgCore.ParseToResponse(resp, utils.DereferenceSeed(req.Seed))
	if err != nil {
		return nil, fmt.Errorf("レスポンスパースに失敗しました: %w", err)
	}

	return &domain.ImageResponse{
		Data:     out.Data,
		MimeType: out.MimeType,
		UsedSeed: out.UsedSeed,
	}, nil
}
