package adapters

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/imgutil"
)

// PlaceholderRenderer は認証情報が無いときに使うデモ用の描画器です。
// プロンプトから決定的なグラデーション画像を作り、外部には一切接続しません。
type PlaceholderRenderer struct{}

// NewPlaceholderRenderer は PlaceholderRenderer を作成します。
func NewPlaceholderRenderer() *PlaceholderRenderer {
	return &PlaceholderRenderer{}
}

// Render はプロンプトとアスペクト比だけから画像を決定的に生成します。
func (r *PlaceholderRenderer) Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := imgutil.Placeholder(req.Prompt, req.AspectRatio)
	if err != nil {
		return nil, fmt.Errorf("プレースホルダー画像の生成に失敗しました: %w", err)
	}
	return &domain.ImageResponse{Data: data, MimeType: "image/png"}, nil
}
