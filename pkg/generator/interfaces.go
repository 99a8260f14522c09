package generator

import (
	"context"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// ImageRenderer は1枚の画像を生成する描画バックエンドの窓口です。
// Gemini、NanoBanana、デモ用プレースホルダーがこれを実装します。
type ImageRenderer interface {
	Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error)
}

// TemplateSource はテンプレート定義とそのレイアウト参照画像を提供します。
type TemplateSource interface {
	// Lookup はテンプレートIDからテンプレートを探します。
	Lookup(kind domain.Kind, id string) (catalog.Template, bool)
	// LayoutReference はテンプレートのワイヤーフレームを data URI で返します。持たない場合は空文字です。
	LayoutReference(kind domain.Kind, id string) (string, error)
}
