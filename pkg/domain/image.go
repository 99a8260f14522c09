package domain

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// ImageGenerationRequest は単一の画像生成要求です。
// ReferenceURLs の先頭には継続性のための直前の画像が入り、その後に固定の参照画像が続きます。
type ImageGenerationRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	ImageSize      string
	ReferenceURLs  []string
	Seed           *int64
}

// FullPrompt は NegativePrompt があれば避ける要素として末尾に添えたプロンプトを返します。
// 描画 API に否定プロンプトの専用項目が無いため本文に含めます。
func (r ImageGenerationRequest) FullPrompt() string {
	negative := strings.TrimSpace(r.NegativePrompt)
	if negative == "" {
		return r.Prompt
	}
	return r.Prompt + " | Avoid: " + negative
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
	UsedSeed int64  // 戻り値は情報欠落を防ぐため int64
	URL      string // バックエンドがバイト列ではなく取得可能なURLを返した場合のみ
}

// Handle は後続のリクエストで参照画像として渡せる形式（data URI または URL）を返します。
func (r *ImageResponse) Handle() string {
	if r == nil {
		return ""
	}
	if len(r.Data) == 0 {
		return r.URL
	}
	mimeType := r.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(r.Data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}
