package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/imgutil"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

const (
	// UseImageCompression が true の場合、参照画像を JPEG に再圧縮してから送信します。
	UseImageCompression     = true
	ImageCompressionQuality = 75
	// compressThreshold 未満の参照画像は再圧縮しません。
	compressThreshold = 256 * 1024
)

// ImageGeneratorCore は画像生成のコアロジックを抽象化するインターフェースです。
type ImageGeneratorCore interface {
	PrepareImagePart(ctx context.Context, ref string) *genai.Part
	ToPart(data []byte) *genai.Part
	ParseToResponse(resp *genai.GenerateContentResponse, seed int64) (*ImageOutput, error)
}

// ContentGenerator は genai.Models の GenerateContent を抽象化するインターフェースです。
// *genai.Models がそのまま満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageCacher は画像データのキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// HTTPClient は URL からデータを取得するためのインターフェースです。
// *httpkit.Client がそのまま満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	IsSafeURL(urlStr string) (bool, error)
}

// ImageOutput はプロジェクト固有のドメインに依存しない汎用的なレスポンス構造体です。
type ImageOutput struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}

// GeminiImageCore は参照画像の準備とレスポンス解析を担う共通コンポーネントです。
type GeminiImageCore struct {
	httpClient HTTPClient
	reader     remoteio.InputReader
	imageCache ImageCacher
	cacheTTL   time.Duration
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore のインスタンスを生成します。
// reader と imageCache は nil を許容します。reader が nil の場合 gs:// と s3:// の参照は読みません。
func NewGeminiImageCore(httpClient HTTPClient, reader remoteio.InputReader, imageCache ImageCacher, cacheTTL time.Duration) (*GeminiImageCore, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &GeminiImageCore{
		httpClient: httpClient,
		reader:     reader,
		imageCache: imageCache,
		cacheTTL:   cacheTTL,
	}, nil
}

// PrepareImagePart は data URI、URL、または gs:// / s3:// の参照画像を genai.Part に変換します。
// 取得に失敗した場合は警告を残して nil を返し、呼び出し側はテキストのみで続行します。
func (c *GeminiImageCore) PrepareImagePart(ctx context.Context, ref string) *genai.Part {
	if ref == "" {
		return nil
	}

	if imgutil.IsDataURI(ref) {
		data, _, err := imgutil.DecodeDataURI(ref)
		if err != nil {
			slog.WarnContext(ctx, "参照画像の data URI を解釈できませんでした", "error", err)
			return nil
		}
		return c.ToPart(c.compress(ctx, data))
	}

	// キャッシュの確認
	if c.imageCache != nil {
		if cached, found := c.imageCache.Get(ref); found {
			if data, ok := cached.([]byte); ok {
				return c.ToPart(data)
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", ref, "type", fmt.Sprintf("%T", cached))
		}
	}

	var imgBytes []byte
	if remoteio.IsRemoteURI(ref) {
		data, err := c.readRemote(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "ストレージから参照画像を読めませんでした。テキストのみで続行します", "uri", ref, "error", err)
			return nil
		}
		imgBytes = data
	} else {
		// SSRF対策のバリデーション
		if safe, err := c.httpClient.IsSafeURL(ref); !safe || err != nil {
			slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました",
				"url", ref, "error", err)
			return nil
		}

		data, err := c.httpClient.FetchBytes(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "参照画像のダウンロードに失敗しました。テキストのみで続行します", "url", ref, "error", err)
			return nil
		}
		imgBytes = data
	}

	imgBytes = c.compress(ctx, imgBytes)
	if c.imageCache != nil {
		c.imageCache.Set(ref, imgBytes, c.cacheTTL)
	}
	return c.ToPart(imgBytes)
}

// readRemote はストレージ上の参照画像を httpkit.MaxResponseBodySize まで読みます。
func (c *GeminiImageCore) readRemote(ctx context.Context, uri string) ([]byte, error) {
	if c.reader == nil {
		return nil, fmt.Errorf("ストレージが設定されていません: %s", uri)
	}
	rc, err := c.reader.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, httpkit.MaxResponseBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > httpkit.MaxResponseBodySize {
		return nil, fmt.Errorf("参照画像が大きすぎます: %s", uri)
	}
	return data, nil
}

func (c *GeminiImageCore) compress(ctx context.Context, data []byte) []byte {
	if !UseImageCompression || len(data) < compressThreshold {
		return data
	}
	compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality)
	if err != nil {
		slog.DebugContext(ctx, "参照画像の圧縮をスキップしました", "error", err)
		return data
	}
	return compressed
}

// ToPart はバイト列を genai.Part (InlineData) に変換します。
func (c *GeminiImageCore) ToPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "detected_mime_type", mimeType)
		return nil
	}
	return genai.NewPartFromBytes(data, mimeType)
}

// ParseToResponse は Gemini のレスポンスを解析して ImageOutput に変換します。
func (c *GeminiImageCore) ParseToResponse(resp *genai.GenerateContentResponse, seed int64) (*ImageOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ImageOutput{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
					UsedSeed: seed,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}

	return nil, fmt.Errorf("画像データが見つかりませんでした")
}
