package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/imgutil"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const (
	// DefaultNanoBananaEndpoint は NanoBanana の画像生成エンドポイントです。
	DefaultNanoBananaEndpoint = "https://api.nanobanana.ai/v1/generate"
	// NanoBananaTimeout は1回の生成呼び出しに許す最大時間です。
	NanoBananaTimeout = 60 * time.Second
	nanoBananaSize    = "1080x608"
)

// NanoBananaRequest はプロキシ経由の生成要求です。
type NanoBananaRequest struct {
	Prompt         string `json:"prompt"`
	APIKey         string `json:"apiKey"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

type nanoBananaBody struct {
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

// NanoBananaClient は NanoBanana API を呼び出すクライアントです。
type NanoBananaClient struct {
	endpoint   string
	httpClient httpkit.Doer
	timeout    time.Duration
}

// NewNanoBananaClient は NanoBananaClient を作成します。
// httpClient が nil なら SSRF 対策付きの httpkit クライアントを使います。
func NewNanoBananaClient(endpoint string, httpClient httpkit.Doer) *NanoBananaClient {
	if endpoint == "" {
		endpoint = DefaultNanoBananaEndpoint
	}
	if httpClient == nil {
		httpClient = httpkit.New(NanoBananaTimeout)
	}
	return &NanoBananaClient{endpoint: endpoint, httpClient: httpClient, timeout: NanoBananaTimeout}
}

// Endpoint は呼び出し先の URL を返します。
func (c *NanoBananaClient) Endpoint() string { return c.endpoint }

// Generate は NanoBanana に生成を依頼し、応答 JSON をそのまま返します。
// 応答が JSON でない場合は {"base64": <本文>} に包みます。
// 失敗は domain.UpstreamError（タイムアウト・DNS・TLS・ステータス）として返します。
func (c *NanoBananaClient) Generate(ctx context.Context, req NanoBananaRequest) (json.RawMessage, error) {
	if req.APIKey == "" {
		return nil, domain.NewInputError("Missing NanoBanana apiKey")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.NewInputError("Missing or invalid prompt")
	}

	body := nanoBananaBody{Prompt: req.Prompt, Size: nanoBananaSize}
	if req.ReferenceImage != "" {
		// data URI の場合は base64 部分のみを送る
		ref := req.ReferenceImage
		if _, after, ok := strings.Cut(ref, ","); ok {
			ref = after
		}
		body.ReferenceImage = ref
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", req.APIKey)

	slog.InfoContext(ctx, "NanoBanana API にリクエストを送信します",
		"endpoint", c.endpoint, "prompt_length", len(req.Prompt), "has_reference", req.ReferenceImage != "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		ue := domain.ClassifyUpstream(err)
		slog.ErrorContext(ctx, "NanoBanana API への接続に失敗しました", "kind", ue.Kind, "error", err)
		return nil, ue
	}

	// 本文は httpkit.MaxResponseBodySize までに制限される
	text, err := httpkit.HandleResponse(resp)
	if err != nil {
		slog.ErrorContext(ctx, "NanoBanana API がエラーを返しました", "status", resp.StatusCode, "error", err)
		return nil, domain.ClassifyResponse(resp.StatusCode, err)
	}

	if json.Valid(text) {
		return json.RawMessage(text), nil
	}
	wrapped, err := json.Marshal(map[string]string{"base64": string(text)})
	if err != nil {
		return nil, fmt.Errorf("レスポンスのエンコードに失敗しました: %w", err)
	}
	return wrapped, nil
}

// NanoBananaRenderer は NanoBanana を画像描画バックエンドとして使うアダプターです。
// 継続性の参照画像（ReferenceURLs の先頭）のみを送信します。
type NanoBananaRenderer struct {
	client *NanoBananaClient
	apiKey string
	http   HTTPClient
}

// NewNanoBananaRenderer は NanoBananaRenderer を作成します。
// fetcher は応答が画像URLだった場合の取得に使い、nil も許容します。
func NewNanoBananaRenderer(client *NanoBananaClient, apiKey string, fetcher HTTPClient) (*NanoBananaRenderer, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	return &NanoBananaRenderer{client: client, apiKey: apiKey, http: fetcher}, nil
}

// Render は NanoBanana で画像を生成し、インライン画像またはURLとして返します。
func (r *NanoBananaRenderer) Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	nreq := NanoBananaRequest{Prompt: req.FullPrompt(), APIKey: r.apiKey}
	for _, ref := range req.ReferenceURLs {
		if imgutil.IsDataURI(ref) {
			nreq.ReferenceImage = ref
			break
		}
	}

	raw, err := r.client.Generate(ctx, nreq)
	if err != nil {
		return nil, err
	}
	return r.decode(ctx, raw)
}

// decode は NanoBanana の応答からよく使われるキーの画像を取り出します。
func (r *NanoBananaRenderer) decode(ctx context.Context, raw json.RawMessage) (*domain.ImageResponse, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "NanoBanana の応答を解釈できません", Err: err}
	}

	for _, key := range []string{"image", "base64", "data", "imageBase64"} {
		s, _ := fields[key].(string)
		if s == "" {
			continue
		}
		if imgutil.IsDataURI(s) {
			data, mimeType, err := imgutil.DecodeDataURI(s)
			if err != nil {
				return nil, &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "NanoBanana の画像を解釈できません", Err: err}
			}
			return &domain.ImageResponse{Data: data, MimeType: mimeType}, nil
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return nil, &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "NanoBanana の画像を解釈できません", Err: err}
		}
		return &domain.ImageResponse{Data: data, MimeType: http.DetectContentType(data)}, nil
	}

	for _, key := range []string{"imageUrl", "url"} {
		u, _ := fields[key].(string)
		if u == "" {
			continue
		}
		if r.http == nil {
			return &domain.ImageResponse{URL: u}, nil
		}
		if safe, err := r.http.IsSafeURL(u); !safe || err != nil {
			slog.WarnContext(ctx, "生成画像の URL が安全でないため取得しません", "url", u, "error", err)
			return nil, &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "NanoBanana の画像 URL が許可されていません", Err: err}
		}
		data, err := r.http.FetchBytes(ctx, u)
		if err != nil {
			slog.WarnContext(ctx, "生成画像のダウンロードに失敗したため URL のまま返します", "url", u, "error", err)
			return &domain.ImageResponse{URL: u}, nil
		}
		return &domain.ImageResponse{Data: data, MimeType: http.DetectContentType(data), URL: u}, nil
	}

	return nil, &domain.UpstreamError{Kind: domain.UpstreamResponse, Message: "NanoBanana の応答に画像が含まれていません"}
}
