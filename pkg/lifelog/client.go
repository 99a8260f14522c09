package lifelog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const (
	// DefaultEndpoint は Limitless のライフログ API です。
	DefaultEndpoint = "https://api.limitless.ai/v1/lifelogs"
	// FetchTimeout は1回の取得に許す最大時間です。
	FetchTimeout = 60 * time.Second

	timezone   = "Asia/Tokyo"
	fetchLimit = 400
)

// ContentBlock はログ本文の1ブロックです。
type ContentBlock struct {
	Type        string `json:"type,omitempty"`
	Content     string `json:"content,omitempty"`
	SpeakerName string `json:"speakerName,omitempty"`
}

// Log は Limitless から取得した1件のライフログです。
type Log struct {
	ID        string         `json:"id,omitempty"`
	Title     string         `json:"title,omitempty"`
	StartedAt string         `json:"startedAt,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	Markdown  string         `json:"markdown,omitempty"`
	Text      string         `json:"text,omitempty"`
	Contents  []ContentBlock `json:"contents,omitempty"`
}

type lifelogsResponse struct {
	Data *struct {
		Lifelogs []Log `json:"lifelogs"`
	} `json:"data"`
	Lifelogs []Log `json:"lifelogs"`
}

// Client は Limitless API のクライアントです。
type Client struct {
	endpoint   string
	apiKey     string
	httpClient httpkit.Doer
	timeout    time.Duration
}

// NewClient は Client を作成します。endpoint が空なら DefaultEndpoint を使います。
// httpClient が nil なら SSRF 対策付きの httpkit クライアントを使います。
func NewClient(apiKey, endpoint string, httpClient httpkit.Doer) (*Client, error) {
	if apiKey == "" {
		return nil, domain.NewInputError("Limitless の API キーが設定されていません")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = httpkit.New(FetchTimeout)
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, httpClient: httpClient, timeout: FetchTimeout}, nil
}

// Fetch は期間内のライフログを取得します。
// 接続の失敗や非2xxは domain.UpstreamError を返し、解釈できない本文は空の一覧として扱います。
func (c *Client) Fetch(ctx context.Context, r Range) ([]Log, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントが不正です: %w", err)
	}
	q := u.Query()
	q.Set("start", r.Start)
	q.Set("end", r.End)
	q.Set("timezone", timezone)
	q.Set("includeMarkdown", "true")
	q.Set("includeHeadings", "false")
	q.Set("includeContents", "true")
	q.Set("limit", fmt.Sprint(fetchLimit))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ue := domain.ClassifyUpstream(err)
		slog.ErrorContext(ctx, "Limitless API への接続に失敗しました", "kind", ue.Kind, "error", err)
		return nil, ue
	}

	body, err := httpkit.HandleResponse(resp)
	if err != nil {
		slog.ErrorContext(ctx, "Limitless API がエラーを返しました", "status", resp.StatusCode, "error", err)
		return nil, domain.ClassifyResponse(resp.StatusCode, err)
	}

	var parsed lifelogsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.WarnContext(ctx, "Limitless のレスポンスを解釈できませんでした", "error", err)
		return []Log{}, nil
	}
	logs := parsed.Lifelogs
	if parsed.Data != nil && len(parsed.Data.Lifelogs) > 0 {
		logs = parsed.Data.Lifelogs
	}
	if logs == nil {
		logs = []Log{}
	}
	slog.InfoContext(ctx, "ライフログを取得しました", "label", r.Label, "count", len(logs))
	return logs, nil
}
