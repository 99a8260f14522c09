package studio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/adapters"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/planner"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

// Credential は1回の実行で使う API キーです。保存はせず、実行ごとに明示的に渡します。
type Credential struct {
	GeminiAPIKey     string `json:"geminiApiKey,omitempty"`
	OpenAIAPIKey     string `json:"openaiApiKey,omitempty"`
	NanoBananaAPIKey string `json:"nanoApiKey,omitempty"`
	LimitlessAPIKey  string `json:"limitlessApiKey,omitempty"`
}

// Merge は空の項目を fallback の値で補ったコピーを返します。
func (c Credential) Merge(fallback Credential) Credential {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = fallback.GeminiAPIKey
	}
	if c.OpenAIAPIKey == "" {
		c.OpenAIAPIKey = fallback.OpenAIAPIKey
	}
	if c.NanoBananaAPIKey == "" {
		c.NanoBananaAPIKey = fallback.NanoBananaAPIKey
	}
	if c.LimitlessAPIKey == "" {
		c.LimitlessAPIKey = fallback.LimitlessAPIKey
	}
	return c
}

// Evaluator はサムネイルを採点します。
type Evaluator interface {
	Evaluate(ctx context.Context, imageRef string) (domain.Evaluation, error)
}

// Backend は認証情報から組み立てた外部サービスの組です。
// Text と Evaluator は認証情報が無い場合 nil です。
type Backend struct {
	Text      planner.TextModel
	Renderer  generator.ImageRenderer
	Evaluator Evaluator
	// Demo は Renderer がプレースホルダーであることを示します。
	Demo bool
}

// BackendFactory は認証情報ごとに Backend を作ります。
type BackendFactory interface {
	Build(ctx context.Context, cred Credential) (Backend, error)
}

// BackendSettings は DefaultBackends の設定です。
type BackendSettings struct {
	// Provider はテキストモデルの提供元（gemini / openai）です。
	Provider      string
	TextModel     string
	ImageModel    string
	OpenAIModel   string
	OpenAIBaseURL string
	// RenderBackend は描画の提供元（gemini / nanobanana）です。
	RenderBackend      string
	NanoBananaEndpoint string
	CacheTTL           time.Duration
	FetchTimeout       time.Duration
	// RemoteReader は gs:// / s3:// の参照画像を読みます。nil ならストレージ参照は無視されます。
	RemoteReader remoteio.InputReader
}

// DefaultBackends は Gemini、OpenAI 互換 API、NanoBanana、プレースホルダーから Backend を組み立てます。
type DefaultBackends struct {
	settings BackendSettings
	fetcher  *httpkit.Client
	cache    *adapters.MemoryCache
	nano     *adapters.NanoBananaClient
}

// NewDefaultBackends は DefaultBackends を作成します。参照画像の取得とキャッシュは全実行で共有します。
// 外部への HTTP はすべて SSRF 対策付きの httpkit クライアントを通します。
func NewDefaultBackends(settings BackendSettings) *DefaultBackends {
	fetcher := httpkit.New(settings.FetchTimeout)
	return &DefaultBackends{
		settings: settings,
		fetcher:  fetcher,
		cache:    adapters.NewMemoryCache(),
		nano:     adapters.NewNanoBananaClient(settings.NanoBananaEndpoint, httpkit.New(adapters.NanoBananaTimeout, httpkit.WithMaxRetries(0))),
	}
}

// NanoBanana は共有の NanoBanana クライアントを返します。
func (f *DefaultBackends) NanoBanana() *adapters.NanoBananaClient {
	return f.nano
}

// Fetcher は共有の HTTP クライアントを返します。
func (f *DefaultBackends) Fetcher() *httpkit.Client {
	return f.fetcher
}

func (f *DefaultBackends) Build(ctx context.Context, cred Credential) (Backend, error) {
	var b Backend

	var models adapters.ContentGenerator
	var core *adapters.GeminiImageCore
	if cred.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cred.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return Backend{}, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
		}
		models = client.Models

		core, err = adapters.NewGeminiImageCore(f.fetcher, f.settings.RemoteReader, f.cache, f.settings.CacheTTL)
		if err != nil {
			return Backend{}, err
		}
		if b.Evaluator, err = adapters.NewGeminiEvaluator(core, models, f.settings.TextModel); err != nil {
			return Backend{}, err
		}
	}

	switch {
	case f.settings.Provider == "openai" && cred.OpenAIAPIKey != "":
		text, err := adapters.NewOpenAITextModel(cred.OpenAIAPIKey, f.settings.OpenAIBaseURL, f.settings.OpenAIModel)
		if err != nil {
			return Backend{}, err
		}
		b.Text = text
	case models != nil:
		text, err := adapters.NewGeminiTextModel(models, f.settings.TextModel)
		if err != nil {
			return Backend{}, err
		}
		b.Text = text
	}

	switch {
	case f.settings.RenderBackend == "nanobanana" && cred.NanoBananaAPIKey != "":
		r, err := adapters.NewNanoBananaRenderer(f.nano, cred.NanoBananaAPIKey, f.fetcher)
		if err != nil {
			return Backend{}, err
		}
		b.Renderer = r
	case models != nil:
		r, err := adapters.NewGeminiImageGenerator(core, models, f.settings.ImageModel)
		if err != nil {
			return Backend{}, err
		}
		b.Renderer = r
	default:
		slog.InfoContext(ctx, "認証情報が無いためプレースホルダー描画を使用します")
		b.Renderer = adapters.NewPlaceholderRenderer()
		b.Demo = true
	}
	return b, nil
}
