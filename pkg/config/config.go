package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config はスタジオ全体の設定です。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Render     RenderConfig     `mapstructure:"render"`
	NanoBanana NanoBananaConfig `mapstructure:"nanobanana"`
	Limitless  LimitlessConfig  `mapstructure:"limitless"`
	History    HistoryConfig    `mapstructure:"history"`
	Studio     StudioConfig     `mapstructure:"studio"`
	Log        LogConfig        `mapstructure:"log"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// GeminiConfig は Gemini API の設定です。APIKey が空の場合、リクエストで渡されない限りデモ動作になります。
type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	TextModel  string `mapstructure:"text_model"`
	ImageModel string `mapstructure:"image_model"`
}

type PlannerConfig struct {
	// Provider はプラン生成に使うテキストモデル（gemini / openai）です。
	Provider string `mapstructure:"provider"`
}

// OpenAIConfig は OpenAI 互換エンドポイントの設定です。
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type RenderConfig struct {
	// Backend は画像描画の実装（gemini / nanobanana）です。
	Backend   string        `mapstructure:"backend"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ImageSize string        `mapstructure:"image_size"`
}

type NanoBananaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

type LimitlessConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// HistoryConfig は履歴の保存先です。Path が空ならメモリ上にだけ保持します。
type HistoryConfig struct {
	Path  string `mapstructure:"path"`
	Limit int    `mapstructure:"limit"`
}

type StudioConfig struct {
	Locale   string `mapstructure:"locale"`
	Patterns int    `mapstructure:"patterns"`
	// MaxSessions はメモリ上に保持する描画セッション数の上限です。
	MaxSessions int `mapstructure:"max_sessions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	// TTL は取得した参照画像をキャッシュする時間です。
	TTL time.Duration `mapstructure:"ttl"`
}

// StorageConfig はクラウドストレージの設定です。
// Provider が gcs / s3 の場合、その gs:// / s3:// の参照画像を読めるようになります。
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
}

// Default は既定値の設定を返します。
func Default() *Config {
	return &Config{
		Server:     ServerConfig{Addr: ":8080"},
		Gemini:     GeminiConfig{TextModel: "gemini-3-pro-preview", ImageModel: "gemini-3-pro-image-preview"},
		Planner:    PlannerConfig{Provider: "gemini"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Render:     RenderConfig{Backend: "gemini", Timeout: 60 * time.Second, ImageSize: "1K"},
		NanoBanana: NanoBananaConfig{Endpoint: "https://api.nanobanana.ai/v1/generate"},
		Limitless:  LimitlessConfig{Endpoint: "https://api.limitless.ai/v1/lifelogs"},
		History:    HistoryConfig{Limit: 20},
		Studio:     StudioConfig{Locale: "ja", Patterns: 1, MaxSessions: 64},
		Log:        LogConfig{Level: "info", Format: "text"},
		Cache:      CacheConfig{TTL: 10 * time.Minute},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("gemini.api_key", d.Gemini.APIKey)
	v.SetDefault("gemini.text_model", d.Gemini.TextModel)
	v.SetDefault("gemini.image_model", d.Gemini.ImageModel)

	v.SetDefault("planner.provider", d.Planner.Provider)

	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)

	v.SetDefault("render.backend", d.Render.Backend)
	v.SetDefault("render.timeout", d.Render.Timeout)
	v.SetDefault("render.image_size", d.Render.ImageSize)

	v.SetDefault("nanobanana.endpoint", d.NanoBanana.Endpoint)
	v.SetDefault("nanobanana.api_key", d.NanoBanana.APIKey)

	v.SetDefault("limitless.api_key", d.Limitless.APIKey)
	v.SetDefault("limitless.endpoint", d.Limitless.Endpoint)

	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.limit", d.History.Limit)

	v.SetDefault("studio.locale", d.Studio.Locale)
	v.SetDefault("studio.patterns", d.Studio.Patterns)
	v.SetDefault("studio.max_sessions", d.Studio.MaxSessions)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("storage.provider", d.Storage.Provider)
}

// よく使われる環境変数名も受け付ける
var envAliases = map[string][]string{
	"gemini.api_key":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai.api_key":     {"OPENAI_API_KEY"},
	"limitless.api_key":  {"LIMITLESS_API_KEY"},
	"nanobanana.api_key": {"NANOBANANA_API_KEY"},
}

// Options は Load の入力です。
type Options struct {
	// ConfigFile は YAML などの設定ファイルです。空なら読みません。
	ConfigFile string
	// EnvFile は事前に読み込む .env ファイルです。存在しなければ無視します。
	EnvFile string
}

// Load は既定値、設定ファイル、環境変数（STUDIO_ 接頭辞）の順に重ねて設定を作ります。
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		envs := append([]string{"STUDIO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// SlogLevel はログレベルの文字列を slog.Level に変換します。
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
