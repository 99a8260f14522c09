package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/config"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/history"
	"github.com/shouni/gemini-content-studio/pkg/studio"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Gemini content studio: plan and render thumbnails, LPs, slides and manga",
	Long: `studio turns a free-text brief into a structured plan and renders each item
with an image model, keeping visual continuity between consecutive items.

Without an API key it runs in demo mode: plans are built from the brief outline
and every item is rendered as a deterministic placeholder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before reading the environment")
}

// Execute はルートコマンドを実行します。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(c config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newService は設定から Service を組み立てます。返す関数で履歴の保存先とストレージを閉じます。
func newService(ctx context.Context, c *config.Config) (*studio.Service, func() error, error) {
	var kv history.KV = history.NewMemoryKV()
	closeKV := func() error { return nil }
	if c.History.Path != "" {
		sq, err := history.OpenSQLite(ctx, c.History.Path)
		if err != nil {
			return nil, nil, err
		}
		kv, closeKV = sq, sq.Close
	}
	store, err := history.NewStore(kv, c.History.Limit)
	if err != nil {
		_ = closeKV()
		return nil, nil, err
	}

	factory, err := openStorage(ctx, c.Storage.Provider)
	if err != nil {
		_ = closeKV()
		return nil, nil, err
	}
	var reader remoteio.InputReader
	closeFn := closeKV
	if factory != nil {
		if reader, err = factory.InputReader(); err != nil {
			_ = factory.Close()
			_ = closeKV()
			return nil, nil, fmt.Errorf("failed to open storage reader: %w", err)
		}
		closeFn = func() error {
			return errors.Join(factory.Close(), closeKV())
		}
	}

	backends := studio.NewDefaultBackends(studio.BackendSettings{
		Provider:           c.Planner.Provider,
		TextModel:          c.Gemini.TextModel,
		ImageModel:         c.Gemini.ImageModel,
		OpenAIModel:        c.OpenAI.Model,
		OpenAIBaseURL:      c.OpenAI.BaseURL,
		RenderBackend:      c.Render.Backend,
		NanoBananaEndpoint: c.NanoBanana.Endpoint,
		CacheTTL:           c.Cache.TTL,
		FetchTimeout:       c.Render.Timeout,
		RemoteReader:       reader,
	})
	svc, err := studio.New(studio.Options{
		Backends: backends,
		History:  store,
		Defaults: studio.Credential{
			GeminiAPIKey:     c.Gemini.APIKey,
			OpenAIAPIKey:     c.OpenAI.APIKey,
			NanoBananaAPIKey: c.NanoBanana.APIKey,
			LimitlessAPIKey:  c.Limitless.APIKey,
		},
		Pipeline: generator.Config{
			Locale:    c.Studio.Locale,
			Timeout:   c.Render.Timeout,
			ImageSize: c.Render.ImageSize,
		},
		DefaultPatterns:   c.Studio.Patterns,
		Fetcher:           backends.Fetcher(),
		NanoBanana:        backends.NanoBanana(),
		LimitlessEndpoint: c.Limitless.Endpoint,
		HTTP:              backends.Fetcher(),
		MaxSessions:       c.Studio.MaxSessions,
	})
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to build studio: %w", err)
	}
	return svc, closeFn, nil
}

// readBrief は引数、または -f で指定したファイル（"-" なら標準入力）からブリーフを読みます。
func readBrief(args []string, file string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read brief file: %w", err)
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("brief is required: pass it as an argument or with -f")
	}
	return text, nil
}
