package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("何も指定しなければ既定値なのだ", func(t *testing.T) {
		cfg, err := Load(Options{})
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, 60*time.Second, cfg.Render.Timeout)
		assert.Equal(t, 20, cfg.History.Limit)
		assert.Equal(t, 64, cfg.Studio.MaxSessions)
	})

	t.Run("設定ファイルと環境変数を重ねる", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "studio.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
render:
  timeout: 30s
  backend: nanobanana
history:
  path: /tmp/history.db
studio:
  max_sessions: 8
storage:
  provider: gcs
`), 0o600))
		t.Setenv("STUDIO_SERVER_ADDR", ":9100")
		t.Setenv("GEMINI_API_KEY", "from-alias")

		cfg, err := Load(Options{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, ":9100", cfg.Server.Addr)
		assert.Equal(t, 30*time.Second, cfg.Render.Timeout)
		assert.Equal(t, "nanobanana", cfg.Render.Backend)
		assert.Equal(t, "/tmp/history.db", cfg.History.Path)
		assert.Equal(t, 8, cfg.Studio.MaxSessions)
		assert.Equal(t, "gcs", cfg.Storage.Provider)
		assert.Equal(t, "from-alias", cfg.Gemini.APIKey)
	})

	t.Run(".env ファイルを先に読み込む", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("STUDIO_LIMITLESS_API_KEY=lim-123\n"), 0o600))
		// godotenv.Load は既存の値を上書きしないので、テスト後に消えるよう先に空で登録する
		t.Setenv("STUDIO_LIMITLESS_API_KEY", "")
		require.NoError(t, os.Unsetenv("STUDIO_LIMITLESS_API_KEY"))

		cfg, err := Load(Options{EnvFile: envFile})
		require.NoError(t, err)
		assert.Equal(t, "lim-123", cfg.Limitless.APIKey)
	})

	t.Run("存在しない .env は無視する", func(t *testing.T) {
		_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
		assert.NoError(t, err)
	})

	t.Run("存在しない設定ファイルはエラー", func(t *testing.T) {
		_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
		assert.Error(t, err)
	})

	t.Run("不正な値は ValidationErrors", func(t *testing.T) {
		t.Setenv("STUDIO_PLANNER_PROVIDER", "claude")
		t.Setenv("STUDIO_HISTORY_LIMIT", "0")

		_, err := Load(Options{})
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		require.Len(t, verrs, 2)
		assert.Equal(t, "planner.provider", verrs[0].Field)
		assert.Equal(t, "history.limit", verrs[1].Field)
		assert.Contains(t, err.Error(), "2 validation errors")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())

	cfg.Planner.Provider = "openai"
	cfg.OpenAI.Model = ""
	cfg.Render.Backend = "dalle"
	cfg.Render.Timeout = 0
	cfg.Log.Format = "xml"
	cfg.Storage.Provider = "azure"

	fields := make([]string, 0)
	for _, e := range cfg.Validate() {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"openai.model", "render.backend", "render.timeout", "log.format", "storage.provider"}, fields)
}

func TestLogConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: ""}.SlogLevel())
}
