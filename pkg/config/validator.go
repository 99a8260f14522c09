package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError は設定項目1つの検証エラーです。
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors は検証エラーの一覧です。
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

var (
	validProviders  = []string{"gemini", "openai"}
	validBackends   = []string{"gemini", "nanobanana"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
	validStorages   = []string{"", "gcs", "s3"}
)

// Validate は設定値を検証し、見つかったすべてのエラーを返します。
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		add("server.addr", c.Server.Addr, "must not be empty")
	}
	if !slices.Contains(validProviders, c.Planner.Provider) {
		add("planner.provider", c.Planner.Provider, "must be one of "+strings.Join(validProviders, ", "))
	}
	if c.Planner.Provider == "openai" && c.OpenAI.Model == "" {
		add("openai.model", c.OpenAI.Model, "is required when planner.provider is openai")
	}
	if !slices.Contains(validBackends, c.Render.Backend) {
		add("render.backend", c.Render.Backend, "must be one of "+strings.Join(validBackends, ", "))
	}
	if c.Render.Timeout <= 0 {
		add("render.timeout", c.Render.Timeout, "must be positive")
	}
	if c.History.Limit < 1 || c.History.Limit > 100 {
		add("history.limit", c.History.Limit, "must be between 1 and 100")
	}
	if strings.TrimSpace(c.Studio.Locale) == "" {
		add("studio.locale", c.Studio.Locale, "must not be empty")
	}
	if c.Studio.Patterns < 1 || c.Studio.Patterns > 4 {
		add("studio.patterns", c.Studio.Patterns, "must be between 1 and 4")
	}
	if c.Studio.MaxSessions < 1 {
		add("studio.max_sessions", c.Studio.MaxSessions, "must be positive")
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		add("log.level", c.Log.Level, "must be one of "+strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		add("log.format", c.Log.Format, "must be one of "+strings.Join(validLogFormats, ", "))
	}
	if c.Cache.TTL < 0 {
		add("cache.ttl", c.Cache.TTL, "must not be negative")
	}
	if !slices.Contains(validStorages, c.Storage.Provider) {
		add("storage.provider", c.Storage.Provider, "must be empty, gcs or s3")
	}
	return errs
}
