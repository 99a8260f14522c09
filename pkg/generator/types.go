package generator

import (
	"time"

	"github.com/shouni/gemini-content-studio/pkg/domain"
)

const (
	// DefaultRenderTimeout は1回の描画呼び出しに許す既定の最大時間です。
	DefaultRenderTimeout = 60 * time.Second
	// DefaultLocale は画像内テキストの既定の言語です。
	DefaultLocale = "ja"
	// DefaultImageSize は描画サイズの既定値です。
	DefaultImageSize = "1K"

	briefExcerptLength = 240
)

// EventType はパイプラインが通知するイベントの種類です。
type EventType string

const (
	EventItemStarted EventType = "item_started"
	EventItemDone    EventType = "item_done"
	EventItemFailed  EventType = "item_failed"
	EventPatternDone EventType = "pattern_done"
)

// Event は描画の進捗です。Result は通知時点の結果のコピーです。
type Event struct {
	Type      EventType          `json:"type"`
	PatternID string             `json:"patternId"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	ItemID    string             `json:"itemId,omitempty"`
	Result    *domain.ItemResult `json:"result,omitempty"`
	Status    domain.ItemStatus  `json:"status,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// RunOptions は1回の描画実行に渡す設定です。
type RunOptions struct {
	// References はすべてのアイテムに渡す固定の参照画像です。
	References domain.References
	// ExtraStyle は漫画など画風の追加指定です。
	ExtraStyle string
	// Seed は指定時にすべての描画呼び出しへ渡します。
	Seed *int64
	// NegativePrompt は画像に入れたくない要素です。
	NegativePrompt string
}

// Config は Pipeline の設定です。ゼロ値の項目は既定値になります。
type Config struct {
	Locale    string
	Timeout   time.Duration
	ImageSize string
}

func (c Config) withDefaults() Config {
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultRenderTimeout
	}
	if c.ImageSize == "" {
		c.ImageSize = DefaultImageSize
	}
	return c
}
