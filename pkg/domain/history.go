package domain

import "time"

// HistoryEntry は完了した生成実行のスナップショットです。
type HistoryEntry struct {
	ID        string       `json:"id"`
	Category  Kind         `json:"category"`
	Brief     string       `json:"brief"`
	Plan      Plan         `json:"plan"`
	Items     []ItemResult `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
}
