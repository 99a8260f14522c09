package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/google/uuid"
)

// DefaultLimit はカテゴリごとに保持する履歴の最大件数です。
const DefaultLimit = 20

const keyPrefix = "history:"

// Store はカテゴリごとに新しい順の履歴を保持します。
// 保存先の失敗はログに残して握りつぶし、生成処理を止めません。
type Store struct {
	mu    sync.Mutex
	kv    KV
	limit int

	newID func() string
	now   func() time.Time
}

// NewStore は Store を作成します。limit が 0 以下なら DefaultLimit を使います。
func NewStore(kv KV, limit int) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{kv: kv, limit: limit, newID: uuid.NewString, now: time.Now}, nil
}

// Append は履歴の先頭に entry を追加し、上限を超えた古いものを捨てます。
// ID と CreatedAt が空なら補います。
func (s *Store) Append(ctx context.Context, category domain.Kind, entry domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Category = category
	if entry.ID == "" {
		entry.ID = s.newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	entries, err := s.load(ctx, category)
	if err != nil {
		slog.WarnContext(ctx, "履歴の読み込みに失敗したため新しく作り直します", "category", category, "error", err)
		entries = nil
	}
	entries = append([]domain.HistoryEntry{entry}, entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		slog.WarnContext(ctx, "履歴のエンコードに失敗しました", "category", category, "error", err)
		return
	}
	if err := s.kv.Set(ctx, keyPrefix+string(category), data); err != nil {
		slog.WarnContext(ctx, "履歴の保存に失敗しました", "category", category, "error", err)
		return
	}
	slog.InfoContext(ctx, "履歴を保存しました", "category", category, "entry_id", entry.ID, "count", len(entries))
}

// List はカテゴリの履歴を新しい順に返します。失敗した場合は空です。
func (s *Store) List(ctx context.Context, category domain.Kind) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, category)
	if err != nil {
		slog.WarnContext(ctx, "履歴の読み込みに失敗しました", "category", category, "error", err)
		return []domain.HistoryEntry{}
	}
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries
}

func (s *Store) load(ctx context.Context, category domain.Kind) ([]domain.HistoryEntry, error) {
	data, ok, err := s.kv.Get(ctx, keyPrefix+string(category))
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		return []domain.HistoryEntry{}, nil
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("history for %q is corrupted: %w", category, err)
	}
	return entries, nil
}
