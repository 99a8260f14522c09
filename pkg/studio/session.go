package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/adapters"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/imgutil"
	"github.com/shouni/gemini-content-studio/pkg/variant"
)

// ErrUnsafeURL は SSRF の恐れがある URL の取得を拒否したことを示します。
var ErrUnsafeURL = errors.New("unsafe url")

// Session は1つのプランと、その描画パターン・採用状態を保持します。
// 操作はセッションごとに直列化されます。
type Session struct {
	mu sync.Mutex

	id         string
	createdAt  time.Time
	planStatus string
	warnings   []string
	manager    *variant.Manager
	fetcher    adapters.HTTPClient
	recorded   bool
	onComplete func(ctx context.Context, s *Session)
}

// SessionView は API 応答用のセッションのスナップショットです。
type SessionView struct {
	ID         string              `json:"id"`
	Kind       domain.Kind         `json:"kind"`
	Plan       domain.Plan         `json:"plan"`
	PlanStatus string              `json:"planStatus"`
	Warnings   []string            `json:"warnings,omitempty"`
	Demo       bool                `json:"demo"`
	Patterns   []domain.Pattern    `json:"patterns"`
	Selection  domain.SelectionMap `json:"selection"`
	Selected   []domain.ItemResult `json:"selected"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// ID はセッションIDを返します。
func (s *Session) ID() string { return s.id }

// View は現在の状態のスナップショットを返します。
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() SessionView {
	plan := s.manager.Plan()
	return SessionView{
		ID:         s.id,
		Kind:       plan.Kind,
		Plan:       plan,
		PlanStatus: s.planStatus,
		Warnings:   s.warnings,
		Demo:       s.manager.Demo(),
		Patterns:   s.manager.Patterns(),
		Selection:  s.manager.Selection(),
		Selected:   s.manager.SelectedResults(),
		CreatedAt:  s.createdAt,
	}
}

// GeneratePatterns は n 個のパターンを順に描画します。sink には各イベントが渡されます。
func (s *Session) GeneratePatterns(ctx context.Context, n int, sink func(generator.Event)) SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manager.GeneratePatterns(ctx, n, sink)
	if !s.recorded && s.onComplete != nil && len(s.manager.Patterns()) > 0 {
		s.recorded = true
		s.onComplete(ctx, s)
	}
	return s.view()
}

// AdoptPattern はパターン全体を採用します。
func (s *Session) AdoptPattern(patternID string) (domain.SelectionMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.manager.AdoptPattern(patternID); err != nil {
		return nil, err
	}
	return s.manager.Selection(), nil
}

// AdoptItem は1アイテムの採用先を切り替えます。
func (s *Session) AdoptItem(itemID, patternID string) (domain.SelectionMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.manager.AdoptItem(itemID, patternID); err != nil {
		return nil, err
	}
	return s.manager.Selection(), nil
}

// RetryItem はパターン内の1アイテムを描画し直します。
func (s *Session) RetryItem(ctx context.Context, patternID, itemID string) (domain.ItemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.RetryItem(ctx, patternID, itemID)
}

// Compose は採用中の画像をプランの順に縦結合します。画像の無いアイテムは飛ばします。
func (s *Session) Compose(ctx context.Context, minWidth int) (*imgutil.Composite, error) {
	s.mu.Lock()
	selected := s.manager.SelectedResults()
	s.mu.Unlock()

	var images [][]byte
	for _, r := range selected {
		if !r.HasImage() {
			continue
		}
		data, err := s.imageBytes(ctx, r.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("アイテム %s の画像を読み込めませんでした: %w", r.Item.ID, err)
		}
		images = append(images, data)
	}
	return imgutil.StackVertical(images, minWidth)
}

func (s *Session) imageBytes(ctx context.Context, ref string) ([]byte, error) {
	if imgutil.IsDataURI(ref) {
		data, _, err := imgutil.DecodeDataURI(ref)
		return data, err
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("URL の画像を取得できません: %s", ref)
	}
	if safe, err := s.fetcher.IsSafeURL(ref); !safe || err != nil {
		return nil, fmt.Errorf("許可されていない URL です: %s: %w", ref, ErrUnsafeURL)
	}
	return s.fetcher.FetchBytes(ctx, ref)
}

// sessionStore はプロセス内のセッション一覧です。
// limit 件を超えると登録の古い順に破棄します。
type sessionStore struct {
	mu       sync.RWMutex
	limit    int
	order    []string
	sessions map[string]*Session
}

func newSessionStore(limit int) *sessionStore {
	return &sessionStore{limit: limit, sessions: make(map[string]*Session)}
}

func (st *sessionStore) put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[s.id]; !ok {
		st.order = append(st.order, s.id)
	}
	st.sessions[s.id] = s
	for len(st.order) > st.limit {
		oldest := st.order[0]
		st.order = st.order[1:]
		delete(st.sessions, oldest)
		slog.Debug("古いセッションを破棄しました", "session_id", oldest)
	}
}

func (st *sessionStore) get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}
