package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/adapters"
	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/history"
	"github.com/shouni/gemini-content-studio/pkg/planner"
	"github.com/shouni/gemini-content-studio/pkg/variant"

	"github.com/google/uuid"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const (
	// MaxPatterns は1回の要求で作れるパターン数の上限です。
	MaxPatterns = 4
	// DefaultMaxSessions は保持するセッション数の既定の上限です。
	DefaultMaxSessions = 64
)

// ErrUnknownSession は存在しないセッションIDが指定されたことを示します。
var ErrUnknownSession = errors.New("unknown session")

// RunOptions はブリーフ以外の実行時の指定です。
type RunOptions struct {
	Count          int               `json:"count,omitempty"`
	Patterns       int               `json:"patterns,omitempty"`
	TemplateIDs    []string          `json:"templateIds,omitempty"`
	Vibe           string            `json:"vibe,omitempty"`
	NegativePrompt string            `json:"negativePrompt,omitempty"`
	References     domain.References `json:"references,omitempty"`
	Seed           *int64            `json:"seed,omitempty"`
}

// RunConfig は1回の実行に必要な入力をまとめたものです。
// 認証情報は環境から暗黙に拾わず、ここで明示的に受け取ります。
type RunConfig struct {
	Credential Credential
	Domain     domain.Kind
	Options    RunOptions
}

// Options は Service の構成です。
type Options struct {
	Backends BackendFactory
	Catalog  *catalog.Catalog
	History  *history.Store
	// Defaults はリクエストで省略された認証情報を補う値です。
	Defaults Credential
	Pipeline generator.Config
	// DefaultPatterns はパターン数の指定が無い場合の値です。
	DefaultPatterns int
	// Fetcher は URL の画像を結合するときに使います。
	Fetcher adapters.HTTPClient
	// NanoBanana は画像生成プロキシのクライアントです。
	NanoBanana        *adapters.NanoBananaClient
	LimitlessEndpoint string
	// HTTP は Limitless の呼び出しに使います。nil なら lifelog の既定です。
	HTTP httpkit.Doer
	// MaxSessions を超えると古いセッションから破棄します。
	MaxSessions int
}

// Service はプラン作成、描画、採用、履歴、ダイジェストをまとめた窓口です。
type Service struct {
	opts     Options
	sessions *sessionStore

	newID func() string
	now   func() time.Time
}

// New は Service を作成します。
func New(opts Options) (*Service, error) {
	if opts.Backends == nil {
		return nil, fmt.Errorf("backends is required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("history is required")
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.DefaultPatterns <= 0 {
		opts.DefaultPatterns = 1
	}
	if opts.NanoBanana == nil {
		opts.NanoBanana = adapters.NewNanoBananaClient("", nil)
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &Service{
		opts:     opts,
		sessions: newSessionStore(opts.MaxSessions),
		newID:    uuid.NewString,
		now:      time.Now,
	}, nil
}

// Catalog はテンプレートカタログを返します。
func (s *Service) Catalog() *catalog.Catalog {
	return s.opts.Catalog
}

func (s *Service) backend(ctx context.Context, cred Credential) (Backend, error) {
	b, err := s.opts.Backends.Build(ctx, cred.Merge(s.opts.Defaults))
	if err != nil {
		return Backend{}, fmt.Errorf("バックエンドの初期化に失敗しました: %w", err)
	}
	return b, nil
}

func brief(rc RunConfig, text string) domain.Brief {
	return domain.Brief{
		Kind:        rc.Domain,
		Text:        text,
		Count:       rc.Options.Count,
		TemplateIDs: rc.Options.TemplateIDs,
		Vibe:        rc.Options.Vibe,
		References:  rc.Options.References,
	}
}

// Plan はブリーフからプランだけを作ります。
func (s *Service) Plan(ctx context.Context, rc RunConfig, text string) (domain.Outcome[domain.Plan], error) {
	b, err := s.backend(ctx, rc.Credential)
	if err != nil {
		return domain.Outcome[domain.Plan]{}, err
	}
	return planner.New(b.Text, s.opts.Catalog).Plan(ctx, brief(rc, text)), nil
}

// Generate はプランを作り、指定数のパターンを順に描画したセッションを返します。
// 最初にパターンが完成した時点で採用中の結果を履歴に残します。
func (s *Service) Generate(ctx context.Context, rc RunConfig, text string, sink func(generator.Event)) (*Session, error) {
	b, err := s.backend(ctx, rc.Credential)
	if err != nil {
		return nil, err
	}
	outcome := planner.New(b.Text, s.opts.Catalog).Plan(ctx, brief(rc, text))

	session, err := s.newSession(b, outcome, rc.Options)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "セッションを開始しました",
		"session_id", session.id, "kind", rc.Domain, "plan_status", outcome.Status(), "demo", b.Demo)

	session.GeneratePatterns(ctx, s.patternCount(rc.Options.Patterns), sink)
	return session, nil
}

func (s *Service) patternCount(n int) int {
	if n <= 0 {
		n = s.opts.DefaultPatterns
	}
	return min(n, MaxPatterns)
}

func (s *Service) newSession(b Backend, outcome domain.Outcome[domain.Plan], opts RunOptions) (*Session, error) {
	pipeline, err := generator.NewPipeline(b.Renderer, s.opts.Catalog, s.opts.Pipeline)
	if err != nil {
		return nil, err
	}
	manager, err := variant.NewManager(outcome.Value, pipeline, variant.Options{
		Run: generator.RunOptions{
			References:     opts.References,
			ExtraStyle:     opts.Vibe,
			Seed:           opts.Seed,
			NegativePrompt: opts.NegativePrompt,
		},
		Demo: b.Demo,
	})
	if err != nil {
		return nil, err
	}
	session := &Session{
		id:         s.newID(),
		createdAt:  s.now(),
		planStatus: outcome.Status(),
		warnings:   outcome.Warnings,
		manager:    manager,
		fetcher:    s.opts.Fetcher,
		onComplete: s.record,
	}
	s.sessions.put(session)
	return session, nil
}

// record は採用中の結果を履歴に残します。
func (s *Service) record(ctx context.Context, session *Session) {
	plan := session.manager.Plan()
	s.opts.History.Append(ctx, plan.Kind, domain.HistoryEntry{
		ID:        session.id,
		Brief:     plan.Brief,
		Plan:      plan,
		Items:     session.manager.SelectedResults(),
		CreatedAt: s.now(),
	})
}

// Session は既存のセッションを返します。
func (s *Service) Session(id string) (*Session, error) {
	session, ok := s.sessions.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return session, nil
}

// History はカテゴリの履歴を新しい順に返します。
func (s *Service) History(ctx context.Context, category domain.Kind) []domain.HistoryEntry {
	return s.opts.History.List(ctx, category)
}

// Evaluate はサムネイルを採点します。採点モデルを使えない場合は既定の評価を Fallback として返します。
func (s *Service) Evaluate(ctx context.Context, cred Credential, imageRef string) domain.Outcome[domain.Evaluation] {
	b, err := s.backend(ctx, cred)
	if err != nil {
		return domain.Fallback(adapters.HeuristicEvaluation(), domain.ReasonUpstream, err.Error())
	}
	if b.Evaluator == nil {
		return domain.Fallback(adapters.HeuristicEvaluation(), domain.ReasonNoCredential, "認証情報が無いため既定の評価を返します")
	}
	ev, err := b.Evaluator.Evaluate(ctx, imageRef)
	if err != nil {
		slog.WarnContext(ctx, "サムネイルの採点に失敗しました", "error", err)
		return domain.Fallback(adapters.HeuristicEvaluation(), domain.ReasonUpstream, err.Error())
	}
	return domain.Ok(ev)
}

// NanoBanana は NanoBanana への生成要求をそのまま中継します。
// APIキーが省略された場合は既定の認証情報を使います。
func (s *Service) NanoBanana(ctx context.Context, req adapters.NanoBananaRequest) (json.RawMessage, error) {
	if req.APIKey == "" {
		req.APIKey = s.opts.Defaults.NanoBananaAPIKey
	}
	return s.opts.NanoBanana.Generate(ctx, req)
}
