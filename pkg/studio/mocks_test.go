package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// --- Mocks ---

type mockTextModel struct {
	text string
	err  error
}

func (m *mockTextModel) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	return m.text, m.err
}

// mockRenderer は failAt に含まれる呼び出し番号だけを失敗させるのだ
type mockRenderer struct {
	mu     sync.Mutex
	calls  int
	failAt map[int]bool
}

func (m *mockRenderer) Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.mu.Unlock()
	if m.failAt[call] {
		return nil, errors.New("quota exceeded")
	}
	return &domain.ImageResponse{URL: fmt.Sprintf("https://img.example.com/%d.png", call)}, nil
}

type mockEvaluator struct {
	eval domain.Evaluation
	err  error
}

func (m *mockEvaluator) Evaluate(ctx context.Context, imageRef string) (domain.Evaluation, error) {
	return m.eval, m.err
}

// mockBackends は渡された認証情報を記録し、固定の Backend を返すのだ
type mockBackends struct {
	backend Backend
	err     error
	creds   []Credential
}

func (m *mockBackends) Build(ctx context.Context, cred Credential) (Backend, error) {
	m.creds = append(m.creds, cred)
	return m.backend, m.err
}

// mockFetcher は adapters.HTTPClient を実装し、取得した URL を記録するのだ
type mockFetcher struct {
	mu      sync.Mutex
	safe    bool
	fetched []string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, url)
	return nil, errors.New("not found")
}

func (m *mockFetcher) IsSafeURL(url string) (bool, error) {
	if !m.safe {
		return false, errors.New("restricted network")
	}
	return true, nil
}
