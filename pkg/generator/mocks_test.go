package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/gemini-content-studio/pkg/catalog"
	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// --- Mocks ---

// mockRenderer は呼び出し内容を記録し、renderFunc が無ければ番号付きの URL を返すのだ
type mockRenderer struct {
	mu         sync.Mutex
	renderFunc func(ctx context.Context, call int, req domain.ImageGenerationRequest) (*domain.ImageResponse, error)
	requests   []domain.ImageGenerationRequest
}

func (m *mockRenderer) Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	call := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.renderFunc != nil {
		return m.renderFunc(ctx, call, req)
	}
	return &domain.ImageResponse{URL: fmt.Sprintf("https://img.example.com/%d.png", call)}, nil
}

func (m *mockRenderer) calls() []domain.ImageGenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ImageGenerationRequest(nil), m.requests...)
}

type mockTemplates struct {
	templates map[string]catalog.Template
	layout    string
	layoutErr error
}

func (m *mockTemplates) Lookup(kind domain.Kind, id string) (catalog.Template, bool) {
	t, ok := m.templates[id]
	return t, ok
}

func (m *mockTemplates) LayoutReference(kind domain.Kind, id string) (string, error) {
	return m.layout, m.layoutErr
}

func testPlan(kind domain.Kind, n int) domain.Plan {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{
			ID:         fmt.Sprintf("item-%d", i+1),
			TemplateID: "tpl",
			Title:      fmt.Sprintf("タイトル %d", i+1),
			Prompt:     fmt.Sprintf("prompt %d", i+1),
		}
	}
	return domain.Plan{ID: "plan-1", Kind: kind, Title: "テスト", Items: items}
}
