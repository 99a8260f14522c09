package variant

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// --- Mocks ---

// mockRenderer は fail が true を返した呼び出しだけを失敗させる描画器なのだ
type mockRenderer struct {
	calls int
	fail  func(call int, req domain.ImageGenerationRequest) bool
}

func (m *mockRenderer) Render(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	call := m.calls
	m.calls++
	if m.fail != nil && m.fail(call, req) {
		return nil, fmt.Errorf("render failed at call %d", call)
	}
	return &domain.ImageResponse{URL: fmt.Sprintf("https://img.example.com/%d.png", call)}, nil
}

func testPlan(n int) domain.Plan {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{
			ID:         fmt.Sprintf("item-%d", i+1),
			TemplateID: "tpl",
			Title:      fmt.Sprintf("セクション %d", i+1),
			Prompt:     fmt.Sprintf("prompt %d", i+1),
		}
	}
	return domain.Plan{ID: "plan-1", Kind: domain.KindLP, Items: items}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("pattern-%d", n)
	}
}
