package lifelog

import (
	"context"

	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// --- Mocks ---

type mockTextModel struct {
	generateFunc func(ctx context.Context, req domain.TextRequest) (string, error)
	requests     []domain.TextRequest
}

func (m *mockTextModel) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	m.requests = append(m.requests, req)
	return m.generateFunc(ctx, req)
}

func respond(text string, err error) *mockTextModel {
	return &mockTextModel{generateFunc: func(context.Context, domain.TextRequest) (string, error) { return text, err }}
}

func sampleLogs() []Log {
	return []Log{
		{ID: "a", Title: "設計レビュー", StartedAt: "2026-10-18T09:00:00+09:00", Markdown: "  レビューで学んだこと  "},
		{Title: "読書メモ", CreatedAt: "2026-10-18T20:00:00+09:00", Contents: []ContentBlock{
			{Type: "heading2", Content: "第3章"},
			{Type: "blockquote", Content: "良い問いを立てる", SpeakerName: "著者"},
			{Type: "blockquote", Content: "引用"},
			{Type: "list_item", Content: "要点"},
			{Type: "paragraph", Content: " "},
		}},
		{Text: "雑談"},
	}
}
