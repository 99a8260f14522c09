package planner

import (
	"context"

	"github.com/shouni/gemini-content-studio/pkg/domain"
)

// mockTextModel は TextModel のモックなのだ
type mockTextModel struct {
	generateFunc func(req domain.TextRequest) (string, error)
	requests     []domain.TextRequest
}

func (m *mockTextModel) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.generateFunc != nil {
		return m.generateFunc(req)
	}
	return "", nil
}

func respond(text string) *mockTextModel {
	return &mockTextModel{generateFunc: func(domain.TextRequest) (string, error) { return text, nil }}
}

func fixedIDs() func() string {
	return func() string { return "plan-1" }
}
