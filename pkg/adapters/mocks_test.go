package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"google.golang.org/genai"
)

// mockImageCore は ImageGeneratorCore インターフェースのテスト用モックなのだ。
type mockImageCore struct {
	prepareFunc func(ctx context.Context, ref string) *genai.Part
	parseFunc   func(resp *genai.GenerateContentResponse, seed int64) (*ImageOutput, error)
}

func (m *mockImageCore) PrepareImagePart(ctx context.Context, ref string) *genai.Part {
	if m.prepareFunc != nil {
		return m.prepareFunc(ctx, ref)
	}
	return nil
}

func (m *mockImageCore) ToPart(data []byte) *genai.Part { return nil }

func (m *mockImageCore) ParseToResponse(resp *genai.GenerateContentResponse, seed int64) (*ImageOutput, error) {
	if m.parseFunc != nil {
		return m.parseFunc(resp, seed)
	}
	return nil, nil
}

// mockAIClient は ContentGenerator のテスト用モックなのだ。
type mockAIClient struct {
	generateFunc func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(model, contents, config)
	}
	return nil, nil
}

// mockHTTPClient は HTTPClient を実装するのだ。
// safeFunc が nil の場合はすべての URL を安全とみなします。
type mockHTTPClient struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	safeFunc  func(url string) (bool, error)
	calls     int
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.fetchFunc(ctx, url)
}

func (m *mockHTTPClient) IsSafeURL(url string) (bool, error) {
	if m.safeFunc != nil {
		return m.safeFunc(url)
	}
	return true, nil
}

// mockCache は ImageCacher インターフェースを実装するのだ。
type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	if m.data == nil {
		m.data = make(map[string]any)
	}
	m.data[key] = value
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{
				InlineData: &genai.Blob{MIMEType: "image/png", Data: data},
			}}},
		}},
	}
}

// mockReader は remoteio.InputReader を実装するのだ。
type mockReader struct {
	objects map[string][]byte
	opened  []string
}

func (m *mockReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.opened = append(m.opened, path)
	data, ok := m.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockReader) List(ctx context.Context, path string, callback func(string) error) error {
	for key := range m.objects {
		if err := callback(key); err != nil {
			return err
		}
	}
	return nil
}
