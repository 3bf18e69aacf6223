package classifier

import (
	"context"
	"sync"

	"github.com/tallyfold/tallyfold/internal/llm"
)

// mockClient is a scriptable llm.Client for tests. Responses are served
// in order; the last one repeats once the script runs out.
type mockClient struct {
	err       error
	modelsErr error
	responses []string
	prompts   []string
	models    []string
	chatCalls int
	connected bool
	mu        sync.Mutex
}

func (m *mockClient) ChatCompletion(_ context.Context, prompt string) (llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chatCalls++
	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		return llm.ChatResponse{}, m.err
	}

	content := ""
	if len(m.responses) > 0 {
		idx := m.chatCalls - 1
		if idx >= len(m.responses) {
			idx = len(m.responses) - 1
		}
		content = m.responses[idx]
	}
	return llm.ChatResponse{Content: content, Model: "mock"}, nil
}

func (m *mockClient) CheckConnection(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockClient) ListModels(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modelsErr != nil {
		return nil, m.modelsErr
	}
	return m.models, nil
}

func (m *mockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chatCalls
}
