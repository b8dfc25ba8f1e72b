package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a deterministic client for tests and demos. It replays the
// scripted errors first, then answers every request.
type MockClient struct {
	mu       sync.Mutex
	calls    int
	errs     []error
	requests []Request
}

// NewMockClient returns a mock that fails with errs, in order, before succeeding.
func NewMockClient(errs ...error) *MockClient {
	return &MockClient{errs: errs}
}

func (m *MockClient) Complete(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if m.calls <= len(m.errs) && m.errs[m.calls-1] != nil {
		return Response{}, m.errs[m.calls-1]
	}
	content := fmt.Sprintf("Mock completion for: %s", req.Prompt)
	return Response{
		Content:      content,
		TokensUsed:   (len(req.System)+len(req.Prompt)+len(content))/4 + 1,
		FinishReason: "stop",
	}, nil
}

// Calls returns how many requests were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of the requests seen so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
