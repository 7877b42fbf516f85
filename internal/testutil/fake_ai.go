package testutil

import (
	"context"
	"sync"
)

// FakeAIClient returns a canned completion or a canned error
type FakeAIClient struct {
	mu       sync.Mutex
	Response string
	Err      error
	Calls    int

	// LastUserPrompt captures the most recent prompt for assertions
	LastUserPrompt string
}

func NewFakeAIClient() *FakeAIClient {
	return &FakeAIClient{}
}

func (f *FakeAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastUserPrompt = userPrompt
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}
