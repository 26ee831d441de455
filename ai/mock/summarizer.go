// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/linkmind/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows injecting custom behavior via function fields.
type MockSummarizer struct {
	mu sync.Mutex

	// SummarizeFunc allows tests to inject custom summarization behavior.
	// If nil, a deterministic default summary is returned.
	SummarizeFunc func(ctx context.Context, title, content string) (*ai.Summary, error)

	// CallCount tracks the number of Summarize calls for assertions.
	CallCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize implements ai.Summarizer.
// It delegates to SummarizeFunc if set, otherwise produces a deterministic
// summary derived from the title.
func (m *MockSummarizer) Summarize(ctx context.Context, title, content string) (*ai.Summary, error) {
	m.mu.Lock()
	m.CallCount++
	fn := m.SummarizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, title, content)
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ai.ErrInvalidContent)
	}

	return &ai.Summary{
		Text: fmt.Sprintf("- Mock summary of %q.", title),
		Tags: []string{"mock", "test", "summary"},
	}, nil
}

// Calls returns the number of times Summarize has been invoked.
func (m *MockSummarizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears call counts and injected behavior.
func (m *MockSummarizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.SummarizeFunc = nil
}

var _ ai.Summarizer = (*MockSummarizer)(nil)
