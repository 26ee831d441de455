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
	"hash/fnv"
	"math"
	"sync"

	"github.com/poiesic/linkmind/ai"
)

// mockVectorDim is the dimensionality of generated mock embeddings.
const mockVectorDim = 16

// MockEmbedder is a test double for ai.Embedder.
// It allows injecting custom behavior via function fields.
type MockEmbedder struct {
	mu sync.Mutex

	// EmbedTextFunc allows tests to inject custom single-text behavior.
	// If nil, a deterministic vector derived from the text is returned.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc allows tests to inject custom batch behavior.
	// If nil, EmbedText is applied to each input.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// CallCount tracks the total number of embedding calls for assertions.
	CallCount int
}

// NewMockEmbedder creates a mock embedder with default behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText implements ai.Embedder.
// Without an injected function it returns a deterministic unit vector
// derived from the text, so identical texts always embed identically.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	fn := m.EmbedTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return generateDeterministicVector(text), nil
}

// EmbedTexts implements ai.Embedder.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	fn := m.EmbedTextsFunc
	m.mu.Unlock()

	if fn != nil {
		m.mu.Lock()
		m.CallCount++
		m.mu.Unlock()
		return fn(ctx, texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := m.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// Calls returns the number of embedding calls made so far.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears call counts and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// generateDeterministicVector produces a normalized pseudo-random vector
// seeded by an FNV hash of the text. The same text always yields the same
// vector, which lets tests reason about distances.
func generateDeterministicVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vector := make([]float32, mockVectorDim)
	var norm float64
	for i := range vector {
		// xorshift64 keeps the components spread without pulling in math/rand
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		component := float64(int64(seed)) / float64(math.MaxInt64)
		vector[i] = float32(component)
		norm += component * component
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vector[0] = 1
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}

var _ ai.Embedder = (*MockEmbedder)(nil)
