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


package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

// defaultK is the number of recommendations returned when the caller
// doesn't specify one.
const defaultK = 5

// Engine produces link recommendations from stored embeddings.
type Engine struct {
	linkRepository      storage.LinkRepository
	embeddingRepository storage.EmbeddingRepository
	logger              *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a recommendation engine.
func NewEngine(
	linkRepository storage.LinkRepository,
	embeddingRepository storage.EmbeddingRepository,
	opts ...Option,
) (*Engine, error) {
	if linkRepository == nil {
		return nil, ErrLinkRepositoryRequired
	}
	if embeddingRepository == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}

	e := &Engine{
		linkRepository:      linkRepository,
		embeddingRepository: embeddingRepository,
		logger:              slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Recommend returns up to k links most similar to the given link, closest
// first. The link itself is never among the results.
//
// Returns storage.ErrNotFound for unknown IDs and ErrNotReady for links
// that have not completed processing, including failed ones.
func (e *Engine) Recommend(ctx context.Context, linkID core.ID, k int) ([]core.Recommendation, error) {
	if k <= 0 {
		k = defaultK
	}

	link, err := e.linkRepository.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.Status != core.StatusDone {
		return nil, fmt.Errorf("%w: link %d is %s", ErrNotReady, linkID, link.Status.String())
	}

	embedding, err := e.embeddingRepository.Get(ctx, linkID)
	if err != nil {
		return nil, err
	}

	results, err := e.embeddingRepository.Query(ctx, embedding.Vector, k, linkID)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("recommendations computed", "link_id", linkID, "k", k, "results", len(results))
	return results, nil
}
