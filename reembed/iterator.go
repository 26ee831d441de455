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


package reembed

import (
	"context"

	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

const (
	// DefaultBatchSize is the default number of links to process in each batch
	DefaultBatchSize = 100
)

// LinkIterator iterates over all completed links in batches.
type LinkIterator struct {
	repo      storage.LinkRepository
	batchSize int
}

// NewLinkIterator creates a new link iterator.
// batchSize: number of links to process in each batch (must be > 0)
func NewLinkIterator(repo storage.LinkRepository, batchSize int) *LinkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &LinkIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all completed links, calling fn for each batch.
// Iteration stops on first error from fn or when all links are processed.
// Context cancellation is checked between batches.
func (it *LinkIterator) ForEach(ctx context.Context, fn func([]*core.Link) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	links, err := it.repo.GetRecentCompleted(ctx, 0)
	if err != nil {
		return err
	}

	if len(links) == 0 {
		return nil
	}

	for i := 0; i < len(links); i += it.batchSize {
		end := i + it.batchSize
		if end > len(links) {
			end = len(links)
		}

		if err := fn(links[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
