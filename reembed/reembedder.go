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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/linkmind/ai"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of links to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of links)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embeddings of all completed links.
type Reembedder struct {
	links      storage.LinkRepository
	embeddings storage.EmbeddingRepository
	embedder   ai.Embedder
	config     *Config
	progress   io.Writer
	iterator   *LinkIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	links storage.LinkRepository,
	embeddings storage.EmbeddingRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		links:      links,
		embeddings: embeddings,
		embedder:   embedder,
		config:     config,
		progress:   progress,
		iterator:   NewLinkIterator(links, config.BatchSize),
	}
}

// Run executes the reembedding operation.
// Every completed link's summary is embedded with the configured embedder
// and the stored vector is overwritten. Progress is reported to the
// configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	all, err := r.links.GetRecentCompleted(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to query links: %w", err)
	}

	totalLinks := len(all)
	if totalLinks == 0 {
		fmt.Fprintf(r.progress, "No completed links found (0 links)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d links (batch size: %d)\n",
		totalLinks, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalLinks, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	err = r.iterator.ForEach(ctx, func(links []*core.Link) error {
		if err := r.processBatch(ctx, links); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(links)
		tracker.Update(processed)

		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d links in %v (%.1f links/sec)\n",
		totalLinks, elapsed.Round(time.Second), float64(totalLinks)/elapsed.Seconds())

	return nil
}

// processBatch embeds the summaries of one batch and overwrites the stored
// vectors. Both the embedding call and each write get retries with backoff.
func (r *Reembedder) processBatch(ctx context.Context, links []*core.Link) error {
	texts := make([]string, len(links))
	for i, link := range links {
		texts[i] = link.Summary
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = r.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}

	if len(vectors) != len(links) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(links), len(vectors))
	}

	for i, link := range links {
		vector := vectors[i]
		err := RetryWithBackoff(ctx, func() error {
			return r.embeddings.Reput(ctx, link.Id, vector)
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to store embedding for link %d: %w", link.Id, err)
		}
	}

	return nil
}
