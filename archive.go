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


package linkmind

import (
	"io"
	"log/slog"

	"github.com/poiesic/linkmind/ai"
	"github.com/poiesic/linkmind/ai/openai"
	"github.com/poiesic/linkmind/ingestion"
	"github.com/poiesic/linkmind/recommend"
	"github.com/poiesic/linkmind/reembed"
	"github.com/poiesic/linkmind/storage"
	"github.com/poiesic/linkmind/storage/badger"
)

// Archive bundles the stores and AI provider behind one handle and hands
// out the pipeline and recommendation engine wired to them.
type Archive struct {
	backend       *badger.Backend
	linkRepo      storage.LinkRepository
	embeddingRepo storage.EmbeddingRepository
	queue         storage.JobQueue
	provider      ai.Provider
	logger        *slog.Logger
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*archiveOptions)

type archiveOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(config *ai.Config) ArchiveOption {
	return func(o *archiveOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing
// one from configuration. Used by tests to inject mocks.
func WithProvider(provider ai.Provider) ArchiveOption {
	return func(o *archiveOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory. Nothing survives Close.
func WithInMemoryStorage() ArchiveOption {
	return func(o *archiveOptions) {
		o.inMemory = true
	}
}

// NewArchive opens the link archive at filePath.
func NewArchive(filePath string, opts ...ArchiveOption) (*Archive, error) {
	options := &archiveOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	linkRepo, err := badger.NewLinkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embeddingRepo := badger.NewEmbeddingRepository(backend)
	queue := badger.NewJobQueue(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			queue.Close()
			linkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Archive{
		backend:       backend,
		linkRepo:      linkRepo,
		embeddingRepo: embeddingRepo,
		queue:         queue,
		provider:      provider,
		logger:        slog.Default(),
	}, nil
}

// Close shuts down the AI provider, repositories and backend.
func (a *Archive) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.queue.Close(); err != nil {
		a.logger.Error("error closing job queue", "err", err)
		return err
	}
	if err := a.embeddingRepo.Close(); err != nil {
		a.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := a.linkRepo.Close(); err != nil {
		a.logger.Error("error closing link repository", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (a *Archive) LinkRepository() storage.LinkRepository {
	return a.linkRepo
}

func (a *Archive) EmbeddingRepository() storage.EmbeddingRepository {
	return a.embeddingRepo
}

func (a *Archive) JobQueue() storage.JobQueue {
	return a.queue
}

func (a *Archive) Provider() ai.Provider {
	return a.provider
}

// NewPipeline builds an ingestion pipeline on this archive's stores.
func (a *Archive) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(a.linkRepo, a.embeddingRepo, a.queue, a.provider, opts...)
}

// NewRecommendEngine builds a recommendation engine on this archive's stores.
func (a *Archive) NewRecommendEngine(opts ...recommend.Option) (*recommend.Engine, error) {
	return recommend.NewEngine(a.linkRepo, a.embeddingRepo, opts...)
}

// NewReembedder builds a reembedder using the archive's current embedder.
func (a *Archive) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(a.linkRepo, a.embeddingRepo, a.provider.Embedder(), config, progress)
}
