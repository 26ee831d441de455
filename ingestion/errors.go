package ingestion

import "errors"

var (
	// ErrLinkRepositoryRequired is returned when a link repository is not provided.
	ErrLinkRepositoryRequired = errors.New("link repository required")

	// ErrEmbeddingRepositoryRequired is returned when an embedding repository is not provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository required")

	// ErrQueueRequired is returned when a job queue is not provided.
	ErrQueueRequired = errors.New("job queue required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrPipelineStopped is returned when submitting to a stopped pipeline.
	ErrPipelineStopped = errors.New("pipeline stopped")
)
