package ai

import "context"

// Summarizer condenses fetched article text into a short summary with tags.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize produces a summary and categorization tags for the given
	// article. Failures are classified with the sentinel errors in this
	// package (ErrRateLimited, ErrTimeout, ErrInvalidContent,
	// ErrUnavailable) so callers can decide whether to retry.
	Summarize(ctx context.Context, title, content string) (*Summary, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Summary is the typed result of a successful summarization call.
type Summary struct {
	// Text is the generated summary. Never empty on success.
	Text string

	// Tags are 3-5 categorization keywords extracted alongside the summary.
	Tags []string
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Summarizer and Embedder
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Summarizer returns the summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
