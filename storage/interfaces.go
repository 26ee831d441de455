package storage

import (
	"context"
	"time"

	"github.com/poiesic/linkmind/core"
)

// LinkRepository provides operations for managing link records.
// Implementations must be thread-safe and support concurrent access.
type LinkRepository interface {
	// CreateLink stores a new link in StatusPending.
	// Assigns a sequence ID and sets CreatedAt/UpdatedAt.
	// Returns the link with the generated ID populated.
	CreateLink(ctx context.Context, link *core.Link) (*core.Link, error)

	// GetLink retrieves a single link by ID.
	// Returns ErrNotFound if the link doesn't exist.
	GetLink(ctx context.Context, id core.ID) (*core.Link, error)

	// FindByURL retrieves the IDs of all links submitted for a URL,
	// in submission order. Duplicate submissions produce independent
	// records, so multiple IDs are possible.
	FindByURL(ctx context.Context, url string) ([]core.ID, error)

	// MarkProcessing transitions a link to StatusProcessing and increments
	// AttemptCount. Valid from StatusPending, or from StatusProcessing when
	// a prior claim's visibility deadline expired. Returns the updated link.
	// Returns ErrConflict if the link is already terminal.
	MarkProcessing(ctx context.Context, id core.ID) (*core.Link, error)

	// MarkPending returns a link to StatusPending after a retryable
	// failure, recording the reason for operator visibility.
	MarkPending(ctx context.Context, id core.ID, reason string) error

	// MarkFailed transitions a link to terminal StatusFailed.
	MarkFailed(ctx context.Context, id core.ID, reason string) error

	// CompleteLink transitions a link to StatusDone with its summary, title
	// and tags, and writes the embedding in the same transaction. Either
	// both the status change and the embedding become visible, or neither.
	// Returns ErrDuplicateKey if an embedding already exists for the link.
	// Returns ErrConflict if the link is already terminal.
	CompleteLink(ctx context.Context, id core.ID, title, summary string, tags []string, vector []float32) error

	// GetRecentCompleted retrieves up to limit StatusDone links, most
	// recently created first. A non-positive limit returns all.
	GetRecentCompleted(ctx context.Context, limit int) ([]*core.Link, error)

	// GetFailedRetryable retrieves StatusFailed links with AttemptCount
	// below the given threshold. Used for periodic re-queueing.
	GetFailedRetryable(ctx context.Context, maxAttempts int) ([]*core.Link, error)

	// Close releases repository resources.
	Close() error
}

// EmbeddingRepository provides operations for managing embedding vectors.
// Implementations must be thread-safe and support concurrent access.
type EmbeddingRepository interface {
	// Put stores an embedding for a link. Write-once: returns
	// ErrDuplicateKey if an embedding already exists for the link.
	Put(ctx context.Context, linkID core.ID, vector []float32) error

	// Reput overwrites an existing embedding. Used only by re-embedding
	// maintenance; the pipeline never overwrites vectors.
	Reput(ctx context.Context, linkID core.ID, vector []float32) error

	// Get retrieves the embedding for a link.
	// Returns ErrNotFound if no embedding exists.
	Get(ctx context.Context, linkID core.ID) (*core.Embedding, error)

	// Query returns the k nearest stored vectors by cosine distance,
	// ascending, ties broken by insertion order. The vector stored under
	// excludeID is omitted; pass 0 to exclude nothing. An empty store
	// yields an empty result, never an error.
	Query(ctx context.Context, vector []float32, k int, excludeID core.ID) ([]core.Recommendation, error)

	// Close releases repository resources.
	Close() error
}

// JobQueue is a durable at-least-once hand-off of link processing work.
// A claimed job is invisible to other consumers until it is acknowledged,
// negatively acknowledged, or its visibility deadline elapses. Consumers
// must be idempotent. FIFO order is not guaranteed.
type JobQueue interface {
	// Enqueue adds a job for a link. An unclaimed job already queued for
	// the same link is coalesced rather than duplicated.
	Enqueue(ctx context.Context, linkID core.ID) error

	// Claim hands an eligible job to the caller and starts its visibility
	// timer. Returns nil, nil when no job is eligible. No two concurrent
	// claims return the same job.
	Claim(ctx context.Context, visibility time.Duration) (*core.Job, error)

	// Ack removes a claimed job from the queue.
	Ack(ctx context.Context, job *core.Job) error

	// Nack makes a claimed job claimable again after the given delay.
	Nack(ctx context.Context, job *core.Job, delay time.Duration) error

	// Len reports the number of queued jobs, claimed or not.
	Len(ctx context.Context) (int, error)

	// Notifications returns a channel that receives a signal when a job
	// may have become claimable. Best-effort: consumers should still poll
	// for visibility-deadline expirations.
	Notifications() <-chan struct{}

	// Close releases queue resources.
	Close() error
}
