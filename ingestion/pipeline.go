package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/linkmind/ai"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/fetch"
	"github.com/poiesic/linkmind/storage"
)

const (
	defaultMaxAttempts       = 3
	defaultVisibilityTimeout = 2 * time.Minute
	defaultProcessTimeout    = 90 * time.Second
	defaultBackoffBase       = 5 * time.Second
	defaultBackoffCap        = 5 * time.Minute
	defaultPollInterval      = time.Second
)

// Pipeline orchestrates the ingestion and processing of links.
// It accepts URL submissions, enqueues processing jobs and runs a pool of
// workers that fetch, summarize and embed each link.
type Pipeline struct {
	linkRepository      storage.LinkRepository
	embeddingRepository storage.EmbeddingRepository
	queue               storage.JobQueue
	provider            ai.Provider
	fetcher             fetch.Fetcher
	pool                *ants.Pool

	maxAttempts       int
	visibilityTimeout time.Duration
	processTimeout    time.Duration
	backoffBase       time.Duration
	backoffCap        time.Duration
	pollInterval      time.Duration

	logger *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped sync.WaitGroup
	running bool
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithMaxAttempts sets how many processing attempts a link gets before it
// is marked failed. Default is 3.
func WithMaxAttempts(maxAttempts int) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		p.maxAttempts = maxAttempts
		return nil
	}
}

// WithVisibilityTimeout sets how long a claimed job stays invisible to
// other workers before it is considered abandoned and redelivered.
func WithVisibilityTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.visibilityTimeout = timeout
		}
		return nil
	}
}

// WithProcessTimeout bounds the fetch-summarize-embed work for one job.
// Keep it below the visibility timeout so a slow job fails before its
// claim expires and gets redelivered mid-flight.
func WithProcessTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.processTimeout = timeout
		}
		return nil
	}
}

// WithBackoff sets the exponential retry delay parameters. The delay for a
// link with n attempts is base * 2^n, capped at maxDelay.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if base > 0 {
			p.backoffBase = base
		}
		if maxDelay > 0 {
			p.backoffCap = maxDelay
		}
		return nil
	}
}

// WithPollInterval sets how often the dispatcher checks the queue for jobs
// whose visibility deadline or retry delay has elapsed.
func WithPollInterval(interval time.Duration) Option {
	return func(p *Pipeline) error {
		if interval > 0 {
			p.pollInterval = interval
		}
		return nil
	}
}

// WithFetcher overrides the page fetcher. Default is an HTTP fetcher.
func WithFetcher(fetcher fetch.Fetcher) Option {
	return func(p *Pipeline) error {
		if fetcher != nil {
			p.fetcher = fetcher
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	linkRepository storage.LinkRepository,
	embeddingRepository storage.EmbeddingRepository,
	queue storage.JobQueue,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if linkRepository == nil {
		return nil, ErrLinkRepositoryRequired
	}
	if embeddingRepository == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if queue == nil {
		return nil, ErrQueueRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		linkRepository:      linkRepository,
		embeddingRepository: embeddingRepository,
		queue:               queue,
		provider:            provider,
		fetcher:             fetch.NewHTTPFetcher(),
		pool:                pool,
		maxAttempts:         defaultMaxAttempts,
		visibilityTimeout:   defaultVisibilityTimeout,
		processTimeout:      defaultProcessTimeout,
		backoffBase:         defaultBackoffBase,
		backoffCap:          defaultBackoffCap,
		pollInterval:        defaultPollInterval,
		logger:              slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.pool.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Submit validates and stores a URL for asynchronous processing.
// The link is created in pending status and a job is enqueued; the returned
// ID can be polled with GetStatus. Duplicate submissions of the same URL
// create independent links.
func (p *Pipeline) Submit(ctx context.Context, url string) (core.ID, error) {
	if err := core.ValidateURL(url); err != nil {
		return 0, err
	}

	link, err := p.linkRepository.CreateLink(ctx, &core.Link{URL: url})
	if err != nil {
		return 0, err
	}

	if err := p.queue.Enqueue(ctx, link.Id); err != nil {
		return 0, err
	}

	p.logger.Info("link submitted", "id", link.Id, "url", url)
	return link.Id, nil
}

// GetStatus returns the current processing state of a link.
// Returns storage.ErrNotFound for unknown IDs.
func (p *Pipeline) GetStatus(ctx context.Context, id core.ID) (*core.LinkState, error) {
	link, err := p.linkRepository.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}
	return &core.LinkState{
		Id:           link.Id,
		Status:       link.Status,
		Summary:      link.Summary,
		Tags:         link.Tags,
		FailedReason: link.FailedReason,
		AttemptCount: link.AttemptCount,
	}, nil
}

// RetryFailed re-queues failed links that have attempts left.
// Intended for periodic invocation. Returns the number of links re-queued.
func (p *Pipeline) RetryFailed(ctx context.Context) (int, error) {
	links, err := p.linkRepository.GetFailedRetryable(ctx, p.maxAttempts)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, link := range links {
		if err := p.linkRepository.MarkPending(ctx, link.Id, link.FailedReason); err != nil {
			p.logger.Error("error resetting failed link", "id", link.Id, "err", err)
			continue
		}
		if err := p.queue.Enqueue(ctx, link.Id); err != nil {
			p.logger.Error("error re-queueing failed link", "id", link.Id, "err", err)
			continue
		}
		requeued++
	}

	if requeued > 0 {
		p.logger.Info("re-queued failed links", "count", requeued)
	}
	return requeued, nil
}

// Start launches the dispatcher that claims jobs and hands them to the
// worker pool. Safe to call once; subsequent calls are no-ops until Stop.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})

	p.stopped.Add(1)
	go p.dispatch(p.stop)
}

// Stop halts the dispatcher and waits for in-flight jobs to finish.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.stopped.Wait()
}

// Release releases the worker pool. The pipeline must not be used after
// calling Release.
func (p *Pipeline) Release() {
	p.Stop()
	if p.pool != nil {
		p.pool.Release()
	}
}

// dispatch claims eligible jobs and submits them to the worker pool.
// It wakes on queue notifications and on a poll ticker; the ticker covers
// retry delays and visibility-deadline expirations, which produce no
// notification.
func (p *Pipeline) dispatch(stop <-chan struct{}) {
	defer p.stopped.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		p.drainQueue(stop)

		select {
		case <-stop:
			return
		case <-p.queue.Notifications():
		case <-ticker.C:
		}
	}
}

// drainQueue claims jobs until none are eligible, dispatching each to the
// pool. Pool submission blocks when all workers are busy, which throttles
// claiming so visibility timers don't burn down while jobs wait in memory.
func (p *Pipeline) drainQueue(stop <-chan struct{}) {
	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		default:
		}

		job, err := p.queue.Claim(ctx, p.visibilityTimeout)
		if err != nil {
			p.logger.Error("error claiming job", "err", err)
			return
		}
		if job == nil {
			return
		}

		if err := p.pool.Submit(func() {
			p.processJob(job)
		}); err != nil {
			p.logger.Error("error submitting job to pool", "link_id", job.LinkID, "err", err)
			if nackErr := p.queue.Nack(ctx, job, 0); nackErr != nil {
				p.logger.Error("error returning job to queue", "link_id", job.LinkID, "err", nackErr)
			}
			return
		}
	}
}
