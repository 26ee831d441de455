package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/linkmind/ai"
	"github.com/poiesic/linkmind/ai/mock"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/fetch"
	"github.com/poiesic/linkmind/storage"
	"github.com/poiesic/linkmind/storage/badger"
)

// stubFetcher returns a fixed page or error without touching the network.
type stubFetcher struct {
	page *fetch.Page
	err  error
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type testEnv struct {
	links      storage.LinkRepository
	embeddings storage.EmbeddingRepository
	queue      storage.JobQueue
	provider   ai.Provider
	pipeline   *Pipeline
}

func newTestEnv(t *testing.T, fetcher fetch.Fetcher, opts ...Option) *testEnv {
	t.Helper()

	links, embeddings, queue, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider()

	allOpts := append([]Option{
		WithFetcher(fetcher),
		WithWorkers(1),
		WithBackoff(time.Millisecond, 10*time.Millisecond),
	}, opts...)

	pipeline, err := NewPipeline(links, embeddings, queue, provider, allOpts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &testEnv{
		links:      links,
		embeddings: embeddings,
		queue:      queue,
		provider:   provider,
		pipeline:   pipeline,
	}
}

// runOne claims the next eligible job and processes it synchronously.
func (e *testEnv) runOne(t *testing.T) {
	t.Helper()
	job, err := e.queue.Claim(context.Background(), time.Minute)
	require.NoError(t, err)
	require.NotNil(t, job, "expected an eligible job")
	e.pipeline.processJob(job)
}

func validPage() *fetch.Page {
	return &fetch.Page{
		Title:   "Riverside Park Opens",
		Content: "The city council inaugurated a 12-hectare park along the river on Saturday with free events all summer.",
	}
}

func TestSubmitCreatesPendingLink(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()})
	ctx := context.Background()

	id, err := env.pipeline.Submit(ctx, "https://example.com/article")
	require.NoError(t, err)
	require.NotZero(t, id)

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, state.Status)
	assert.Empty(t, state.Summary)
	assert.Zero(t, state.AttemptCount)

	queued, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()})

	_, err := env.pipeline.Submit(context.Background(), "not a url")
	assert.Error(t, err)

	_, err = env.pipeline.Submit(context.Background(), "")
	assert.Error(t, err)
}

func TestProcessLinkToDone(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()})
	ctx := context.Background()

	id, err := env.pipeline.Submit(ctx, "https://example.com/article")
	require.NoError(t, err)

	env.runOne(t)

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, state.Status)
	assert.NotEmpty(t, state.Summary)
	assert.NotEmpty(t, state.Tags)
	assert.Equal(t, 1, state.AttemptCount)

	// The embedding must be visible together with the done status.
	embedding, err := env.embeddings.Get(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, embedding.Vector)

	// The job is gone.
	queued, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestRetryableFailureExhaustsAttempts(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{err: fetch.ErrServerError})
	ctx := context.Background()

	id, err := env.pipeline.Submit(ctx, "https://example.com/article")
	require.NoError(t, err)

	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		// Retry delays are a few milliseconds in the test config.
		require.Eventually(t, func() bool {
			job, claimErr := env.queue.Claim(ctx, time.Minute)
			if claimErr != nil || job == nil {
				return false
			}
			env.pipeline.processJob(job)
			return true
		}, time.Second, time.Millisecond, "attempt %d never became claimable", attempt)
	}

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, state.Status)
	assert.Equal(t, defaultMaxAttempts, state.AttemptCount)
	assert.NotEmpty(t, state.FailedReason)

	queued, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued, "exhausted job must be removed")

	_, err = env.embeddings.Get(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound, "failed link must have no embedding")
}

func TestPermanentFailureFailsImmediately(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{err: fetch.ErrContentUnavailable})
	ctx := context.Background()

	id, err := env.pipeline.Submit(ctx, "https://example.com/gone")
	require.NoError(t, err)

	env.runOne(t)

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, state.Status)
	assert.Equal(t, 1, state.AttemptCount, "permanent failures must not be retried")
}

func TestInvalidContentIsPermanent(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()})
	ctx := context.Background()

	summarizer := env.provider.(*mock.MockProvider).GetMockSummarizer()
	summarizer.SummarizeFunc = func(ctx context.Context, title, content string) (*ai.Summary, error) {
		return nil, ai.ErrInvalidContent
	}

	id, err := env.pipeline.Submit(ctx, "https://example.com/junk")
	require.NoError(t, err)

	env.runOne(t)

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, state.Status)
	assert.Equal(t, 1, state.AttemptCount)
}

func TestRedeliveredJobForDoneLinkIsNoOp(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()})
	ctx := context.Background()

	id, err := env.pipeline.Submit(ctx, "https://example.com/article")
	require.NoError(t, err)

	env.runOne(t)

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, core.StatusDone, state.Status)

	summarizer := env.provider.(*mock.MockProvider).GetMockSummarizer()
	callsBefore := summarizer.Calls()

	// Simulate at-least-once redelivery of the same work.
	require.NoError(t, env.queue.Enqueue(ctx, id))
	env.runOne(t)

	after, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, after.Status)
	assert.Equal(t, state.AttemptCount, after.AttemptCount, "redelivery must not count as an attempt")
	assert.Equal(t, callsBefore, summarizer.Calls(), "redelivery must not re-summarize")

	queued, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestRetryFailedRequeuesLinks(t *testing.T) {
	fetcher := &stubFetcher{err: fetch.ErrServerError}
	env := newTestEnv(t, fetcher, WithMaxAttempts(1))
	ctx := context.Background()

	id, err := env.pipeline.Submit(ctx, "https://example.com/flaky")
	require.NoError(t, err)

	env.runOne(t)

	state, err := env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, core.StatusFailed, state.Status)

	// With attempts below the retry threshold nothing is eligible.
	requeued, err := env.pipeline.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Zero(t, requeued)

	// Raise the ceiling and the link becomes eligible again.
	env.pipeline.maxAttempts = 3
	fetcher.err = nil
	fetcher.page = validPage()

	requeued, err = env.pipeline.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	env.runOne(t)

	state, err = env.pipeline.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, state.Status)
}

func TestPipelineEndToEnd(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()}, WithPollInterval(5*time.Millisecond))
	ctx := context.Background()

	env.pipeline.Start()
	defer env.pipeline.Stop()

	id, err := env.pipeline.Submit(ctx, "https://example.com/article")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		state, statusErr := env.pipeline.GetStatus(ctx, id)
		return statusErr == nil && state.Status == core.StatusDone
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{page: validPage()})
	env.pipeline.backoffBase = time.Second
	env.pipeline.backoffCap = 10 * time.Second

	assert.Equal(t, 2*time.Second, env.pipeline.backoffDelay(1))
	assert.Equal(t, 4*time.Second, env.pipeline.backoffDelay(2))
	assert.Equal(t, 8*time.Second, env.pipeline.backoffDelay(3))
	assert.Equal(t, 10*time.Second, env.pipeline.backoffDelay(4))
	assert.Equal(t, 10*time.Second, env.pipeline.backoffDelay(60), "large attempt counts must not overflow")
}

func TestNewPipelineValidation(t *testing.T) {
	links, embeddings, queue, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()

	_, err = NewPipeline(nil, embeddings, queue, provider)
	assert.ErrorIs(t, err, ErrLinkRepositoryRequired)

	_, err = NewPipeline(links, nil, queue, provider)
	assert.ErrorIs(t, err, ErrEmbeddingRepositoryRequired)

	_, err = NewPipeline(links, embeddings, nil, provider)
	assert.ErrorIs(t, err, ErrQueueRequired)

	_, err = NewPipeline(links, embeddings, queue, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
