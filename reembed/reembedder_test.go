package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/linkmind/ai/mock"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
	"github.com/poiesic/linkmind/storage/badger"
)

func newStores(t *testing.T) (storage.LinkRepository, storage.EmbeddingRepository) {
	t.Helper()
	links, embeddings, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return links, embeddings
}

func completeLink(t *testing.T, links storage.LinkRepository, url string, vector []float32) core.ID {
	t.Helper()
	ctx := context.Background()

	link, err := links.CreateLink(ctx, &core.Link{URL: url})
	require.NoError(t, err)
	_, err = links.MarkProcessing(ctx, link.Id)
	require.NoError(t, err)
	require.NoError(t, links.CompleteLink(ctx, link.Id, "title", "summary of "+url, []string{"tag"}, vector))

	return link.Id
}

func TestReembedderOverwritesVectors(t *testing.T) {
	links, embeddings := newStores(t)
	ctx := context.Background()

	old := []float32{1, 0, 0}
	ids := make([]core.ID, 0, 3)
	for i := 0; i < 3; i++ {
		ids = append(ids, completeLink(t, links, fmt.Sprintf("https://example.com/%d", i), old))
	}

	embedder := mock.NewMockEmbedder()
	var progress bytes.Buffer
	reembedder := NewReembedder(links, embeddings, embedder, nil, &progress)

	require.NoError(t, reembedder.Run(ctx))

	for _, id := range ids {
		embedding, err := embeddings.Get(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, old, embedding.Vector, "vector for link %d should be replaced", id)
	}

	assert.Contains(t, progress.String(), "Reembedding complete")
}

func TestReembedderSkipsPendingLinks(t *testing.T) {
	links, embeddings := newStores(t)
	ctx := context.Background()

	_, err := links.CreateLink(ctx, &core.Link{URL: "https://example.com/pending"})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	var progress bytes.Buffer
	reembedder := NewReembedder(links, embeddings, embedder, nil, &progress)

	require.NoError(t, reembedder.Run(ctx))
	assert.Zero(t, embedder.Calls(), "pending links must not be embedded")
	assert.Contains(t, progress.String(), "No completed links")
}

func TestReembedderPropagatesEmbedderFailure(t *testing.T) {
	links, embeddings := newStores(t)
	ctx := context.Background()

	completeLink(t, links, "https://example.com/a", []float32{1, 0})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder down")
	}

	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond

	var progress bytes.Buffer
	reembedder := NewReembedder(links, embeddings, embedder, config, &progress)

	err := reembedder.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder down")
}

func TestLinkIteratorBatches(t *testing.T) {
	links, _ := newStores(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		completeLink(t, links, fmt.Sprintf("https://example.com/%d", i), []float32{1, 0})
	}

	iterator := NewLinkIterator(links, 2)
	var batches []int
	err := iterator.ForEach(ctx, func(batch []*core.Link) error {
		batches = append(batches, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, batches)
}

func TestLinkIteratorStopsOnError(t *testing.T) {
	links, _ := newStores(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		completeLink(t, links, fmt.Sprintf("https://example.com/%d", i), []float32{1, 0})
	}

	iterator := NewLinkIterator(links, 2)
	calls := 0
	err := iterator.ForEach(ctx, func(batch []*core.Link) error {
		calls++
		return errors.New("stop")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after retries", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error {
			return errors.New("persistent")
		}, 2, time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "persistent")
	})

	t.Run("rejects invalid max attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cancelCtx, func() error { return errors.New("never") }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
