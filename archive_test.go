package linkmind

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/linkmind/ai/mock"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/fetch"
	"github.com/poiesic/linkmind/ingestion"
)

type staticFetcher struct{}

func (staticFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	return &fetch.Page{
		Title:   "Article at " + url,
		Content: "Body text for " + url + " long enough to summarize in tests.",
	}, nil
}

func newTestArchive(t *testing.T) *Archive {
	t.Helper()

	archive, err := NewArchive("", WithInMemoryStorage(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	return archive
}

func TestArchiveSubmitProcessRecommend(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	pipeline, err := archive.NewPipeline(
		ingestion.WithFetcher(staticFetcher{}),
		ingestion.WithWorkers(2),
		ingestion.WithPollInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	defer pipeline.Release()

	pipeline.Start()

	ids := make([]core.ID, 0, 4)
	for i := 0; i < 4; i++ {
		id, submitErr := pipeline.Submit(ctx, fmt.Sprintf("https://example.com/article-%d", i))
		require.NoError(t, submitErr)
		ids = append(ids, id)
	}

	for _, id := range ids {
		require.Eventually(t, func() bool {
			state, statusErr := pipeline.GetStatus(ctx, id)
			return statusErr == nil && state.Status == core.StatusDone
		}, 5*time.Second, 10*time.Millisecond, "link %d never completed", id)
	}

	pipeline.Stop()

	engine, err := archive.NewRecommendEngine()
	require.NoError(t, err)

	results, err := engine.Recommend(ctx, ids[0], 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, r := range results {
		assert.NotEqual(t, ids[0], r.LinkID)
	}
}

func TestArchiveReembed(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	link, err := archive.LinkRepository().CreateLink(ctx, &core.Link{URL: "https://example.com/a"})
	require.NoError(t, err)
	_, err = archive.LinkRepository().MarkProcessing(ctx, link.Id)
	require.NoError(t, err)
	require.NoError(t, archive.LinkRepository().CompleteLink(ctx, link.Id, "t", "old summary", nil, []float32{1, 0}))

	reembedder := archive.NewReembedder(nil, io.Discard)
	require.NoError(t, reembedder.Run(ctx))

	embedding, err := archive.EmbeddingRepository().Get(ctx, link.Id)
	require.NoError(t, err)
	assert.NotEqual(t, []float32{1, 0}, embedding.Vector)
}
