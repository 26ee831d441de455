package recommend

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
	"github.com/poiesic/linkmind/storage/badger"
)

func newTestEngine(t *testing.T) (*Engine, storage.LinkRepository, storage.EmbeddingRepository) {
	t.Helper()

	links, embeddings, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	engine, err := NewEngine(links, embeddings)
	require.NoError(t, err)

	return engine, links, embeddings
}

// completeLink creates a link and drives it to done with the given vector.
func completeLink(t *testing.T, links storage.LinkRepository, url string, vector []float32) core.ID {
	t.Helper()
	ctx := context.Background()

	link, err := links.CreateLink(ctx, &core.Link{URL: url})
	require.NoError(t, err)
	_, err = links.MarkProcessing(ctx, link.Id)
	require.NoError(t, err)
	err = links.CompleteLink(ctx, link.Id, "title", "summary of "+url, []string{"tag"}, vector)
	require.NoError(t, err)

	return link.Id
}

func TestRecommendReturnsNearestNeighbors(t *testing.T) {
	engine, links, _ := newTestEngine(t)
	ctx := context.Background()

	subject := completeLink(t, links, "https://example.com/a", []float32{1, 0, 0})
	near := completeLink(t, links, "https://example.com/b", []float32{0.9, 0.1, 0})
	mid := completeLink(t, links, "https://example.com/c", []float32{0.5, 0.5, 0})
	far := completeLink(t, links, "https://example.com/d", []float32{0, 0, 1})

	results, err := engine.Recommend(ctx, subject, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, near, results[0].LinkID)
	assert.Equal(t, mid, results[1].LinkID)
	assert.Equal(t, far, results[2].LinkID)

	// Distances come back ascending.
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	assert.LessOrEqual(t, results[1].Distance, results[2].Distance)

	// The subject never recommends itself.
	for _, r := range results {
		assert.NotEqual(t, subject, r.LinkID)
	}
}

func TestRecommendTruncatesToK(t *testing.T) {
	engine, links, _ := newTestEngine(t)
	ctx := context.Background()

	subject := completeLink(t, links, "https://example.com/a", []float32{1, 0})
	for i := 0; i < 5; i++ {
		completeLink(t, links, fmt.Sprintf("https://example.com/other-%d", i), []float32{1, float32(i) * 0.1})
	}

	results, err := engine.Recommend(ctx, subject, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRecommendFewerCandidatesThanK(t *testing.T) {
	engine, links, _ := newTestEngine(t)
	ctx := context.Background()

	subject := completeLink(t, links, "https://example.com/a", []float32{1, 0})
	completeLink(t, links, "https://example.com/b", []float32{0, 1})

	results, err := engine.Recommend(ctx, subject, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRecommendNotReady(t *testing.T) {
	engine, links, _ := newTestEngine(t)
	ctx := context.Background()

	pending, err := links.CreateLink(ctx, &core.Link{URL: "https://example.com/pending"})
	require.NoError(t, err)

	_, err = engine.Recommend(ctx, pending.Id, 3)
	assert.ErrorIs(t, err, ErrNotReady)

	// Failed links are terminal but still have nothing to recommend from.
	failed, err := links.CreateLink(ctx, &core.Link{URL: "https://example.com/failed"})
	require.NoError(t, err)
	_, err = links.MarkProcessing(ctx, failed.Id)
	require.NoError(t, err)
	require.NoError(t, links.MarkFailed(ctx, failed.Id, "fetch error"))

	_, err = engine.Recommend(ctx, failed.Id, 3)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRecommendUnknownLink(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Recommend(context.Background(), core.ID(424242), 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInterestVectorWeightsRecentLinks(t *testing.T) {
	engine, links, _ := newTestEngine(t)
	ctx := context.Background()

	completeLink(t, links, "https://example.com/a", []float32{1, 0})
	completeLink(t, links, "https://example.com/b", []float32{0, 1})

	profile, err := engine.InterestVector(ctx)
	require.NoError(t, err)
	require.Len(t, profile, 2)

	// Both links completed moments ago, so weights are near-equal and the
	// profile sits close to the midpoint.
	assert.InDelta(t, 0.5, profile[0], 0.01)
	assert.InDelta(t, 0.5, profile[1], 0.01)
}

func TestInterestVectorEmptyStore(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.InterestVector(context.Background())
	assert.ErrorIs(t, err, ErrNoCompletedLinks)
}

func TestRecommendForInterest(t *testing.T) {
	engine, links, _ := newTestEngine(t)
	ctx := context.Background()

	a := completeLink(t, links, "https://example.com/a", []float32{1, 0})
	b := completeLink(t, links, "https://example.com/b", []float32{0.9, 0.1})
	c := completeLink(t, links, "https://example.com/c", []float32{0, 1})

	results, err := engine.RecommendForInterest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The profile leans toward the first axis, so a and b beat c.
	got := []core.ID{results[0].LinkID, results[1].LinkID}
	assert.Contains(t, got, a)
	assert.Contains(t, got, b)
	assert.NotContains(t, got, c)
}

func TestNewEngineValidation(t *testing.T) {
	links, embeddings, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewEngine(nil, embeddings)
	assert.ErrorIs(t, err, ErrLinkRepositoryRequired)

	_, err = NewEngine(links, nil)
	assert.ErrorIs(t, err, ErrEmbeddingRepositoryRequired)
}
