package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

func TestEmbeddingPutAndGet(t *testing.T) {
	_, embeddings, _ := newTestStores(t)
	ctx := context.Background()

	vector := []float32{0.25, -0.5, 1.0}
	if err := embeddings.Put(ctx, core.ID(1), vector); err != nil {
		t.Fatalf("Failed to put embedding: %v", err)
	}

	emb, err := embeddings.Get(ctx, core.ID(1))
	if err != nil {
		t.Fatalf("Failed to get embedding: %v", err)
	}
	if emb.LinkID != core.ID(1) {
		t.Fatalf("Expected link ID 1, got %d", emb.LinkID)
	}
	if len(emb.Vector) != 3 || emb.Vector[2] != 1.0 {
		t.Fatalf("Expected vector to round-trip, got %v", emb.Vector)
	}

	_, err = embeddings.Get(ctx, core.ID(404))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestEmbeddingPutIsWriteOnce(t *testing.T) {
	_, embeddings, _ := newTestStores(t)
	ctx := context.Background()

	if err := embeddings.Put(ctx, core.ID(1), []float32{1}); err != nil {
		t.Fatalf("Failed to put embedding: %v", err)
	}
	err := embeddings.Put(ctx, core.ID(1), []float32{2})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Reput overwrites.
	if err := embeddings.Reput(ctx, core.ID(1), []float32{3}); err != nil {
		t.Fatalf("Failed to reput embedding: %v", err)
	}
	emb, err := embeddings.Get(ctx, core.ID(1))
	if err != nil {
		t.Fatalf("Failed to get embedding: %v", err)
	}
	if emb.Vector[0] != 3 {
		t.Fatalf("Expected reput to overwrite, got %v", emb.Vector)
	}
}

func TestEmbeddingQueryOrdering(t *testing.T) {
	_, embeddings, _ := newTestStores(t)
	ctx := context.Background()

	subject := []float32{1, 0, 0}
	fixtures := map[core.ID][]float32{
		core.ID(1): {0, 0, 1},      // far
		core.ID(2): {0.9, 0.1, 0},  // nearest
		core.ID(3): {0.5, 0.5, 0},  // middle
	}
	for id, vec := range fixtures {
		if err := embeddings.Put(ctx, id, vec); err != nil {
			t.Fatalf("Failed to put embedding: %v", err)
		}
	}

	results, err := embeddings.Query(ctx, subject, 10, 0)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].LinkID != core.ID(2) || results[1].LinkID != core.ID(3) || results[2].LinkID != core.ID(1) {
		t.Fatalf("Expected ascending distance order 2,3,1, got %d,%d,%d",
			results[0].LinkID, results[1].LinkID, results[2].LinkID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatal("Expected distances to be non-decreasing")
		}
	}
}

func TestEmbeddingQueryTruncatesAndExcludes(t *testing.T) {
	_, embeddings, _ := newTestStores(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := embeddings.Put(ctx, core.ID(i), []float32{float32(i), 1}); err != nil {
			t.Fatalf("Failed to put embedding: %v", err)
		}
	}

	results, err := embeddings.Query(ctx, []float32{1, 1}, 2, core.ID(1))
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for _, rec := range results {
		if rec.LinkID == core.ID(1) {
			t.Fatal("Expected excluded ID to be absent")
		}
	}
}

func TestEmbeddingQueryTieBreaksByInsertionOrder(t *testing.T) {
	_, embeddings, _ := newTestStores(t)
	ctx := context.Background()

	// Identical vectors tie on distance; insertion (ID) order must hold.
	for _, id := range []core.ID{3, 7, 9} {
		if err := embeddings.Put(ctx, id, []float32{1, 1}); err != nil {
			t.Fatalf("Failed to put embedding: %v", err)
		}
	}

	results, err := embeddings.Query(ctx, []float32{1, 1}, 3, 0)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].LinkID != core.ID(3) || results[1].LinkID != core.ID(7) || results[2].LinkID != core.ID(9) {
		t.Fatalf("Expected insertion order 3,7,9, got %d,%d,%d",
			results[0].LinkID, results[1].LinkID, results[2].LinkID)
	}
}

func TestEmbeddingQueryEmptyStore(t *testing.T) {
	_, embeddings, _ := newTestStores(t)

	results, err := embeddings.Query(context.Background(), []float32{1}, 5, 0)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected no results, got %d", len(results))
	}
}
