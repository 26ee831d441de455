package badger

import (
	"context"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
//
// Query uses cosine distance (1 - cosine similarity). Text embeddings from
// OpenAI-compatible APIs are normalized, so cosine is the appropriate metric.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{
		backend: backend,
	}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Put stores an embedding for a link. Write-once.
func (r *EmbeddingRepository) Put(ctx context.Context, linkID core.ID, vector []float32) error {
	return r.write(linkID, vector, false)
}

// Reput overwrites an existing embedding. Re-embedding maintenance only.
func (r *EmbeddingRepository) Reput(ctx context.Context, linkID core.ID, vector []float32) error {
	return r.write(linkID, vector, true)
}

func (r *EmbeddingRepository) write(linkID core.ID, vector []float32, overwrite bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(linkID)

		if !overwrite {
			if _, err := tx.Get(key); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}
		}

		emb := &core.Embedding{LinkID: linkID, Vector: vector}
		if err := tx.Set(key, storage.MarshalEmbedding(emb)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Get retrieves the embedding for a link.
func (r *EmbeddingRepository) Get(ctx context.Context, linkID core.ID) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(linkID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalEmbedding(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// Query returns the k nearest stored vectors by cosine distance, ascending.
// Embedding keys are big-endian IDs, so the iteration visits vectors in
// insertion order; the stable sort preserves that order for equal distances.
func (r *EmbeddingRepository) Query(ctx context.Context, vector []float32, k int, excludeID core.ID) ([]core.Recommendation, error) {
	var results []core.Recommendation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var emb *core.Embedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				emb, err = storage.UnmarshalEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}
			if emb == nil || emb.LinkID == excludeID || len(emb.Vector) == 0 {
				continue
			}

			results = append(results, core.Recommendation{
				LinkID:   emb.LinkID,
				Distance: cosineDistance(vector, emb.Vector),
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b core.Recommendation) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosineDistance calculates 1 - cosine similarity of two vectors.
// A zero-magnitude vector is maximally distant.
func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	sim := dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
	return 1 - sim
}
