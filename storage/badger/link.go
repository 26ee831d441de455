package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

// LinkRepository implements storage.LinkRepository for BadgerDB.
type LinkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.LinkRepository = (*LinkRepository)(nil)

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(backend *Backend) (*LinkRepository, error) {
	idSeq, err := backend.GetSequence(linkRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &LinkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *LinkRepository) Close() error {
	return r.idSeq.Release()
}

// CreateLink stores a new link in StatusPending.
func (r *LinkRepository) CreateLink(ctx context.Context, link *core.Link) (*core.Link, error) {
	if err := core.ValidateURL(link.URL); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		link.Id = core.ID(nextID)

		link.Status = core.StatusPending
		link.CreatedAt = time.Now().UTC()
		link.UpdatedAt = link.CreatedAt

		key := makeLinkKey(link.Id)
		if err := tx.Set(key, storage.MarshalLink(link)); err != nil {
			return err
		}

		// URL fingerprint index for duplicate lookups
		urlKey := makeURLKey(core.IDFromContent(link.URL), link.Id)
		if err := tx.Set(urlKey, storage.MarshalID(link.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return link, err
}

// GetLink retrieves a single link by ID.
func (r *LinkRepository) GetLink(ctx context.Context, id core.ID) (*core.Link, error) {
	var result *core.Link
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readLink(tx, makeLinkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindByURL retrieves the IDs of all links submitted for a URL.
func (r *LinkRepository) FindByURL(ctx context.Context, url string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialURLKey(core.IDFromContent(url))
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)

	return ids, err
}

// MarkProcessing transitions a link to StatusProcessing and increments its
// attempt count. A StatusProcessing link is accepted too: under at-least-once
// delivery a redelivered job can find the link still marked from a claim
// whose visibility deadline expired.
func (r *LinkRepository) MarkProcessing(ctx context.Context, id core.ID) (*core.Link, error) {
	var result *core.Link
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		link, err := readLink(tx, makeLinkKey(id))
		if err != nil {
			return err
		}
		if link == nil {
			return storage.ErrNotFound
		}
		if link.Status.Terminal() {
			return storage.ErrConflict
		}

		link.Status = core.StatusProcessing
		link.AttemptCount++
		link.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeLinkKey(id), storage.MarshalLink(link)); err != nil {
			return err
		}
		result = link
		return tx.Commit()
	}, true)

	return result, err
}

// MarkPending returns a link to StatusPending after a retryable failure.
func (r *LinkRepository) MarkPending(ctx context.Context, id core.ID, reason string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		link, err := readLink(tx, makeLinkKey(id))
		if err != nil {
			return err
		}
		if link == nil {
			return storage.ErrNotFound
		}
		if link.Status.Terminal() {
			return storage.ErrConflict
		}

		link.Status = core.StatusPending
		link.FailedReason = reason
		link.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeLinkKey(id), storage.MarshalLink(link)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkFailed transitions a link to terminal StatusFailed.
func (r *LinkRepository) MarkFailed(ctx context.Context, id core.ID, reason string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		link, err := readLink(tx, makeLinkKey(id))
		if err != nil {
			return err
		}
		if link == nil {
			return storage.ErrNotFound
		}
		if link.Status.Terminal() {
			return storage.ErrConflict
		}

		link.Status = core.StatusFailed
		link.FailedReason = reason
		link.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeLinkKey(id), storage.MarshalLink(link)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CompleteLink transitions a link to StatusDone and writes its embedding in
// the same transaction, preserving the link/embedding pairing invariant.
func (r *LinkRepository) CompleteLink(ctx context.Context, id core.ID, title, summary string, tags []string, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		link, err := readLink(tx, makeLinkKey(id))
		if err != nil {
			return err
		}
		if link == nil {
			return storage.ErrNotFound
		}
		if link.Status.Terminal() {
			return storage.ErrConflict
		}

		embKey := makeEmbeddingKey(id)
		if _, err := tx.Get(embKey); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		link.Status = core.StatusDone
		link.Title = title
		link.Summary = summary
		link.Tags = tags
		link.FailedReason = ""
		link.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeLinkKey(id), storage.MarshalLink(link)); err != nil {
			return err
		}

		emb := &core.Embedding{LinkID: id, Vector: vector}
		if err := tx.Set(embKey, storage.MarshalEmbedding(emb)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetRecentCompleted retrieves up to limit StatusDone links, most recently
// created first. Creation order equals ID order under sequence assignment.
// A non-positive limit returns all completed links.
func (r *LinkRepository) GetRecentCompleted(ctx context.Context, limit int) ([]*core.Link, error) {
	links, err := r.scanLinks(func(link *core.Link) bool {
		return link.Status == core.StatusDone
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(links, func(a, b *core.Link) int {
		if a.Id > b.Id {
			return -1
		}
		if a.Id < b.Id {
			return 1
		}
		return 0
	})
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

// GetFailedRetryable retrieves StatusFailed links with attempt counts below
// the given threshold.
func (r *LinkRepository) GetFailedRetryable(ctx context.Context, maxAttempts int) ([]*core.Link, error) {
	return r.scanLinks(func(link *core.Link) bool {
		return link.Status == core.StatusFailed && link.AttemptCount < maxAttempts
	})
}

// scanLinks iterates all link records and collects those matching keep.
func (r *LinkRepository) scanLinks(keep func(*core.Link) bool) ([]*core.Link, error) {
	var results []*core.Link
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(linkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var link *core.Link
			err := iter.Item().Value(func(val []byte) error {
				var err error
				link, err = storage.UnmarshalLink(val)
				return err
			})
			if err != nil {
				return err
			}
			if link != nil && keep(link) {
				results = append(results, link)
			}
		}
		return nil
	}, false)

	return results, err
}

// readLink reads a link record from the transaction.
// Returns nil, nil if the key does not exist.
func readLink(tx *badger.Txn, key []byte) (*core.Link, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var link *core.Link
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		link, unmarshalErr = storage.UnmarshalLink(val)
		return unmarshalErr
	})
	return link, err
}
