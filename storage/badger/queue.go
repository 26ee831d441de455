// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/storage"
)

// JobQueue implements storage.JobQueue as a durable BadgerDB table with
// polling. Jobs are keyed by link ID, so at most one job per link exists and
// repeated enqueues coalesce. A mutex serializes claims within the process;
// claim exclusivity across restarts comes from the persisted Claimed flag
// and deadline.
type JobQueue struct {
	backend *Backend
	mu      sync.Mutex
	notify  chan struct{}
	closed  bool
}

var _ storage.JobQueue = (*JobQueue)(nil)

// NewJobQueue creates a new JobQueue on the shared backend.
func NewJobQueue(backend *Backend) *JobQueue {
	return &JobQueue{
		backend: backend,
		notify:  make(chan struct{}, 1),
	}
}

// Close marks the queue closed. Pending jobs remain durable.
func (q *JobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// Notifications returns the wake-up channel for claim polling.
func (q *JobQueue) Notifications() <-chan struct{} {
	return q.notify
}

// Enqueue adds a job for a link, coalescing with any job already queued for
// the same link.
func (q *JobQueue) Enqueue(ctx context.Context, linkID core.ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return storage.ErrStorageClosed
	}

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(linkID)
		if _, err := tx.Get(key); err == nil {
			// Already queued (claimed or not); coalesce.
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		now := time.Now().UTC()
		job := &core.Job{
			LinkID:     linkID,
			EnqueuedAt: now,
			VisibleAt:  now,
		}
		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	q.wake()
	return nil
}

// Claim hands one eligible job to the caller and starts its visibility
// timer. A job is eligible if it is unclaimed and visible, or if a previous
// claim's deadline has expired (at-least-once redelivery). Returns nil, nil
// when nothing is eligible.
func (q *JobQueue) Claim(ctx context.Context, visibility time.Duration) (*core.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, storage.ErrStorageClosed
	}

	var claimed *core.Job
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobRecordPrefix + ":")
		iter := tx.NewIterator(opts)

		now := time.Now().UTC()
		var job *core.Job
		var key []byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var candidate *core.Job
			err := iter.Item().Value(func(val []byte) error {
				var err error
				candidate, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}

			eligible := (!candidate.Claimed && !candidate.VisibleAt.After(now)) ||
				(candidate.Claimed && !candidate.Deadline.After(now))
			if eligible {
				job = candidate
				key = iter.Item().KeyCopy(nil)
				break
			}
		}
		iter.Close()

		if job == nil {
			return nil
		}

		job.Claimed = true
		job.Deadline = now.Add(visibility)
		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		claimed = job
		return tx.Commit()
	}, true)

	return claimed, err
}

// Ack removes a claimed job from the queue.
func (q *JobQueue) Ack(ctx context.Context, job *core.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return storage.ErrStorageClosed
	}

	return q.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeJobKey(job.LinkID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Nack makes a claimed job claimable again after the given delay.
func (q *JobQueue) Nack(ctx context.Context, job *core.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return storage.ErrStorageClosed
	}

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(job.LinkID)
		stored, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if stored == nil {
			// Already acked elsewhere; nothing to release.
			return nil
		}

		stored.Claimed = false
		stored.VisibleAt = time.Now().UTC().Add(delay)
		stored.Deadline = time.Time{}
		if err := tx.Set(key, storage.MarshalJob(stored)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	if delay <= 0 {
		q.wake()
	}
	return nil
}

// Len reports the number of queued jobs, claimed or not.
func (q *JobQueue) Len(ctx context.Context) (int, error) {
	count := 0
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobRecordPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// wake signals claim pollers without blocking.
func (q *JobQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// readJob reads a job record from the transaction.
// Returns nil, nil if the key does not exist.
func readJob(tx *badger.Txn, key []byte) (*core.Job, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.Job
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}
