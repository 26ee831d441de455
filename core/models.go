package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Link IDs come from database sequences; URL fingerprints use content hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// LinkStatus tracks where a link is in the processing state machine.
type LinkStatus int

const (
	// StatusPending means the link is stored and waiting for a worker.
	StatusPending LinkStatus = iota + 1
	// StatusProcessing means a worker has claimed the link's job.
	StatusProcessing
	// StatusDone means summary and embedding are persisted. Terminal.
	StatusDone
	// StatusFailed means processing failed permanently. Terminal.
	StatusFailed
)

// String returns the canonical name of the status.
func (s LinkStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusProcessing:
		return "PROCESSING"
	case StatusDone:
		return "DONE"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status permits no further transitions.
func (s LinkStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Link represents one submitted URL and its processing state.
// Created by Submit in StatusPending; mutated only by workers afterwards.
type Link struct {
	Id           ID
	URL          string
	Title        string
	Summary      string // Non-empty iff Status == StatusDone
	Tags         []string
	Status       LinkStatus
	FailedReason string
	AttemptCount int // Monotonically increasing; one increment per claim
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Job is a queued unit of work instructing a worker to process one link.
// The queue owns Job entries; they reference links by value only.
type Job struct {
	LinkID     ID
	EnqueuedAt time.Time
	VisibleAt  time.Time // Hidden from Claim until this time
	Claimed    bool
	Deadline   time.Time // When an unacknowledged claim expires
}

// Embedding is a fixed-length vector representing a link's summarized
// content. Written exactly once, at the same transaction boundary as the
// link's transition to StatusDone.
type Embedding struct {
	LinkID ID
	Vector []float32
}

// Recommendation is a single nearest-neighbor match.
// Distance is cosine distance (1 - cosine similarity); smaller is closer.
type Recommendation struct {
	LinkID   ID
	Distance float32
}

// LinkState is the polling view of a link returned by GetStatus.
type LinkState struct {
	Id           ID
	Status       LinkStatus
	Summary      string
	Tags         []string
	FailedReason string
	AttemptCount int
}
