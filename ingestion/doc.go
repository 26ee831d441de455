// Package ingestion accepts link submissions and drives them through the
// fetch, summarize and embed stages on a worker pool.
//
// Submission is decoupled from processing by a durable job queue with
// at-least-once delivery. Workers claim jobs under a visibility deadline
// and are idempotent: a redelivered job for a link that already reached a
// terminal status is acknowledged without side effects. Retryable failures
// return the link to pending with exponential backoff; permanent failures
// and exhausted attempts mark it failed.
package ingestion
