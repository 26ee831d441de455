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


package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/poiesic/linkmind/ai"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/fetch"
	"github.com/poiesic/linkmind/storage"
)

// processJob runs the full processing attempt for one claimed job.
// Every exit path resolves the claim: Ack for terminal outcomes, Nack for
// retryable ones. An unresolved claim would sit invisible until its
// deadline and get redelivered late.
func (p *Pipeline) processJob(job *core.Job) {
	ctx := context.Background()
	log := p.logger.With("link_id", job.LinkID)

	link, err := p.linkRepository.GetLink(ctx, job.LinkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Orphaned job, nothing to process.
			log.Warn("dropping job for unknown link")
			p.ack(ctx, job)
			return
		}
		log.Error("error loading link", "err", err)
		p.nack(ctx, job, p.backoffBase)
		return
	}

	// At-least-once delivery means a job can arrive for a link that a
	// previous claim already finished. Acknowledge without side effects.
	if link.Status.Terminal() {
		log.Debug("link already terminal, acking redelivered job", "status", link.Status.String())
		p.ack(ctx, job)
		return
	}

	claimed, err := p.linkRepository.MarkProcessing(ctx, link.Id)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			p.ack(ctx, job)
			return
		}
		log.Error("error marking link processing", "err", err)
		p.nack(ctx, job, p.backoffBase)
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, p.processTimeout)
	defer cancel()

	err = p.processLink(processCtx, claimed)
	if err == nil {
		log.Info("link processed", "attempt", claimed.AttemptCount)
		p.ack(ctx, job)
		return
	}

	reason := err.Error()
	if !isRetryable(err) {
		log.Warn("link failed permanently", "attempt", claimed.AttemptCount, "err", err)
		if markErr := p.linkRepository.MarkFailed(ctx, claimed.Id, reason); markErr != nil {
			log.Error("error marking link failed", "err", markErr)
		}
		p.ack(ctx, job)
		return
	}

	if claimed.AttemptCount >= p.maxAttempts {
		log.Warn("link failed, attempts exhausted", "attempt", claimed.AttemptCount, "err", err)
		if markErr := p.linkRepository.MarkFailed(ctx, claimed.Id, reason); markErr != nil {
			log.Error("error marking link failed", "err", markErr)
		}
		p.ack(ctx, job)
		return
	}

	delay := p.backoffDelay(claimed.AttemptCount)
	log.Warn("link processing failed, will retry",
		"attempt", claimed.AttemptCount,
		"delay", delay,
		"err", err)
	if markErr := p.linkRepository.MarkPending(ctx, claimed.Id, reason); markErr != nil {
		log.Error("error returning link to pending", "err", markErr)
	}
	p.nack(ctx, job, delay)
}

// processLink runs the fetch, summarize and embed stages for one link and
// persists the result atomically.
func (p *Pipeline) processLink(ctx context.Context, link *core.Link) error {
	page, err := p.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return err
	}

	summary, err := p.provider.Summarizer().Summarize(ctx, page.Title, page.Content)
	if err != nil {
		return err
	}

	vector, err := p.provider.Embedder().EmbedText(ctx, summary.Text)
	if err != nil {
		return err
	}

	err = p.linkRepository.CompleteLink(ctx, link.Id, page.Title, summary.Text, summary.Tags, vector)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// A concurrent or earlier claim already completed this link.
		return nil
	}
	return err
}

// backoffDelay computes the exponential retry delay for a link that has
// made the given number of attempts.
func (p *Pipeline) backoffDelay(attempts int) time.Duration {
	delay := p.backoffBase
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= p.backoffCap || delay <= 0 {
			return p.backoffCap
		}
	}
	if delay > p.backoffCap {
		return p.backoffCap
	}
	return delay
}

// isRetryable classifies a processing failure. Content problems are
// permanent; everything else (rate limits, server errors, timeouts,
// network faults) gets another attempt, bounded by maxAttempts.
func isRetryable(err error) bool {
	if errors.Is(err, ai.ErrInvalidContent) {
		return false
	}
	if errors.Is(err, fetch.ErrContentUnavailable) || errors.Is(err, fetch.ErrEmptyContent) {
		return false
	}
	return true
}

func (p *Pipeline) ack(ctx context.Context, job *core.Job) {
	if err := p.queue.Ack(ctx, job); err != nil {
		p.logger.Error("error acking job", "link_id", job.LinkID, "err", err)
	}
}

func (p *Pipeline) nack(ctx context.Context, job *core.Job, delay time.Duration) {
	if err := p.queue.Nack(ctx, job, delay); err != nil {
		p.logger.Error("error nacking job", "link_id", job.LinkID, "err", err)
	}
}
