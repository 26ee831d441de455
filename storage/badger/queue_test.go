package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/linkmind/core"
)

func TestQueueEnqueueClaimAck(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	if err := queue.Enqueue(ctx, core.ID(1)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	job, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if job == nil {
		t.Fatal("Expected a job")
	}
	if job.LinkID != core.ID(1) {
		t.Fatalf("Expected link ID 1, got %d", job.LinkID)
	}
	if !job.Claimed {
		t.Fatal("Expected claimed flag set")
	}
	if job.Deadline.IsZero() {
		t.Fatal("Expected visibility deadline set")
	}

	if err := queue.Ack(ctx, job); err != nil {
		t.Fatalf("Failed to ack: %v", err)
	}

	n, err := queue.Len(ctx)
	if err != nil {
		t.Fatalf("Failed to get length: %v", err)
	}
	if n != 0 {
		t.Fatalf("Expected empty queue after ack, got %d jobs", n)
	}
}

func TestQueueClaimEmpty(t *testing.T) {
	_, _, queue := newTestStores(t)

	job, err := queue.Claim(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if job != nil {
		t.Fatalf("Expected nil job from empty queue, got %+v", job)
	}
}

func TestQueueClaimExclusivity(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	if err := queue.Enqueue(ctx, core.ID(1)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	first, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if first == nil {
		t.Fatal("Expected a job")
	}

	// While the visibility deadline holds, nobody else gets the job.
	second, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if second != nil {
		t.Fatalf("Expected no job while claim is live, got %+v", second)
	}
}

func TestQueueExpiredClaimIsRedelivered(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	if err := queue.Enqueue(ctx, core.ID(7)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	if _, err := queue.Claim(ctx, 10*time.Millisecond); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	job, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to reclaim: %v", err)
	}
	if job == nil {
		t.Fatal("Expected expired claim to be redelivered")
	}
	if job.LinkID != core.ID(7) {
		t.Fatalf("Expected link ID 7, got %d", job.LinkID)
	}
}

func TestQueueEnqueueCoalesces(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := queue.Enqueue(ctx, core.ID(5)); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}

	n, err := queue.Len(ctx)
	if err != nil {
		t.Fatalf("Failed to get length: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected repeated enqueues to coalesce to 1 job, got %d", n)
	}

	// Coalescing also holds while the job is claimed.
	if _, err := queue.Claim(ctx, time.Minute); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if err := queue.Enqueue(ctx, core.ID(5)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	job, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if job != nil {
		t.Fatalf("Expected no second job for the claimed link, got %+v", job)
	}
}

func TestQueueNackDelaysVisibility(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	if err := queue.Enqueue(ctx, core.ID(2)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	job, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	if err := queue.Nack(ctx, job, 50*time.Millisecond); err != nil {
		t.Fatalf("Failed to nack: %v", err)
	}

	hidden, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if hidden != nil {
		t.Fatalf("Expected job hidden during nack delay, got %+v", hidden)
	}

	time.Sleep(60 * time.Millisecond)

	visible, err := queue.Claim(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if visible == nil {
		t.Fatal("Expected job visible after nack delay")
	}
}

func TestQueueNotifications(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	if err := queue.Enqueue(ctx, core.ID(3)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	select {
	case <-queue.Notifications():
	case <-time.After(time.Second):
		t.Fatal("Expected a wake-up after enqueue")
	}
}

func TestQueueClaimOrder(t *testing.T) {
	_, _, queue := newTestStores(t)
	ctx := context.Background()

	for _, id := range []core.ID{10, 11, 12} {
		if err := queue.Enqueue(ctx, id); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}

	var claimed []core.ID
	for {
		job, err := queue.Claim(ctx, time.Minute)
		if err != nil {
			t.Fatalf("Failed to claim: %v", err)
		}
		if job == nil {
			break
		}
		claimed = append(claimed, job.LinkID)
		if err := queue.Ack(ctx, job); err != nil {
			t.Fatalf("Failed to ack: %v", err)
		}
	}

	if len(claimed) != 3 {
		t.Fatalf("Expected 3 claims, got %d", len(claimed))
	}
}
