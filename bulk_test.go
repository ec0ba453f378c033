package groupware

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunBulk(t *testing.T) {
	errOdd := errors.New("odd")
	ids := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	var inFlight, peak int32
	result := runBulk(context.Background(), ids, 2, func(ctx context.Context, id string) error {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		if len(id)%2 == 1 {
			return errOdd
		}
		return nil
	})

	if peak > 2 {
		t.Errorf("expected at most 2 in flight, got %d", peak)
	}
	if result.TotalCount() != 5 || result.SuccessCount() != 2 || result.FailureCount() != 3 {
		t.Errorf("unexpected counts %d/%d/%d", result.TotalCount(), result.SuccessCount(), result.FailureCount())
	}
	for i, r := range result.Results {
		if r.ID != ids[i] {
			t.Errorf("result %d: expected %q, got %q", i, ids[i], r.ID)
		}
	}
	if got := result.SuccessfulIDs(); len(got) != 2 || got[0] != "bb" || got[1] != "dddd" {
		t.Errorf("unexpected successful IDs %v", got)
	}
	if !result.HasFailures() {
		t.Error("expected failures")
	}

	err := result.Err()
	var be *BulkError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BulkError, got %v", err)
	}
	if !errors.Is(err, errOdd) {
		t.Error("expected bulk error to wrap item errors")
	}
}

func TestRunBulkSuccess(t *testing.T) {
	result := runBulk(context.Background(), []string{"a", "b"}, 4, func(ctx context.Context, id string) error {
		return nil
	})
	if result.HasFailures() {
		t.Errorf("unexpected failures: %v", result.FailedIDs())
	}
	if err := result.Err(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestRunBulkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	result := runBulk(ctx, []string{"a", "b", "c"}, 1, func(ctx context.Context, id string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if calls != 0 {
		t.Errorf("expected no calls after cancel, got %d", calls)
	}
	if result.FailureCount() != 3 {
		t.Errorf("expected every item failed, got %d", result.FailureCount())
	}
	if !errors.Is(result.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.Err())
	}
}
