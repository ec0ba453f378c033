package groupware

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// OperationResult contains the result of a single operation within a bulk operation.
// Results are returned in the same order as the input items.
type OperationResult struct {
	// ID is the identifier of the item that was processed.
	ID string
	// Success indicates whether the operation succeeded.
	Success bool
	// Error contains the error if the operation failed (nil if successful).
	Error error
}

// BulkResult contains the result of a bulk operation.
//
// Results are returned in order, matching the input order.
// Use helper methods to check status and iterate results.
type BulkResult struct {
	// Results contains the outcome of each operation in input order.
	Results []OperationResult
}

// SuccessCount returns the number of successful operations.
func (r *BulkResult) SuccessCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, res := range r.Results {
		if res.Success {
			count++
		}
	}
	return count
}

// FailureCount returns the number of failed operations.
func (r *BulkResult) FailureCount() int {
	if r == nil {
		return 0
	}
	return len(r.Results) - r.SuccessCount()
}

// HasFailures returns true if any operations failed.
func (r *BulkResult) HasFailures() bool {
	return r.FailureCount() > 0
}

// TotalCount returns the total number of items processed.
func (r *BulkResult) TotalCount() int {
	if r == nil {
		return 0
	}
	return len(r.Results)
}

// FailedIDs returns the IDs of items that failed.
func (r *BulkResult) FailedIDs() []string {
	if r == nil {
		return nil
	}
	var ids []string
	for _, res := range r.Results {
		if !res.Success {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// SuccessfulIDs returns the IDs of items that succeeded.
func (r *BulkResult) SuccessfulIDs() []string {
	if r == nil {
		return nil
	}
	var ids []string
	for _, res := range r.Results {
		if res.Success {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// Err returns an error if there are failures, nil otherwise.
func (r *BulkResult) Err() error {
	if r == nil || !r.HasFailures() {
		return nil
	}
	return &BulkError{Result: r}
}

// BulkError is returned when a bulk operation has partial failures.
// It wraps BulkResult to provide error interface while guaranteeing non-empty Error().
type BulkError struct {
	Result *BulkResult
}

// Error implements the error interface.
func (e *BulkError) Error() string {
	return fmt.Sprintf("groupware: bulk operation failed for %d of %d items",
		e.Result.FailureCount(), e.Result.TotalCount())
}

// Unwrap returns the individual errors from failed operations.
func (e *BulkError) Unwrap() []error {
	var errs []error
	for _, r := range e.Result.Results {
		if r.Error != nil {
			errs = append(errs, r.Error)
		}
	}
	return errs
}

// runBulk applies fn to every id with at most limit calls in flight. Item
// failures are collected in the result; only a cancelled ctx stops the
// remaining items.
func runBulk(ctx context.Context, ids []string, limit int, fn func(ctx context.Context, id string) error) *BulkResult {
	result := &BulkResult{Results: make([]OperationResult, len(ids))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		result.Results[i].ID = id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				result.Results[i].Error = err
				return nil
			}
			if err := fn(gctx, id); err != nil {
				result.Results[i].Error = err
				return nil
			}
			result.Results[i].Success = true
			return nil
		})
	}
	_ = g.Wait()
	return result
}
