package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"wccleanup/repositories"
)

func TestBatchEnginePartitionsInInputOrder(t *testing.T) {
	engine := batchEngine{entity: "order", plural: "orders"}
	ids := []uint64{5, 3, 9, 1, 7}

	var seen []uint64
	result := engine.run(context.Background(), ids, 2, func(_ context.Context, id uint64) (deleteOutcome, string) {
		seen = append(seen, id)
		return outcomeDeleted, ""
	})

	if !reflect.DeepEqual(seen, ids) {
		t.Fatalf("expected input order %v, got %v", ids, seen)
	}
	if result.TotalBatches != 3 || len(result.BatchResults) != 3 {
		t.Fatalf("expected 3 batches, got %d/%d", result.TotalBatches, len(result.BatchResults))
	}
	if result.BatchResults[2].Deleted != 1 {
		t.Fatalf("expected last batch to hold one id, got %+v", result.BatchResults[2])
	}
	if !result.Success || result.Deleted != 5 || result.Count != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Message != "Successfully deleted 5 orders." {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.RunID == "" {
		t.Fatalf("expected run id")
	}
}

func TestBatchEngineDefaultsBatchSize(t *testing.T) {
	ids := make([]uint64, 45)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	result := batchEngine{plural: "users"}.run(context.Background(), ids, 0, func(context.Context, uint64) (deleteOutcome, string) {
		return outcomeDeleted, ""
	})
	if result.TotalBatches != 3 {
		t.Fatalf("expected ceil(45/20)=3 batches, got %d", result.TotalBatches)
	}

	result = batchEngine{plural: "users", batchSize: 50}.run(context.Background(), ids, -1, func(context.Context, uint64) (deleteOutcome, string) {
		return outcomeDeleted, ""
	})
	if result.TotalBatches != 1 {
		t.Fatalf("expected configured batch size to apply, got %d batches", result.TotalBatches)
	}
}

func TestBatchEngineAccountsEveryIDOnce(t *testing.T) {
	engine := batchEngine{entity: "user", plural: "users", skipNote: "they have orders"}

	result := engine.run(context.Background(), []uint64{1, 2, 3, 4}, 3, func(_ context.Context, id uint64) (deleteOutcome, string) {
		switch id {
		case 2:
			return outcomeSkipped, ""
		case 3:
			return outcomeErrored, fmt.Sprintf("User #%d not found.", id)
		}
		return outcomeDeleted, ""
	})

	if result.Deleted+len(result.Skipped)+len(result.Errored) != result.Total {
		t.Fatalf("expected every id accounted for, got %+v", result)
	}
	if !reflect.DeepEqual(result.Skipped, []uint64{2}) || !reflect.DeepEqual(result.Errored, []uint64{3}) {
		t.Fatalf("unexpected skipped/errored: %v %v", result.Skipped, result.Errored)
	}
	if result.Code != CodePartialBatchFailure {
		t.Fatalf("expected partial failure code, got %q", result.Code)
	}
	want := "Successfully deleted 2 users. 1 users were skipped because they have orders."
	if result.Message != want {
		t.Fatalf("expected %q, got %q", want, result.Message)
	}
	if result.BatchResults[0].Skipped != 1 || result.BatchResults[0].Errors != 1 {
		t.Fatalf("unexpected first batch: %+v", result.BatchResults[0])
	}
}

func TestBatchEngineNothingDeletedIsNotSuccess(t *testing.T) {
	result := batchEngine{plural: "orders"}.run(context.Background(), []uint64{8}, 0, func(context.Context, uint64) (deleteOutcome, string) {
		return outcomeErrored, "Order #8 not found."
	})
	if result.Success {
		t.Fatalf("expected success=false when nothing was deleted")
	}
	if result.Code != CodeDeleteFailed {
		t.Fatalf("expected delete_failed code, got %q", result.Code)
	}
}

func TestEmptyResultIsSuccess(t *testing.T) {
	result := emptyResult("No customer users found to delete.")
	if !result.Success || result.Deleted != 0 || result.Total != 0 {
		t.Fatalf("expected successful empty result, got %+v", result)
	}
	if result.Message != "No customer users found to delete." {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestFailureMessagesDescribe(t *testing.T) {
	if got := orderFailures.describe(4, repositories.ErrNotFound); got != "Order #4 not found." {
		t.Fatalf("unexpected not found message %q", got)
	}
	if got := orderFailures.describe(4, fmt.Errorf("wrap: %w", repositories.ErrDeleteRefused)); got != "Failed to delete order #4." {
		t.Fatalf("unexpected refused message %q", got)
	}
	if got := orderFailures.describe(4, errors.New("deadlock")); got != "Error deleting order #4: deadlock" {
		t.Fatalf("unexpected generic message %q", got)
	}
}
