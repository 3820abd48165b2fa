package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wccleanup/logger"
	"wccleanup/metrics"
	"wccleanup/repositories"

	"github.com/google/uuid"
)

const defaultBatchSize = 20

// DeleteOptions are the recognised deletion switches. Handlers apply per-entity defaults.
type DeleteOptions struct {
	ForceDelete    bool
	DeleteRelated  bool
	ReassignTo     uint64
	DeleteComments bool
	BatchSize      int
}

type BatchBreakdown struct {
	Batch   int `json:"batch"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// BatchResult accounts for every requested id exactly once: deleted, skipped or errored.
type BatchResult struct {
	Success        bool             `json:"success"`
	Code           string           `json:"code,omitempty"`
	RunID          string           `json:"run_id,omitempty"`
	Total          int              `json:"total"`
	Deleted        int              `json:"deleted"`
	Count          int              `json:"count"`
	Skipped        []uint64         `json:"skipped"`
	SkippedMessage string           `json:"skipped_message,omitempty"`
	Errored        []uint64         `json:"errored_ids"`
	Errors         []string         `json:"errors"`
	TotalBatches   int              `json:"total_batches"`
	BatchResults   []BatchBreakdown `json:"batch_results"`
	BatchComplete  bool             `json:"batch_complete"`
	Message        string           `json:"message"`
}

type deleteOutcome int

const (
	outcomeDeleted deleteOutcome = iota
	outcomeSkipped
	outcomeErrored
)

// deleteStep removes one entity. The message is recorded for errored outcomes.
type deleteStep func(ctx context.Context, id uint64) (deleteOutcome, string)

type batchEngine struct {
	entity    string
	plural    string
	skipNote  string
	batchSize int
}

func emptyResult(message string) BatchResult {
	return BatchResult{
		Success:       true,
		Skipped:       []uint64{},
		Errored:       []uint64{},
		Errors:        []string{},
		BatchResults:  []BatchBreakdown{},
		BatchComplete: true,
		Message:       message,
	}
}

func (e batchEngine) size(requested int) int {
	if requested > 0 {
		return requested
	}
	if e.batchSize > 0 {
		return e.batchSize
	}
	return defaultBatchSize
}

// run deletes ids in order, batch by batch. A failing entity never stops its siblings.
func (e batchEngine) run(ctx context.Context, ids []uint64, batchSize int, step deleteStep) BatchResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	size := e.size(batchSize)

	result := emptyResult("")
	result.RunID = uuid.NewString()
	result.Total = len(ids)
	result.TotalBatches = (len(ids) + size - 1) / size

	for batchIndex := 0; batchIndex*size < len(ids); batchIndex++ {
		end := min((batchIndex+1)*size, len(ids))
		breakdown := BatchBreakdown{Batch: batchIndex + 1}

		for _, id := range ids[batchIndex*size : end] {
			outcome, message := step(ctx, id)
			switch outcome {
			case outcomeDeleted:
				breakdown.Deleted++
				result.Deleted++
			case outcomeSkipped:
				breakdown.Skipped++
				result.Skipped = append(result.Skipped, id)
			default:
				breakdown.Errors++
				result.Errored = append(result.Errored, id)
				result.Errors = append(result.Errors, message)
				logger.Warnf("cleanup run %s: %s", result.RunID, message)
			}
		}
		result.BatchResults = append(result.BatchResults, breakdown)
	}

	result.Count = result.Deleted
	result.Success = result.Deleted > 0
	switch {
	case len(result.Errored) > 0 && result.Deleted > 0:
		result.Code = CodePartialBatchFailure
	case len(result.Errored) > 0:
		result.Code = CodeDeleteFailed
	}

	result.Message = fmt.Sprintf("Successfully deleted %d %s.", result.Deleted, e.plural)
	if len(result.Skipped) > 0 && e.skipNote != "" {
		result.SkippedMessage = fmt.Sprintf("%d %s were skipped because %s.", len(result.Skipped), e.plural, e.skipNote)
		result.Message += " " + result.SkippedMessage
	}

	elapsed := time.Since(start)
	metrics.ObserveRun(e.entity, result.Deleted, len(result.Skipped), len(result.Errored), elapsed)
	logger.Infof("cleanup run %s: %s requested=%d deleted=%d skipped=%d errored=%d batches=%d took=%s",
		result.RunID, e.plural, result.Total, result.Deleted, len(result.Skipped), len(result.Errored), result.TotalBatches, elapsed)
	return result
}

// failureMessages formats per-entity errors. notFound and refused take the id; failed takes the id and the cause.
type failureMessages struct {
	notFound string
	refused  string
	failed   string
}

func (m failureMessages) describe(id uint64, err error) string {
	switch {
	case repositories.IsNotFound(err):
		return fmt.Sprintf(m.notFound, id)
	case errors.Is(err, repositories.ErrDeleteRefused):
		return fmt.Sprintf(m.refused, id)
	}
	return fmt.Sprintf(m.failed, id, err.Error())
}
