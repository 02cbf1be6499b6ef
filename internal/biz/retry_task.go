package biz

import (
	"context"
	"fmt"

	"KosBridge/internal/conf"
	"KosBridge/internal/data"
	"KosBridge/internal/metrics"
	"KosBridge/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// retryBatchSize bounds how many queued requests one worker cycle processes.
const retryBatchSize = 50

// RetryTask drains the product change retry queue. It runs on a schedule
// and replays queued requests against KOS, completing, requeueing, or
// permanently failing each record. A single worker instance is assumed;
// the conditional claim on each record keeps an accidental second instance
// from replaying the same request.
type RetryTask struct {
	kos         KOSRepo
	repo        ChangeRequestRepo
	metrics     *metrics.Metrics
	maxAttempts int
	logger      *log.Helper
}

// NewRetryTask creates a new retry task.
func NewRetryTask(kos KOSRepo, repo ChangeRequestRepo, c *conf.Worker, m *metrics.Metrics, logger log.Logger) *RetryTask {
	return &RetryTask{
		kos:         kos,
		repo:        repo,
		metrics:     m,
		maxAttempts: c.MaxAttempts,
		logger:      log.NewHelper(logger),
	}
}

// ProcessQueued replays one batch of queued change requests. One record's
// failure never aborts the batch. The queue depth gauge is refreshed at the
// end of every cycle.
func (t *RetryTask) ProcessQueued(ctx context.Context) error {
	records, err := t.repo.FindRetryable(ctx, retryBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list retryable change requests: %w", err)
	}

	if len(records) > 0 {
		t.logger.Infow("msg", "retrying queued product changes", "count", len(records))
	}

	completed := 0
	requeued := 0
	failed := 0

	for _, rec := range records {
		outcome, err := t.processRecord(ctx, rec)
		if err != nil {
			t.logger.Errorw("msg", "retry cycle record error",
				"request_id", rec.RequestID,
				"error", err)
			continue
		}
		switch outcome {
		case "completed":
			completed++
		case "requeued":
			requeued++
		case "failed":
			failed++
		}
	}

	if len(records) > 0 {
		t.logger.Infow("msg", "retry cycle finished",
			"total", len(records),
			"completed", completed,
			"requeued", requeued,
			"failed", failed)
	}

	depth, err := t.repo.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending change requests: %w", err)
	}
	t.metrics.SetQueueDepth(depth)
	return nil
}

// processRecord claims and replays a single queued request. The returned
// outcome is "completed", "requeued", "failed", or "skipped" when another
// worker already claimed the record.
func (t *RetryTask) processRecord(ctx context.Context, rec *data.ChangeRecord) (string, error) {
	claimed, err := t.repo.ClaimForRetry(ctx, rec.ID, rec.Attempts)
	if err != nil {
		return "", err
	}
	if !claimed {
		return "skipped", nil
	}
	attempts := rec.Attempts + 1

	result, err := t.kos.ChangeProduct(ctx, &model.ProductChangeRequest{
		RequestID:    rec.RequestID,
		PhoneNumber:  rec.PhoneNumber,
		ProductCode:  rec.ProductCode,
		ChangeReason: rec.ChangeReason,
	})
	if err != nil {
		if t.maxAttempts > 0 && attempts >= t.maxAttempts {
			t.logger.Warnw("msg", "change request exhausted retries",
				"request_id", rec.RequestID,
				"attempts", attempts,
				"error", err)
			if merr := t.repo.MarkFailed(ctx, rec.ID, err.Error()); merr != nil {
				return "", merr
			}
			t.metrics.RecordRetryOutcome("failed")
			return "failed", nil
		}
		if merr := t.repo.MarkQueued(ctx, rec.ID, err.Error()); merr != nil {
			return "", merr
		}
		t.metrics.RecordRetryOutcome("requeued")
		return "requeued", nil
	}

	if !result.Success {
		// KOS answered and rejected the change; retrying the same request
		// cannot change that outcome.
		if merr := t.repo.MarkFailed(ctx, rec.ID, result.Message); merr != nil {
			return "", merr
		}
		t.metrics.RecordRetryOutcome("failed")
		return "failed", nil
	}

	if merr := t.repo.MarkCompleted(ctx, rec.ID, result.TransactionID); merr != nil {
		return "", merr
	}
	t.logger.Infow("msg", "queued change request completed",
		"request_id", rec.RequestID,
		"transaction_id", result.TransactionID,
		"attempts", attempts)
	t.metrics.RecordRetryOutcome("completed")
	return "completed", nil
}
