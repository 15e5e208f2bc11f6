package services

import (
	"time"
)

// SweepDetail is the per-record outcome of one sweep.
type SweepDetail struct {
	ID     uint   `json:"id"`
	Status string `json:"status"` // SENT, FAILED, SKIPPED
	Error  string `json:"error,omitempty"`
}

// SweepSummary is the operator-visible result of one sweep invocation.
type SweepSummary struct {
	Now            time.Time     `json:"now"`
	Limit          int           `json:"limit"`
	IncludePending bool          `json:"include_pending"`
	MaxAttempts    int           `json:"max_attempts"`
	Fetched        int           `json:"fetched"`
	Processed      int           `json:"processed"`
	Sent           int           `json:"sent"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Details        []SweepDetail `json:"details"`
}

// RetrySweeper re-drives due FAILED (optionally PENDING) delivery records
// through the transport. Safe to run concurrently with dispatches and with
// itself: the store's atomic claim guarantees a record is attempted by at
// most one caller.
type RetrySweeper struct {
	store  DeliveryStore
	sender Sender
}

func NewRetrySweeper(store DeliveryStore, sender Sender) *RetrySweeper {
	return &RetrySweeper{store: store, sender: sender}
}

// Sweep claims and retries up to limit due records. A lost claim counts as
// skipped, not an error. Records that exhaust maxAttempts, or fail with a
// permanent provider error, get no further schedule.
func (s *RetrySweeper) Sweep(now time.Time, limit int, includePending bool, maxAttempts int) (*SweepSummary, error) {
	batch, err := s.store.FindDueForRetry(now, limit, includePending, maxAttempts)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{
		Now:            now,
		Limit:          limit,
		IncludePending: includePending,
		MaxAttempts:    maxAttempts,
		Fetched:        len(batch),
	}

	for i := range batch {
		record := &batch[i]

		claimed, err := s.store.ClaimDueForAttempt(record.ID, now, maxAttempts)
		if err != nil {
			return nil, err
		}
		if !claimed {
			summary.Skipped++
			summary.Details = append(summary.Details, SweepDetail{ID: record.ID, Status: "SKIPPED"})
			continue
		}

		summary.Processed++
		attempt := record.AttemptCount + 1

		sent := s.sender.SendMessage(record.ChatID, record.MessageText, record.ParseMode)
		if sent.OK {
			if err := s.store.RecordSuccess(record.ID, sent.MessageID, now); err != nil {
				return nil, err
			}
			summary.Sent++
			summary.Details = append(summary.Details, SweepDetail{ID: record.ID, Status: "SENT"})
			continue
		}

		nextRetryAt := nextRetryTime(now, attempt, maxAttempts, sent)
		if err := s.store.RecordFailure(record.ID, sent.Error, failureDetail(sent), nextRetryAt); err != nil {
			return nil, err
		}
		summary.Failed++
		summary.Details = append(summary.Details, SweepDetail{ID: record.ID, Status: "FAILED", Error: sent.Error})
	}

	return summary, nil
}
