package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

// Actor describes who caused a notification.
type Actor struct {
	Type models.ActorType
	ID   string
}

// DispatchOptions tunes a single dispatch call.
type DispatchOptions struct {
	ParseMode      string
	SourceType     string
	SourceID       string
	IdempotencyKey string // overrides the derived key when set
	Force          bool   // attempt even when inside the backoff window
}

// RecipientStatus is the per-recipient outcome of a dispatch call.
type RecipientStatus string

const (
	OutcomeSent    RecipientStatus = "SENT"
	OutcomeFailed  RecipientStatus = "FAILED"
	OutcomePending RecipientStatus = "PENDING"
	OutcomeNoChat  RecipientStatus = "NO_CHAT"
)

// RecipientOutcome reports what happened for one parent.
type RecipientOutcome struct {
	ParentID uint            `json:"parent_id"`
	Status   RecipientStatus `json:"status"`
	Error    string          `json:"error,omitempty"`
}

// DispatchResult is the overall outcome of one dispatch call. Per-recipient
// failures live in Results; the call itself only fails on caller errors.
type DispatchResult struct {
	StudentID           uint               `json:"student_id"`
	IdempotencyKey      string             `json:"idempotency_key"`
	TotalParents        int                `json:"total_parents"`
	ParentsWithTelegram int                `json:"parents_with_telegram"`
	Results             []RecipientOutcome `json:"results"`
}

// DeliveryDispatcher expands a notification intent into per-parent delivery
// records and drives the immediate send attempt for eligible records.
type DeliveryDispatcher struct {
	directory   StudentDirectory
	store       DeliveryStore
	sender      Sender
	maxAttempts int
	now         func() time.Time
}

func NewDeliveryDispatcher(directory StudentDirectory, store DeliveryStore, sender Sender, maxAttempts int) *DeliveryDispatcher {
	return &DeliveryDispatcher{
		directory:   directory,
		store:       store,
		sender:      sender,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Dispatch sends message to every linked parent of the student. Re-invoking
// with the same idempotency key is safe: existing records continue their
// lifecycle instead of being duplicated. Caller errors (missing student id,
// blank message, unknown student) reject the call before any row is created.
func (d *DeliveryDispatcher) Dispatch(studentID uint, message string, actor Actor, opts DispatchOptions) (*DispatchResult, error) {
	if studentID == 0 {
		return nil, validationErrorf("studentId is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, validationErrorf("message is required")
	}

	student, err := d.directory.StudentWithParents(studentID)
	if err != nil {
		return nil, err
	}

	key := idempotencyKey(studentID, message, actor, opts)
	now := d.now()

	result := &DispatchResult{
		StudentID:      studentID,
		IdempotencyKey: key,
		TotalParents:   len(student.Parents),
	}

	var candidates []models.TelegramDelivery
	var eligibleIDs []uint
	for _, parent := range student.Parents {
		if parent.ChatID == "" {
			result.Results = append(result.Results, RecipientOutcome{
				ParentID: parent.ID,
				Status:   OutcomeNoChat,
			})
			continue
		}
		eligibleIDs = append(eligibleIDs, parent.ID)
		candidates = append(candidates, models.TelegramDelivery{
			StudentID:      studentID,
			ParentID:       parent.ID,
			IdempotencyKey: key,
			ChatID:         parent.ChatID,
			MessageText:    message,
			ParseMode:      telegram.NormalizeParseMode(opts.ParseMode),
			ActorType:      actor.Type,
			ActorID:        actor.ID,
			SourceType:     opts.SourceType,
			SourceID:       opts.SourceID,
			Status:         models.DeliveryPending,
		})
	}
	result.ParentsWithTelegram = len(eligibleIDs)

	if _, err := d.store.CreateIfAbsent(candidates); err != nil {
		return nil, fmt.Errorf("create delivery records: %w", err)
	}

	records, err := d.store.FindForKey(key, eligibleIDs)
	if err != nil {
		return nil, fmt.Errorf("load delivery records: %w", err)
	}

	for i := range records {
		record := &records[i]

		if record.Status == models.DeliverySent {
			result.Results = append(result.Results, RecipientOutcome{
				ParentID: record.ParentID,
				Status:   OutcomeSent,
			})
			continue
		}

		if !opts.Force && record.NextRetryAt != nil && record.NextRetryAt.After(now) {
			result.Results = append(result.Results, RecipientOutcome{
				ParentID: record.ParentID,
				Status:   OutcomePending,
				Error:    record.Error,
			})
			continue
		}

		claimed, err := d.store.ClaimForAttempt(record.ID, now)
		if err != nil {
			return nil, fmt.Errorf("claim delivery %d: %w", record.ID, err)
		}
		if !claimed {
			// a concurrent dispatch or sweep owns this attempt
			result.Results = append(result.Results, RecipientOutcome{
				ParentID: record.ParentID,
				Status:   OutcomePending,
			})
			continue
		}

		attempt := record.AttemptCount + 1
		outcome := d.attemptSend(record, attempt)
		result.Results = append(result.Results, outcome)
	}

	return result, nil
}

// attemptSend performs one claimed send and records the outcome. Transport
// failures are data, never errors.
func (d *DeliveryDispatcher) attemptSend(record *models.TelegramDelivery, attempt int) RecipientOutcome {
	sent := d.sender.SendMessage(record.ChatID, record.MessageText, record.ParseMode)

	if sent.OK {
		if err := d.store.RecordSuccess(record.ID, sent.MessageID, d.now()); err != nil {
			return RecipientOutcome{ParentID: record.ParentID, Status: OutcomeFailed, Error: err.Error()}
		}
		return RecipientOutcome{ParentID: record.ParentID, Status: OutcomeSent}
	}

	nextRetryAt := nextRetryTime(d.now(), attempt, d.maxAttempts, sent)
	if err := d.store.RecordFailure(record.ID, sent.Error, failureDetail(sent), nextRetryAt); err != nil {
		return RecipientOutcome{ParentID: record.ParentID, Status: OutcomeFailed, Error: err.Error()}
	}
	return RecipientOutcome{ParentID: record.ParentID, Status: OutcomeFailed, Error: sent.Error}
}

// nextRetryTime schedules the next attempt, or returns nil when the record
// is terminally failed: attempt cap reached, or the provider reported an
// error that will never succeed on retry.
func nextRetryTime(now time.Time, attempt, maxAttempts int, sent telegram.SendResult) *time.Time {
	if attempt >= maxAttempts || telegram.IsPermanentSendError(sent) {
		return nil
	}
	next := now.Add(backoffDelay(attempt))
	return &next
}

func failureDetail(sent telegram.SendResult) *string {
	if sent.Detail == "" {
		return nil
	}
	detail := sent.Detail
	return &detail
}

// idempotencyKey scopes delivery dedup: an explicit key wins, then a
// source-type:source-id pair, then a content hash. The hash fallback dedups
// accidental double calls but callers that may legitimately repeat the same
// text should pass source identifiers.
func idempotencyKey(studentID uint, message string, actor Actor, opts DispatchOptions) string {
	if opts.IdempotencyKey != "" {
		return opts.IdempotencyKey
	}
	if opts.SourceType != "" && opts.SourceID != "" {
		return opts.SourceType + ":" + opts.SourceID
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s", studentID, message, actor.Type, actor.ID)))
	return hex.EncodeToString(sum[:])
}
