package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Islomov1/eit-lc-crm/internal/models"
)

// ErrStudentNotFound is returned when a dispatch names an unknown student.
var ErrStudentNotFound = errors.New("student not found")

// DeliveryStore is the durable record of every outbound delivery attempt.
// The claim operations are the sole concurrency control: each is a single
// conditional UPDATE, never a read-then-write.
type DeliveryStore interface {
	// CreateIfAbsent bulk-inserts candidate records. Rows colliding on
	// (idempotency_key, parent_id) are silently skipped; the return value is
	// the number of rows actually created.
	CreateIfAbsent(records []models.TelegramDelivery) (int64, error)

	// FindForKey returns all records for an idempotency key and recipient
	// set, oldest first. Picks up rows surviving from earlier dispatches.
	FindForKey(key string, parentIDs []uint) ([]models.TelegramDelivery, error)

	// ClaimForAttempt atomically moves a PENDING or FAILED record into a new
	// attempt (attempt_count+1, last_attempt_at stamped, error cleared).
	// Returns false when the record was not claimable at the instant of the
	// update, e.g. a concurrent caller won the race.
	ClaimForAttempt(id uint, now time.Time) (bool, error)

	// ClaimDueForAttempt is the sweep-side claim: same transition, but only
	// when the record is due (next_retry_at null or elapsed) and below the
	// attempt cap.
	ClaimDueForAttempt(id uint, now time.Time, maxAttempts int) (bool, error)

	// RecordSuccess marks a record SENT. Terminal.
	RecordSuccess(id uint, messageID int64, sentAt time.Time) error

	// RecordFailure marks a record FAILED with the error preserved. A nil
	// nextRetryAt leaves the record terminally failed but inspectable.
	RecordFailure(id uint, errText string, detail *string, nextRetryAt *time.Time) error

	// FindDueForRetry returns FAILED (optionally also PENDING) records due at
	// now and below the attempt cap, ordered oldest-due-first.
	FindDueForRetry(now time.Time, limit int, includePending bool, maxAttempts int) ([]models.TelegramDelivery, error)
}

// GormDeliveryStore is the PostgreSQL implementation of DeliveryStore.
type GormDeliveryStore struct {
	db *gorm.DB
}

func NewGormDeliveryStore(db *gorm.DB) *GormDeliveryStore {
	return &GormDeliveryStore{db: db}
}

var retryableStatuses = []models.DeliveryStatus{models.DeliveryPending, models.DeliveryFailed}

func (s *GormDeliveryStore) CreateIfAbsent(records []models.TelegramDelivery) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}, {Name: "parent_id"}},
		DoNothing: true,
	}).Create(&records)

	return result.RowsAffected, result.Error
}

func (s *GormDeliveryStore) FindForKey(key string, parentIDs []uint) ([]models.TelegramDelivery, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var records []models.TelegramDelivery
	err := s.db.
		Where("idempotency_key = ? AND parent_id IN ?", key, parentIDs).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (s *GormDeliveryStore) ClaimForAttempt(id uint, now time.Time) (bool, error) {
	result := s.db.Model(&models.TelegramDelivery{}).
		Where("id = ? AND status IN ?", id, retryableStatuses).
		Updates(map[string]interface{}{
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"last_attempt_at": now,
			"error":           "",
			"error_detail":    nil,
		})
	return result.RowsAffected == 1, result.Error
}

func (s *GormDeliveryStore) ClaimDueForAttempt(id uint, now time.Time, maxAttempts int) (bool, error) {
	result := s.db.Model(&models.TelegramDelivery{}).
		Where("id = ? AND status IN ? AND attempt_count < ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			id, retryableStatuses, maxAttempts, now).
		Updates(map[string]interface{}{
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"last_attempt_at": now,
			"error":           "",
			"error_detail":    nil,
		})
	return result.RowsAffected == 1, result.Error
}

func (s *GormDeliveryStore) RecordSuccess(id uint, messageID int64, sentAt time.Time) error {
	return s.db.Model(&models.TelegramDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              models.DeliverySent,
			"sent_at":             sentAt,
			"telegram_message_id": messageID,
			"next_retry_at":       nil,
			"error":               "",
			"error_detail":        nil,
		}).Error
}

func (s *GormDeliveryStore) RecordFailure(id uint, errText string, detail *string, nextRetryAt *time.Time) error {
	return s.db.Model(&models.TelegramDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.DeliveryFailed,
			"error":         errText,
			"error_detail":  detail,
			"next_retry_at": nextRetryAt,
		}).Error
}

func (s *GormDeliveryStore) FindDueForRetry(now time.Time, limit int, includePending bool, maxAttempts int) ([]models.TelegramDelivery, error) {
	statuses := []models.DeliveryStatus{models.DeliveryFailed}
	if includePending {
		statuses = append(statuses, models.DeliveryPending)
	}

	var records []models.TelegramDelivery
	err := s.db.
		Where("status IN ? AND attempt_count < ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			statuses, maxAttempts, now).
		Order("next_retry_at ASC NULLS FIRST").
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
