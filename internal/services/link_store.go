package services

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Islomov1/eit-lc-crm/internal/models"
)

func newPendingLinkID() string {
	return uuid.NewString()
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// UpdateStore persists inbound webhook updates exactly once and tracks each
// one through its terminal status.
type UpdateStore interface {
	// InsertUpdate stores a new update keyed by the provider id. Returns
	// false when the id was already seen: the caller must treat the whole
	// webhook call as a no-op.
	InsertUpdate(updateID int64, payload []byte) (bool, error)

	// The Mark methods set the terminal status. They are conditional on the
	// update still being RECEIVED, so a retried write is an idempotent no-op.
	MarkProcessed(updateID int64) error
	MarkIgnored(updateID int64, note string) error
	MarkError(updateID int64, note string) error
}

// LinkStore covers the recipient-linking state the webhook flows mutate.
type LinkStore interface {
	FindParentByPhone(variants []string) (*models.Parent, error)
	UpsertPendingLink(chatID string, parentID, studentID uint, expiresAt time.Time) (*models.TelegramPendingLink, error)
	PendingLinkByID(id string) (*models.TelegramPendingLink, error)
	// ConfirmPendingLink transitions PENDING (and unexpired) to CONFIRMED.
	// Returns false when the link was not confirmable at the instant of the
	// update: resolved earlier, expired, or overwritten by a newer link.
	ConfirmPendingLink(id string, now time.Time) (bool, error)
	// RejectPendingLink transitions PENDING to REJECTED; false when stale.
	RejectPendingLink(id string) (bool, error)
	BindParentChat(parentID uint, chatID string) error
	StudentWithGroupAndParents(studentID uint) (*models.Student, error)
	InviteByCode(code string) (*models.ParentInvite, error)
	// ConsumeInvite transitions ACTIVE to USED; false when the code was
	// already consumed by a concurrent call.
	ConsumeInvite(inviteID, parentID uint, now time.Time) (bool, error)
	RecordLinkEvent(parentID, studentID uint, groupID *uint, props map[string]string) error
}

// GormLinkStore is the PostgreSQL implementation of UpdateStore + LinkStore.
type GormLinkStore struct {
	db *gorm.DB
}

func NewGormLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db}
}

func (s *GormLinkStore) InsertUpdate(updateID int64, payload []byte) (bool, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	update := models.TelegramUpdate{
		UpdateID: updateID,
		Payload:  string(payload),
		Status:   models.UpdateReceived,
	}

	// ON CONFLICT DO NOTHING keeps replayed webhook calls side-effect free
	// without surfacing the unique violation as an error.
	result := s.db.Exec(
		`INSERT INTO telegram_updates (update_id, payload, status, created_at) VALUES (?, ?::jsonb, ?, ?) ON CONFLICT (update_id) DO NOTHING`,
		update.UpdateID, update.Payload, update.Status, time.Now(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormLinkStore) MarkProcessed(updateID int64) error {
	return s.markUpdate(updateID, models.UpdateProcessed, "")
}

func (s *GormLinkStore) MarkIgnored(updateID int64, note string) error {
	return s.markUpdate(updateID, models.UpdateIgnored, note)
}

func (s *GormLinkStore) MarkError(updateID int64, note string) error {
	return s.markUpdate(updateID, models.UpdateError, note)
}

func (s *GormLinkStore) markUpdate(updateID int64, status models.UpdateStatus, note string) error {
	return s.db.Model(&models.TelegramUpdate{}).
		Where("update_id = ? AND status = ?", updateID, models.UpdateReceived).
		Updates(map[string]interface{}{
			"status":       status,
			"note":         note,
			"processed_at": time.Now(),
		}).Error
}

func (s *GormLinkStore) FindParentByPhone(variants []string) (*models.Parent, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	var parent models.Parent
	err := s.db.
		Preload("Student").Preload("Student.Group").
		Where("phone IN ?", variants).
		First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

func (s *GormLinkStore) UpsertPendingLink(chatID string, parentID, studentID uint, expiresAt time.Time) (*models.TelegramPendingLink, error) {
	link := models.TelegramPendingLink{
		ChatID:    chatID,
		ParentID:  parentID,
		StudentID: studentID,
		Status:    models.LinkPending,
		ExpiresAt: expiresAt,
	}

	// One in-flight linking conversation per chat: a fresh contact share
	// replaces whatever proposal the chat had before.
	err := s.db.Exec(
		`INSERT INTO telegram_pending_links (id, chat_id, parent_id, student_id, status, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET
		   parent_id = EXCLUDED.parent_id,
		   student_id = EXCLUDED.student_id,
		   status = EXCLUDED.status,
		   expires_at = EXCLUDED.expires_at,
		   updated_at = EXCLUDED.updated_at`,
		newPendingLinkID(), link.ChatID, link.ParentID, link.StudentID, link.Status, link.ExpiresAt, time.Now(), time.Now(),
	).Error
	if err != nil {
		return nil, err
	}

	var stored models.TelegramPendingLink
	if err := s.db.Where("chat_id = ?", chatID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *GormLinkStore) PendingLinkByID(id string) (*models.TelegramPendingLink, error) {
	var link models.TelegramPendingLink
	err := s.db.Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *GormLinkStore) ConfirmPendingLink(id string, now time.Time) (bool, error) {
	result := s.db.Model(&models.TelegramPendingLink{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, models.LinkPending, now).
		Updates(map[string]interface{}{"status": models.LinkConfirmed})
	return result.RowsAffected == 1, result.Error
}

func (s *GormLinkStore) RejectPendingLink(id string) (bool, error) {
	result := s.db.Model(&models.TelegramPendingLink{}).
		Where("id = ? AND status = ?", id, models.LinkPending).
		Updates(map[string]interface{}{"status": models.LinkRejected})
	return result.RowsAffected == 1, result.Error
}

func (s *GormLinkStore) BindParentChat(parentID uint, chatID string) error {
	return s.db.Model(&models.Parent{}).
		Where("id = ?", parentID).
		Update("telegram_chat_id", chatID).Error
}

func (s *GormLinkStore) StudentWithGroupAndParents(studentID uint) (*models.Student, error) {
	var student models.Student
	err := s.db.Preload("Group").Preload("Parents").First(&student, studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *GormLinkStore) InviteByCode(code string) (*models.ParentInvite, error) {
	var invite models.ParentInvite
	err := s.db.Where("code = ?", code).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (s *GormLinkStore) ConsumeInvite(inviteID, parentID uint, now time.Time) (bool, error) {
	result := s.db.Model(&models.ParentInvite{}).
		Where("id = ? AND status = ?", inviteID, models.InviteActive).
		Updates(map[string]interface{}{
			"status":    models.InviteUsed,
			"parent_id": parentID,
			"used_at":   now,
		})
	return result.RowsAffected == 1, result.Error
}

func (s *GormLinkStore) RecordLinkEvent(parentID, studentID uint, groupID *uint, props map[string]string) error {
	if props == nil {
		props = map[string]string{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return err
	}

	event := models.AnalyticsEvent{
		Name:      "parent_linked",
		ActorType: models.ActorParent,
		ActorID:   formatUint(parentID),
		StudentID: &studentID,
		GroupID:   groupID,
		Props:     string(propsJSON),
	}
	return s.db.Create(&event).Error
}
