package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryStatus is the lifecycle state of one outbound delivery record
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

// ActorType identifies who caused a notification
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorParent ActorType = "PARENT"
	ActorSystem ActorType = "SYSTEM"
)

// TelegramDelivery is one persisted attempt-series to deliver one message to
// one parent. The (idempotency_key, parent_id) pair is unique: re-dispatching
// the same logical notification never creates a second row.
type TelegramDelivery struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	StudentID         uint           `gorm:"not null;index" json:"student_id"`
	ParentID          uint           `gorm:"not null;uniqueIndex:idx_delivery_dedupe,priority:2" json:"parent_id"`
	IdempotencyKey    string         `gorm:"size:255;not null;uniqueIndex:idx_delivery_dedupe,priority:1" json:"idempotency_key"`
	ChatID            string         `gorm:"size:32;not null" json:"chat_id"`
	MessageText       string         `gorm:"type:text;not null" json:"message_text"`
	ParseMode         string         `gorm:"size:20" json:"parse_mode"` // HTML, MarkdownV2 or empty
	ActorType         ActorType      `gorm:"size:20;not null" json:"actor_type"`
	ActorID           string         `gorm:"size:64" json:"actor_id"`
	SourceType        string         `gorm:"size:50;index" json:"source_type"`
	SourceID          string         `gorm:"size:64" json:"source_id"`
	Status            DeliveryStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	AttemptCount      int            `gorm:"not null;default:0" json:"attempt_count"`
	LastAttemptAt     *time.Time     `json:"last_attempt_at"`
	NextRetryAt       *time.Time     `gorm:"index" json:"next_retry_at"`
	SentAt            *time.Time     `json:"sent_at"`
	TelegramMessageID *int64         `json:"telegram_message_id"`
	Error             string         `gorm:"type:text" json:"error"`
	ErrorDetail       *string        `gorm:"type:jsonb" json:"error_detail"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (TelegramDelivery) TableName() string {
	return "telegram_deliveries"
}

// Retryable reports whether the record may still be claimed for an attempt.
func (d *TelegramDelivery) Retryable() bool {
	return d.Status == DeliveryPending || d.Status == DeliveryFailed
}

// UpdateStatus is the processing state of one inbound provider update
type UpdateStatus string

const (
	UpdateReceived  UpdateStatus = "RECEIVED"
	UpdateProcessed UpdateStatus = "PROCESSED"
	UpdateIgnored   UpdateStatus = "IGNORED"
	UpdateError     UpdateStatus = "ERROR"
)

// TelegramUpdate stores every inbound webhook update exactly once, keyed by
// the provider's update id. Replayed webhook calls are no-ops.
type TelegramUpdate struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UpdateID    int64        `gorm:"not null;uniqueIndex" json:"update_id"`
	Payload     string       `gorm:"type:jsonb" json:"payload"`
	Status      UpdateStatus `gorm:"size:20;not null;default:'RECEIVED';index" json:"status"`
	Note        string       `gorm:"size:500" json:"note"`
	ProcessedAt *time.Time   `json:"processed_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (TelegramUpdate) TableName() string {
	return "telegram_updates"
}

// LinkStatus is the state of a pending chat-to-parent link proposal
type LinkStatus string

const (
	LinkPending   LinkStatus = "PENDING"
	LinkConfirmed LinkStatus = "CONFIRMED"
	LinkRejected  LinkStatus = "REJECTED"
)

// TelegramPendingLink is an unconfirmed proposal to bind a chat to a parent.
// Keyed by chat id: one in-flight linking conversation per chat. The id is a
// UUID because it travels inside callback button data.
type TelegramPendingLink struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	ChatID    string     `gorm:"size:32;not null;uniqueIndex" json:"chat_id"`
	ParentID  uint       `gorm:"not null" json:"parent_id"`
	StudentID uint       `gorm:"not null" json:"student_id"`
	Status    LinkStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (TelegramPendingLink) TableName() string {
	return "telegram_pending_links"
}

func (l *TelegramPendingLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// InviteStatus is the state of a one-time parent invite code
type InviteStatus string

const (
	InviteActive InviteStatus = "ACTIVE"
	InviteUsed   InviteStatus = "USED"
)

// ParentInvite is a one-time code binding a student to a future linking
// action. A code may be consumed at most once.
type ParentInvite struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Status    InviteStatus `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	StudentID uint         `gorm:"not null;index" json:"student_id"`
	Student   *Student     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	ParentID  *uint        `json:"parent_id"`
	UsedAt    *time.Time   `json:"used_at"`
	CreatedAt time.Time    `json:"created_at"`
}

func (ParentInvite) TableName() string {
	return "parent_invites"
}
