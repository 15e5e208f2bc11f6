package models

import (
	"time"
)

// AnalyticsEvent is an audit trail row for notable domain events, currently
// the parent-linking flows.
type AnalyticsEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	ActorType ActorType `gorm:"size:20" json:"actor_type"`
	ActorID   string    `gorm:"size:64" json:"actor_id"`
	StudentID *uint     `gorm:"index" json:"student_id"`
	GroupID   *uint     `json:"group_id"`
	Props     string    `gorm:"type:jsonb" json:"props"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
