package models

import (
	"time"
)

// Group represents a study group
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Schedule  string    `gorm:"size:20" json:"schedule"` // MWF, TTS
	StartTime string    `gorm:"size:10" json:"start_time"`
	EndTime   string    `gorm:"size:10" json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

// Student represents an enrolled student
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	GroupID   *uint     `gorm:"index" json:"group_id"`
	Group     *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Parents   []Parent  `gorm:"foreignKey:StudentID" json:"parents,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// Parent represents a guardian of one student. TelegramChatID is set once by
// the webhook linking flows; there is no unlink operation.
type Parent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Phone          string    `gorm:"size:50;index" json:"phone"`
	StudentID      uint      `gorm:"not null;index" json:"student_id"`
	Student        *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	TelegramChatID *string   `gorm:"column:telegram_chat_id;size:32;index" json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Parent) TableName() string {
	return "parents"
}

// HasLinkedChat reports whether the parent is eligible for delivery.
func (p *Parent) HasLinkedChat() bool {
	return p.TelegramChatID != nil && *p.TelegramChatID != ""
}

// AttendanceStatus for a lesson report
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// HomeworkStatus for a lesson report
type HomeworkStatus string

const (
	HomeworkDone    HomeworkStatus = "DONE"
	HomeworkPartial HomeworkStatus = "PARTIAL"
	HomeworkMissing HomeworkStatus = "MISSING"
)

// LessonReport is a teacher's per-lesson record for one student; creating
// one triggers a parent notification with the report as delivery source.
type LessonReport struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	StudentID   uint             `gorm:"not null;index" json:"student_id"`
	Student     *Student         `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Date        time.Time        `gorm:"index" json:"date"`
	Attendance  AttendanceStatus `gorm:"size:20;not null" json:"attendance"`
	Homework    HomeworkStatus   `gorm:"size:20;not null" json:"homework"`
	Comment     string           `gorm:"type:text" json:"comment"`
	TeacherName string           `gorm:"size:255" json:"teacher_name"`
	TeacherID   string           `gorm:"size:64" json:"teacher_id"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (LessonReport) TableName() string {
	return "lesson_reports"
}

// SupportSession is an academic-support session log for one student.
type SupportSession struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;index" json:"student_id"`
	Student     *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Comment     string    `gorm:"type:text" json:"comment"`
	SupportName string    `gorm:"size:255" json:"support_name"`
	SupportID   string    `gorm:"size:64" json:"support_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (SupportSession) TableName() string {
	return "support_sessions"
}
