package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Islomov1/eit-lc-crm/internal/models"
)

// InviteService issues one-time deep-link codes for parent onboarding.
type InviteService struct {
	db      *gorm.DB
	botName string
}

func NewInviteService(db *gorm.DB, botName string) *InviteService {
	return &InviteService{db: db, botName: botName}
}

// Invite is the admin-facing view of a created code.
type Invite struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	StudentID uint   `json:"student_id"`
	DeepLink  string `json:"deep_link,omitempty"`
}

// CreateInvite mints a fresh ACTIVE code for the student. Codes are random,
// so a collision means retry, not failure.
func (s *InviteService) CreateInvite(studentID uint) (*Invite, error) {
	var student models.Student
	if err := s.db.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, err := newInviteCode()
		if err != nil {
			return nil, err
		}

		invite := models.ParentInvite{
			Code:      code,
			Status:    models.InviteActive,
			StudentID: studentID,
		}
		if err := s.db.Create(&invite).Error; err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}

		out := &Invite{ID: invite.ID, Code: code, StudentID: studentID}
		if s.botName != "" {
			out.DeepLink = fmt.Sprintf("https://t.me/%s?start=%s", s.botName, code)
		}
		return out, nil
	}

	return nil, errors.New("could not generate a unique invite code")
}

// newInviteCode returns "eit" plus 10 hex characters, lowercase, URL-safe.
func newInviteCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "eit" + hex.EncodeToString(buf), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "SQLSTATE 23505")
}
