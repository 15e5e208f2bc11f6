package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Islomov1/eit-lc-crm/internal/database"
	"github.com/Islomov1/eit-lc-crm/internal/models"
)

// StudentDirectory resolves a student and their parents for recipient
// expansion.
type StudentDirectory interface {
	StudentWithParents(studentID uint) (*database.CachedStudent, error)
}

// GormStudentDirectory resolves students from PostgreSQL, with an optional
// Redis read-through cache in front.
type GormStudentDirectory struct {
	db    *gorm.DB
	cache *database.Cache
}

func NewGormStudentDirectory(db *gorm.DB, cache *database.Cache) *GormStudentDirectory {
	return &GormStudentDirectory{db: db, cache: cache}
}

func (d *GormStudentDirectory) StudentWithParents(studentID uint) (*database.CachedStudent, error) {
	if cached := d.cache.GetStudent(studentID); cached != nil {
		return cached, nil
	}

	var student models.Student
	err := d.db.Preload("Group").Preload("Parents").First(&student, studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}

	resolved := &database.CachedStudent{
		ID:   student.ID,
		Name: student.Name,
	}
	if student.Group != nil {
		resolved.GroupName = student.Group.Name
	}
	for _, p := range student.Parents {
		parent := database.CachedParent{
			ID:    p.ID,
			Name:  p.Name,
			Phone: p.Phone,
		}
		if p.TelegramChatID != nil {
			parent.ChatID = *p.TelegramChatID
		}
		resolved.Parents = append(resolved.Parents, parent)
	}

	d.cache.SetStudent(resolved)

	return resolved, nil
}
