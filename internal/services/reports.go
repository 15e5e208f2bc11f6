package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

// ReportService creates lesson reports and support-session logs and fans the
// rendered notification out to the student's linked parents. The report row
// is the source of truth; a delivery problem never rolls the report back.
type ReportService struct {
	db         *gorm.DB
	dispatcher *DeliveryDispatcher
}

func NewReportService(db *gorm.DB, dispatcher *DeliveryDispatcher) *ReportService {
	return &ReportService{db: db, dispatcher: dispatcher}
}

// LessonReportInput is the teacher-facing payload for one lesson record.
type LessonReportInput struct {
	StudentID   uint                    `json:"student_id"`
	Date        time.Time               `json:"date"`
	Attendance  models.AttendanceStatus `json:"attendance"`
	Homework    models.HomeworkStatus   `json:"homework"`
	Comment     string                  `json:"comment"`
	TeacherName string                  `json:"teacher_name"`
	TeacherID   string                  `json:"teacher_id"`
}

func (in *LessonReportInput) validate() error {
	if in.StudentID == 0 {
		return validationErrorf("student_id is required")
	}
	switch in.Attendance {
	case models.AttendancePresent, models.AttendanceAbsent:
	default:
		return validationErrorf("invalid attendance %q", in.Attendance)
	}
	switch in.Homework {
	case models.HomeworkDone, models.HomeworkPartial, models.HomeworkMissing:
	default:
		return validationErrorf("invalid homework %q", in.Homework)
	}
	return nil
}

// CreateLessonReport stores the report and notifies the parents. The report
// id doubles as the delivery dedup source, so re-notifying the same report
// never duplicates a message.
func (s *ReportService) CreateLessonReport(in LessonReportInput) (*models.LessonReport, *DispatchResult, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	student, err := s.loadStudent(in.StudentID)
	if err != nil {
		return nil, nil, err
	}

	report := models.LessonReport{
		StudentID:   in.StudentID,
		Date:        in.Date,
		Attendance:  in.Attendance,
		Homework:    in.Homework,
		Comment:     in.Comment,
		TeacherName: in.TeacherName,
		TeacherID:   in.TeacherID,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, nil, err
	}

	groupName := ""
	if student.Group != nil {
		groupName = student.Group.Name
	}
	message := lessonReportMessage(student.Name, groupName, report.Attendance, report.Homework, report.Comment, report.TeacherName)

	dispatch, err := s.dispatcher.Dispatch(
		student.ID,
		message,
		Actor{Type: models.ActorUser, ID: in.TeacherID},
		DispatchOptions{
			ParseMode:  telegram.ParseModeHTML,
			SourceType: "LESSON_REPORT",
			SourceID:   formatUint(report.ID),
		},
	)
	if err != nil {
		log.Printf("Lesson report %d stored but dispatch failed: %v", report.ID, err)
	}

	return &report, dispatch, nil
}

// SupportSessionInput is the payload for one academic-support session.
type SupportSessionInput struct {
	StudentID   uint      `json:"student_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Comment     string    `json:"comment"`
	SupportName string    `json:"support_name"`
	SupportID   string    `json:"support_id"`
}

// CreateSupportSession stores the session log and notifies the parents.
func (s *ReportService) CreateSupportSession(in SupportSessionInput) (*models.SupportSession, *DispatchResult, error) {
	if in.StudentID == 0 {
		return nil, nil, validationErrorf("student_id is required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() || !in.EndTime.After(in.StartTime) {
		return nil, nil, validationErrorf("start_time and end_time must form a valid interval")
	}

	student, err := s.loadStudent(in.StudentID)
	if err != nil {
		return nil, nil, err
	}

	session := models.SupportSession{
		StudentID:   in.StudentID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Comment:     in.Comment,
		SupportName: in.SupportName,
		SupportID:   in.SupportID,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, nil, err
	}

	groupName := ""
	if student.Group != nil {
		groupName = student.Group.Name
	}
	message := supportSessionMessage(student.Name, groupName, session.StartTime, session.EndTime, session.Comment, session.SupportName)

	dispatch, err := s.dispatcher.Dispatch(
		student.ID,
		message,
		Actor{Type: models.ActorUser, ID: in.SupportID},
		DispatchOptions{
			ParseMode:  telegram.ParseModeHTML,
			SourceType: "SUPPORT_SESSION",
			SourceID:   formatUint(session.ID),
		},
	)
	if err != nil {
		log.Printf("Support session %d stored but dispatch failed: %v", session.ID, err)
	}

	return &session, dispatch, nil
}

func (s *ReportService) loadStudent(id uint) (*models.Student, error) {
	var student models.Student
	err := s.db.Preload("Group").First(&student, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}
