package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Islomov1/eit-lc-crm/internal/models"
)

const attendanceWarningThreshold = 70.0

// AttendanceWarningService scans a month of lesson reports and notifies the
// parents of students whose attendance fell below the threshold. The monthly
// idempotency key makes the scan safe to rerun: already-warned students are
// deduped at the delivery layer.
type AttendanceWarningService struct {
	db         *gorm.DB
	dispatcher *DeliveryDispatcher
}

func NewAttendanceWarningService(db *gorm.DB, dispatcher *DeliveryDispatcher) *AttendanceWarningService {
	return &AttendanceWarningService{db: db, dispatcher: dispatcher}
}

// AttendanceWarning is the per-student outcome of one warning run.
type AttendanceWarning struct {
	StudentID   uint    `json:"student_id"`
	StudentName string  `json:"student_name"`
	Lessons     int     `json:"lessons"`
	Present     int     `json:"present"`
	Percent     float64 `json:"percent"`
	Sent        int     `json:"sent"`
	Failed      int     `json:"failed"`
}

// WarningRun summarizes one invocation of SendWarnings.
type WarningRun struct {
	Month           string              `json:"month"`
	StudentsScanned int                 `json:"students_scanned"`
	Warned          int                 `json:"warned"`
	Warnings        []AttendanceWarning `json:"warnings"`
}

type attendanceRow struct {
	StudentID uint
	Name      string
	Lessons   int
	Present   int
}

// SendWarnings computes attendance percentages for the given month
// (YYYY-MM) and dispatches a warning per student under the threshold.
func (s *AttendanceWarningService) SendWarnings(month string) (*WarningRun, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, validationErrorf("invalid month %q, expected YYYY-MM", month)
	}
	end := start.AddDate(0, 1, 0)

	var rows []attendanceRow
	err = s.db.Model(&models.LessonReport{}).
		Select("lesson_reports.student_id AS student_id, students.name AS name, COUNT(*) AS lessons, COUNT(*) FILTER (WHERE attendance = ?) AS present", models.AttendancePresent).
		Joins("JOIN students ON students.id = lesson_reports.student_id").
		Where("lesson_reports.date >= ? AND lesson_reports.date < ?", start, end).
		Group("lesson_reports.student_id, students.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	run := &WarningRun{Month: month, StudentsScanned: len(rows), Warnings: []AttendanceWarning{}}

	for _, row := range rows {
		if row.Lessons == 0 {
			continue
		}
		percent := float64(row.Present) / float64(row.Lessons) * 100

		if percent >= attendanceWarningThreshold {
			continue
		}

		warning := AttendanceWarning{
			StudentID:   row.StudentID,
			StudentName: row.Name,
			Lessons:     row.Lessons,
			Present:     row.Present,
			Percent:     percent,
		}

		result, err := s.dispatcher.Dispatch(
			row.StudentID,
			attendanceWarningMessage(row.Name, percent),
			Actor{Type: models.ActorSystem, ID: "attendance-warnings"},
			DispatchOptions{
				SourceType: "ATTENDANCE_WARNING",
				SourceID:   fmt.Sprintf("%d:%s", row.StudentID, month),
			},
		)
		if err != nil {
			log.Printf("Attendance warning dispatch failed for student %d: %v", row.StudentID, err)
			continue
		}

		for _, r := range result.Results {
			switch r.Status {
			case OutcomeSent:
				warning.Sent++
			case OutcomeFailed:
				warning.Failed++
			}
		}

		run.Warned++
		run.Warnings = append(run.Warnings, warning)
	}

	return run, nil
}
