package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Islomov1/eit-lc-crm/internal/models"
)

func TestLessonReportMessageIsBilingual(t *testing.T) {
	msg := lessonReportMessage("Aziz Karimov", "B2 Evening", models.AttendancePresent, models.HomeworkPartial, "needs more practice", "Mr. Tom")

	assert.Contains(t, msg, "Aziz Karimov")
	assert.Contains(t, msg, "B2 Evening")
	assert.Contains(t, msg, "needs more practice")
	// both language blocks present
	assert.Contains(t, msg, "ОТЧЁТ О ЗАНЯТИИ")
	assert.Contains(t, msg, "DARS HISOBOTI")
}

func TestLessonReportMessageEmptyCommentPlaceholder(t *testing.T) {
	msg := lessonReportMessage("Aziz", "", models.AttendanceAbsent, models.HomeworkMissing, "", "")
	assert.Contains(t, msg, "Комментарий отсутствует.")
	assert.Contains(t, msg, "Izoh mavjud emas.")
	assert.Contains(t, msg, "Группа: -")
}

func TestSupportSessionMessage(t *testing.T) {
	start := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	msg := supportSessionMessage("Aziz Karimov", "B2 Evening", start, end, "grammar review", "Ms. Lola")
	assert.Contains(t, msg, "Aziz Karimov")
	assert.Contains(t, msg, "15:00")
	assert.Contains(t, msg, "15:45")
	assert.Contains(t, msg, "grammar review")
}

func TestAttendanceWarningMessage(t *testing.T) {
	msg := attendanceWarningMessage("Aziz Karimov", 54.5)
	assert.Contains(t, msg, "Aziz Karimov")
	assert.Contains(t, msg, "54.5")
	assert.Contains(t, msg, "%")
}
