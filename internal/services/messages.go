package services

import (
	"fmt"
	"time"

	"github.com/Islomov1/eit-lc-crm/internal/models"
)

// All parent-facing texts are bilingual (Russian / Uzbek). They are the only
// user-visible error surface of the pipeline.

const (
	btnShareContact = "📱 Отправить номер / Raqamni yuborish"

	msgContactMismatch = `❌ Пожалуйста, отправьте свой собственный номер через кнопку контакта.

❌ Iltimos, kontakt tugmasi orqali aynan o‘zingizning raqamingizni yuboring.`

	msgPhoneNotFound = `❌ Этот номер не найден в системе EIT. Обратитесь к администратору.

❌ Bu raqam EIT tizimida topilmadi. Administratorga murojaat qiling.`

	msgStaleRequest = `❌ Запрос подтверждения не найден или устарел.

❌ Tasdiqlash so‘rovi topilmadi yoki eskirgan.`

	msgAlreadyHandled = `ℹ️ Этот запрос уже обработан.

ℹ️ Bu so‘rov allaqachon qayta ishlangan.`

	msgLinkRejected = `❌ Подключение отменено. Пожалуйста, обратитесь к администратору EIT.

❌ Ulanish bekor qilindi. Iltimos, EIT administratoriga murojaat qiling.`

	msgInviteInvalid = `❌ Неверный или использованный код.

❌ Kod noto‘g‘ri yoki allaqachon ishlatilgan.`

	msgAlreadyLinked = `ℹ️ Все родители этого ученика уже подключены к системе.

ℹ️ Bu o‘quvchining barcha ota-onalari tizimga allaqachon ulangan.`

	msgInviteLinked = `📚 EIT LC CRM

🇷🇺 Вы успешно подключены к системе.
Теперь вы будете получать официальные отчёты по ребёнку.

—————————————

🇺🇿 Siz tizimga muvaffaqiyatli ulandingiz.
Endi farzandingiz bo‘yicha hisobotlarni olasiz.`

	cbAnswerNotFound       = "Запись не найдена / Yozuv topilmadi"
	cbAnswerAlreadyHandled = "Уже обработано / Allaqachon qayta ishlangan"
	cbAnswerLinked         = "Подключено / Ulandi"
	cbAnswerRejected       = "Принято / Qabul qilindi"
	cbAnswerUnknown        = "Неизвестная команда / Noma’lum buyruq"
)

func msgShareContactPrompt(senderName string) string {
	return fmt.Sprintf(`Здравствуйте, %s! Для подключения родительского Telegram к системе EIT отправьте свой номер телефона кнопкой ниже.

Assalomu alaykum, %s! EIT tizimiga ota-ona Telegramini ulash uchun quyidagi tugma orqali telefon raqamingizni yuboring.`, senderName, senderName)
}

func msgConfirmPrompt(studentName, groupName string) string {
	if groupName == "" {
		groupName = "-"
	}
	return fmt.Sprintf(`Пожалуйста, подтвердите данные:

Это ваш ребёнок?
👧/👦 %s
Группа: %s

Пожалуйста, нажмите «Да», если всё верно.

Ma’lumotlarni tasdiqlang:

Bu sizning farzandingizmi?
👧/👦 %s
Guruh: %s

Hammasi to‘g‘ri bo‘lsa, «Ha» tugmasini bosing.`, studentName, groupName, studentName, groupName)
}

func msgLinkConfirmed(studentName, groupName string) string {
	if groupName == "" {
		groupName = "-"
	}
	return fmt.Sprintf(`✅ Подключение подтверждено.

Ученик: %s
Группа: %s

Теперь вы будете получать отчёты и сообщения от EIT LC.

✅ Ulanish tasdiqlandi.

O‘quvchi: %s
Guruh: %s

Endi siz EIT LC dan hisobotlar va xabarlarni olasiz.`, studentName, groupName, studentName, groupName)
}

// Producer message rendering.

func lessonReportMessage(studentName, groupName string, attendance models.AttendanceStatus, homework models.HomeworkStatus, comment, teacherName string) string {
	if groupName == "" {
		groupName = "-"
	}

	attendanceRu := "Отсутствовал(а)"
	attendanceUz := "Darsda qatnashmadi"
	if attendance == models.AttendancePresent {
		attendanceRu = "Присутствовал(а)"
		attendanceUz = "Darsda qatnashdi"
	}

	var homeworkRu, homeworkUz string
	switch homework {
	case models.HomeworkDone:
		homeworkRu = "Выполнено полностью"
		homeworkUz = "To‘liq bajarilgan"
	case models.HomeworkPartial:
		homeworkRu = "Выполнено частично"
		homeworkUz = "Qisman bajarilgan"
	default:
		homeworkRu = "Не выполнено"
		homeworkUz = "Bajarilmagan"
	}

	commentRu := comment
	if commentRu == "" {
		commentRu = "Комментарий отсутствует."
	}
	commentUz := comment
	if commentUz == "" {
		commentUz = "Izoh mavjud emas."
	}

	return fmt.Sprintf(`📚 ОТЧЁТ О ЗАНЯТИИ
EIT LC

Ученик: %s
Группа: %s
Посещаемость: %s
Домашнее задание: %s
Комментарий:
%s

Отправил(а): %s

—————————————

📚 DARS HISOBOTI
EIT LC

O‘quvchi: %s
Guruh: %s
Qatnashuv: %s
Uy vazifasi: %s
Izoh:
%s

Yubordi: %s`,
		studentName, groupName, attendanceRu, homeworkRu, commentRu, teacherName,
		studentName, groupName, attendanceUz, homeworkUz, commentUz, teacherName)
}

func supportSessionMessage(studentName, groupName string, start, end time.Time, comment, supportName string) string {
	if groupName == "" {
		groupName = "-"
	}

	durationHours := end.Sub(start).Hours()

	commentRu := comment
	if commentRu == "" {
		commentRu = "Комментарий отсутствует."
	}
	commentUz := comment
	if commentUz == "" {
		commentUz = "Izoh mavjud emas."
	}

	const timeLayout = "02.01.2006 15:04"

	return fmt.Sprintf(`📚 ОТЧЁТ О ЗАНЯТИИ С ACADEMIC SUPPORT
EIT LC

Ученик: %s
Группа: %s
Начало: %s
Окончание: %s
Длительность: %.2f ч

Комментарий:
%s

Отправил(а): %s

—————————————

📚 AKADEMIK SUPPORT HISOBOTI
EIT LC

O‘quvchi: %s
Guruh: %s
Boshlanishi: %s
Tugashi: %s
Davomiyligi: %.2f soat

Izoh:
%s

Yubordi: %s`,
		studentName, groupName, start.Format(timeLayout), end.Format(timeLayout), durationHours, commentRu, supportName,
		studentName, groupName, start.Format(timeLayout), end.Format(timeLayout), durationHours, commentUz, supportName)
}

func attendanceWarningMessage(studentName string, percent float64) string {
	return fmt.Sprintf(`Уважаемые родители!

Посещаемость ученика %s за выбранный месяц составляет %.1f%%.

Просим обратить внимание на регулярность посещения занятий.

—

Hurmatli ota-onalar!

%s o‘quvchisining tanlangan oy uchun davomat ko‘rsatkichi %.1f%% ni tashkil etadi.

Iltimos, darslarga muntazam qatnashishini nazorat qiling.`,
		studentName, percent, studentName, percent)
}
