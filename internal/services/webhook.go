package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Islomov1/eit-lc-crm/internal/database"
	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

const (
	callbackLinkYes = "link_yes:"
	callbackLinkNo  = "link_no:"

	pendingLinkTTL = 15 * time.Minute
)

// WebhookProcessor consumes inbound provider updates. Every update is
// persisted exactly once by provider id, then driven through the linking
// state machine to exactly one terminal status. Processing failures are
// absorbed and recorded; the provider always gets an acknowledgment, so it
// never retries an update this system cannot make progress on.
type WebhookProcessor struct {
	updates UpdateStore
	links   LinkStore
	bot     BotAPI
	cache   *database.Cache
	now     func() time.Time
}

func NewWebhookProcessor(updates UpdateStore, links LinkStore, bot BotAPI, cache *database.Cache) *WebhookProcessor {
	return &WebhookProcessor{
		updates: updates,
		links:   links,
		bot:     bot,
		cache:   cache,
		now:     time.Now,
	}
}

// Process handles one inbound update. It never returns an error: the
// webhook handler acknowledges the provider regardless of what happened
// here, and the outcome lives on the stored update row.
func (p *WebhookProcessor) Process(update *telegram.Update, raw []byte) {
	created, err := p.updates.InsertUpdate(update.UpdateID, raw)
	if err != nil {
		log.Printf("Failed to store telegram update %d: %v", update.UpdateID, err)
		return
	}
	if !created {
		// replayed delivery of an update we already own
		return
	}

	rec := update.Recognize()

	var flowErr error
	switch rec.Kind {
	case telegram.KindCallback:
		flowErr = p.handleCallback(update.UpdateID, rec)
	case telegram.KindContact:
		flowErr = p.handleContact(update.UpdateID, rec)
	case telegram.KindStartCommand:
		flowErr = p.handleStart(update.UpdateID, rec)
	case telegram.KindPlainMessage:
		flowErr = p.updates.MarkIgnored(update.UpdateID, "")
	default:
		flowErr = p.updates.MarkIgnored(update.UpdateID, rec.Reason)
	}

	if flowErr != nil {
		log.Printf("Telegram update %d processing error: %v", update.UpdateID, flowErr)
		if err := p.updates.MarkError(update.UpdateID, flowErr.Error()); err != nil {
			log.Printf("Failed to mark telegram update %d as error: %v", update.UpdateID, err)
		}
	}
}

// handleCallback runs the confirm/reject sub-flow for inline button presses.
func (p *WebhookProcessor) handleCallback(updateID int64, rec telegram.Recognized) error {
	switch {
	case strings.HasPrefix(rec.CallbackData, callbackLinkYes):
		return p.confirmLink(updateID, rec, strings.TrimSpace(rec.CallbackData[len(callbackLinkYes):]))
	case strings.HasPrefix(rec.CallbackData, callbackLinkNo):
		return p.rejectLink(updateID, rec, strings.TrimSpace(rec.CallbackData[len(callbackLinkNo):]))
	default:
		p.bot.AnswerCallbackQuery(rec.CallbackID, cbAnswerUnknown)
		return p.updates.MarkIgnored(updateID, "unknown callback data")
	}
}

func (p *WebhookProcessor) confirmLink(updateID int64, rec telegram.Recognized, pendingID string) error {
	pending, err := p.links.PendingLinkByID(pendingID)
	if err != nil {
		return fmt.Errorf("load pending link: %w", err)
	}
	if pending == nil {
		p.bot.AnswerCallbackQuery(rec.CallbackID, cbAnswerNotFound)
		p.bot.SendMessage(rec.ChatID, msgStaleRequest, "")
		return p.updates.MarkIgnored(updateID, "pending link not found")
	}

	// The conditional update is the race gate: a stale button press from an
	// expired or already-resolved proposal must not rebind anything.
	confirmed, err := p.links.ConfirmPendingLink(pending.ID, p.now())
	if err != nil {
		return fmt.Errorf("confirm pending link: %w", err)
	}
	if !confirmed {
		p.bot.AnswerCallbackQuery(rec.CallbackID, cbAnswerAlreadyHandled)
		p.bot.SendMessage(rec.ChatID, msgAlreadyHandled, "")
		return p.updates.MarkIgnored(updateID, "pending link not confirmable")
	}

	if err := p.links.BindParentChat(pending.ParentID, rec.ChatID); err != nil {
		return fmt.Errorf("bind parent chat: %w", err)
	}
	p.cache.InvalidateStudent(pending.StudentID)

	student, err := p.links.StudentWithGroupAndParents(pending.StudentID)
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}

	studentName, groupName := "-", ""
	var groupID *uint
	if student != nil {
		studentName = student.Name
		groupID = student.GroupID
		if student.Group != nil {
			groupName = student.Group.Name
		}
	}

	if err := p.links.RecordLinkEvent(pending.ParentID, pending.StudentID, groupID, map[string]string{"method": "contact_confirm"}); err != nil {
		log.Printf("Failed to record link event for parent %d: %v", pending.ParentID, err)
	}

	p.bot.AnswerCallbackQuery(rec.CallbackID, cbAnswerLinked)
	p.bot.RemoveReplyKeyboard(rec.ChatID, msgLinkConfirmed(studentName, groupName))

	return p.updates.MarkProcessed(updateID)
}

func (p *WebhookProcessor) rejectLink(updateID int64, rec telegram.Recognized, pendingID string) error {
	rejected, err := p.links.RejectPendingLink(pendingID)
	if err != nil {
		return fmt.Errorf("reject pending link: %w", err)
	}
	// a stale reject still acknowledges; there is nothing left to undo
	_ = rejected

	p.bot.AnswerCallbackQuery(rec.CallbackID, cbAnswerRejected)
	p.bot.SendMessage(rec.ChatID, msgLinkRejected, "")

	return p.updates.MarkProcessed(updateID)
}

// handleContact runs the phone-contact linking sub-flow. Linking is
// confirm-before-bind: a matched phone only creates a pending proposal; the
// chat is bound when the user presses the confirmation button.
func (p *WebhookProcessor) handleContact(updateID int64, rec telegram.Recognized) error {
	// The sender must share their own contact card. Anything else could
	// hijack another family's notifications.
	if rec.FromID == 0 || rec.Contact.UserID == 0 || rec.Contact.UserID != rec.FromID {
		p.bot.SendMessage(rec.ChatID, msgContactMismatch, "")
		return p.updates.MarkIgnored(updateID, "contact user mismatch")
	}

	variants := phoneVariants(normalizePhone(rec.Contact.PhoneNumber))
	parent, err := p.links.FindParentByPhone(variants)
	if err != nil {
		return fmt.Errorf("find parent by phone: %w", err)
	}
	if parent == nil {
		p.bot.SendMessage(rec.ChatID, msgPhoneNotFound, "")
		return p.updates.MarkIgnored(updateID, "phone not found")
	}

	pending, err := p.links.UpsertPendingLink(rec.ChatID, parent.ID, parent.StudentID, p.now().Add(pendingLinkTTL))
	if err != nil {
		return fmt.Errorf("upsert pending link: %w", err)
	}

	studentName, groupName := "-", ""
	if parent.Student != nil {
		studentName = parent.Student.Name
		if parent.Student.Group != nil {
			groupName = parent.Student.Group.Name
		}
	}

	p.bot.SendMessageWithInlineKeyboard(rec.ChatID, msgConfirmPrompt(studentName, groupName), confirmButtons(pending.ID))

	return p.updates.MarkProcessed(updateID)
}

// handleStart handles /start: bare starts open the contact-share flow, a
// payload is treated as a one-time invite code.
func (p *WebhookProcessor) handleStart(updateID int64, rec telegram.Recognized) error {
	if rec.StartPayload == "" {
		p.bot.SendContactRequestKeyboard(rec.ChatID, msgShareContactPrompt(rec.From.FullName()), btnShareContact)
		return p.updates.MarkProcessed(updateID)
	}
	return p.linkByInvite(updateID, rec, rec.StartPayload)
}

// linkByInvite binds the chat directly: possession of a valid one-time code
// is the authorization, no confirmation step.
func (p *WebhookProcessor) linkByInvite(updateID int64, rec telegram.Recognized, code string) error {
	invite, err := p.links.InviteByCode(code)
	if err != nil {
		return fmt.Errorf("load invite: %w", err)
	}
	if invite == nil || invite.Status != models.InviteActive {
		p.bot.SendMessage(rec.ChatID, msgInviteInvalid, "")
		return p.updates.MarkIgnored(updateID, "invalid or used invite code")
	}

	student, err := p.links.StudentWithGroupAndParents(invite.StudentID)
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		p.bot.SendMessage(rec.ChatID, msgInviteInvalid, "")
		return p.updates.MarkIgnored(updateID, "invite student missing")
	}

	var target *models.Parent
	for i := range student.Parents {
		if !student.Parents[i].HasLinkedChat() {
			target = &student.Parents[i]
			break
		}
	}
	if target == nil {
		p.bot.SendMessage(rec.ChatID, msgAlreadyLinked, "")
		return p.updates.MarkProcessed(updateID)
	}

	consumed, err := p.links.ConsumeInvite(invite.ID, target.ID, p.now())
	if err != nil {
		return fmt.Errorf("consume invite: %w", err)
	}
	if !consumed {
		// lost the race against a concurrent use of the same code
		p.bot.SendMessage(rec.ChatID, msgInviteInvalid, "")
		return p.updates.MarkIgnored(updateID, "invite already consumed")
	}

	if err := p.links.BindParentChat(target.ID, rec.ChatID); err != nil {
		return fmt.Errorf("bind parent chat: %w", err)
	}
	p.cache.InvalidateStudent(student.ID)

	if err := p.links.RecordLinkEvent(target.ID, student.ID, student.GroupID, map[string]string{"method": "invite_code", "code": code}); err != nil {
		log.Printf("Failed to record link event for parent %d: %v", target.ID, err)
	}

	p.bot.SendMessage(rec.ChatID, msgInviteLinked, "")

	return p.updates.MarkProcessed(updateID)
}

func confirmButtons(pendingID string) [][]telegram.InlineButton {
	return [][]telegram.InlineButton{
		{
			{Text: "✅ Да / Ha", CallbackData: callbackLinkYes + pendingID},
			{Text: "❌ Нет / Yo‘q", CallbackData: callbackLinkNo + pendingID},
		},
	}
}
