package telegram

import (
	"strconv"
	"strings"
)

// Update is the provider's webhook envelope, parsed strictly before any
// business logic runs.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64    `json:"message_id"`
	From      *User    `json:"from"`
	Chat      *Chat    `json:"chat"`
	Text      string   `json:"text"`
	Contact   *Contact `json:"contact"`
}

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sending Telegram account.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins first and last name, falling back to "Parent" when the
// account exposes neither. Safe on a nil receiver: updates are not
// guaranteed to carry a sender.
func (u *User) FullName() string {
	if u == nil {
		return "Parent"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "Parent"
	}
	return name
}

// Contact is a shared contact card.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	UserID      int64  `json:"user_id"`
}

// CallbackQuery is an inline button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// UpdateKind is the closed set of update shapes the webhook acts on.
type UpdateKind int

const (
	KindUnrecognized UpdateKind = iota
	KindCallback
	KindContact
	KindStartCommand
	KindPlainMessage
)

// Recognized is the typed result of classifying an update. ChatID is the
// canonical string form used everywhere downstream.
type Recognized struct {
	Kind         UpdateKind
	ChatID       string
	FromID       int64
	From         *User
	Text         string
	StartPayload string // code after "/start", empty for a bare /start
	Contact      *Contact
	CallbackID   string
	CallbackData string
	Reason       string // why the update was not recognized
}

// Recognize classifies the update into exactly one variant. Unusable shapes
// (missing chat id, missing body) short-circuit to KindUnrecognized with a
// reason; no business logic should run for those.
func (u *Update) Recognize() Recognized {
	if cb := u.CallbackQuery; cb != nil {
		if cb.ID == "" || cb.Data == "" || cb.Message == nil || cb.Message.Chat == nil {
			return Recognized{Kind: KindUnrecognized, Reason: "bad callback_query"}
		}
		r := Recognized{
			Kind:         KindCallback,
			ChatID:       FormatChatID(cb.Message.Chat.ID),
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
			From:         cb.From,
		}
		if cb.From != nil {
			r.FromID = cb.From.ID
		}
		return r
	}

	msg := u.Message
	if msg == nil {
		return Recognized{Kind: KindUnrecognized, Reason: "no message object"}
	}
	if msg.Chat == nil || msg.Chat.ID == 0 {
		return Recognized{Kind: KindUnrecognized, Reason: "no chat.id"}
	}

	r := Recognized{
		ChatID: FormatChatID(msg.Chat.ID),
		Text:   msg.Text,
		From:   msg.From,
	}
	if msg.From != nil {
		r.FromID = msg.From.ID
	}

	if msg.Contact != nil && msg.Contact.PhoneNumber != "" {
		r.Kind = KindContact
		r.Contact = msg.Contact
		return r
	}

	if strings.HasPrefix(msg.Text, "/start") {
		r.Kind = KindStartCommand
		parts := strings.Fields(msg.Text)
		if len(parts) > 1 {
			r.StartPayload = parts[1]
		}
		return r
	}

	r.Kind = KindPlainMessage
	return r
}

// FormatChatID converts the provider's numeric chat id to the canonical
// string representation used at every boundary of this system.
func FormatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
