package services

import (
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

// Sender is the single external primitive the delivery pipeline depends on:
// send one message, get a normalized success/failure result.
type Sender interface {
	SendMessage(chatID, text, parseMode string) telegram.SendResult
}

// BotAPI is the full conversational surface the webhook flows use.
type BotAPI interface {
	Sender
	SendMessageWithInlineKeyboard(chatID, text string, buttons [][]telegram.InlineButton) telegram.SendResult
	SendContactRequestKeyboard(chatID, text, buttonText string) telegram.SendResult
	RemoveReplyKeyboard(chatID, text string) telegram.SendResult
	AnswerCallbackQuery(callbackID, text string) telegram.SendResult
}
