package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ParseModeHTML and ParseModeMarkdownV2 are the only formatting modes the
// delivery pipeline accepts; anything else is sent as plain text.
const (
	ParseModeHTML       = "HTML"
	ParseModeMarkdownV2 = "MarkdownV2"
)

// SendResult is the normalized outcome of one Bot API call. All failure
// modes (timeout, HTTP error, ok:false body, malformed response) collapse
// into OK=false; nothing escapes this boundary as an error value.
type SendResult struct {
	OK         bool
	MessageID  int64
	Error      string
	HTTPStatus int
	Detail     string // raw response body for failed calls, for diagnostics
}

// Client talks to the Telegram Bot API
type Client struct {
	token   string
	apiBase string
	client  *http.Client
}

// NewClient creates a Bot API client. Every call is bounded by the client
// timeout; there is no indefinite hang path.
func NewClient(token, apiBase string) *Client {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &Client{
		token:   token,
		apiBase: strings.TrimSuffix(apiBase, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NormalizeParseMode returns mode if it is a supported formatting mode,
// otherwise the empty string.
func NormalizeParseMode(mode string) string {
	if mode == ParseModeHTML || mode == ParseModeMarkdownV2 {
		return mode
	}
	return ""
}

// SendMessage sends a plain text message to a chat.
func (c *Client) SendMessage(chatID, text, parseMode string) SendResult {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if mode := NormalizeParseMode(parseMode); mode != "" {
		payload["parse_mode"] = mode
	}
	return c.call("sendMessage", payload)
}

// InlineButton is one button of an inline keyboard row.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// SendMessageWithInlineKeyboard sends a message with inline buttons attached.
func (c *Client) SendMessageWithInlineKeyboard(chatID, text string, buttons [][]InlineButton) SendResult {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
		"reply_markup": map[string]interface{}{
			"inline_keyboard": buttons,
		},
	}
	return c.call("sendMessage", payload)
}

// SendContactRequestKeyboard sends a message with a one-time reply keyboard
// asking the user to share their own contact.
func (c *Client) SendContactRequestKeyboard(chatID, text, buttonText string) SendResult {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
		"reply_markup": map[string]interface{}{
			"keyboard": [][]map[string]interface{}{
				{{"text": buttonText, "request_contact": true}},
			},
			"resize_keyboard":   true,
			"one_time_keyboard": true,
		},
	}
	return c.call("sendMessage", payload)
}

// RemoveReplyKeyboard sends a message and removes any lingering reply
// keyboard from the chat.
func (c *Client) RemoveReplyKeyboard(chatID, text string) SendResult {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
		"reply_markup": map[string]interface{}{
			"remove_keyboard": true,
		},
	}
	return c.call("sendMessage", payload)
}

// AnswerCallbackQuery acknowledges an inline button press.
func (c *Client) AnswerCallbackQuery(callbackID, text string) SendResult {
	payload := map[string]interface{}{
		"callback_query_id": callbackID,
		"text":              text,
	}
	return c.call("answerCallbackQuery", payload)
}

func (c *Client) call(method string, payload map[string]interface{}) SendResult {
	if c.token == "" {
		return SendResult{OK: false, Error: "missing bot token"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{OK: false, Error: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return SendResult{OK: false, Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return SendResult{OK: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return SendResult{
			OK:         false,
			Error:      fmt.Sprintf("HTTP %d", resp.StatusCode),
			HTTPStatus: resp.StatusCode,
			Detail:     string(respBody),
		}
	}

	if resp.StatusCode >= 400 || !apiResp.OK {
		errText := apiResp.Description
		if errText == "" {
			errText = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return SendResult{
			OK:         false,
			Error:      errText,
			HTTPStatus: resp.StatusCode,
			Detail:     string(respBody),
		}
	}

	if method == "sendMessage" && apiResp.Result.MessageID == 0 {
		return SendResult{
			OK:         false,
			Error:      "response missing message_id",
			HTTPStatus: resp.StatusCode,
			Detail:     string(respBody),
		}
	}

	return SendResult{OK: true, MessageID: apiResp.Result.MessageID, HTTPStatus: resp.StatusCode}
}

// permanentSendErrors are Bot API descriptions that will never succeed on
// retry: the chat is gone or the bot can no longer reach the user.
var permanentSendErrors = []string{
	"bot was blocked by the user",
	"chat not found",
	"user is deactivated",
	"bot can't initiate conversation",
	"the group chat was deleted",
}

// IsPermanentSendError reports whether a failed result should stop retrying
// immediately instead of consuming attempts until the cap.
func IsPermanentSendError(result SendResult) bool {
	if result.OK {
		return false
	}
	errText := strings.ToLower(result.Error)
	for _, known := range permanentSendErrors {
		if strings.Contains(errText, known) {
			return true
		}
	}
	return false
}
