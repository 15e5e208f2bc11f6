package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, NewClient("test-token", srv.URL)
}

func TestSendMessageSuccess(t *testing.T) {
	_, client := newTestServer(t, 200, `{"ok":true,"result":{"message_id":4242}}`)

	result := client.SendMessage("555", "hello", ParseModeHTML)
	assert.True(t, result.OK)
	assert.EqualValues(t, 4242, result.MessageID)
}

func TestSendMessagePayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient("test-token", srv.URL)

	client.SendMessage("555", "hello", "HTML")
	assert.Equal(t, "555", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, true, got["disable_web_page_preview"])

	// unknown parse modes degrade to plain text
	client.SendMessage("555", "hello", "Markdown")
	_, hasMode := got["parse_mode"]
	assert.False(t, hasMode)
}

func TestSendMessageAPIError(t *testing.T) {
	_, client := newTestServer(t, 400, `{"ok":false,"description":"Bad Request: chat not found"}`)

	result := client.SendMessage("555", "hello", "")
	assert.False(t, result.OK)
	assert.Equal(t, "Bad Request: chat not found", result.Error)
	assert.Equal(t, 400, result.HTTPStatus)
	assert.NotEmpty(t, result.Detail)
}

func TestSendMessageMalformedResponse(t *testing.T) {
	_, client := newTestServer(t, 502, `<html>bad gateway</html>`)

	result := client.SendMessage("555", "hello", "")
	assert.False(t, result.OK)
	assert.Equal(t, "HTTP 502", result.Error)
	assert.Equal(t, 502, result.HTTPStatus)
}

func TestSendMessageMissingMessageID(t *testing.T) {
	_, client := newTestServer(t, 200, `{"ok":true,"result":{}}`)

	result := client.SendMessage("555", "hello", "")
	assert.False(t, result.OK)
	assert.Equal(t, "response missing message_id", result.Error)
}

func TestSendMessageWithoutToken(t *testing.T) {
	client := NewClient("", "")

	result := client.SendMessage("555", "hello", "")
	assert.False(t, result.OK)
	assert.Equal(t, "missing bot token", result.Error)
}

func TestNormalizeParseMode(t *testing.T) {
	assert.Equal(t, "HTML", NormalizeParseMode("HTML"))
	assert.Equal(t, "MarkdownV2", NormalizeParseMode("MarkdownV2"))
	assert.Equal(t, "", NormalizeParseMode("Markdown"))
	assert.Equal(t, "", NormalizeParseMode(""))
}

func TestIsPermanentSendError(t *testing.T) {
	permanent := []string{
		"Forbidden: bot was blocked by the user",
		"Bad Request: chat not found",
		"Forbidden: user is deactivated",
	}
	for _, desc := range permanent {
		assert.True(t, IsPermanentSendError(SendResult{OK: false, Error: desc}), desc)
	}

	assert.False(t, IsPermanentSendError(SendResult{OK: false, Error: "Too Many Requests: retry after 5"}))
	assert.False(t, IsPermanentSendError(SendResult{OK: false, Error: "Internal Server Error"}))
	assert.False(t, IsPermanentSendError(SendResult{OK: true}))
}

func TestFormatChatID(t *testing.T) {
	assert.Equal(t, "555", FormatChatID(555))
	assert.Equal(t, "-100123", FormatChatID(-100123))
}
