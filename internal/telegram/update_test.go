package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognizeCallback(t *testing.T) {
	u := &Update{
		UpdateID: 1,
		CallbackQuery: &CallbackQuery{
			ID:      "cb9",
			From:    &User{ID: 42},
			Message: &Message{Chat: &Chat{ID: -100500}},
			Data:    "link_yes:abc",
		},
	}

	r := u.Recognize()
	assert.Equal(t, KindCallback, r.Kind)
	assert.Equal(t, "-100500", r.ChatID)
	assert.Equal(t, "cb9", r.CallbackID)
	assert.Equal(t, "link_yes:abc", r.CallbackData)
	assert.EqualValues(t, 42, r.FromID)
}

func TestRecognizeBadCallback(t *testing.T) {
	u := &Update{
		UpdateID:      2,
		CallbackQuery: &CallbackQuery{ID: "cb9"},
	}

	r := u.Recognize()
	assert.Equal(t, KindUnrecognized, r.Kind)
	assert.Equal(t, "bad callback_query", r.Reason)
}

func TestRecognizeContact(t *testing.T) {
	u := &Update{
		UpdateID: 3,
		Message: &Message{
			Chat:    &Chat{ID: 555},
			From:    &User{ID: 500},
			Contact: &Contact{PhoneNumber: "+998901234567", UserID: 500},
		},
	}

	r := u.Recognize()
	assert.Equal(t, KindContact, r.Kind)
	assert.Equal(t, "555", r.ChatID)
	assert.Equal(t, "+998901234567", r.Contact.PhoneNumber)
}

func TestRecognizeStart(t *testing.T) {
	u := &Update{
		UpdateID: 4,
		Message:  &Message{Chat: &Chat{ID: 555}, Text: "/start"},
	}
	r := u.Recognize()
	assert.Equal(t, KindStartCommand, r.Kind)
	assert.Empty(t, r.StartPayload)

	u.Message.Text = "/start eitabc123"
	r = u.Recognize()
	assert.Equal(t, KindStartCommand, r.Kind)
	assert.Equal(t, "eitabc123", r.StartPayload)
}

func TestRecognizePlainMessage(t *testing.T) {
	u := &Update{
		UpdateID: 5,
		Message:  &Message{Chat: &Chat{ID: 555}, Text: "когда отчёт?"},
	}
	r := u.Recognize()
	assert.Equal(t, KindPlainMessage, r.Kind)
	assert.Equal(t, "когда отчёт?", r.Text)
}

func TestRecognizeUnusableShapes(t *testing.T) {
	r := (&Update{UpdateID: 6}).Recognize()
	assert.Equal(t, KindUnrecognized, r.Kind)
	assert.Equal(t, "no message object", r.Reason)

	r = (&Update{UpdateID: 7, Message: &Message{Text: "hi"}}).Recognize()
	assert.Equal(t, KindUnrecognized, r.Kind)
	assert.Equal(t, "no chat.id", r.Reason)
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Dilnoza Karimova", (&User{FirstName: "Dilnoza", LastName: "Karimova"}).FullName())
	assert.Equal(t, "Dilnoza", (&User{FirstName: "Dilnoza"}).FullName())
	assert.Equal(t, "Parent", (&User{}).FullName())
	assert.Equal(t, "Parent", (*User)(nil).FullName())
}
