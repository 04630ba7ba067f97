package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

type fakeBot struct {
	sessionID string
	message   string
	language  string
	image     []byte
	reply     *models.ChatReply
}

func (f *fakeBot) Process(ctx context.Context, sessionID, message, language string, image []byte, imageType string) *models.ChatReply {
	f.sessionID = sessionID
	f.message = message
	f.language = language
	f.image = image
	return f.reply
}

func chatRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "leaf.jpg")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(image)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/chat", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestChatHandlerSuccess(t *testing.T) {
	bot := &fakeBot{reply: &models.ChatReply{
		Response:    "Neem oil works well against aphids.",
		Suggestions: []string{"How often to spray?"},
	}}
	h := &ChatHandler{Bot: bot, Logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, chatRequest(t, map[string]string{
		"session_id": "sess_123_abcd1234",
		"message":    "How do I handle aphids?",
		"language":   "te",
	}, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bot.sessionID != "sess_123_abcd1234" || bot.message != "How do I handle aphids?" || bot.language != "te" {
		t.Errorf("bot saw %q %q %q", bot.sessionID, bot.message, bot.language)
	}

	var reply models.ChatReply
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Response == "" || len(reply.Suggestions) != 1 {
		t.Errorf("reply = %+v", reply)
	}
}

func TestChatHandlerMintsSessionID(t *testing.T) {
	bot := &fakeBot{reply: &models.ChatReply{Response: "ok"}}
	h := &ChatHandler{Bot: bot, Logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, chatRequest(t, map[string]string{"message": "hello"}, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bot.sessionID == "" {
		t.Error("handler should mint a session id when none is sent")
	}
	if bot.language != "en" {
		t.Errorf("language = %q, want default en", bot.language)
	}
}

func TestChatHandlerForwardsImage(t *testing.T) {
	bot := &fakeBot{reply: &models.ChatReply{Response: "Looks like a tomato leaf."}}
	h := &ChatHandler{Bot: bot, Logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, chatRequest(t, map[string]string{}, []byte("pixels")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if string(bot.image) != "pixels" {
		t.Errorf("bot image = %q", bot.image)
	}
}

func TestChatHandlerRejectsEmpty(t *testing.T) {
	h := &ChatHandler{Bot: &fakeBot{reply: &models.ChatReply{}}, Logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, chatRequest(t, map[string]string{"message": "   "}, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "No message provided" {
		t.Errorf("error = %q", resp["error"])
	}
}
