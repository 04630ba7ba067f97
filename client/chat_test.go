package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/agrisage-labs/agrisage-go/models"
)

func chatServer(t *testing.T, reply models.ChatReply) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("multipart parse: %v", err)
		}
		json.NewEncoder(w).Encode(reply)
	}))
}

func TestSessionIDFormat(t *testing.T) {
	app := NewApp("http://example.test")
	pattern := regexp.MustCompile(`^sess_\d+_[0-9a-f]{8}$`)
	if !pattern.MatchString(app.Chat.ID()) {
		t.Errorf("session id = %q", app.Chat.ID())
	}
}

func TestSendEmptyWithoutImageIsNoOp(t *testing.T) {
	app := NewApp("http://example.test")

	if err := app.Chat.Send(context.Background(), "   "); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(app.Chat.Transcript()) != 0 {
		t.Error("empty send should not touch the transcript")
	}
}

func TestSendAppendsBothTurns(t *testing.T) {
	server := chatServer(t, models.ChatReply{
		Response:    "Early blight shows as brown rings on lower leaves.",
		Suggestions: []string{"How to treat early blight?", "Organic treatment options"},
	})
	defer server.Close()

	app := NewApp(server.URL)
	if err := app.Chat.Send(context.Background(), "What is early blight?"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	transcript := app.Chat.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(transcript))
	}
	if transcript[0].Role != "user" || transcript[0].Content != "What is early blight?" {
		t.Errorf("user turn = %+v", transcript[0])
	}
	if transcript[1].Role != "assistant" || !strings.Contains(transcript[1].Content, "brown rings") {
		t.Errorf("assistant turn = %+v", transcript[1])
	}
	if got := app.Chat.Suggestions(); len(got) != 2 {
		t.Errorf("suggestions = %v", got)
	}
	if app.Chat.Typing() {
		t.Error("typing should be false after the reply arrived")
	}
}

func TestSendSuggestionReplacesChips(t *testing.T) {
	server := chatServer(t, models.ChatReply{
		Response:    "Use neem oil weekly.",
		Suggestions: []string{"When to spray neem oil?"},
	})
	defer server.Close()

	app := NewApp(server.URL)
	app.Chat.mu.Lock()
	app.Chat.suggestions = []string{"old chip"}
	app.Chat.mu.Unlock()

	if err := app.Chat.SendSuggestion(context.Background(), "Organic treatment options"); err != nil {
		t.Fatalf("SendSuggestion() error = %v", err)
	}

	got := app.Chat.Suggestions()
	if len(got) != 1 || got[0] != "When to spray neem oil?" {
		t.Errorf("suggestions = %v, want the new chips only", got)
	}
}

func TestSendImageOnlyUsesDefaultPrompt(t *testing.T) {
	var gotMessage string
	var hadImage bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(32 << 20)
		gotMessage = r.FormValue("message")
		_, _, err := r.FormFile("image")
		hadImage = err == nil
		json.NewEncoder(w).Encode(models.ChatReply{Response: "Looks like a tomato leaf."})
	}))
	defer server.Close()

	app := NewApp(server.URL)
	if err := app.Chat.AttachImage("leaf.jpg", "image/jpeg", []byte("pixels")); err != nil {
		t.Fatal(err)
	}
	if err := app.Chat.Send(context.Background(), ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotMessage != "What can you tell me about this plant?" {
		t.Errorf("message = %q", gotMessage)
	}
	if !hadImage {
		t.Error("image part should be sent")
	}
	if app.Chat.PendingImage() != nil {
		t.Error("staged image should be consumed by the send")
	}

	transcript := app.Chat.Transcript()
	if len(transcript) == 0 || !transcript[0].HasImage {
		t.Error("user turn should be marked as carrying an image")
	}
}

func TestSendFailureAppendsApologyAndConsumesImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	app := NewApp(server.URL)
	if err := app.Chat.AttachImage("leaf.jpg", "image/jpeg", []byte("pixels")); err != nil {
		t.Fatal(err)
	}
	if err := app.Chat.Send(context.Background(), "help"); err == nil {
		t.Fatal("expected an error")
	}

	transcript := app.Chat.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(transcript))
	}
	if transcript[1].Role != "assistant" || !strings.Contains(transcript[1].Content, "trouble") {
		t.Errorf("assistant turn = %+v", transcript[1])
	}
	if app.Chat.PendingImage() != nil {
		t.Error("staged image should be consumed even when the request fails")
	}
	if app.Chat.Typing() {
		t.Error("typing should be false after the failure")
	}
}

// blockingDoer delays its first request until released, letting a later
// request complete first.
type blockingDoer struct {
	inner   HTTPDoer
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
}

func (d *blockingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.calls++
	first := d.calls == 1
	d.mu.Unlock()

	if first {
		close(d.started)
		<-d.release
	}
	return d.inner.Do(req)
}

func TestStaleReplyIsDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(32 << 20)
		json.NewEncoder(w).Encode(models.ChatReply{Response: "reply to " + r.FormValue("message")})
	}))
	defer server.Close()

	app := NewApp(server.URL)
	doer := &blockingDoer{
		inner:   http.DefaultClient,
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	app.SetHTTPClient(doer)

	done := make(chan struct{})
	go func() {
		app.Chat.Send(context.Background(), "first")
		close(done)
	}()
	<-doer.started

	if !app.Chat.Typing() {
		t.Error("typing should be true while a reply is pending")
	}

	if err := app.Chat.Send(context.Background(), "second"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	close(doer.release)
	<-done

	var replies []string
	for _, turn := range app.Chat.Transcript() {
		if turn.Role == "assistant" {
			replies = append(replies, turn.Content)
		}
	}
	if len(replies) != 1 || replies[0] != "reply to second" {
		t.Errorf("assistant replies = %v, want only the reply to the newer message", replies)
	}
	if app.Chat.Typing() {
		t.Error("typing should be false once everything settled")
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	server := chatServer(t, models.ChatReply{Response: "ok"})
	defer server.Close()

	app := NewApp(server.URL)
	oldID := app.Chat.ID()
	if err := app.Chat.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	app.Chat.Reset()

	if app.Chat.ID() == oldID {
		t.Error("reset should mint a new session id")
	}
	if len(app.Chat.Transcript()) != 0 {
		t.Error("reset should clear the transcript")
	}
	if len(app.Chat.Suggestions()) != 0 {
		t.Error("reset should clear the suggestions")
	}
}

func TestTogglePanelKeepsTranscript(t *testing.T) {
	server := chatServer(t, models.ChatReply{Response: "ok"})
	defer server.Close()

	app := NewApp(server.URL)
	if err := app.Chat.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	if open := app.Chat.TogglePanel(); !open {
		t.Error("first toggle should open the panel")
	}
	if open := app.Chat.TogglePanel(); open {
		t.Error("second toggle should close the panel")
	}
	if len(app.Chat.Transcript()) != 2 {
		t.Error("closing the panel must not discard the transcript")
	}
}
