package utils

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

// testChatbot has no provider credentials, so every exchange runs through
// the built-in knowledge and fallback paths.
func testChatbot() *Chatbot {
	return &Chatbot{
		gemini:    &GeminiClient{},
		hf:        &HuggingFaceClient{},
		knowledge: &KnowledgeBase{logger: zap.NewNop()},
		logger:    zap.NewNop(),
		history:   make(map[string][]models.ChatTurn),
	}
}

func TestProcessUsesBuiltinKnowledge(t *testing.T) {
	bot := testChatbot()
	reply := bot.Process(context.Background(), "sess_1", "My tomato has early blight", "en", nil, "")

	if !strings.Contains(reply.Response, "Early blight") {
		t.Errorf("response = %q", reply.Response)
	}
	if len(reply.Suggestions) == 0 {
		t.Error("suggestions expected")
	}
}

func TestProcessFallbackKeywords(t *testing.T) {
	tests := []struct {
		message string
		keyword string
	}{
		{"Which fertilizer ratio should I use", "NPK"},
		{"How much water does my field need", "inches of water"},
		{"hello there", "farming assistant"},
	}

	bot := testChatbot()
	for _, tt := range tests {
		reply := bot.Process(context.Background(), "sess_2", tt.message, "en", nil, "")
		if !strings.Contains(reply.Response, tt.keyword) {
			t.Errorf("message %q: response %q does not contain %q", tt.message, reply.Response, tt.keyword)
		}
	}
}

func TestProcessImageWithoutProviders(t *testing.T) {
	bot := testChatbot()
	reply := bot.Process(context.Background(), "sess_3", "", "en", []byte("pixels"), "image/jpeg")

	if !strings.Contains(reply.Response, "trouble analyzing") {
		t.Errorf("response = %q", reply.Response)
	}
	if len(reply.Suggestions) != 3 {
		t.Errorf("suggestions = %v", reply.Suggestions)
	}
}

func TestHistoryCap(t *testing.T) {
	bot := testChatbot()
	for i := 0; i < 20; i++ {
		bot.Process(context.Background(), "sess_4", fmt.Sprintf("question %d", i), "en", nil, "")
	}

	bot.mu.Lock()
	turns := len(bot.history["sess_4"])
	bot.mu.Unlock()

	if turns != maxHistoryTurns {
		t.Errorf("history length = %d, want %d", turns, maxHistoryTurns)
	}
}

func TestClearSession(t *testing.T) {
	bot := testChatbot()
	bot.Process(context.Background(), "sess_5", "hello", "en", nil, "")
	bot.ClearSession("sess_5")

	bot.mu.Lock()
	_, exists := bot.history["sess_5"]
	bot.mu.Unlock()

	if exists {
		t.Error("history should be gone after ClearSession")
	}
}

func TestSmartSuggestionsAlwaysThree(t *testing.T) {
	tests := []string{
		"Use organic neem oil spray for this disease before harvest",
		"plain answer with no trigger words",
	}
	for _, response := range tests {
		got := smartSuggestions("q", response)
		if len(got) != 3 {
			t.Errorf("response %q: %d suggestions, want 3", response, len(got))
		}
	}
}

func TestTopicSuggestions(t *testing.T) {
	got := topicSuggestions("my crop has a disease")
	if got[0] != "Upload photo for disease identification" {
		t.Errorf("suggestions = %v", got)
	}

	got = topicSuggestions("unrelated question")
	if len(got) != 3 {
		t.Errorf("default suggestions = %v", got)
	}
}
