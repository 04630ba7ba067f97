package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/agrisage-labs/agrisage-go/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatProcessor interface {
	Process(ctx context.Context, sessionID, message, language string, image []byte, imageType string) *models.ChatReply
}

// ChatHandler implements POST /chat: multipart session id, message text,
// language and an optional image, answered with the bot reply and follow-up
// suggestions.
type ChatHandler struct {
	Bot    ChatProcessor
	Logger *zap.Logger
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Image exceeds the 16 MB limit or the request is malformed")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	message := strings.TrimSpace(r.FormValue("message"))
	language := r.FormValue("language")
	if language == "" {
		language = "en"
	}

	var imageData []byte
	var imageType string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		imageData, err = io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read uploaded image")
			return
		}
		imageType = header.Header.Get("Content-Type")
	}

	if message == "" && len(imageData) == 0 {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	h.Logger.Info("Chat message received",
		zap.String("session_id", sessionID),
		zap.Int("message_len", len(message)),
		zap.Bool("has_image", len(imageData) > 0),
		zap.String("language", language))

	reply := h.Bot.Process(r.Context(), sessionID, message, language, imageData, imageType)
	writeJSON(w, http.StatusOK, reply)
}
