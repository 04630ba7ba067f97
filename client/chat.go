package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultChatImagePrompt = "What can you tell me about this plant?"

const chatTroubleMessage = "Sorry, I'm having trouble responding right now. Please try again."

// ChatSession is one conversation with the assistant. The session id is
// minted client-side and sent with every message so the server can keep
// per-session history.
type ChatSession struct {
	app *App

	mu           sync.Mutex
	id           string
	open         bool
	transcript   []models.ChatTurn
	suggestions  []string
	pendingImage *SelectedImage
	inflight     int
	seq          uint64
	displayedSeq uint64
}

func newChatSession(app *App) *ChatSession {
	return &ChatSession{
		app: app,
		id:  newSessionID(),
	}
}

func newSessionID() string {
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

// ID returns the session identifier.
func (c *ChatSession) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// TogglePanel opens or closes the chat panel. The transcript survives
// closing; only a new session discards it.
func (c *ChatSession) TogglePanel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = !c.open
	return c.open
}

func (c *ChatSession) PanelOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Transcript returns a copy of the conversation so far.
func (c *ChatSession) Transcript() []models.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatTurn, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Suggestions returns the current follow-up chips.
func (c *ChatSession) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.suggestions))
	copy(out, c.suggestions)
	return out
}

// Typing reports whether any sent message is still awaiting its reply.
func (c *ChatSession) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// AttachImage stages an image to accompany the next message. The same
// validation as the analysis upload applies.
func (c *ChatSession) AttachImage(name, mediaType string, data []byte) error {
	if !allowedImageTypes[mediaType] {
		return ErrUnsupportedImage
	}
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingImage = &SelectedImage{Name: name, Type: mediaType, Data: data}
	return nil
}

// ClearImage discards the staged chat image without sending it.
func (c *ChatSession) ClearImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingImage = nil
}

// PendingImage returns the image staged for the next message, or nil.
func (c *ChatSession) PendingImage() *SelectedImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingImage
}

// Send submits a message. An empty message with no image is a no-op; an
// empty message with an image is sent with a default prompt. The user turn
// appears in the transcript immediately, the staged image is consumed
// whether or not the request succeeds, and a reply that arrives after a
// newer one has already been shown is dropped.
func (c *ChatSession) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	image := c.pendingImage
	c.pendingImage = nil
	if text == "" && image == nil {
		c.mu.Unlock()
		return nil
	}
	if text == "" {
		text = defaultChatImagePrompt
	}

	c.transcript = append(c.transcript, models.ChatTurn{
		Role:      "user",
		Content:   text,
		HasImage:  image != nil,
		Timestamp: time.Now(),
	})
	c.seq++
	seq := c.seq
	c.inflight++
	sessionID := c.id
	c.mu.Unlock()

	language := c.app.Language()

	reply, err := c.postChat(ctx, sessionID, text, language, image)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if seq <= c.displayedSeq {
		c.app.logger.Debug("Dropping stale chat reply", zap.Uint64("seq", seq))
		return err
	}
	c.displayedSeq = seq

	if err != nil {
		c.app.logger.Error("Chat request failed", zap.String("session_id", sessionID), zap.Error(err))
		c.transcript = append(c.transcript, models.ChatTurn{
			Role:      "assistant",
			Content:   chatTroubleMessage,
			Timestamp: time.Now(),
		})
		return err
	}

	c.transcript = append(c.transcript, models.ChatTurn{
		Role:      "assistant",
		Content:   reply.Response,
		Timestamp: time.Now(),
	})
	c.suggestions = reply.Suggestions
	return nil
}

// SendSuggestion sends a suggestion chip as if the user had typed it.
func (c *ChatSession) SendSuggestion(ctx context.Context, suggestion string) error {
	return c.Send(ctx, suggestion)
}

// Reset starts a fresh session: new id, empty transcript, no suggestions.
func (c *ChatSession) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = newSessionID()
	c.transcript = nil
	c.suggestions = nil
	c.pendingImage = nil
	c.seq = 0
	c.displayedSeq = 0
}

func (c *ChatSession) postChat(ctx context.Context, sessionID, text, language string, image *SelectedImage) (*models.ChatReply, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	writer.WriteField("session_id", sessionID)
	writer.WriteField("message", text)
	writer.WriteField("language", language)
	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Name))
		header.Set("Content-Type", image.Type)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.app.baseURL+"/chat", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.app.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach chat service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp, "chat request failed")
	}

	var reply models.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return &reply, nil
}
