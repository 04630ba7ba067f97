package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
}

// ChatSocketMessage is the envelope exchanged on /ws/chat.
type ChatSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type chatSocketPayload struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// ChatSocketSession is one live chat connection. The server mints the
// session id; history lives in the chatbot and is dropped on close.
type ChatSocketSession struct {
	ID         string
	Connection *websocket.Conn
	Bot        ChatProcessor
	Logger     *zap.Logger
	StartTime  time.Time
}

type SessionCloser interface {
	ClearSession(sessionID string)
}

// HandleChatSocket upgrades the connection and serves chat exchanges until
// the client disconnects or sends a stop message.
func HandleChatSocket(w http.ResponseWriter, r *http.Request, bot ChatProcessor, closer SessionCloser) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("Failed to upgrade to websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	session := &ChatSocketSession{
		ID:         uuid.New().String(),
		Connection: conn,
		Bot:        bot,
		StartTime:  time.Now(),
	}
	session.Logger = zap.L().With(zap.String("session_id", session.ID))
	session.Logger.Info("New chat socket session started")

	session.send("session_started", map[string]string{"session_id": session.ID})

	session.listen()

	if closer != nil {
		closer.ClearSession(session.ID)
	}
	session.Logger.Info("Chat socket session ended", zap.Duration("uptime", time.Since(session.StartTime)))
}

func (s *ChatSocketSession) listen() {
	for {
		var msg ChatSocketMessage
		if err := s.Connection.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.Logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "chat_message":
			s.handleChatMessage(msg.Data)
		case "ping":
			s.send("pong", nil)
		case "stop":
			s.Logger.Info("Received stop command from client")
			s.send("stop_confirmation", map[string]string{"session_id": s.ID})
			return
		default:
			s.Logger.Warn("Unknown message type", zap.String("type", msg.Type))
		}
	}
}

func (s *ChatSocketSession) handleChatMessage(data interface{}) {
	payload, ok := data.(map[string]interface{})
	if !ok {
		s.Logger.Error("Invalid chat message format")
		return
	}

	var req chatSocketPayload
	if v, ok := payload["message"].(string); ok {
		req.Message = v
	}
	if v, ok := payload["language"].(string); ok {
		req.Language = v
	}
	if req.Language == "" {
		req.Language = "en"
	}
	if req.Message == "" {
		s.Logger.Warn("Empty chat message, ignoring")
		return
	}

	reply := s.Bot.Process(context.Background(), s.ID, req.Message, req.Language, nil, "")
	s.send("chat_response", reply)
}

func (s *ChatSocketSession) send(msgType string, data interface{}) {
	msg := ChatSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}

	if err := s.Connection.WriteJSON(msg); err != nil {
		s.Logger.Error("Failed to send websocket message", zap.Error(err), zap.String("type", msgType))
	}
}
