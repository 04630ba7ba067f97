package models

import "time"

// ChatReply is the conversational endpoint's response payload.
type ChatReply struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ChatTurn is one message of a server-side conversation history.
type ChatTurn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	HasImage  bool      `json:"has_image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
