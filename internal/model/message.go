package model

import "time"

// Message senders in a simulated conversation.
const (
	SenderUser     = "user"
	SenderMechanic = "mechanic"
)

// Message is one chat bubble.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a chat between a driver and a (simulated) mechanic.
type Conversation struct {
	ID           string    `json:"id"`
	UserID       uint64    `json:"user_id"`
	MechanicName string    `json:"mechanic_name"`
	MechanicID   *uint64   `json:"mechanic_id,omitempty"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
}
