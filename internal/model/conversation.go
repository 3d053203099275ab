package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConversationPrivate = "PRIVATE"
	ConversationGroup   = "GROUP"
)

type Conversation struct {
	ID        uuid.UUID   `json:"id"`
	CircleID  uuid.UUID   `json:"circle_id"`
	Type      string      `json:"type"`
	Name      *string     `json:"name,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Members   []uuid.UUID `json:"members,omitempty"`
}

// ChatMessage content is stored post-moderation; the original text of a
// flagged message is never persisted.
type ChatMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	AuthorID       uuid.UUID `json:"author_id"`
	AuthorName     string    `json:"author_name,omitempty"`
	Content        string    `json:"content"`
	Flagged        bool      `json:"flagged"`
	SentAt         time.Time `json:"sent_at"`
}

type CreateConversationRequest struct {
	CircleID string   `json:"circle_id" validate:"required,uuid"`
	Type     string   `json:"type" validate:"required,oneof=PRIVATE GROUP"`
	Name     string   `json:"name"`
	Members  []string `json:"members" validate:"required,min=1,dive,uuid"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}
