package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a shared memory posted into the circle: a note, often with
// a photo attached.
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	CircleID  uuid.UUID `json:"circle_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateJournalEntryRequest struct {
	Content  string `json:"content" validate:"required"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
}
