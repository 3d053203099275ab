package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID            uuid.UUID  `json:"id"`
	CircleID      uuid.UUID  `json:"circle_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	RequiredSkill *string    `json:"required_skill,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	DueTime       string     `json:"due_time"` // HH:MM
	ReminderSent  bool       `json:"reminder_sent"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Volunteers    []Volunteer `json:"volunteers,omitempty"`
}

type Volunteer struct {
	TaskID   uuid.UUID `json:"task_id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name,omitempty"`
	SignedAt time.Time `json:"signed_at"`
}

type CreateTaskRequest struct {
	CircleID      string `json:"circle_id" validate:"required,uuid"`
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	RequiredSkill string `json:"required_skill"`
	DueDate       string `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime       string `json:"due_time" validate:"required,hhmm"`
}

type UpdateTaskRequest struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	RequiredSkill string `json:"required_skill"`
	DueDate       string `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime       string `json:"due_time" validate:"required,hhmm"`
}
