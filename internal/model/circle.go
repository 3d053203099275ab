package model

import (
	"time"

	"github.com/google/uuid"
)

// Circle roles. The beneficiary is the senior the circle is built around;
// helpers carry out tasks; the admin is the member who created the circle.
const (
	RoleAdmin       = "ADMIN"
	RoleHelper      = "HELPER"
	RoleBeneficiary = "BENEFICIARY"
)

type Circle struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SeniorID   uuid.UUID `json:"senior_id"`
	CreatorID  uuid.UUID `json:"creator_id"`
	InviteCode string    `json:"invite_code"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CircleMember struct {
	CircleID  uuid.UUID `json:"circle_id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Skills    []string  `json:"skills"`
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCircleRequest struct {
	Name            string `json:"name" validate:"required"`
	SeniorFirstName string `json:"senior_firstname" validate:"required"`
	SeniorLastName  string `json:"senior_lastname"`
}

type UpdateCircleRequest struct {
	Name string `json:"name" validate:"required"`
}

type JoinCircleRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type UpdateSkillsRequest struct {
	Skills []string `json:"skills" validate:"required"`
}

type InviteByEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}
