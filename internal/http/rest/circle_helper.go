package rest

import (
	"context"
	"log"
	"strings"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func (api *API) CreateCircleHelper(ctx context.Context, creatorID uuid.UUID, req model.CreateCircleRequest) (model.Circle, string, string, error) {
	creator, err := api.GetUserByID(ctx, creatorID.String())
	if err != nil {
		return model.Circle{}, values.Error, "Failed to load creator", err
	}

	maxAttempts := 3
	for i := 0; i < maxAttempts; i++ {
		circle := model.Circle{
			Name:       req.Name,
			CreatorID:  creatorID,
			InviteCode: util.GenerateShortCode(6),
		}

		created, err := api.CreateCircleRepo(ctx, circle, displayName(creator), req.SeniorFirstName, req.SeniorLastName)
		if err == nil {
			return created, values.Created, "Circle created successfully", nil
		}
		// Unique violation on the invite code means a collision, retry with
		// a fresh one (Postgres error code "23505").
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" && pgErr.ConstraintName == "circles_invite_code_key" {
			continue
		}
		return model.Circle{}, values.Error, "Failed to create circle", err
	}
	return model.Circle{}, values.Error, "Could not generate unique invite code", nil
}

func (api *API) JoinCircleHelper(ctx context.Context, userID uuid.UUID, inviteCode string) (model.Circle, string, string, error) {
	circle, err := api.GetCircleByInviteCodeRepo(ctx, strings.ToUpper(strings.TrimSpace(inviteCode)))
	if err != nil {
		return model.Circle{}, values.NotFound, "Invalid invite code", err
	}

	user, err := api.GetUserByID(ctx, userID.String())
	if err != nil {
		return model.Circle{}, values.Error, "Failed to load user", err
	}

	// Joining twice is a no-op, not an error.
	err = api.AddCircleMemberRepo(ctx, circle.ID, userID, displayName(user), model.RoleHelper)
	if err != nil {
		return model.Circle{}, values.Error, "Failed to join circle", err
	}

	return circle, values.Success, "Joined circle successfully", nil
}

func (api *API) LeaveCircleHelper(ctx context.Context, circleID, userID uuid.UUID) (string, string, error) {
	role, err := api.GetMemberRoleRepo(ctx, circleID, userID)
	if err != nil {
		return values.NotFound, "You are not a member of this circle", err
	}
	if role == model.RoleAdmin {
		return values.NotAllowed, "The circle admin cannot leave; delete the circle instead", nil
	}

	removed, err := api.RemoveCircleMemberRepo(ctx, circleID, userID)
	if err != nil {
		return values.Error, "Failed to leave circle", err
	}
	if !removed {
		return values.NotFound, "You are not a member of this circle", nil
	}

	return values.Success, "Left circle successfully", nil
}

func (api *API) RegenerateInviteCodeHelper(ctx context.Context, circleID, userID uuid.UUID) (model.Circle, string, string, error) {
	role, err := api.GetMemberRoleRepo(ctx, circleID, userID)
	if err != nil || role != model.RoleAdmin {
		return model.Circle{}, values.NotAllowed, "Only the circle admin can regenerate the invite code", err
	}

	maxAttempts := 3
	for i := 0; i < maxAttempts; i++ {
		circle, err := api.SetInviteCodeRepo(ctx, circleID, util.GenerateShortCode(6))
		if err == nil {
			return circle, values.Success, "Invite code regenerated successfully", nil
		}
		// Same collision handling as circle creation.
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" && pgErr.ConstraintName == "circles_invite_code_key" {
			continue
		}
		return model.Circle{}, values.Error, "Failed to regenerate invite code", err
	}
	return model.Circle{}, values.Error, "Could not generate unique invite code", nil
}

func (api *API) InviteByEmailHelper(ctx context.Context, circleID, inviterID uuid.UUID, email string) (string, string, error) {
	circle, err := api.GetCircleByIDRepo(ctx, circleID)
	if err != nil {
		return values.NotFound, "Circle not found", err
	}

	role, err := api.GetMemberRoleRepo(ctx, circleID, inviterID)
	if err != nil || role != model.RoleAdmin {
		return values.NotAllowed, "Only the circle admin can send invitations", err
	}

	inviter, err := api.GetUserByID(ctx, inviterID.String())
	if err != nil {
		return values.Error, "Failed to load inviter", err
	}

	go func() {
		emailData := map[string]interface{}{
			"CircleName":  circle.Name,
			"InviterName": displayName(inviter),
			"InviteCode":  circle.InviteCode,
		}
		if err := api.Mailer.Send(email, emailData, "circleInvite.tmpl"); err != nil {
			log.Println(values.Error, "Failed to send invite email", err)
		}
	}()

	return values.Success, "Invitation sent", nil
}

func displayName(user model.User) string {
	var parts []string
	if user.FirstName != nil && *user.FirstName != "" {
		parts = append(parts, *user.FirstName)
	}
	if user.LastName != nil && *user.LastName != "" {
		parts = append(parts, *user.LastName)
	}
	if len(parts) == 0 {
		return user.Email
	}
	return strings.Join(parts, " ")
}
