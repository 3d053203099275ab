package rest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateCircleRepo creates the circle, a managed user row for the senior, and
// the two founding memberships in one transaction. The senior has no login;
// their row exists so tasks and journal entries can reference them.
func (api *API) CreateCircleRepo(ctx context.Context, circle model.Circle, creatorName, seniorFirstName, seniorLastName string) (model.Circle, error) {
	var created model.Circle

	err := api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		circle.ID = uuid.New()
		circle.SeniorID = uuid.New()
		circle.CreatedAt = time.Now()
		circle.UpdatedAt = time.Now()

		seniorEmail := fmt.Sprintf("senior+%s@managed.carecircle.local", circle.SeniorID)
		_, err := tx.Exec(ctx, `
            INSERT INTO users (id, email, firstname, lastname, auth_provider, is_verified)
            VALUES ($1, $2, $3, $4, 'managed', FALSE)
        `, circle.SeniorID, seniorEmail, seniorFirstName, util.StrPtr(seniorLastName))
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO circles (id, name, senior_id, creator_id, invite_code, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, name, senior_id, creator_id, invite_code, is_deleted, created_at, updated_at
        `, circle.ID, circle.Name, circle.SeniorID, circle.CreatorID, circle.InviteCode, circle.CreatedAt, circle.UpdatedAt).Scan(
			&created.ID, &created.Name, &created.SeniorID, &created.CreatorID,
			&created.InviteCode, &created.IsDeleted, &created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO circle_members (circle_id, user_id, name, role, joined_at, updated_at)
            VALUES ($1, $2, $3, $4, NOW(), NOW())
        `, created.ID, circle.CreatorID, creatorName, model.RoleAdmin)
		if err != nil {
			return err
		}

		seniorName := strings.TrimSpace(seniorFirstName + " " + seniorLastName)
		_, err = tx.Exec(ctx, `
            INSERT INTO circle_members (circle_id, user_id, name, role, joined_at, updated_at)
            VALUES ($1, $2, $3, $4, NOW(), NOW())
        `, created.ID, created.SeniorID, seniorName, model.RoleBeneficiary)
		return err
	})

	if err != nil {
		log.Println("error creating circle", err)
		return model.Circle{}, err
	}

	return created, nil
}

func (api *API) GetCircleByIDRepo(ctx context.Context, circleID uuid.UUID) (model.Circle, error) {
	query := `
        SELECT id, name, senior_id, creator_id, invite_code, is_deleted, created_at, updated_at
        FROM circles
        WHERE id = $1 AND is_deleted = FALSE
    `

	var circle model.Circle
	err := api.Deps.DB.Pool().QueryRow(ctx, query, circleID).Scan(
		&circle.ID, &circle.Name, &circle.SeniorID, &circle.CreatorID,
		&circle.InviteCode, &circle.IsDeleted, &circle.CreatedAt, &circle.UpdatedAt,
	)
	return circle, err
}

func (api *API) GetCircleByInviteCodeRepo(ctx context.Context, inviteCode string) (model.Circle, error) {
	query := `
        SELECT id, name, senior_id, creator_id, invite_code, is_deleted, created_at, updated_at
        FROM circles
        WHERE invite_code = $1 AND is_deleted = FALSE
    `

	var circle model.Circle
	err := api.Deps.DB.Pool().QueryRow(ctx, query, inviteCode).Scan(
		&circle.ID, &circle.Name, &circle.SeniorID, &circle.CreatorID,
		&circle.InviteCode, &circle.IsDeleted, &circle.CreatedAt, &circle.UpdatedAt,
	)
	return circle, err
}

func (api *API) ListCirclesForUserRepo(ctx context.Context, userID uuid.UUID) ([]model.Circle, error) {
	query := `
        SELECT c.id, c.name, c.senior_id, c.creator_id, c.invite_code, c.is_deleted, c.created_at, c.updated_at
        FROM circles c
        JOIN circle_members cm ON cm.circle_id = c.id
        WHERE cm.user_id = $1 AND c.is_deleted = FALSE
        ORDER BY c.created_at
    `

	rows, err := api.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying circles: %w", err)
	}
	defer rows.Close()

	var circles []model.Circle
	for rows.Next() {
		var circle model.Circle
		err := rows.Scan(
			&circle.ID, &circle.Name, &circle.SeniorID, &circle.CreatorID,
			&circle.InviteCode, &circle.IsDeleted, &circle.CreatedAt, &circle.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning circles: %w", err)
		}
		circles = append(circles, circle)
	}

	return circles, rows.Err()
}

func (api *API) AddCircleMemberRepo(ctx context.Context, circleID, userID uuid.UUID, name, role string) error {
	_, err := api.Deps.DB.Pool().Exec(ctx, `
        INSERT INTO circle_members (circle_id, user_id, name, role, joined_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        ON CONFLICT (circle_id, user_id) DO NOTHING
    `, circleID, userID, name, role)
	return err
}

func (api *API) ListCircleMembersRepo(ctx context.Context, circleID uuid.UUID) ([]model.CircleMember, error) {
	query := `
        SELECT circle_id, user_id, name, role, COALESCE(skills, '{}'), joined_at, updated_at
        FROM circle_members
        WHERE circle_id = $1
        ORDER BY joined_at
    `

	rows, err := api.DB.Query(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("querying circle members: %w", err)
	}
	defer rows.Close()

	var members []model.CircleMember
	for rows.Next() {
		var m model.CircleMember
		err := rows.Scan(&m.CircleID, &m.UserID, &m.Name, &m.Role, &m.Skills, &m.JoinedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning circle members: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (api *API) GetMemberRoleRepo(ctx context.Context, circleID, userID uuid.UUID) (string, error) {
	var role string
	query := `SELECT role FROM circle_members WHERE circle_id = $1 AND user_id = $2`

	err := api.Deps.DB.Pool().QueryRow(ctx, query, circleID, userID).Scan(&role)
	if err != nil {
		return "", err
	}
	return role, nil
}

func (api *API) UpdateSkillsRepo(ctx context.Context, circleID, userID uuid.UUID, skills []string) error {
	query := `
        UPDATE circle_members
        SET skills = $3, updated_at = NOW()
        WHERE circle_id = $1 AND user_id = $2
    `
	tag, err := api.Deps.DB.Pool().Exec(ctx, query, circleID, userID, skills)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (api *API) UpdateCircleRepo(ctx context.Context, circleID uuid.UUID, name string) (model.Circle, error) {
	query := `
        UPDATE circles
        SET name = $2, updated_at = NOW()
        WHERE id = $1 AND is_deleted = FALSE
        RETURNING id, name, senior_id, creator_id, invite_code, is_deleted, created_at, updated_at
    `

	var circle model.Circle
	err := api.Deps.DB.Pool().QueryRow(ctx, query, circleID, name).Scan(
		&circle.ID, &circle.Name, &circle.SeniorID, &circle.CreatorID,
		&circle.InviteCode, &circle.IsDeleted, &circle.CreatedAt, &circle.UpdatedAt,
	)
	return circle, err
}

// RemoveCircleMemberRepo deletes a membership row. Returns false when the
// user was not a member.
func (api *API) RemoveCircleMemberRepo(ctx context.Context, circleID, userID uuid.UUID) (bool, error) {
	tag, err := api.Deps.DB.Pool().Exec(ctx, `
        DELETE FROM circle_members
        WHERE circle_id = $1 AND user_id = $2
    `, circleID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (api *API) SetInviteCodeRepo(ctx context.Context, circleID uuid.UUID, inviteCode string) (model.Circle, error) {
	query := `
        UPDATE circles
        SET invite_code = $2, updated_at = NOW()
        WHERE id = $1 AND is_deleted = FALSE
        RETURNING id, name, senior_id, creator_id, invite_code, is_deleted, created_at, updated_at
    `

	var circle model.Circle
	err := api.Deps.DB.Pool().QueryRow(ctx, query, circleID, inviteCode).Scan(
		&circle.ID, &circle.Name, &circle.SeniorID, &circle.CreatorID,
		&circle.InviteCode, &circle.IsDeleted, &circle.CreatedAt, &circle.UpdatedAt,
	)
	return circle, err
}

func (api *API) SoftDeleteCircleRepo(ctx context.Context, circleID uuid.UUID) error {
	query := `
        UPDATE circles
        SET is_deleted = TRUE, updated_at = NOW()
        WHERE id = $1
    `
	_, err := api.Deps.DB.Pool().Exec(ctx, query, circleID)
	return err
}
