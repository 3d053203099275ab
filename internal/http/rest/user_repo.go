package rest

import (
	"context"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/google/uuid"
)

func (api *API) GetUserProfileByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	stmt := `SELECT id, email, firstname, lastname, auth_provider, is_verified, preferred_language, created_at, updated_at FROM users WHERE id = $1`

	err := api.Deps.DB.Pool().QueryRow(ctx, stmt, id).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.AuthProvider,
		&user.IsVerified,
		&user.PreferredLanguage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (api *API) UpdateUserRepo(ctx context.Context, user model.User) error {
	stmt := `
        UPDATE users
        SET firstname = $2, lastname = $3, updated_at = NOW()
        WHERE id = $1
    `
	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, user.ID, user.FirstName, user.LastName)
	if err != nil {
		return err
	}
	return nil
}

func (api *API) UpdateLanguageRepo(ctx context.Context, userID, language string) error {
	stmt := `
        UPDATE users
        SET preferred_language = $2, updated_at = NOW()
        WHERE id = $1
    `
	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, userID, language)
	if err != nil {
		return err
	}
	return nil
}

// UpsertPushTokenRepo makes token registration idempotent; re-registering the
// same device token just refreshes its owner and platform.
func (api *API) UpsertPushTokenRepo(ctx context.Context, userID uuid.UUID, token, platform string) error {
	stmt := `
        INSERT INTO push_tokens (user_id, token, platform)
        VALUES ($1, $2, $3)
        ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform
    `
	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, userID, token, util.StrPtr(platform))
	if err != nil {
		return err
	}
	return nil
}

func (api *API) DeletePushTokenRepo(ctx context.Context, userID uuid.UUID, token string) error {
	stmt := `DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`

	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, userID, token)
	if err != nil {
		return err
	}
	return nil
}

// DeleteUserRepo soft-deletes so message history keeps its author rows.
func (api *API) DeleteUserRepo(ctx context.Context, userID string) error {
	stmt := `UPDATE users SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`

	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, userID)
	if err != nil {
		return err
	}

	// A deleted account must stop receiving pushes immediately.
	stmt = `DELETE FROM push_tokens WHERE user_id = $1`
	_, err = api.Deps.DB.Pool().Exec(ctx, stmt, userID)
	return err
}
