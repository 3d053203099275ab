package rest

import (
	"context"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReplaceAvailabilityRepo swaps the member's whole weekly schedule for one
// circle. Slots are stored as JSON; days map weekday name to slot list.
func (api *API) ReplaceAvailabilityRepo(ctx context.Context, circleID, userID uuid.UUID, days map[string][]availability.Slot) error {
	return api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            DELETE FROM availability WHERE circle_id = $1 AND user_id = $2
        `, circleID, userID)
		if err != nil {
			return err
		}

		for day, slots := range days {
			raw, err := marshalSlots(slots)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
                INSERT INTO availability (circle_id, user_id, day, slots)
                VALUES ($1, $2, $3, $4)
            `, circleID, userID, day, raw)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
