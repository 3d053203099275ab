package rest

import (
	"context"
	"fmt"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/google/uuid"
)

func (api *API) CreateJournalEntryRepo(ctx context.Context, entry model.JournalEntry) (model.JournalEntry, error) {
	var created model.JournalEntry
	stmt := `
        INSERT INTO journal_entries (id, circle_id, author_id, content, photo_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, circle_id, author_id, content, photo_url, created_at
    `

	err := api.Deps.DB.Pool().QueryRow(ctx, stmt,
		uuid.New(), entry.CircleID, entry.AuthorID, entry.Content, entry.PhotoURL,
	).Scan(
		&created.ID, &created.CircleID, &created.AuthorID, &created.Content, &created.PhotoURL, &created.CreatedAt,
	)
	if err != nil {
		return model.JournalEntry{}, err
	}
	return created, nil
}

func (api *API) ListJournalEntriesRepo(ctx context.Context, circleID uuid.UUID) ([]model.JournalEntry, error) {
	stmt := `
        SELECT id, circle_id, author_id, content, photo_url, created_at
        FROM journal_entries
        WHERE circle_id = $1
        ORDER BY created_at DESC
    `

	rows, err := api.DB.Query(ctx, stmt, circleID)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		err := rows.Scan(&e.ID, &e.CircleID, &e.AuthorID, &e.Content, &e.PhotoURL, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning journal entries: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
