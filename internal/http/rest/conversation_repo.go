package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (api *API) CreateConversationRepo(ctx context.Context, conversation model.Conversation) (model.Conversation, error) {
	var created model.Conversation

	err := api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		conversation.ID = uuid.New()
		conversation.CreatedAt = time.Now()

		err := tx.QueryRow(ctx, `
            INSERT INTO conversations (id, circle_id, type, name, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, circle_id, type, name, created_at
        `, conversation.ID, conversation.CircleID, conversation.Type, conversation.Name, conversation.CreatedAt).Scan(
			&created.ID, &created.CircleID, &created.Type, &created.Name, &created.CreatedAt,
		)
		if err != nil {
			return err
		}

		for _, member := range conversation.Members {
			_, err = tx.Exec(ctx, `
                INSERT INTO conversation_participants (conversation_id, user_id)
                VALUES ($1, $2)
                ON CONFLICT (conversation_id, user_id) DO NOTHING
            `, created.ID, member)
			if err != nil {
				return err
			}
		}

		created.Members = conversation.Members
		return nil
	})

	if err != nil {
		return model.Conversation{}, err
	}
	return created, nil
}

// FindPrivateConversationRepo matches the pair in either order.
func (api *API) FindPrivateConversationRepo(ctx context.Context, circleID, a, b uuid.UUID) (model.Conversation, error) {
	query := `
        SELECT c.id, c.circle_id, c.type, c.name, c.created_at
        FROM conversations c
        WHERE c.circle_id = $1 AND c.type = 'PRIVATE'
          AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
          AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $3)
        LIMIT 1
    `

	var conversation model.Conversation
	err := api.Deps.DB.Pool().QueryRow(ctx, query, circleID, a, b).Scan(
		&conversation.ID, &conversation.CircleID, &conversation.Type, &conversation.Name, &conversation.CreatedAt,
	)
	if err != nil {
		return model.Conversation{}, err
	}
	conversation.Members = []uuid.UUID{a, b}
	return conversation, nil
}

func (api *API) ListConversationsRepo(ctx context.Context, circleID, userID uuid.UUID) ([]model.Conversation, error) {
	query := `
        SELECT c.id, c.circle_id, c.type, c.name, c.created_at
        FROM conversations c
        JOIN conversation_participants cp ON cp.conversation_id = c.id
        WHERE c.circle_id = $1 AND cp.user_id = $2
        ORDER BY c.created_at
    `

	rows, err := api.DB.Query(ctx, query, circleID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var c model.Conversation
		err := rows.Scan(&c.ID, &c.CircleID, &c.Type, &c.Name, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning conversations: %w", err)
		}
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}

// DeleteConversationRepo removes a conversation the caller participates in;
// participants and messages go with it through the schema cascade. Returns
// false when no such conversation exists for this caller.
func (api *API) DeleteConversationRepo(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	stmt := `
        DELETE FROM conversations c
        WHERE c.id = $1
          AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
    `

	tag, err := api.Deps.DB.Pool().Exec(ctx, stmt, conversationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListMessagesRepo returns the newest page of messages, optionally only those
// sent strictly before the cursor.
func (api *API) ListMessagesRepo(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]model.ChatMessage, error) {
	query := `
        SELECT m.id, m.conversation_id, COALESCE(m.author_id, '00000000-0000-0000-0000-000000000000'),
               COALESCE(TRIM(COALESCE(u.firstname, '') || ' ' || COALESCE(u.lastname, '')), ''),
               m.content, m.flagged, m.sent_at
        FROM messages m
        LEFT JOIN users u ON u.id = m.author_id
        WHERE m.conversation_id = $1
          AND ($2::timestamptz IS NULL OR m.sent_at < $2)
        ORDER BY m.sent_at DESC
        LIMIT $3
    `

	rows, err := api.DB.Query(ctx, query, conversationID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		err := rows.Scan(&m.ID, &m.ConversationID, &m.AuthorID, &m.AuthorName, &m.Content, &m.Flagged, &m.SentAt)
		if err != nil {
			return nil, fmt.Errorf("scanning messages: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
