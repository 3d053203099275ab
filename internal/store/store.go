package store

import (
	"context"
	"errors"
	"time"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/carecircle/carecircle_api/internal/db"
	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store backs the notification resolver, the chat hub and the reminder
// scheduler with the queries they share. Request-scoped CRUD stays in the
// REST repo files; this is the surface the background pieces hold on to.
type Store struct {
	db *db.DB
}

func New(database *db.DB) *Store {
	return &Store{db: database}
}

// GetCircleMembersWithTokens returns every member of the circle with their
// push tokens and skills. Members without a registered token come back with
// an empty token list.
func (s *Store) GetCircleMembersWithTokens(ctx context.Context, circleID uuid.UUID) ([]notify.Member, error) {
	stmt := `
        SELECT cm.user_id,
               COALESCE(cm.name, ''),
               COALESCE(cm.skills, '{}'),
               COALESCE(array_remove(array_agg(pt.token), NULL), '{}')
        FROM circle_members cm
        LEFT JOIN push_tokens pt ON pt.user_id = cm.user_id
        WHERE cm.circle_id = $1
        GROUP BY cm.user_id, cm.name, cm.skills
    `

	rows, err := s.db.Pool().Query(ctx, stmt, circleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []notify.Member
	for rows.Next() {
		var m notify.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Skills, &m.Tokens); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetCircleAdmin returns the circle's admin with their tokens. When no
// member row carries the ADMIN role, the circle's creator stands in, so
// admin-targeted notifications still land even if the creator's membership
// row is gone.
func (s *Store) GetCircleAdmin(ctx context.Context, circleID uuid.UUID) (notify.Member, error) {
	var m notify.Member
	stmt := `
        SELECT cm.user_id,
               COALESCE(cm.name, ''),
               COALESCE(cm.skills, '{}'),
               COALESCE(array_remove(array_agg(pt.token), NULL), '{}')
        FROM circle_members cm
        LEFT JOIN push_tokens pt ON pt.user_id = cm.user_id
        WHERE cm.circle_id = $1 AND cm.role = 'ADMIN'
        GROUP BY cm.user_id, cm.name, cm.skills
        LIMIT 1
    `

	err := s.db.Pool().QueryRow(ctx, stmt, circleID).Scan(&m.ID, &m.Name, &m.Skills, &m.Tokens)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return notify.Member{}, err
	}

	fallback := `
        SELECT u.id,
               COALESCE(TRIM(COALESCE(u.firstname, '') || ' ' || COALESCE(u.lastname, '')), ''),
               COALESCE(array_remove(array_agg(pt.token), NULL), '{}')
        FROM circles c
        JOIN users u ON u.id = c.creator_id
        LEFT JOIN push_tokens pt ON pt.user_id = u.id
        WHERE c.id = $1
        GROUP BY u.id, u.firstname, u.lastname
    `

	err = s.db.Pool().QueryRow(ctx, fallback, circleID).Scan(&m.ID, &m.Name, &m.Tokens)
	if err != nil {
		return notify.Member{}, err
	}
	m.Skills = []string{}
	return m, nil
}

// GetAvailability returns the member's weekly slots for one circle. Rows
// whose slot payload does not parse contribute an empty day rather than an
// error.
func (s *Store) GetAvailability(ctx context.Context, memberID, circleID uuid.UUID) ([]availability.DaySlots, error) {
	stmt := `
        SELECT day, slots
        FROM availability
        WHERE user_id = $1 AND circle_id = $2
    `

	rows, err := s.db.Pool().Query(ctx, stmt, memberID, circleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []availability.DaySlots
	for rows.Next() {
		var (
			dayName string
			raw     []byte
		)
		if err := rows.Scan(&dayName, &raw); err != nil {
			return nil, err
		}
		day, ok := availability.ParseWeekday(dayName)
		if !ok {
			continue
		}
		days = append(days, availability.DaySlots{
			Day:   day,
			Slots: availability.UnmarshalSlots(raw),
		})
	}
	return days, rows.Err()
}

// SaveMessage persists an accepted chat message and returns it with the
// author's display name filled in.
func (s *Store) SaveMessage(ctx context.Context, conversationID, authorID uuid.UUID, content string, flagged bool) (model.ChatMessage, error) {
	var msg model.ChatMessage
	stmt := `
        INSERT INTO messages (conversation_id, author_id, content, flagged)
        VALUES ($1, $2, $3, $4)
        RETURNING id, conversation_id, author_id, content, flagged, sent_at
    `

	var author *uuid.UUID
	err := s.db.Pool().QueryRow(ctx, stmt, conversationID, nullableUUID(authorID), content, flagged).Scan(
		&msg.ID,
		&msg.ConversationID,
		&author,
		&msg.Content,
		&msg.Flagged,
		&msg.SentAt,
	)
	if err != nil {
		return model.ChatMessage{}, err
	}
	if author != nil {
		msg.AuthorID = *author
	}

	if authorID != uuid.Nil {
		name := `
            SELECT TRIM(COALESCE(firstname, '') || ' ' || COALESCE(lastname, ''))
            FROM users WHERE id = $1
        `
		_ = s.db.Pool().QueryRow(ctx, name, authorID).Scan(&msg.AuthorName)
	}
	return msg, nil
}

// GetConversationCircle maps a conversation to its circle.
func (s *Store) GetConversationCircle(ctx context.Context, conversationID uuid.UUID) (uuid.UUID, error) {
	var circleID uuid.UUID
	stmt := `SELECT circle_id FROM conversations WHERE id = $1`

	err := s.db.Pool().QueryRow(ctx, stmt, conversationID).Scan(&circleID)
	if err != nil {
		return uuid.Nil, err
	}
	return circleID, nil
}

// GetDueUnnotifiedTasks returns tasks whose due moment falls in (from, to]
// and whose reminder has not gone out yet. The reminder_sent gate means a
// window that is re-scanned after a failed tick only yields the tasks still
// owed a reminder.
func (s *Store) GetDueUnnotifiedTasks(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	stmt := `
        SELECT id, circle_id, title, description, required_skill, due_date, due_time, reminder_sent, created_by, created_at, updated_at
        FROM tasks
        WHERE due_date + due_time::time > $1::timestamp
          AND due_date + due_time::time <= $2::timestamp
          AND reminder_sent = FALSE
    `

	rows, err := s.db.Pool().Query(ctx, stmt, from.Format("2006-01-02 15:04"), to.Format("2006-01-02 15:04"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID,
			&t.CircleID,
			&t.Title,
			&t.Description,
			&t.RequiredSkill,
			&t.DueDate,
			&t.DueTime,
			&t.ReminderSent,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkTaskNotified flips reminder_sent and reports whether this caller did
// the flipping. A concurrent worker that already marked the task makes this
// return false with no error.
func (s *Store) MarkTaskNotified(ctx context.Context, taskID uuid.UUID) (bool, error) {
	stmt := `
        UPDATE tasks
        SET reminder_sent = TRUE, updated_at = NOW()
        WHERE id = $1 AND reminder_sent = FALSE
    `

	tag, err := s.db.Pool().Exec(ctx, stmt, taskID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// nullableUUID lets anonymous socket authors persist as NULL author_id.
func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
