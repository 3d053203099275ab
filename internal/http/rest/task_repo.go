package rest

import (
	"context"
	"fmt"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/google/uuid"
)

func (api *API) CreateTaskRepo(ctx context.Context, task model.Task) (model.Task, error) {
	var created model.Task
	stmt := `
        INSERT INTO tasks (id, circle_id, title, description, required_skill, due_date, due_time, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, circle_id, title, description, required_skill, due_date, due_time, reminder_sent, created_by, created_at, updated_at
    `

	err := api.Deps.DB.Pool().QueryRow(ctx, stmt,
		uuid.New(), task.CircleID, task.Title, task.Description, task.RequiredSkill,
		task.DueDate, task.DueTime, task.CreatedBy,
	).Scan(
		&created.ID, &created.CircleID, &created.Title, &created.Description, &created.RequiredSkill,
		&created.DueDate, &created.DueTime, &created.ReminderSent, &created.CreatedBy, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}
	return created, nil
}

// UpdateTaskRepo leaves reminder_sent untouched: the flag only ever moves
// false to true, so a task whose reminder already fired is not reminded again
// after a reschedule.
func (api *API) UpdateTaskRepo(ctx context.Context, task model.Task) (model.Task, error) {
	var updated model.Task
	stmt := `
        UPDATE tasks
        SET title = $2, description = $3, required_skill = $4, due_date = $5, due_time = $6,
            updated_at = NOW()
        WHERE id = $1
        RETURNING id, circle_id, title, description, required_skill, due_date, due_time, reminder_sent, created_by, created_at, updated_at
    `

	err := api.Deps.DB.Pool().QueryRow(ctx, stmt,
		task.ID, task.Title, task.Description, task.RequiredSkill, task.DueDate, task.DueTime,
	).Scan(
		&updated.ID, &updated.CircleID, &updated.Title, &updated.Description, &updated.RequiredSkill,
		&updated.DueDate, &updated.DueTime, &updated.ReminderSent, &updated.CreatedBy, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

func (api *API) GetTaskByIDRepo(ctx context.Context, taskID uuid.UUID) (model.Task, error) {
	var task model.Task
	stmt := `
        SELECT id, circle_id, title, description, required_skill, due_date, due_time, reminder_sent, created_by, created_at, updated_at
        FROM tasks
        WHERE id = $1
    `

	err := api.Deps.DB.Pool().QueryRow(ctx, stmt, taskID).Scan(
		&task.ID, &task.CircleID, &task.Title, &task.Description, &task.RequiredSkill,
		&task.DueDate, &task.DueTime, &task.ReminderSent, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	task.Volunteers, err = api.ListVolunteersRepo(ctx, taskID)
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (api *API) ListTasksRepo(ctx context.Context, circleID uuid.UUID) ([]model.Task, error) {
	stmt := `
        SELECT id, circle_id, title, description, required_skill, due_date, due_time, reminder_sent, created_by, created_at, updated_at
        FROM tasks
        WHERE circle_id = $1
        ORDER BY due_date, due_time
    `

	rows, err := api.DB.Query(ctx, stmt, circleID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		err := rows.Scan(
			&t.ID, &t.CircleID, &t.Title, &t.Description, &t.RequiredSkill,
			&t.DueDate, &t.DueTime, &t.ReminderSent, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning tasks: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (api *API) DeleteTaskRepo(ctx context.Context, taskID uuid.UUID) error {
	stmt := `DELETE FROM tasks WHERE id = $1`

	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, taskID)
	return err
}

func (api *API) AddVolunteerRepo(ctx context.Context, taskID, userID uuid.UUID) error {
	stmt := `
        INSERT INTO task_volunteers (task_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (task_id, user_id) DO NOTHING
    `
	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, taskID, userID)
	return err
}

func (api *API) RemoveVolunteerRepo(ctx context.Context, taskID, userID uuid.UUID) error {
	stmt := `DELETE FROM task_volunteers WHERE task_id = $1 AND user_id = $2`

	_, err := api.Deps.DB.Pool().Exec(ctx, stmt, taskID, userID)
	return err
}

func (api *API) ListVolunteersRepo(ctx context.Context, taskID uuid.UUID) ([]model.Volunteer, error) {
	stmt := `
        SELECT tv.task_id, tv.user_id, COALESCE(TRIM(COALESCE(u.firstname, '') || ' ' || COALESCE(u.lastname, '')), ''), tv.signed_at
        FROM task_volunteers tv
        LEFT JOIN users u ON u.id = tv.user_id
        WHERE tv.task_id = $1
        ORDER BY tv.signed_at
    `

	rows, err := api.DB.Query(ctx, stmt, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []model.Volunteer
	for rows.Next() {
		var v model.Volunteer
		if err := rows.Scan(&v.TaskID, &v.UserID, &v.Name, &v.SignedAt); err != nil {
			return nil, fmt.Errorf("scanning volunteers: %w", err)
		}
		volunteers = append(volunteers, v)
	}

	return volunteers, rows.Err()
}
