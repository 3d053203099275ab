package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/google/uuid"
)

func (api *API) CreateTaskHelper(ctx context.Context, creatorID uuid.UUID, req model.CreateTaskRequest) (model.Task, string, string, error) {
	circleID, err := uuid.Parse(req.CircleID)
	if err != nil {
		return model.Task{}, values.BadRequestBody, "Invalid circle id", err
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return model.Task{}, values.Unprocessable, "Invalid due date", err
	}

	task := model.Task{
		CircleID:      circleID,
		Title:         req.Title,
		Description:   util.StrPtr(req.Description),
		RequiredSkill: util.StrPtr(req.RequiredSkill),
		DueDate:       dueDate,
		DueTime:       req.DueTime,
		CreatedBy:     creatorID,
	}

	created, err := api.CreateTaskRepo(ctx, task)
	if err != nil {
		return model.Task{}, values.Error, "Failed to create task", err
	}

	// New tasks notify the helpers who could take them: matching skill,
	// available at the due time, creator excluded.
	go api.notifyTaskCreated(created)

	return created, values.Created, "Task created successfully", nil
}

func (api *API) notifyTaskCreated(task model.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	skill := ""
	if task.RequiredSkill != nil {
		skill = *task.RequiredSkill
	}

	var dueAt *time.Time
	if clock, err := time.Parse("15:04", task.DueTime); err == nil {
		d := task.DueDate
		at := time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
		dueAt = &at
	}

	members, err := api.Deps.Resolver.Resolve(ctx, task.CircleID, task.CreatedBy, skill, dueAt)
	if err != nil {
		api.Deps.Logger.WithError(err).WithField("task_id", task.ID).Warn("task notification: recipient resolution failed")
		return
	}

	api.Deps.Dispatcher.Dispatch(ctx, notify.Tokens(members),
		"New task: "+task.Title,
		fmt.Sprintf("%s needs a helper on %s at %s.", task.Title, task.DueDate.Format("2006-01-02"), task.DueTime),
		map[string]string{
			"type":      "task_created",
			"task_id":   task.ID.String(),
			"circle_id": task.CircleID.String(),
		})
}

func (api *API) UpdateTaskHelper(ctx context.Context, taskID uuid.UUID, req model.UpdateTaskRequest) (model.Task, string, string, error) {
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return model.Task{}, values.Unprocessable, "Invalid due date", err
	}

	task := model.Task{
		ID:            taskID,
		Title:         req.Title,
		Description:   util.StrPtr(req.Description),
		RequiredSkill: util.StrPtr(req.RequiredSkill),
		DueDate:       dueDate,
		DueTime:       req.DueTime,
	}

	updated, err := api.UpdateTaskRepo(ctx, task)
	if err != nil {
		return model.Task{}, values.Error, "Failed to update task", err
	}

	return updated, values.Success, "Task updated successfully", nil
}
