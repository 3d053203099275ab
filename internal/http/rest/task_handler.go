package rest

import (
	"net/http"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/tracing"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) TaskRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Method(http.MethodPost, "/", Handler(api.CreateTask))
		r.Method(http.MethodGet, "/", Handler(api.ListTasks))
		r.Method(http.MethodGet, "/{taskID}", Handler(api.GetTask))
		r.Method(http.MethodPut, "/{taskID}", Handler(api.UpdateTask))
		r.Method(http.MethodDelete, "/{taskID}", Handler(api.DeleteTask))
		r.Method(http.MethodPost, "/{taskID}/volunteer", Handler(api.Volunteer))
		r.Method(http.MethodDelete, "/{taskID}/volunteer", Handler(api.Unvolunteer))
	})

	return mux
}

func (api *API) CreateTask(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.CreateTaskRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	task, status, message, err := api.CreateTaskHelper(r.Context(), userID, req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       task,
	}
}

func (api *API) ListTasks(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	circleID, err := util.StringToUUID(r.URL.Query().Get("circle_id"))
	if err != nil {
		return respondWithError(err, "invalid or missing circle_id", values.BadRequestBody, &tc)
	}

	tasks, err := api.ListTasksRepo(r.Context(), circleID)
	if err != nil {
		return respondWithError(err, "failed to list tasks", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Tasks retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       tasks,
	}
}

func (api *API) GetTask(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	taskID, err := util.StringToUUID(chi.URLParam(r, "taskID"))
	if err != nil {
		return respondWithError(err, "invalid task id", values.BadRequestBody, &tc)
	}

	task, err := api.GetTaskByIDRepo(r.Context(), taskID)
	if err != nil {
		return respondWithError(err, "task not found", values.NotFound, &tc)
	}

	return &ServerResponse{
		Message:    "Task retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       task,
	}
}

func (api *API) UpdateTask(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	taskID, err := util.StringToUUID(chi.URLParam(r, "taskID"))
	if err != nil {
		return respondWithError(err, "invalid task id", values.BadRequestBody, &tc)
	}

	var req model.UpdateTaskRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	task, status, message, err := api.UpdateTaskHelper(r.Context(), taskID, req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       task,
	}
}

func (api *API) DeleteTask(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	taskID, err := util.StringToUUID(chi.URLParam(r, "taskID"))
	if err != nil {
		return respondWithError(err, "invalid task id", values.BadRequestBody, &tc)
	}

	if err := api.DeleteTaskRepo(r.Context(), taskID); err != nil {
		return respondWithError(err, "failed to delete task", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Task deleted successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) Volunteer(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	taskID, err := util.StringToUUID(chi.URLParam(r, "taskID"))
	if err != nil {
		return respondWithError(err, "invalid task id", values.BadRequestBody, &tc)
	}

	if err := api.AddVolunteerRepo(r.Context(), taskID, userID); err != nil {
		return respondWithError(err, "failed to volunteer", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Volunteered successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
	}
}

func (api *API) Unvolunteer(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	taskID, err := util.StringToUUID(chi.URLParam(r, "taskID"))
	if err != nil {
		return respondWithError(err, "invalid task id", values.BadRequestBody, &tc)
	}

	if err := api.RemoveVolunteerRepo(r.Context(), taskID, userID); err != nil {
		return respondWithError(err, "failed to withdraw", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Withdrawn successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}
