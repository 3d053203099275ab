package rest

import (
	"net/http"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/tracing"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) CircleRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Method(http.MethodPost, "/", Handler(api.CreateCircle))
		r.Method(http.MethodGet, "/", Handler(api.ListMyCircles))
		r.Method(http.MethodPost, "/join", Handler(api.JoinCircle))
		r.Method(http.MethodGet, "/{circleID}", Handler(api.GetCircle))
		r.Method(http.MethodPut, "/{circleID}", Handler(api.UpdateCircle))
		r.Method(http.MethodDelete, "/{circleID}", Handler(api.DeleteCircle))
		r.Method(http.MethodPost, "/{circleID}/leave", Handler(api.LeaveCircle))
		r.Method(http.MethodPost, "/{circleID}/invite-code", Handler(api.RegenerateInviteCode))
		r.Method(http.MethodGet, "/{circleID}/members", Handler(api.ListCircleMembers))
		r.Method(http.MethodPut, "/{circleID}/skills", Handler(api.UpdateSkills))
		r.Method(http.MethodPost, "/{circleID}/invitations", Handler(api.InviteByEmail))
		r.Method(http.MethodPut, "/{circleID}/availability", Handler(api.PutAvailability))
		r.Method(http.MethodGet, "/{circleID}/availability", Handler(api.GetAvailability))
	})

	return mux
}

func (api *API) CreateCircle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.CreateCircleRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	circle, status, message, err := api.CreateCircleHelper(r.Context(), userID, req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       circle,
	}
}

func (api *API) ListMyCircles(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circles, err := api.ListCirclesForUserRepo(r.Context(), userID)
	if err != nil {
		return respondWithError(err, "failed to list circles", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Circles retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       circles,
	}
}

func (api *API) GetCircle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	circle, err := api.GetCircleByIDRepo(r.Context(), circleID)
	if err != nil {
		return respondWithError(err, "circle not found", values.NotFound, &tc)
	}

	return &ServerResponse{
		Message:    "Circle retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       circle,
	}
}

func (api *API) DeleteCircle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	role, err := api.GetMemberRoleRepo(r.Context(), circleID, userID)
	if err != nil || role != model.RoleAdmin {
		return respondWithError(err, "only the circle admin can delete a circle", values.NotAllowed, &tc)
	}

	if err := api.SoftDeleteCircleRepo(r.Context(), circleID); err != nil {
		return respondWithError(err, "failed to delete circle", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Circle deleted successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) UpdateCircle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	var req model.UpdateCircleRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	role, err := api.GetMemberRoleRepo(r.Context(), circleID, userID)
	if err != nil || role != model.RoleAdmin {
		return respondWithError(err, "only the circle admin can update a circle", values.NotAllowed, &tc)
	}

	circle, err := api.UpdateCircleRepo(r.Context(), circleID, req.Name)
	if err != nil {
		return respondWithError(err, "failed to update circle", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Circle updated successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       circle,
	}
}

// LeaveCircle removes the caller's own membership row. The admin cannot
// leave; they delete the circle instead.
func (api *API) LeaveCircle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	status, message, err := api.LeaveCircleHelper(r.Context(), circleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

// RegenerateInviteCode replaces the circle's invite code, invalidating the
// old one for future joins.
func (api *API) RegenerateInviteCode(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	circle, status, message, err := api.RegenerateInviteCodeHelper(r.Context(), circleID, userID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       circle,
	}
}

func (api *API) JoinCircle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.JoinCircleRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	circle, status, message, err := api.JoinCircleHelper(r.Context(), userID, req.InviteCode)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       circle,
	}
}

func (api *API) ListCircleMembers(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	members, err := api.ListCircleMembersRepo(r.Context(), circleID)
	if err != nil {
		return respondWithError(err, "failed to list members", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Members retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       members,
	}
}

func (api *API) UpdateSkills(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	var req model.UpdateSkillsRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := api.UpdateSkillsRepo(r.Context(), circleID, userID, req.Skills); err != nil {
		return respondWithError(err, "failed to update skills", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Skills updated successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) InviteByEmail(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	var req model.InviteByEmailRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	status, message, err := api.InviteByEmailHelper(r.Context(), circleID, userID, req.Email)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}
