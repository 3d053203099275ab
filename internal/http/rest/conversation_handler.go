package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/tracing"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
)

func (api *API) ConversationRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Method(http.MethodPost, "/", Handler(api.CreateConversation))
		r.Method(http.MethodGet, "/", Handler(api.ListConversations))
		r.Method(http.MethodDelete, "/{conversationID}", Handler(api.DeleteConversation))
		r.Method(http.MethodGet, "/{conversationID}/messages", Handler(api.ListMessages))
		r.Method(http.MethodPost, "/{conversationID}/messages", Handler(api.SendMessage))
	})

	return mux
}

func (api *API) CreateConversation(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.CreateConversationRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	conversation, status, message, err := api.CreateConversationHelper(r.Context(), userID, req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       conversation,
	}
}

func (api *API) ListConversations(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(r.URL.Query().Get("circle_id"))
	if err != nil {
		return respondWithError(err, "invalid or missing circle_id", values.BadRequestBody, &tc)
	}

	conversations, err := api.ListConversationsRepo(r.Context(), circleID, userID)
	if err != nil {
		return respondWithError(err, "failed to list conversations", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Conversations retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       conversations,
	}
}

// DeleteConversation removes a conversation and, through the schema cascade,
// its messages and participant rows. Only a participant may delete.
func (api *API) DeleteConversation(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	conversationID, err := util.StringToUUID(chi.URLParam(r, "conversationID"))
	if err != nil {
		return respondWithError(err, "invalid conversation id", values.BadRequestBody, &tc)
	}

	deleted, err := api.DeleteConversationRepo(r.Context(), conversationID, userID)
	if err != nil {
		return respondWithError(err, "failed to delete conversation", values.Error, &tc)
	}
	if !deleted {
		return respondWithError(nil, "conversation not found", values.NotFound, &tc)
	}

	return &ServerResponse{
		Message:    "Conversation deleted successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

// ListMessages pages backwards through a conversation: limit caps the page
// size and before (RFC 3339) excludes everything sent at or after it, so the
// client walks history by passing the oldest sent_at it has.
func (api *API) ListMessages(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	conversationID, err := util.StringToUUID(chi.URLParam(r, "conversationID"))
	if err != nil {
		return respondWithError(err, "invalid conversation id", values.BadRequestBody, &tc)
	}

	limit := defaultMessagePageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return respondWithError(err, "invalid limit", values.BadRequestBody, &tc)
		}
		if n > maxMessagePageSize {
			n = maxMessagePageSize
		}
		limit = n
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return respondWithError(err, "invalid before timestamp", values.BadRequestBody, &tc)
		}
		before = &at
	}

	messages, err := api.ListMessagesRepo(r.Context(), conversationID, before, limit)
	if err != nil {
		return respondWithError(err, "failed to list messages", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Messages retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       messages,
	}
}

// SendMessage is the HTTP send path. It runs the same pipeline as the socket:
// moderation, persistence, live broadcast, offline push.
func (api *API) SendMessage(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	conversationID, err := util.StringToUUID(chi.URLParam(r, "conversationID"))
	if err != nil {
		return respondWithError(err, "invalid conversation id", values.BadRequestBody, &tc)
	}

	var req model.SendMessageRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}
	if !util.NotBlank(req.Content) {
		return respondWithError(nil, "message content is empty", values.Unprocessable, &tc)
	}

	saved, err := api.Deps.Hub.Publish(r.Context(), conversationID, userID, req.Content)
	if err != nil {
		return respondWithError(err, "failed to send message", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Message sent successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       saved,
	}
}
