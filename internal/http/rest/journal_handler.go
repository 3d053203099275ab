package rest

import (
	"net/http"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/tracing"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/go-chi/chi/v5"
)

const maxPhotoUploadBytes = 10 << 20 // 10 MiB

func (api *API) JournalRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Method(http.MethodPost, "/{circleID}", Handler(api.CreateJournalEntry))
		r.Method(http.MethodGet, "/{circleID}", Handler(api.ListJournalEntries))
		r.Method(http.MethodPost, "/{circleID}/photos", Handler(api.UploadJournalPhoto))
	})

	return mux
}

func (api *API) CreateJournalEntry(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	var req model.CreateJournalEntryRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	entry, err := api.CreateJournalEntryRepo(r.Context(), model.JournalEntry{
		CircleID: circleID,
		AuthorID: userID,
		Content:  req.Content,
		PhotoURL: util.StrPtr(req.PhotoURL),
	})
	if err != nil {
		return respondWithError(err, "failed to create journal entry", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Journal entry created successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       entry,
	}
}

func (api *API) ListJournalEntries(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	entries, err := api.ListJournalEntriesRepo(r.Context(), circleID)
	if err != nil {
		return respondWithError(err, "failed to list journal entries", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Journal entries retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       entries,
	}
}

// UploadJournalPhoto pushes a multipart image to Cloudinary and returns the
// hosted URL; the client then attaches it to an entry.
func (api *API) UploadJournalPhoto(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		return respondWithError(err, "unable to parse upload", values.BadRequestBody, &tc)
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		return respondWithError(err, "missing photo field", values.BadRequestBody, &tc)
	}
	defer file.Close()

	url, err := api.Deps.Cloudinary.UploadImageStream(r.Context(), file, "journal/"+circleID.String())
	if err != nil {
		return respondWithError(err, "failed to upload photo", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Photo uploaded successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       map[string]string{"photo_url": url},
	}
}
