package rest

import (
	"encoding/json"
	"net/http"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/tracing"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/go-chi/chi/v5"
)

// PutAvailability replaces the caller's weekly availability in one circle.
// Each day accepts either a slot list or a legacy "HH:MM - HH:MM" range
// string; both are normalized to slots before they hit storage.
func (api *API) PutAvailability(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	var req model.PutAvailabilityRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid request body", values.Unprocessable, &tc)
	}

	days := make(map[string][]availability.Slot, len(req.Days))
	for _, day := range req.Days {
		slots := make([]availability.Slot, 0, len(day.Slots)+1)
		if day.Range != "" {
			slot, ok := availability.ParseRange(day.Range)
			if !ok {
				return respondWithError(nil, "invalid range for "+day.Day, values.Unprocessable, &tc)
			}
			slots = append(slots, slot)
		}
		for _, s := range day.Slots {
			slots = append(slots, availability.Slot{Start: s.Start, End: s.End})
		}
		days[day.Day] = slots
	}

	if err := api.ReplaceAvailabilityRepo(r.Context(), circleID, userID, days); err != nil {
		return respondWithError(err, "failed to save availability", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Availability saved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) GetAvailability(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	circleID, err := util.StringToUUID(chi.URLParam(r, "circleID"))
	if err != nil {
		return respondWithError(err, "invalid circle id", values.BadRequestBody, &tc)
	}

	days, err := api.Deps.Store.GetAvailability(r.Context(), userID, circleID)
	if err != nil {
		return respondWithError(err, "failed to get availability", values.Error, &tc)
	}

	out := make([]map[string]interface{}, 0, len(days))
	for _, d := range days {
		out = append(out, map[string]interface{}{
			"day":   d.Day.String(),
			"slots": d.Slots,
		})
	}

	return &ServerResponse{
		Message:    "Availability retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       out,
	}
}

func marshalSlots(slots []availability.Slot) ([]byte, error) {
	return json.Marshal(slots)
}
