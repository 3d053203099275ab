package model

// SlotInput is one availability window in a PUT request. Clients historically
// send either a list of these or a single "HH:MM - HH:MM" string per day; both
// are normalized once at the boundary.
type SlotInput struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

type DayAvailabilityInput struct {
	Day   string      `json:"day" validate:"required,weekday"`
	Range string      `json:"range"` // "HH:MM - HH:MM", alternative to Slots
	Slots []SlotInput `json:"slots" validate:"dive"`
}

type PutAvailabilityRequest struct {
	Days []DayAvailabilityInput `json:"days" validate:"required,dive"`
}
