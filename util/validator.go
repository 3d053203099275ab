package util

import (
	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("hhmm", validateClock)
	validate.RegisterValidation("weekday", validateWeekday)
}

func validateClock(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := availability.ParseWeekday(fl.Field().String())
	return ok
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
