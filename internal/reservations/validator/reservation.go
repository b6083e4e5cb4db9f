package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"reservd/pkg/logger"
	"reservd/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		log.Fatal("Failed to register 'clock_time' validator", "error", err)
	}

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func validateClockTime(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := v.validate.Struct(reservation); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if !reservation.TimeSlot.Ordered() {
		return ValidationErrors{
			ValidationError{
				Field:   "TimeSlot",
				Message: "slot start must be before slot end",
			},
		}
	}

	return nil
}

// CheckLeadTime enforces the minimum interval between now and the slot's
// absolute start in the schedule's time zone. A slot starting exactly at the
// lead-time boundary is allowed; one second short of it is not.
func (v *ReservationValidator) CheckLeadTime(now time.Time, date string, slot model.TimeSlot, loc *time.Location, leadTime time.Duration) error {
	start, err := slot.StartInstant(date, loc)
	if err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "TimeSlot",
				Message: err.Error(),
			},
		}
	}

	if start.Sub(now) < leadTime {
		return ValidationErrors{
			ValidationError{
				Field:   "TimeSlot",
				Message: fmt.Sprintf("reservation must be made at least %s before the slot starts", leadTime),
			},
		}
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must have at least %s entries", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD format", err.Field())
		case "clock_time":
			message = fmt.Sprintf("%s must be a wall-clock time in HH:MM 24-hour format", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA time zone name", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
