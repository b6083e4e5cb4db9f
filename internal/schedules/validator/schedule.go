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

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		log.Fatal("Failed to register 'clock_time' validator", "error", err)
	}

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateClockTime(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// ExpandDateRange expands an inclusive date range into its daily sequence.
// An empty end date means the single-day range [start]. An inverted range is
// a validation error, not an empty result.
func (v *ScheduleValidator) ExpandDateRange(startDate, endDate string) ([]string, error) {
	start, err := time.Parse(model.DateLayout, startDate)
	if err != nil {
		return nil, ValidationErrors{
			ValidationError{Field: "StartDate", Message: "must be a calendar date in YYYY-MM-DD format"},
		}
	}

	if endDate == "" {
		return []string{startDate}, nil
	}

	end, err := time.Parse(model.DateLayout, endDate)
	if err != nil {
		return nil, ValidationErrors{
			ValidationError{Field: "EndDate", Message: "must be a calendar date in YYYY-MM-DD format"},
		}
	}
	if end.Before(start) {
		return nil, ValidationErrors{
			ValidationError{Field: "EndDate", Message: "must not precede StartDate"},
		}
	}

	var dates []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		dates = append(dates, cur.Format(model.DateLayout))
	}
	return dates, nil
}

// ValidateSubmission checks a provider's schedule submission: struct shape,
// parseable inclusive range, non-empty slot set, and per-slot ordering. Slots
// are caller-curated, so overlap between them is not rejected here.
func (v *ScheduleValidator) ValidateSubmission(submission *model.ScheduleSubmission) error {
	if err := v.validate.Struct(submission); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if _, err := v.ExpandDateRange(submission.StartDate, submission.EndDate); err != nil {
		return err
	}

	var slotErrs ValidationErrors
	for i, slot := range submission.TimeSlots {
		if !slot.Ordered() {
			slotErrs = append(slotErrs, ValidationError{
				Field:   fmt.Sprintf("TimeSlots[%d]", i),
				Message: "slot start must be before slot end",
			})
		}
	}
	if len(slotErrs) > 0 {
		return slotErrs
	}
	return nil
}

// ValidateSchedule checks a single materialized provider-day schedule.
func (v *ScheduleValidator) ValidateSchedule(schedule *model.Schedule) error {
	if err := v.validate.Struct(schedule); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	for i, slot := range schedule.TimeSlots {
		if !slot.Ordered() {
			return ValidationErrors{
				ValidationError{
					Field:   fmt.Sprintf("TimeSlots[%d]", i),
					Message: "slot start must be before slot end",
				},
			}
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
