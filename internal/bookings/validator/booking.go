package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	roomTypeRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _-]{0,49}$`)
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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("room_type", validateRoomType); err != nil {
		log.Fatal("Failed to register 'room_type' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// validateRoomType accepts a short free-form label. Room types are not inventoried.
func validateRoomType(fl validator.FieldLevel) bool {
	return roomTypeRegex.MatchString(fl.Field().String())
}

// Validate checks the shape of a create request. Date ordering and past
// check-in are domain errors reported by the service, not here.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	return v.check(req)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.check(update); err != nil {
		return err
	}
	if update.CheckIn == nil && update.CheckOut == nil && update.NumGuests == nil &&
		update.RoomType == nil && update.SpecialRequests == nil {
		return ValidationErrors{
			ValidationError{
				Field:   "body",
				Message: "at least one field must be provided",
			},
		}
	}
	return nil
}

func (v *BookingValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "room_type":
			message = fmt.Sprintf("%s must be 1-50 letters, digits, spaces, '-' or '_'", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
