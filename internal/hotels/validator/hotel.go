package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"innkeep/pkg/locale"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
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

type HotelValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewHotelValidator(log *logger.Logger) *HotelValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Prices are validated through their decimal string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("money", validateMoney); err != nil {
		log.Fatal("Failed to register 'money' validator",
			"error", err,
		)
	}

	log.Debug("Hotel validator initialized successfully")

	return &HotelValidator{
		validate: v,
		logger:   log,
	}
}

// validateMoney accepts non-negative amounts with at most two decimal places,
// so prices multiply into totals without rounding.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Truncate(2))
}

// Validate checks a full hotel record, used both on create and on the merged
// result of an update.
func (v *HotelValidator) Validate(h *model.Hotel) error {
	if err := v.validate.Struct(h); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(h)
}

func (v *HotelValidator) ValidateUpdate(u *model.HotelUpdate) error {
	if err := v.validate.Struct(u); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *HotelValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
		case "ltefield":
			message = fmt.Sprintf("%s cannot exceed total_rooms", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a valid phone number in E.164 format", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "money":
			message = fmt.Sprintf("%s must be a non-negative amount with at most 2 decimal places", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func (v *HotelValidator) validateBusinessRules(h *model.Hotel) error {
	if h.Phone != "" && !locale.PhoneMatchesCountry(h.Phone, h.Country) {
		v.logger.Debug("Hotel phone region does not match country",
			"phone", h.Phone,
			"country", h.Country,
		)
		return ValidationErrors{
			ValidationError{
				Field:   "phone",
				Message: fmt.Sprintf("phone number does not belong to %s", h.Country),
			},
		}
	}
	return nil
}
