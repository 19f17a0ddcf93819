package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"detailbook/pkg/logger"
	"detailbook/pkg/model"
	"detailbook/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

const minVehicleYear = 1900

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

// Details keys each message by its JSON field name, first error wins.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		if _, exists := details[err.Field]; !exists {
			details[err.Field] = err.Message
		}
	}
	return details
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	bv := &BookingValidator{
		validate: validator.New(),
		logger:   log,
		now:      time.Now,
	}

	bv.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		"hhmm":         validateHHMM,
		"isodate":      validateISODate,
		"vehicle_year": bv.validateVehicleYear,
	}
	for tag, fn := range custom {
		if err := bv.validate.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register booking validator", "tag", tag, "error", err)
		}
	}

	log.Info("Booking validator initialized successfully")
	return bv
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := model.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

func (v *BookingValidator) validateVehicleYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= minVehicleYear && year <= int64(v.now().Year()+2)
}

// ValidateReservation sanitizes the request in place, validates it and
// returns the normalized reservation. All field problems are reported
// together.
func (v *BookingValidator) ValidateReservation(req *model.ReservationRequest) (*model.Reservation, error) {
	sanitizeReservation(req)

	var errs ValidationErrors
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return nil, err
		}
		errs = append(errs, v.translateValidationErrors(validationErrs)...)
	}

	variantID, variantErr := parseVariantID(req.VariantID)
	if len(req.VariantID) > 0 && variantErr != nil {
		errs = append(errs, ValidationError{Field: "variant_id", Message: variantErr.Error()})
	}

	phone := sanitizer.SanitizePhone(req.Phone)
	if req.Phone != "" && phone == "" {
		errs = append(errs, ValidationError{Field: "phone", Message: "phone must be a valid phone number"})
	}

	if len(errs) > 0 {
		v.logger.Debug("Reservation request rejected", "errors", errs.Error())
		return nil, errs
	}

	start, _ := model.ParseTimeOfDay(req.Time)
	return &model.Reservation{
		Email:     req.Email,
		Phone:     phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		VariantID: variantID,
		Vehicle: model.Vehicle{
			Year:  req.VehicleYear,
			Make:  req.VehicleMake,
			Model: req.VehicleModel,
		},
		Date:        req.Date,
		StartMinute: start,
		Notes:       req.Notes,
	}, nil
}

// ValidateStatusChange accepts only statuses staff may set directly.
func (v *BookingValidator) ValidateStatusChange(req *model.StatusChangeRequest) (model.BookingStatus, error) {
	status, ok := model.ParseBookingStatus(strings.TrimSpace(req.Status))
	if !ok {
		return "", ValidationErrors{{Field: "status", Message: "status must be a known booking status"}}
	}
	return status, nil
}

func sanitizeReservation(req *model.ReservationRequest) {
	req.Email = sanitizer.SanitizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.FirstName = sanitizer.SanitizeName(req.FirstName)
	req.LastName = sanitizer.SanitizeName(req.LastName)
	req.VehicleMake = sanitizer.SanitizeName(req.VehicleMake)
	req.VehicleModel = sanitizer.SanitizeName(req.VehicleModel)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Notes = sanitizer.SanitizeNotes(req.Notes)
}

// parseVariantID accepts a JSON integer or a string holding one.
func parseVariantID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errors.New("variant_id must be an integer")
		}
		raw = []byte(strings.TrimSpace(s))
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, errors.New("variant_id must be an integer")
	}
	if id <= 0 {
		return 0, errors.New("variant_id must be positive")
	}
	return id, nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM format", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a valid date in YYYY-MM-DD format", err.Field())
		case "vehicle_year":
			message = fmt.Sprintf("%s must be between %d and %d", err.Field(), minVehicleYear, v.now().Year()+2)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
