package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"detailbook/pkg/logger"
	"detailbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type PaymentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPaymentValidator(log *logger.Logger) *PaymentValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &PaymentValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateIntentRequest returns the requested payment type or field errors
// keyed by JSON name.
func (v *PaymentValidator) ValidateIntentRequest(req *model.PaymentIntentRequest) (model.PaymentType, map[string]any) {
	req.Type = strings.TrimSpace(req.Type)

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return "", map[string]any{"error": err.Error()}
		}

		details := make(map[string]any, len(validationErrs))
		for _, fe := range validationErrs {
			switch fe.Tag() {
			case "required":
				details[fe.Field()] = fmt.Sprintf("%s is required", fe.Field())
			case "oneof":
				details[fe.Field()] = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
			default:
				details[fe.Field()] = fe.Error()
			}
		}
		v.logger.Debug("Payment intent request rejected", "details", details)
		return "", details
	}

	paymentType, _ := model.ParsePaymentType(req.Type)
	return paymentType, nil
}
