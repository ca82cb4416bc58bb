package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Revenue source validation
	validate.RegisterValidation("revenue_source", func(fl validator.FieldLevel) bool {
		source := fl.Field().String()
		validSources := []string{
			"event_ticket", "merchandise", "album_sale", "track_sale",
			"subscription", "donation", "streaming", "exclusive_content",
		}
		for _, s := range validSources {
			if source == s {
				return true
			}
		}
		return false
	})

	// Payment method validation
	validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		method := fl.Field().String()
		validMethods := []string{"card", "wallet", "bank_transfer"}
		for _, m := range validMethods {
			if method == m {
				return true
			}
		}
		return false
	})

	// Ticket target status validation
	validate.RegisterValidation("ticket_target_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		return status == "cancelled" || status == "refunded"
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Invalid identifier format"
		case "revenue_source":
			errors[field] = "Invalid revenue source. Must be one of: event_ticket, merchandise, album_sale, track_sale, subscription, donation, streaming, exclusive_content"
		case "payment_method":
			errors[field] = "Invalid payment method. Must be: card, wallet, or bank_transfer"
		case "ticket_target_status":
			errors[field] = "Invalid target status. Must be: cancelled or refunded"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
