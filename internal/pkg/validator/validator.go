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
	// Deal stage names accepted by the move endpoint
	validate.RegisterValidation("deal_stage", func(fl validator.FieldLevel) bool {
		stage := fl.Field().String()
		validStages := []string{
			"interest", "contact", "info_exchange", "analysis", "alignment",
			"negotiation", "letter_of_intent", "audits", "financing", "signed",
		}
		for _, s := range validStages {
			if stage == s {
				return true
			}
		}
		return false
	})

	// Account role validation
	validate.RegisterValidation("account_role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []string{"buyer", "seller", "admin"}
		for _, r := range validRoles {
			if role == r {
				return true
			}
		}
		return false
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
			errors[field] = "Invalid UUID format"
		case "deal_stage":
			errors[field] = "Unknown deal stage"
		case "account_role":
			errors[field] = "Invalid role. Must be: buyer, seller, or admin"
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
