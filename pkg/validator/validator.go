package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagMood is the struct tag that restricts a field to the fixed mood set.
const TagMood = "mood"

// RegisterMoodValidation installs the "mood" tag on gin's validator engine.
// isMood decides membership so this package stays free of domain imports.
func RegisterMoodValidation(isMood func(string) bool) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}

	return v.RegisterValidation(TagMood, func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		// Optional mood fields are allowed to be empty; "required" covers the rest.
		if value == "" {
			return true
		}
		return isMood(value)
	})
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			message := getFieldErrorMessage(fieldError)
			messages = append(messages, message)
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case TagMood:
		return fmt.Sprintf("%s is not a known mood", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Username": "Username",
		"Email":    "Email",
		"Password": "Password",
		"Mood":     "Mood",
		"Note":     "Note",
		"Title":    "Title",
		"Content":  "Content",
		"Amount":   "Amount",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
