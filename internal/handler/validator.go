package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		return allowedMethods[strings.ToUpper(fl.Field().String())]
	})
	return v
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError converts validator errors into user-friendly field errors.
func ValidationError(err error) []FieldError {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Message: err.Error()}}
	}

	details := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, FieldError{
			Field:   e.Field(),
			Message: fieldMessage(e.Field(), e.Tag(), e.Param()),
		})
	}
	return details
}

// validateVar checks a single value and labels any failure with field.
func validateVar(field string, value interface{}, tag string) []FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: field, Message: err.Error()}}
	}
	details := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, FieldError{Field: field, Message: fieldMessage(field, e.Tag(), e.Param())})
	}
	return details
}

func fieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("Field '%s' is required", field)
	case "url":
		return fmt.Sprintf("Field '%s' must be a valid URL", field)
	case "httpmethod":
		return fmt.Sprintf("Field '%s' must be one of GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS", field)
	case "min", "gte":
		return fmt.Sprintf("Field '%s' must be greater than or equal to %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("Field '%s' must be less than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", field, tag)
	}
}
