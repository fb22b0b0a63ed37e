// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package validation wraps go-playground/validator v10 behind one shared
// instance and translates its field errors into the API's VALIDATION_ERROR
// envelope.
//
// Request structs declare constraints with struct tags and hand themselves
// to ValidateStruct:
//
//	type backfillRequest struct {
//	    Days int `validate:"required,min=1"`
//	}
//
//	if ve := validation.ValidateStruct(&req); ve != nil {
//	    rw.ValidationFailed(ve)
//	    return
//	}
//
// The configuration loader runs through the same instance, so config and
// request validation share tag semantics (datetime layouts, IANA timezone
// checks, oneof sets).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared process-wide. The instance caches struct metadata, so
// reusing one is both the thread-safety and the performance story.
// WithRequiredStructEnabled opts into the v11 semantics for required on
// nested structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is one failed constraint on one struct field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// Error returns the translated human-readable message.
func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError carries every failed constraint from one
// ValidateStruct call.
type RequestValidationError struct {
	fields []FieldError
}

// Errors returns the individual field errors.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.fields
}

// Error joins all field messages, implementing the error interface.
func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.fields))
	for i, fe := range ve.fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors the api package's error envelope. Declared here rather
// than imported to keep validation free of an api dependency.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError renders the failure set as a VALIDATION_ERROR. A single
// failure keeps its message and exposes the field inline; multiple
// failures are joined and listed under a fields detail.
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.fields) {
	case 0:
		return &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}

	case 1:
		fe := ve.fields[0]
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: fe.Message,
			Details: map[string]interface{}{
				"field": fe.Field,
				"tag":   fe.Tag,
				"value": fe.Value,
			},
		}

	default:
		list := make([]map[string]interface{}, len(ve.fields))
		msgs := make([]string, len(ve.fields))
		for i, fe := range ve.fields {
			list[i] = map[string]interface{}{
				"field":   fe.Field,
				"tag":     fe.Tag,
				"message": fe.Message,
			}
			msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
		}
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: strings.Join(msgs, "; "),
			Details: map[string]interface{}{"fields": list},
		}
	}
}

// ValidateStruct checks s against its validate tags. It returns nil when
// everything passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ferrs validator.ValidationErrors
	if !errors.As(err, &ferrs) {
		// validator.Struct only returns other error types for non-struct
		// input, which is a programming error surfaced as-is.
		return &RequestValidationError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(ferrs))
	for i, fe := range ferrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: messageFor(fe),
		}
	}
	return &RequestValidationError{fields: fields}
}

// messageFor renders one field error in the API's message style.
func messageFor(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "datetime":
		return field + " must be a valid date in YYYY-MM-DD format"
	case "timezone":
		return field + " must be a valid IANA timezone name"
	case "url":
		return field + " must be a valid URL"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
