// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package validation checks request structs with go-playground/validator v10.
//
// One validator is shared by the process. Field names in messages come from
// the "query" tag, then the "json" tag, so clients see the parameter they
// sent. Two venue rules are registered on top of the built-in ones:
// venuetype (a known venue type) and availability ("", available, full).
//
//	type venueQuery struct {
//	    Sports   []string `query:"sport" validate:"omitempty,dive,venuetype"`
//	    MaxPrice *float64 `query:"max_price" validate:"omitempty,gte=0"`
//	}
//
//	if errs := validation.Check(&q); errs != nil {
//	    respondValidation(w, errs.APIError())
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/civitas/internal/models"
)

// CodeValidation is the API error code for rejected input.
const CodeValidation = "VALIDATION_ERROR"

var (
	shared     *validator.Validate
	sharedOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string      `json:"field"`
	Rule    string      `json:"rule"`
	Param   string      `json:"param,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

// Errors holds every failed rule of one struct in field order.
type Errors []FieldError

func (es Errors) Error() string {
	if len(es) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError renders es for the response envelope. A single failure puts its
// field, rule and value in Details; several are listed under Details.fields.
func (es Errors) APIError() *models.APIError {
	apiErr := &models.APIError{Code: CodeValidation, Message: "Validation failed"}
	switch len(es) {
	case 0:
	case 1:
		apiErr.Message = es[0].Message
		apiErr.Details = map[string]interface{}{
			"field": es[0].Field,
			"rule":  es[0].Rule,
			"value": es[0].Value,
		}
	default:
		apiErr.Message = es.Error()
		apiErr.Details = map[string]interface{}{"fields": []FieldError(es)}
	}
	return apiErr
}

// Validator returns the shared instance with the venue rules registered.
func Validator() *validator.Validate {
	sharedOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(paramName)
		// RegisterValidation only fails on an empty tag or nil func.
		_ = v.RegisterValidation("venuetype", func(fl validator.FieldLevel) bool {
			return models.VenueType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("availability", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || s == "available" || s == "full"
		})
		shared = v
	})
	return shared
}

func paramName(fld reflect.StructField) string {
	for _, key := range [...]string{"query", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// Check validates v and returns nil when every rule passes.
func Check(v interface{}) Errors {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Rule: "invalid", Message: err.Error()}}
	}
	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: describe(fe),
		}
	}
	return out
}

// describe turns a failed rule into a sentence naming the field.
func describe(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "venuetype":
		return f + " must be a known venue type"
	case "availability":
		return f + " must be available or full"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, p)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", f, p, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", f, p, unit)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, p)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", f, p)
	case "gt", "gtfield":
		return fmt.Sprintf("%s must be greater than %s", f, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", f, p)
	case "gtefield":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, p)
	default:
		return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
	}
}
