// Package validate wraps go-playground/validator with a process-wide instance.
//
// Durations are validated through the standard numeric tags, e.g.
//
//	UpdateInterval time.Duration `validate:"gt=0"`
package validate

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func get() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInst
}

// Struct validates a struct using the shared validator instance.
func Struct(v any) error {
	return get().Struct(v)
}

// Var validates a single variable against the provided tag constraints.
func Var(field any, tag string) error {
	return get().Var(field, tag)
}

// FailedFields returns the names of the fields rejected by err, in order.
// It returns nil when err does not carry field-level failures.
func FailedFields(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields = append(fields, fieldErr.Field())
	}
	return fields
}

// Describe renders field failures as "Field(tag=param)" pairs.
func Describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		part := fieldErr.Field() + "(" + fieldErr.Tag()
		if fieldErr.Param() != "" {
			part += "=" + fieldErr.Param()
		}
		parts = append(parts, part+")")
	}
	return strings.Join(parts, ", ")
}
