package validation

import (
	"fmt"
	"time"

	"github.com/appworkspm/painai/internal"
)

type ValidatorFunc func(interface{}) *internal.FieldError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

// Builder collects field checks and reports them all at once, so the caller
// gets one validation error per request instead of the first failure only.
type Builder struct {
	fields []FieldValidator
}

func NewValidator() *Builder {
	return &Builder{fields: make([]FieldValidator, 0)}
}

func (b *Builder) Field(name string, value interface{}) *FieldValidator {
	b.fields = append(b.fields, FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	})
	return &b.fields[len(b.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.FieldError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return fieldErr(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName))
			}
		case time.Time:
			if v.IsZero() {
				return fieldErr(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName))
			}
		case *string:
			if v == nil || *v == "" {
				return fieldErr(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName))
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLen(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.FieldError {
		if v, ok := value.(string); ok && len(v) > max {
			return fieldErr(fv.FieldName, fmt.Sprintf("%s must be at most %d characters", fv.FieldName, max))
		}
		return nil
	})
	return fv
}

// HoursRange enforces the open-closed interval (0, max].
func (fv *FieldValidator) HoursRange(max float64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.FieldError {
		if v, ok := value.(float64); ok {
			if v <= 0 || v > max {
				return fieldErr(fv.FieldName, fmt.Sprintf("%s must be greater than 0 and at most %g", fv.FieldName, max))
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NonNegative() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.FieldError {
		if v, ok := value.(float64); ok && v < 0 {
			return fieldErr(fv.FieldName, fmt.Sprintf("%s must not be negative", fv.FieldName))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) OneOf(allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.FieldError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fieldErr(fv.FieldName, fmt.Sprintf("%s must be one of %v", fv.FieldName, allowed))
	})
	return fv
}

func (fv *FieldValidator) NotFuture() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.FieldError {
		if v, ok := value.(time.Time); ok && !v.IsZero() {
			if v.After(time.Now().AddDate(0, 0, 1)) {
				return fieldErr(fv.FieldName, fmt.Sprintf("%s cannot be in the future", fv.FieldName))
			}
		}
		return nil
	})
	return fv
}

// Build runs all registered checks and returns a single AppError carrying
// every field failure, or nil when everything passes.
func (b *Builder) Build() *internal.AppError {
	var fieldErrors []internal.FieldError
	for _, field := range b.fields {
		for _, validate := range field.Validators {
			if err := validate(field.Value); err != nil {
				fieldErrors = append(fieldErrors, *err)
			}
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}

	fe := internal.FieldErrors{Errors: fieldErrors}
	return internal.NewValidationError(fe.Join(), internal.ErrCodeValidationFailed).
		WithDetails(fe)
}

func fieldErr(field, message string) *internal.FieldError {
	return &internal.FieldError{
		Field:   field,
		Message: message,
		Code:    string(internal.ErrCodeValidationFailed),
	}
}
