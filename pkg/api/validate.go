package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// models.Amount is an int64 count of minor units.
	must(v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() > 0
	}))
	must(v.RegisterValidation("nonnegative_amount", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= 0
	}))
	must(v.RegisterValidation("max_amount", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(models.MaxAmount)
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// FieldError names the first request field that failed validation.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "positive_amount":
		return fmt.Sprintf("%s must be positive", e.Field)
	case "nonnegative_amount":
		return fmt.Sprintf("%s must not be negative", e.Field)
	case "max_amount":
		return fmt.Sprintf("%s must not exceed %s", e.Field, models.MaxAmount)
	default:
		return fmt.Sprintf("%s failed %q", e.Field, e.Rule)
	}
}

// Validate checks msg against its validate tags. Messages that are not structs
// pass unchecked.
func Validate(msg any) error {
	v := reflect.ValueOf(msg)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(msg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		return &FieldError{Field: field, Rule: fe.Tag()}
	}
	return err
}
