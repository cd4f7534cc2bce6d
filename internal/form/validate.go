package form

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"registros/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	_ = v.RegisterValidation("amount", validateAmount)
	return v
}

func validateAmount(fl validator.FieldLevel) bool {
	a, err := core.ParseAmount(fl.Field().String())
	return err == nil && a.IsPositive()
}

// FieldError describes one failing field.
type FieldError struct {
	Field   string // struct field name
	Label   string
	Message string
}

// ValidationError lists every field that failed, so the user sees all of
// them at once.
type ValidationError struct {
	Category core.Category
	Fields   []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Label + " " + f.Message
	}
	return "Revise el formulario: " + strings.Join(parts, "; ") + "."
}

// Has reports whether the named struct field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// check validates a variant and converts validator output into a single
// ValidationError.
func check(v Variant) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate %s form: %w", v.Category(), err)
	}
	out := &ValidationError{Category: v.Category()}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.StructField(),
			Label:   fe.Field(),
			Message: message(fe.Tag()),
		})
	}
	return out
}

func message(tag string) string {
	switch tag {
	case "required":
		return "es obligatorio"
	case "amount":
		return "debe ser un número mayor que 0"
	case "datetime":
		return "debe tener el formato AAAA-MM-DD"
	case "oneof":
		return "no es válido para esta categoría"
	case "max":
		return "es demasiado largo"
	}
	return "no es válido"
}
