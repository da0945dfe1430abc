package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-service/internal/apperr"
)

// messager lets a request type override the message for a field/tag pair,
// keyed as "field.tag".
type messager interface {
	messages() map[string]string
}

// normalizer lets a request type tidy its fields (trim, fold aliases)
// after binding and before validation.
type normalizer interface {
	normalize()
}

// Validator adapts go-playground/validator to echo.Validator. Failures come
// back as apperr Validation errors keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("price", validPrice)
	return &Validator{v: v}
}

// validPrice accepts numbers with at most two decimal places.
func validPrice(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
		return false
	}
	cents := f.Float() * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.Internal, "validation failed", err)
	}

	custom := map[string]string{}
	if m, ok := i.(messager); ok {
		custom = m.messages()
	}
	fields := map[string][]string{}
	for _, fe := range verrs {
		name := fe.Field()
		msg, ok := custom[name+"."+fe.Tag()]
		if !ok {
			msg = defaultMessage(fe)
		}
		fields[name] = append(fields[name], msg)
	}
	return apperr.Invalid(fields)
}

func defaultMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", label, fe.Param())
	case "price":
		return fmt.Sprintf("The %s field must have at most 2 decimal places.", label)
	}
	return fmt.Sprintf("The %s field is invalid.", label)
}

// humanize turns "categoryId" into "category id".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// bindAndValidate decodes the JSON body into dst and validates it. Wrong
// JSON types become field errors; anything else unreadable is BadRequest.
func bindAndValidate(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return apperr.Invalid(map[string][]string{
				ute.Field: {fmt.Sprintf("The %s field must be of type %s.", humanize(ute.Field), jsonTypeName(ute.Type))},
			})
		}
		return apperr.Wrap(apperr.BadRequest, "Malformed request body", err)
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(dst)
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	}
	return t.Kind().String()
}
