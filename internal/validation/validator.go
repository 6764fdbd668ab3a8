// Package validation checks request shapes with struct tags and converts
// failures into common.ValidationError.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

var (
	userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\-._@+]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// error fields are reported by their json names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return userNamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s using its `validate` tags. It returns nil or a
// *common.ValidationError listing every offending field.
func Struct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &common.ValidationError{Fields: []common.FieldError{{Field: "request", Message: "is invalid"}}}
	}

	fields := make([]common.FieldError, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, common.FieldError{Field: e.Field(), Message: message(e)})
	}
	return &common.ValidationError{Fields: fields}
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "username":
		return "may contain only letters, digits and -._@+"
	case "phone":
		return "must be a valid phone number"
	case "gte":
		return "must be " + e.Param() + " or greater"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
