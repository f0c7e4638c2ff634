package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"socialapi/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ruleMessages turns the custom tags back into the message of the rule they wrap.
var ruleMessages = map[string]func(string) error{
	"username": ValidateUsername,
	"password": ValidatePassword,
	"phone":    ValidatePhoneNumber,
	"slug":     ValidateSlug,
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		for tag, rule := range ruleMessages {
			rule := rule
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return rule(fl.Field().String()) == nil
			})
		}
		validate = v
	})
	return validate
}

// Struct validates a request DTO using its `validate` tags. Failures come back
// as a VALIDATION_ERROR AppError with one message per JSON field.
func Struct(req any) error {
	err := instance().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewInternalError(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}
	return models.NewFieldValidationError(summarize(fields), fields)
}

func summarize(fields map[string]string) string {
	if len(fields) == 1 {
		for name, msg := range fields {
			return name + " " + msg
		}
	}
	return "Invalid request body"
}

func fieldMessage(fe validator.FieldError) string {
	if rule, ok := ruleMessages[fe.Tag()]; ok {
		if err := rule(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "hexcolor":
		return "must be a hex color such as #1A2B3C"
	case "url":
		return "must be a valid URL"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "eqfield":
		return "does not match"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	}
	return "is invalid"
}
