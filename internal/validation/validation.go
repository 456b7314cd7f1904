// internal/validation/validation.go
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct возвращает ошибки по полям формы или nil, если форма валидна.
func ValidateStruct(data interface{}) url.Values {
	err := validate.Struct(data)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) url.Values {
	errorsMap := url.Values{}
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrs {
			errorsMap.Add(fieldErr.Field(), getErrorMessage(fieldErr))
		}
	} else {
		errorsMap.Add("general", "Validation error: "+err.Error())
	}
	return errorsMap
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", err.Param())
	default:
		return fmt.Sprintf("Invalid value for %s.", err.Field())
	}
}
