package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for common validations.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// Aliases for common semantics
		v.RegisterAlias("pwd", "min=8")      // password minimum length
		v.RegisterAlias("uname", "min=3")    // username minimum length
		v.RegisterAlias("otp", "len=6,numeric")
		v.RegisterAlias("phone", "e164")
	}
}

// ToDetails converts validation/binding errors into a map[field]message
// suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	// Validation errors from validator.v10
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	// Fallback
	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()
	kind := fe.Kind()

	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "e164", "phone":
		return "must be a valid phone number"
	case "uuid":
		return "must be a valid UUID"
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "len":
		return "must be exactly " + param + " characters"
	case "min", "pwd", "uname":
		if kind == reflect.String {
			return "must be at least " + minParamFor(tag, param) + " characters"
		}
		return "must be at least " + minParamFor(tag, param)
	case "max":
		if kind == reflect.String {
			return "must be at most " + param + " characters"
		}
		return "must be at most " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "datetime":
		return "must be a valid date"
	default:
		return "is invalid"
	}
}

// alias tags do not carry the aliased parameter, so restore it here
func minParamFor(tag, param string) string {
	if param != "" {
		return param
	}
	switch tag {
	case "pwd":
		return "8"
	case "uname":
		return "3"
	}
	return param
}
