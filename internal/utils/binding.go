package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorMap converts a gin binding error into a field -> message map
// so clients get per-field detail instead of validator's single string.
func ValidationErrorMap(err error) map[string]string {
	fields := map[string]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["body"] = "invalid request body"
		return fields
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = "this field is required"
		case "min":
			fields[field] = fmt.Sprintf("must be at least %s characters", fe.Param())
		case "max":
			fields[field] = fmt.Sprintf("must be at most %s characters", fe.Param())
		case "email":
			fields[field] = "must be a valid email address"
		case "oneof":
			fields[field] = fmt.Sprintf("must be one of: %s", fe.Param())
		default:
			fields[field] = "invalid value"
		}
	}

	return fields
}
