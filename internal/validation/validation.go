// Package validation validates request DTOs at the HTTP boundary, so the
// state machine's preconditions are enforced before any service call.
package validation

import (
	"fmt"

	apperrors "qrpay/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a DTO by its validate tags and returns a domain
// ValidationError naming the first offending field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.Validation(fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
	}
	return apperrors.Validation(err.Error())
}
