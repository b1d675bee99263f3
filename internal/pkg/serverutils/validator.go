package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"takahub-be/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts failures into a
// single ValidationError listing the offending fields.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		reasons := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			reasons[i] = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		return apperrors.NewValidation("%s", strings.Join(reasons, "; "))
	}
	return apperrors.NewValidation("%s", err.Error())
}
