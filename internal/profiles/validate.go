package profiles

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/match-scorer/internal/compatibility"
)

var validate = validator.New()

// Validate checks a profile at the boundary and reports every failing field.
func Validate(p *compatibility.Profile) error {
	if p == nil {
		return errors.New("profile is nil")
	}

	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("profile %s: %s", p.ID, formatFieldError(fe)))
	}
	return errors.Join(errs...)
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
