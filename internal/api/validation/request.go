// Package validation holds the shared request validator and its custom
// rules.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"jobscout/pkg/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	RegisterRequestValidators(v)
	return v
}

// RegisterRequestValidators registers the company and careers URL rules
func RegisterRequestValidators(v *validator.Validate) {
	_ = v.RegisterValidation("company_name", ValidateCompanyName)
	_ = v.RegisterValidation("careers_url", ValidateCareersURL)
}

// ValidateCompanyName rejects names whose storage key would be empty
func ValidateCompanyName(fl validator.FieldLevel) bool {
	return utils.SafeCompanyKey(strings.TrimSpace(fl.Field().String())) != ""
}

// ValidateCareersURL accepts absolute http and https URLs only
func ValidateCareersURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Struct validates a request and turns failures into a 400 CustomError that
// names each offending field
func Struct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return utils.NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return utils.NewValidationError(strings.Join(msgs, "; ")).Wrap(err)
}
