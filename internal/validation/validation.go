// Package validation checks decoded request input against struct schemas
// and reports every violated constraint as a domain.FieldError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/msomdec/gadget-registry/internal/domain"
)

// Validator is safe for concurrent use; validator caches struct metadata.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom rules used by the request schemas.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("uuid", canonicalUUID)
	_ = v.RegisterValidation("gadget_status", func(fl validator.FieldLevel) bool {
		return domain.GadgetStatus(fl.Field().String()).Valid()
	})

	return &Validator{v: v}
}

// Struct validates s. It returns nil, a *domain.Error of kind
// ValidationFailed, or an unexpected error if s is not a struct.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}

	details := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, domain.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return domain.NewValidationError(details)
}

// DecodeMap copies string key/value pairs (path or query parameters) into
// the mapstructure-tagged struct pointed to by dst. Values are weakly typed
// so numeric and boolean fields accept their string forms.
func DecodeMap(values map[string]string, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}

	input := make(map[string]any, len(values))
	for k, val := range values {
		input[k] = val
	}
	if err := dec.Decode(input); err != nil {
		return domain.NewValidationError([]domain.FieldError{{Field: "params", Message: err.Error()}})
	}
	return nil
}

// canonicalUUID accepts the 36-character hyphenated form in either case.
// The built-in rule only matches lowercase hex.
func canonicalUUID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "mapstructure"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "notblank":
		return "must not be blank"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gadget_status":
		names := make([]string, len(domain.GadgetStatuses))
		for i, s := range domain.GadgetStatuses {
			names[i] = string(s)
		}
		return "must be one of: " + strings.Join(names, ", ")
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
