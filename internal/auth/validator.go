package auth

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// National ID numbers and similar alphanumeric identifiers, separators removed.
var externalIDRegex = regexp.MustCompile(`^[0-9A-Za-z]{4,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("externalid", func(fl validator.FieldLevel) bool {
		return IsValidExternalID(fl.Field().String())
	})
	return v
}

type loginInput struct {
	ExternalID string `json:"externalId" validate:"required,externalid"`
	Password   string `json:"password" validate:"required,min=6"`
}

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is every rejected field of a request
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	messages := make([]string, len(e))
	for i, fe := range e {
		messages[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(messages, "; ")
}

// ValidateLoginRequest checks the sanitized external ID and the password
func ValidateLoginRequest(req *LoginRequest) error {
	err := validate.Struct(loginInput{
		ExternalID: SanitizeExternalID(req.ExternalID),
		Password:   req.Password,
	})
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}

	fields := make(FieldErrors, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "externalid":
		return "format is invalid"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

// IsValidExternalID checks an already sanitized external identifier
func IsValidExternalID(externalID string) bool {
	return externalIDRegex.MatchString(externalID)
}

// SanitizeExternalID strips whitespace and the dot/dash separators people
// type into ID numbers ("1.032.456-789").
func SanitizeExternalID(externalID string) string {
	r := strings.NewReplacer(".", "", "-", "", " ", "")
	return r.Replace(strings.TrimSpace(externalID))
}
