package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
	httpURL      = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Validator provides input validation functions
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator. Error messages use json field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s against its `validate` tags and returns the first
// failure as a readable message.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Errorf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Errorf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// ValidateURL accepts only absolute http(s) URLs
func (v *Validator) ValidateURL(url string) bool {
	return httpURL.MatchString(url)
}

// ValidateID validates a UUID path parameter
func (v *Validator) ValidateID(id string) bool {
	return uuidPattern.MatchString(id)
}

// SanitizeInput sanitizes user input
func (v *Validator) SanitizeInput(input string) string {
	// Remove null bytes and control characters
	input = controlChars.ReplaceAllString(input, "")

	// Trim whitespace
	return strings.TrimSpace(input)
}

// SanitizeList sanitizes each entry and drops the empty ones.
func (v *Validator) SanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = v.SanitizeInput(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp
// and returns it in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t.UTC(), nil
}
