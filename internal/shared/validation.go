package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// emailPattern mirrors the check the dashboard's sign-in forms used.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// Validator returns the process-wide validator instance with the custom "mail" rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("mail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// FieldError is a single failed field with a message fit for a user.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects field errors and wraps [ErrInvalidInput].
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers test with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds a [ValidationError] for a single field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// ValidateStruct runs struct-tag validation and translates failures into a [ValidationError].
//
// Fields use a `label` tag for messages when present.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "mail", "email":
		return "please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", name, fe.Param())
	case "eqfield":
		return "passwords do not match"
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

// PasswordStrength grades a password the way the signup meter does.
type PasswordStrength int

const (
	StrengthWeak PasswordStrength = iota + 1
	StrengthMedium
	StrengthStrong
	StrengthVeryStrong
)

func (s PasswordStrength) String() string {
	switch s {
	case StrengthWeak:
		return "Weak"
	case StrengthMedium:
		return "Medium"
	case StrengthStrong:
		return "Strong"
	case StrengthVeryStrong:
		return "Very Strong"
	default:
		return ""
	}
}

// Percent is the fill level of the strength meter.
func (s PasswordStrength) Percent() int {
	return int(s) * 25
}

// MeasurePassword scores one point each for length, an uppercase letter, a digit and a non-word character.
//
// Scores of 0 and 1 are both Weak.
func MeasurePassword(password string) PasswordStrength {
	score := 0
	if len(password) >= MinPasswordLength {
		score++
	}

	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !(unicode.IsLetter(r) || r == '_'):
			symbol = true
		}
	}
	for _, ok := range []bool{upper, digit, symbol} {
		if ok {
			score++
		}
	}

	if score <= 1 {
		return StrengthWeak
	}
	return PasswordStrength(score)
}
