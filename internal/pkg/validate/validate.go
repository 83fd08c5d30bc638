package validate

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// North-American numbers as Square expects them: +1, then an area code
	// and exchange that both start with 2-9.
	nanpPhoneRegex = regexp.MustCompile(`^\+1[2-9]\d{2}[2-9]\d{6}$`)
	// E.164: + followed by 1-15 digits, no leading zero.
	e164Regex  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Z\s\-'\.]+$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("nanp_phone", func(fl validator.FieldLevel) bool {
		return PhoneNumber(fl.Field().String())
	})
	_ = val.RegisterValidation("cardholder", func(fl validator.FieldLevel) bool {
		return CardholderName(fl.Field().String())
	})
	return val
}

// Struct runs validator/v10 tag validation on a request payload.
func Struct(s interface{}) error {
	return v.Struct(s)
}

// PhoneNumber checks the strict North-American format (+1XXXXXXXXXX).
func PhoneNumber(phone string) bool {
	if phone == "" {
		return false
	}
	return nanpPhoneRegex.MatchString(phone)
}

// E164Phone checks the international E.164 format.
func E164Phone(phone string) bool {
	if phone == "" {
		return false
	}
	return e164Regex.MatchString(phone)
}

func Email(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// CardholderName accepts 2-50 characters of letters, spaces, hyphens,
// apostrophes and periods after trimming.
func CardholderName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 || len(trimmed) > 50 {
		return false
	}
	return nameRegex.MatchString(trimmed)
}

// Sanitize trims surrounding whitespace and strips angle brackets from
// free-text input before it is forwarded anywhere.
func Sanitize(input string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(input))
}
