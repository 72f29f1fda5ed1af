package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code classifies why a value was rejected.
type Code string

const (
	CodeNone         Code = ""
	CodeEmpty        Code = "empty_field"
	CodeLength       Code = "length_out_of_range"
	CodeCharset      Code = "invalid_charset"
	CodeFormat       Code = "invalid_format"
	CodeOutOfService Code = "out_of_service_area"
)

// Result is the verdict for a single field. Message is user facing and is
// empty when Valid is true.
type Result struct {
	Valid   bool   `json:"valid"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK is the passing result.
func OK() Result {
	return Result{Valid: true}
}

func fail(code Code, message string) Result {
	return Result{Code: code, Message: message}
}

const (
	NameMaxLength    = 60
	EmailMinLength   = 3
	EmailMaxLength   = 254
	PhoneMinDigits   = 7
	PhoneMaxDigits   = 20
	MessageMaxLength = 1000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Name accepts 1-60 characters made of letters, spaces, hyphens, apostrophes
// and periods.
func Name(name string) Result {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length == 0 {
		return fail(CodeEmpty, "Name is required")
	}
	if length > NameMaxLength {
		return fail(CodeLength, "Name must be between 1 and 60 characters")
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '\'', '.':
			continue
		}
		return fail(CodeCharset, "Name can only contain letters, spaces, hyphens, apostrophes, and periods")
	}
	return OK()
}

// Email accepts local@domain.tld shaped addresses between 3 and 254
// characters.
func Email(email string) Result {
	trimmed := strings.TrimSpace(email)
	length := utf8.RuneCountInString(trimmed)
	if length == 0 {
		return fail(CodeEmpty, "Email is required")
	}
	if length < EmailMinLength || length > EmailMaxLength {
		return fail(CodeLength, "Email must be between 3 and 254 characters")
	}
	if !emailPattern.MatchString(trimmed) || strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		return fail(CodeFormat, "Please enter a valid email address")
	}
	return OK()
}

// Phone is optional: an empty value passes. Otherwise the value must carry
// 7-20 digits and only digits, spaces, hyphens, parentheses and plus signs.
// Callers that need a phone number must check emptiness themselves.
func Phone(phone string) Result {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return OK()
	}

	digits := 0
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < PhoneMinDigits || digits > PhoneMaxDigits {
		return fail(CodeLength, "Phone number must have between 7 and 20 digits")
	}

	for _, r := range trimmed {
		if !IsPhoneRune(r) {
			return fail(CodeCharset, "Phone number can only contain digits, spaces, hyphens, parentheses, and plus sign")
		}
	}
	return OK()
}

// IsPhoneRune reports whether r may appear in a phone number.
func IsPhoneRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '-', r == '(', r == ')', r == '+':
		return true
	case r == ' ', r == '\t', r == '\n', r == '\v', r == '\f', r == '\r':
		return true
	}
	return false
}

// Message accepts any non-blank text up to 1000 characters. Unsafe content is
// handled by sanitization, not here.
func Message(message string) Result {
	trimmed := strings.TrimSpace(message)
	length := utf8.RuneCountInString(trimmed)
	if length == 0 {
		return fail(CodeEmpty, "Message is required")
	}
	if length > MessageMaxLength {
		return fail(CodeLength, "Message must be 1000 characters or less")
	}
	return OK()
}

// Service types offered by the quote wizard.
const (
	ServiceStandard = "Standard"
	ServiceDeep     = "Deep"
	ServiceMove     = "Move-In/Out"
)

// ServiceTypes returns the fixed set of selectable services in display order.
func ServiceTypes() []string {
	return []string{ServiceStandard, ServiceDeep, ServiceMove}
}

// ServiceType requires a non-empty selection from allowed. When allowed is
// empty the default ServiceTypes set applies.
func ServiceType(value string, allowed ...string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fail(CodeEmpty, "Please select a service type")
	}
	if len(allowed) == 0 {
		allowed = ServiceTypes()
	}
	for _, candidate := range allowed {
		if candidate == trimmed {
			return OK()
		}
	}
	return fail(CodeFormat, "Please select a service type")
}

// ZipCode validates against the default service area.
func ZipCode(zip string) Result {
	return DefaultServiceArea().Validate(zip)
}
