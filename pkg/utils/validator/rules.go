package validator

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagCallbackURL  = "callbackurl"  // absolute http(s) URL with a host
	TagTier         = "tier"         // free, basic, pro or enterprise
	TagNoWhitespace = "nowhitespace" // No whitespace characters
	TagTrimmed      = "trimmed"      // No leading/trailing spaces
)

var tiers = map[string]struct{}{
	"free": {}, "basic": {}, "pro": {}, "enterprise": {},
}

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagCallbackURL, validateCallbackURL)
	_ = v.validate.RegisterValidation(TagTier, validateTier)
	_ = v.validate.RegisterValidation(TagNoWhitespace, validateNoWhitespace)
	_ = v.validate.RegisterValidation(TagTrimmed, validateTrimmed)
}

func validateCallbackURL(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return IsCallbackURL(value)
}

// IsCallbackURL reports whether s is an absolute http or https URL.
func IsCallbackURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validateTier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := tiers[value]
	return ok
}

func validateNoWhitespace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == strings.TrimSpace(value)
}
