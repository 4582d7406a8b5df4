// internal/app/system/inputval/inputval.go
package inputval

import (
	"regexp"
	"strings"
)

// emailRe accepts the basic local@domain.tld shape. Policy documents carry
// emails as-issued, so anything stricter rejects real data.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// mobileRe is exactly ten ASCII digits.
var mobileRe = regexp.MustCompile(`^[0-9]{10}$`)

// Genders is the closed, case-sensitive set accepted for insured persons.
var Genders = []string{"Male", "Female", "Other"}

// IsValidEmail reports whether s looks like local@domain.tld.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsValidMobile reports whether s is exactly 10 ASCII digits.
func IsValidMobile(s string) bool {
	return mobileRe.MatchString(s)
}

// IsValidGender reports whether s is one of Male, Female, Other.
// The comparison is case-sensitive.
func IsValidGender(s string) bool {
	for _, g := range Genders {
		if s == g {
			return true
		}
	}
	return false
}

// GendersList returns the accepted genders joined for error messages.
func GendersList() string {
	return strings.Join(Genders, ", ")
}
