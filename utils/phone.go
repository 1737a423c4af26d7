package utils

import (
	"regexp"
	"strings"
)

// e164Pattern matches phone numbers the gateway hands us: optional plus,
// no leading zero, up to fifteen digits.
var e164Pattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// IsValidPhone reports whether the input looks like a dialable phone number.
func IsValidPhone(phone string) bool {
	return e164Pattern.MatchString(strings.TrimSpace(phone))
}

// NormalizePhone trims the input and ensures a leading plus sign.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	if p == "" {
		return p
	}
	if !strings.HasPrefix(p, "+") {
		p = "+" + p
	}
	return p
}

// PhoneVariants returns the lowercase text forms under which a phone number
// may appear inside free-text calendar entries: the raw number, the locally
// dialed form (country prefix swapped for "0"), and the number with its
// leading character stripped.
func PhoneVariants(phone, countryPrefix string) []string {
	p := strings.ToLower(strings.TrimSpace(phone))
	if p == "" {
		return nil
	}
	variants := []string{p}
	if countryPrefix != "" && strings.HasPrefix(p, strings.ToLower(countryPrefix)) {
		variants = append(variants, "0"+p[len(countryPrefix):])
	}
	if len(p) > 1 {
		variants = append(variants, p[1:])
	}
	return variants
}

// TextMentionsPhone reports whether the free-form text references the phone
// number in any of its tolerated variants.
func TextMentionsPhone(text, phone, countryPrefix string) bool {
	if strings.TrimSpace(phone) == "" {
		return false
	}
	haystack := strings.ToLower(text)
	for _, v := range PhoneVariants(phone, countryPrefix) {
		if strings.Contains(haystack, v) {
			return true
		}
	}
	return false
}
