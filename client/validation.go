package client

import "regexp"

var (
	vnPhonePattern = regexp.MustCompile(`^(\+84|84|0)(3[2-9]|5[689]|7[06-9]|8[1-9]|9[0-9])\d{7}$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidPhone accepts Vietnamese mobile numbers, the format the checkout
// backend enforces.
func ValidPhone(phone string) bool {
	return vnPhonePattern.MatchString(phone)
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
