package whatsapp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "CO"

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone parses a user-entered phone number and returns it in E.164.
// A leading "whatsapp:" prefix is accepted and dropped.
func NormalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:"))
	if phone == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhone)
	}
	if region == "" {
		region = DefaultRegion
	}
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidPhone, phone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("%w %q", ErrInvalidPhone, phone)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
