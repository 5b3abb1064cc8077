// Package phone normalizes phone numbers and checks them against the
// allow-list file.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion interprets numbers written without a country code.
const DefaultRegion = "HR"

// ErrInvalidNumber is returned when a number cannot be parsed.
var ErrInvalidNumber = errors.New("invalid phone number")

func parse(number, region string) (*phonenumbers.PhoneNumber, error) {
	if region == "" {
		region = DefaultRegion
	}
	n, err := phonenumbers.Parse(strings.TrimSpace(number), strings.ToUpper(region))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidNumber, number, err)
	}
	return n, nil
}

// International returns number in E.164 form, e.g. +385911234567.
func International(number, region string) (string, error) {
	n, err := parse(number, region)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(n, phonenumbers.E164), nil
}

// National returns number in national form without spaces, e.g. 0911234567.
func National(number, region string) (string, error) {
	n, err := parse(number, region)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(phonenumbers.Format(n, phonenumbers.NATIONAL), " ", ""), nil
}
