package at

import (
	"fmt"
	"regexp"
	"strings"
)

var ownNumberPattern = regexp.MustCompile(`\+[0-9]+`)

// ParseOwnNumber extracts the subscriber number from an AT+CNUM response.
//
//	AT+CNUM
//	+CNUM: "","+385911234567",145,7,4
//
//	OK
//
// A response without the +CNUM marker, or with fewer than three line
// breaks, yields ErrNoOwnNumber. A response carrying the marker but no
// "+digits" run yields ErrMalformedOwnNumber.
func ParseOwnNumber(raw string) (string, error) {
	if !strings.Contains(raw, RespOwnNumber) || strings.Count(raw, LF) < 3 {
		return "", ErrNoOwnNumber
	}

	number := ownNumberPattern.FindString(strings.ReplaceAll(raw, RespOwnNumber, ""))
	if number == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedOwnNumber, raw)
	}
	return number, nil
}

// ParseUSSD extracts the message text from the response to a USSD request.
//
//	AT+CUSD=1,"*100#",15
//	+CUSD: 0,"Stanje racuna: 12.50 EUR, vrijedi do 05.03.2027.",15
//
//	OK
//
// Empty lines, OK and the echo of the request are discarded. Exactly one
// line must remain; the result is the text strictly between its first and
// last double quote.
func ParseUSSD(raw string) (string, error) {
	var meaningful []string
	for _, line := range Lines(raw) {
		if line == "" || line == OK || strings.HasPrefix(line, USSDRequestEcho) {
			continue
		}
		meaningful = append(meaningful, line)
	}

	if len(meaningful) != 1 {
		return "", fmt.Errorf("%w: %d lines in %q", ErrMalformedUSSD, len(meaningful), raw)
	}

	line := meaningful[0]
	first := strings.Index(line, `"`)
	last := strings.LastIndex(line, `"`)
	if first < 0 || last <= first {
		return "", fmt.Errorf("%w: no quoted text in %q", ErrMalformedUSSD, line)
	}
	return line[first+1 : last], nil
}
