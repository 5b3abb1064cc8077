package transfer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern = regexp.MustCompile(`(?i)(\d+\.\d{2})\s*(?:eur|€)`)
	datePattern   = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
)

// Balance is the prepaid credit reported by the balance USSD query.
type Balance struct {
	// Amount is the first euro amount in the text, as written, e.g. "12.50".
	Amount string
	// Whole is Amount truncated to whole euros.
	Whole int
	// Expires is the first DD.MM.YYYY date in the text, or empty.
	Expires string
}

// ParseBalance extracts the balance from a USSD answer such as
// "Stanje racuna: 12.50 EUR, vrijedi do 05.03.2027.".
func ParseBalance(text string) (Balance, error) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return Balance{}, ErrNoBalance
	}

	units, _, _ := strings.Cut(m[1], ".")
	whole, err := strconv.Atoi(units)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: amount %s: %v", ErrNoBalance, m[1], err)
	}

	return Balance{
		Amount:  m[1],
		Whole:   whole,
		Expires: datePattern.FindString(text),
	}, nil
}
