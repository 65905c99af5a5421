package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPrice is the largest price that fits five digits with two decimals.
const MaxPrice Price = 99999

// ErrInvalidPrice is returned by ParsePrice for malformed or out of range input.
var ErrInvalidPrice = errors.New("price must be a decimal with at most 3 integer digits and 2 decimal places")

// Price is a non-negative amount stored in cents so that decimal values
// survive persistence without floating point drift.
type Price int64

// ParsePrice parses a decimal string such as "5", "5.5" or "5.50".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPrice
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || len(whole) > 3 || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, ErrInvalidPrice
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, ErrInvalidPrice
	}

	for len(frac) < 2 {
		frac += "0"
	}

	cents, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil || Price(cents) > MaxPrice {
		return 0, ErrInvalidPrice
	}
	return Price(cents), nil
}

// String renders the price with exactly two decimals.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// Cents returns the raw value.
func (p Price) Cents() int64 {
	return int64(p)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
