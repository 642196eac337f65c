package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Guesses are entered in millions of currency units.
var (
	MinGuessMillions = decimal.Zero
	MaxGuessMillions = decimal.NewFromInt(3000)

	million = decimal.NewFromInt(1_000_000)
)

// Digits before the decimal point, as NumDigits+Exponent. 3000 has four;
// anything under 1e-18 million rounds to zero currency units.
const (
	maxGuessMagnitude = 4
	minGuessMagnitude = -18
)

// ErrInvalidGuess is returned for guesses that are not a number in the allowed range.
var ErrInvalidGuess = errors.New("game: please enter a valid budget between 0 and 3000 million")

// ParseGuess parses a guess in millions and returns it in raw currency units.
func ParseGuess(input string) (float64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidGuess)
	}
	millions, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidGuess, trimmed)
	}
	if millions.IsNegative() {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidGuess, millions.String())
	}
	if millions.IsZero() {
		return 0, nil
	}
	// Judge magnitude before comparing: a comparison rescales both operands to
	// the smaller exponent, which is unbounded for inputs like "1e-999999".
	switch magnitude := int64(millions.NumDigits()) + int64(millions.Exponent()); {
	case magnitude > maxGuessMagnitude:
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidGuess, trimmed)
	case magnitude < minGuessMagnitude:
		return 0, nil
	}
	if millions.LessThan(MinGuessMillions) || millions.GreaterThan(MaxGuessMillions) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidGuess, millions.String())
	}
	return millions.Mul(million).InexactFloat64(), nil
}
