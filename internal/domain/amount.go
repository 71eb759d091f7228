package domain

import (
	"fmt"
	"math/big"
)

// Amounts are carried as non-negative decimal strings and persisted as
// numeric(78,0), wide enough for any uint256 the contracts can emit.
// Arithmetic happens in math/big; machine words would overflow.

// AmountZero is the canonical zero amount.
const AmountZero = "0"

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal integer", ErrInvalidAmount, s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return n, nil
}

// AddAmounts returns a + b.
func AddAmounts(a, b string) (string, error) {
	x, err := parseAmount(a)
	if err != nil {
		return "", err
	}
	y, err := parseAmount(b)
	if err != nil {
		return "", err
	}
	return new(big.Int).Add(x, y).String(), nil
}

// SubAmounts returns a - b. A would-be-negative result is a consistency
// violation, never clamped: it means the feed delivered a spend the indexed
// state cannot cover.
func SubAmounts(a, b string) (string, error) {
	x, err := parseAmount(a)
	if err != nil {
		return "", err
	}
	y, err := parseAmount(b)
	if err != nil {
		return "", err
	}
	if x.Cmp(y) < 0 {
		return "", fmt.Errorf("%w: %s - %s would be negative", ErrConsistency, a, b)
	}
	return new(big.Int).Sub(x, y).String(), nil
}

// CmpAmounts compares a and b, returning -1, 0 or +1.
func CmpAmounts(a, b string) (int, error) {
	x, err := parseAmount(a)
	if err != nil {
		return 0, err
	}
	y, err := parseAmount(b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}
