package domain

import "math/big"

// Guardian tiers are a step function of cumulative retirement volume.
// Thresholds are denominated in token base units (18 decimals).
var tierThresholds = func() []*big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	out := make([]*big.Int, 0, 4)
	for _, n := range []int64{10, 50, 200, 500} {
		out = append(out, new(big.Int).Mul(big.NewInt(n), wei))
	}
	return out
}()

// DeriveTier maps a cumulative retired amount onto a tier: thresholds
// {10, 50, 200, 500} x 10^18 yield tiers 1..4, anything below the first
// threshold is tier 0. Invalid amounts derive tier 0.
func DeriveTier(totalRetired string) int {
	n, err := parseAmount(totalRetired)
	if err != nil {
		return 0
	}
	tier := 0
	for i, threshold := range tierThresholds {
		if n.Cmp(threshold) >= 0 {
			tier = i + 1
		}
	}
	return tier
}
