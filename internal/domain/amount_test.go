package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
)

func TestAddAmounts(t *testing.T) {
	sum, err := domain.AddAmounts("100000000000000000000", "23")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000023", sum)

	_, err = domain.AddAmounts("1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = domain.AddAmounts("1", "-2")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = domain.AddAmounts("1", "0x10")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSubAmountsRefusesNegative(t *testing.T) {
	diff, err := domain.SubAmounts("100", "40")
	require.NoError(t, err)
	assert.Equal(t, "60", diff)

	diff, err = domain.SubAmounts("40", "40")
	require.NoError(t, err)
	assert.Equal(t, "0", diff)

	_, err = domain.SubAmounts("40", "41")
	assert.ErrorIs(t, err, domain.ErrConsistency)
}

func TestDeriveTier(t *testing.T) {
	wei := "000000000000000000"

	tests := []struct {
		retired string
		tier    int
	}{
		{"0", 0},
		{"9" + wei, 0},
		{"10" + wei, 1},
		{"49" + wei, 1},
		{"50" + wei, 2},
		{"60" + wei, 2},
		{"200" + wei, 3},
		{"499" + wei, 3},
		{"500" + wei, 4},
		{"10000" + wei, 4},
		{"garbage", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.tier, domain.DeriveTier(tc.retired), tc.retired)
	}
}

func TestZoneNames(t *testing.T) {
	assert.True(t, domain.ZoneOcean.Valid())
	assert.Equal(t, "Ocean", domain.ZoneOcean.Name())
	assert.Equal(t, "Wildlife", domain.ZoneWildlife.Name())

	assert.False(t, domain.ZoneID(-1).Valid())
	assert.False(t, domain.ZoneID(6).Valid())
	assert.Equal(t, "", domain.ZoneID(6).Name())
}
