package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		decimals int
		want     string
	}{
		{"0", SUIDecimals, "0.000000000"},
		{"1", SUIDecimals, "0.000000001"},
		{"24981836", SUIDecimals, "0.024981836"},
		{"1500000000", SUIDecimals, "1.500000000"},
		{"123", 0, "123"},
		{" 42 ", 2, "0.42"},
	}
	for _, tt := range tests {
		got, err := FormatUnits(tt.raw, tt.decimals)
		require.NoError(t, err, tt.raw)
		require.Equal(t, tt.want, got, tt.raw)
	}

	_, err := FormatUnits("-1", SUIDecimals)
	require.Error(t, err)
	_, err = FormatUnits("1.5", SUIDecimals)
	require.Error(t, err)
}
