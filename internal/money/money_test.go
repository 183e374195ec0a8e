package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.50", 1250},
		{" 12.50 ", 1250},
		{"0", 0},
		{"7", 700},
		{"0.005", 1},
		{"19.999", 2000},
	}
	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDecimal("abc")
	assert.Error(t, err)
	_, err = ParseDecimal("")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.50", Format(1250))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "-3.07", Format(-307))
	assert.Equal(t, "35.00", Format(3500))
}
