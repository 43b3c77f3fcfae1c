package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizeRange_Thousands(t *testing.T) {
	sr, err := ParseSizeRange("15K-50K")
	require.NoError(t, err)
	assert.Equal(t, 15000.0, sr.Low)
	assert.Equal(t, 50000.0, sr.High)
	assert.Equal(t, 32500.0, sr.Midpoint())
}

func TestParseSizeRange_Millions(t *testing.T) {
	sr, err := ParseSizeRange("1M-5M")
	require.NoError(t, err)
	assert.Equal(t, 1000000.0, sr.Low)
	assert.Equal(t, 5000000.0, sr.High)
}

func TestParseSizeRange_EnDash(t *testing.T) {
	sr, err := ParseSizeRange("15K–50K")
	require.NoError(t, err)
	assert.Equal(t, 15000.0, sr.Low)
	assert.Equal(t, 50000.0, sr.High)
}

func TestParseSizeRange_DollarSignsAndCase(t *testing.T) {
	sr, err := ParseSizeRange("$15k - $50k")
	require.NoError(t, err)
	assert.Equal(t, 15000.0, sr.Low)
	assert.Equal(t, 50000.0, sr.High)
}

func TestParseSizeRange_BareNumbers(t *testing.T) {
	sr, err := ParseSizeRange("1001-15000")
	require.NoError(t, err)
	assert.Equal(t, 1001.0, sr.Low)
	assert.Equal(t, 15000.0, sr.High)
}

func TestParseSizeRange_Invalid(t *testing.T) {
	cases := []string{"abc", "", "15K", "15K-50K-100K", "50K-15K", "-5K-10K"}
	for _, c := range cases {
		_, err := ParseSizeRange(c)
		assert.Error(t, err, "input %q", c)
	}
}
