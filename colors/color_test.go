package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	for _, hex := range []uint32{0x000000, 0x3f3f3f, 0x555555, 0xff0000, 0x00ff00, 0xffffff, 0x123456} {
		assert.Equal(t, hex, FromHex(hex).Hex())
	}
	assert.Equal(t, "#3f3f3f", FromHex(0x3f3f3f).String())
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"#ff0000", 0xff0000},
		{"00ff00", 0x00ff00},
		{"0x3f3f3f", 0x3f3f3f},
		{" #ABCDEF ", 0xabcdef},
	}
	for _, tc := range tests {
		c, err := ParseHex(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, c.Hex(), tc.in)
		assert.Equal(t, 1.0, c.A)
	}

	for _, bad := range []string{"", "#fff", "zzzzzz", "#1234567"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestMix(t *testing.T) {
	assert.Equal(t, Black(), Black().Mix(White(), 0))
	assert.Equal(t, White(), Black().Mix(White(), 1))

	half := Black().Mix(Red(), 0.5)
	assert.InDelta(t, 0.5, half.R, 1e-12)
	assert.InDelta(t, 0.0, half.G, 1e-12)
	assert.InDelta(t, 1.0, half.A, 1e-12)
}

func TestMul(t *testing.T) {
	got := New(0.5, 1, 0.2, 1).Mul(New(0.5, 0.25, 1, 0.5))
	assert.InDelta(t, 0.25, got.R, 1e-12)
	assert.InDelta(t, 0.25, got.G, 1e-12)
	assert.InDelta(t, 0.2, got.B, 1e-12)
	assert.InDelta(t, 0.5, got.A, 1e-12)
}
