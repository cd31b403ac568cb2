package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#B0BEC5", color.RGBA{R: 0xb0, G: 0xbe, B: 0xc5, A: 0xff}},
		{"#fff", White},
		{"#0008", color.RGBA{A: 0x88}},
		{"#11223344", color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{"  FF9800 ", color.RGBA{R: 0xff, G: 0x98, B: 0x00, A: 0xff}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "#12", "#12345", "#gggggg"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, s := range []string{"#fafafa", "#33333380"} {
		assert.Equal(t, s, Hex(MustParseHex(s)))
	}
}

func TestMustParseHexPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseHex("nope") })
}
