package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlux_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   Flux
		want string
	}{
		{Flux(0), "0.00 mJy"},
		{Flux(0.5), "500.00 µJy"},
		{Flux(0.999), "999.00 µJy"}, // just below 1 mJy
		{Flux(1), "1.00 mJy"},       // exactly 1 mJy
		{Flux(67.6), "67.60 mJy"},
		{Flux(999.994), "999.99 mJy"}, // just below 1 Jy
		{Flux(1000), "1.00 Jy"},       // exactly 1 Jy
		{Flux(-32.1), "-32.10 mJy"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Humanized())
		})
	}
}

func TestFlux_UnitAccessors(t *testing.T) {
	f := Flux(51)
	assert.InDelta(t, 51.0, f.MilliJansky(), 1e-12)
	assert.InDelta(t, 0.051, f.Jansky(), 1e-12)
	assert.InDelta(t, 5.1e-25, f.CGS(), 1e-37)
}

func TestFrequency_Humanized(t *testing.T) {
	assert.Equal(t, "5.04 GHz", Frequency(5.04).Humanized())
	assert.Equal(t, "150.0 MHz", Frequency(0.15).Humanized())
	assert.Equal(t, "0.00 GHz", Frequency(0).Humanized())
	assert.InDelta(t, 2.25e9, Frequency(2.25).Hz(), 1e-3)
	assert.InDelta(t, 2.25, Frequency(2.25).GHz(), 1e-12)
}
