// Package color converts RGB hex strings and web color names into the
// hue/saturation/brightness triple understood by the Hue bridge.
package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidFormat is returned for hex strings that are not exactly six hex digits.
	ErrInvalidFormat = errors.New("invalid hex color format")
	// ErrUnknownColorName is returned when a name is missing from the color table.
	ErrUnknownColorName = errors.New("unknown color name")
)

// Sector bases on the bridge hue wheel.
const (
	baseRed   = 0
	baseGreen = 25500
	baseBlue  = 46920
)

// HueColor is a color in bridge-native units.
type HueColor struct {
	Hue        int `json:"hue"`
	Saturation int `json:"sat"`
	Brightness int `json:"bri"`
}

func (c HueColor) String() string {
	return fmt.Sprintf("hue=%d sat=%d bri=%d", c.Hue, c.Saturation, c.Brightness)
}

// FromHex converts "#RRGGBB" or "RRGGBB" into a HueColor.
func FromHex(hex string) (HueColor, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return HueColor{}, fmt.Errorf("%w: %q has %d digits, want 6", ErrInvalidFormat, hex, len(s))
	}

	red, err := channel(s[0:2])
	if err != nil {
		return HueColor{}, fmt.Errorf("%w: red channel of %q", ErrInvalidFormat, hex)
	}
	blue, err := channel(s[4:6])
	if err != nil {
		return HueColor{}, fmt.Errorf("%w: blue channel of %q", ErrInvalidFormat, hex)
	}
	green, err := channel(s[2:4])
	if err != nil {
		return HueColor{}, fmt.Errorf("%w: green channel of %q", ErrInvalidFormat, hex)
	}

	return fromRGB(red, green, blue), nil
}

// FromName converts a web color name into a HueColor. Matching ignores case
// and the separators '-', ' ' and '_'.
func FromName(name string) (HueColor, error) {
	hex, ok := Lookup(name)
	if !ok {
		return HueColor{}, fmt.Errorf("%w: %q", ErrUnknownColorName, name)
	}
	return FromHex(hex)
}

// channel parses a two digit hex byte into a fraction of 255.
func channel(pair string) (float64, error) {
	v, err := strconv.ParseUint(pair, 16, 8)
	if err != nil {
		return 0, err
	}
	return float64(v) / 255, nil
}

func fromRGB(red, green, blue float64) HueColor {
	highest := math.Max(red, math.Max(green, blue))
	diff := highest - math.Min(red, math.Min(green, blue))

	brightness := highest

	var saturation, base, delta float64
	if diff != 0 {
		saturation = diff / highest
		switch highest {
		case red:
			base = baseRed
			delta = (green - blue) / (diff * 2)
		case green:
			base = baseGreen
			delta = (blue - red) / (diff * 2)
		case blue:
			base = baseBlue
			delta = (red - green) / (diff * 2)
		}
	}

	if delta < 0 {
		base = baseBlue
		delta = 1 + delta
	}

	// Compared against the raw base, so only 0 selects the first constant
	// and the middle branch never fires for the three sector bases.
	var scaling float64
	switch {
	case base < 2:
		scaling = 25500
	case base < 4:
		scaling = 21420
	default:
		scaling = 18615
	}

	return HueColor{
		Hue:        int(math.Round(base + delta*scaling)),
		Saturation: int(math.Round(saturation * 255)),
		Brightness: int(math.Round(brightness * 255)),
	}
}
