package color

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Preview renders a HueColor back to "#rrggbb" for display. The bridge hue
// wheel spans 0..65535 and is mapped onto 0..360 degrees.
func Preview(c HueColor) string {
	h := float64(c.Hue) * 360 / 65536
	s := clampUnit(float64(c.Saturation) / 255)
	v := clampUnit(float64(c.Brightness) / 255)
	return colorful.Hsv(h, s, v).Clamped().Hex()
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
