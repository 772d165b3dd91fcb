package hue

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dokzlo13/huetoolkit/internal/color"
)

// Allowed values for the enumerated LightState fields.
var (
	AlertValues     = []string{"none", "select", "lselect"}
	EffectValues    = []string{"none", "colorloop"}
	ColorModeValues = []string{"xy", "ct", "hs"}
)

// LightState is a set of light settings kept apart from the Light itself so
// that it can be saved and applied later. Unset fields are left out of the
// payload sent to the bridge.
type LightState struct {
	on             *bool
	brightness     *int
	hue            *int
	saturation     *int
	xy             *[2]float64
	ct             *int
	alert          *string
	effect         *string
	colorMode      *string
	transitionTime *int
}

// stateJSON is the v1 wire shape of a light state.
type stateJSON struct {
	On             *bool       `json:"on,omitempty"`
	Brightness     *int        `json:"bri,omitempty"`
	Hue            *int        `json:"hue,omitempty"`
	Saturation     *int        `json:"sat,omitempty"`
	XY             *[2]float64 `json:"xy,omitempty"`
	CT             *int        `json:"ct,omitempty"`
	Alert          *string     `json:"alert,omitempty"`
	Effect         *string     `json:"effect,omitempty"`
	ColorMode      *string     `json:"colormode,omitempty"`
	TransitionTime *int        `json:"transitiontime,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func get[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// SetOn switches the light on or off.
func (s *LightState) SetOn(on bool) { s.on = ptr(on) }

// On reports the power setting and whether it is set.
func (s *LightState) On() (bool, bool) { return get(s.on) }

// SetBrightness sets the raw bridge brightness.
func (s *LightState) SetBrightness(bri int) { s.brightness = ptr(bri) }

func (s *LightState) Brightness() (int, bool) { return get(s.brightness) }

// SetHue sets the raw bridge hue.
func (s *LightState) SetHue(hue int) { s.hue = ptr(hue) }

func (s *LightState) Hue() (int, bool) { return get(s.hue) }

// SetSaturation sets saturation on the 0-255 scale. Values outside that range
// are ignored and false is returned.
func (s *LightState) SetSaturation(sat int) bool {
	if sat < 0 || sat > 255 {
		return false
	}
	s.saturation = ptr(sat)
	return true
}

// SetSaturationFraction sets saturation from a fraction of 1, scaled by 255.
// Results outside 0-255 are ignored and false is returned.
func (s *LightState) SetSaturationFraction(f float64) bool {
	scaled := f * 255
	if scaled < 0 || scaled > 255 {
		return false
	}
	s.saturation = ptr(int(math.Round(scaled)))
	return true
}

func (s *LightState) Saturation() (int, bool) { return get(s.saturation) }

// SetXY sets the CIE 1931 color coordinates.
func (s *LightState) SetXY(x, y float64) { s.xy = &[2]float64{x, y} }

func (s *LightState) XY() (x, y float64, ok bool) {
	if s.xy == nil {
		return 0, 0, false
	}
	return s.xy[0], s.xy[1], true
}

// SetColorTemperature sets the color temperature in mireds.
func (s *LightState) SetColorTemperature(ct int) { s.ct = ptr(ct) }

func (s *LightState) ColorTemperature() (int, bool) { return get(s.ct) }

// SetAlert sets a temporary alert effect. Only values in AlertValues are
// accepted; anything else leaves the state unchanged and returns false.
func (s *LightState) SetAlert(alert string) bool {
	if !slices.Contains(AlertValues, alert) {
		return false
	}
	s.alert = ptr(alert)
	return true
}

func (s *LightState) Alert() (string, bool) { return get(s.alert) }

// SetEffect sets the dynamic effect. Only values in EffectValues are accepted.
func (s *LightState) SetEffect(effect string) bool {
	if !slices.Contains(EffectValues, effect) {
		return false
	}
	s.effect = ptr(effect)
	return true
}

func (s *LightState) Effect() (string, bool) { return get(s.effect) }

// SetColorMode sets which of xy, ct or hs governs the rendered color.
func (s *LightState) SetColorMode(mode string) bool {
	if !slices.Contains(ColorModeValues, mode) {
		return false
	}
	s.colorMode = ptr(mode)
	return true
}

func (s *LightState) ColorMode() (string, bool) { return get(s.colorMode) }

// SetTransitionTime sets the transition in bridge units of 100ms.
func (s *LightState) SetTransitionTime(units int) { s.transitionTime = ptr(units) }

// SetTransition sets the transition from a duration, truncated to 100ms steps.
func (s *LightState) SetTransition(d time.Duration) {
	s.SetTransitionTime(int(d / (100 * time.Millisecond)))
}

func (s *LightState) TransitionTime() (int, bool) { return get(s.transitionTime) }

// SetHexCode sets hue, saturation and brightness from an RGB hex string. The
// state is untouched when the string does not convert.
func (s *LightState) SetHexCode(hex string) error {
	c, err := color.FromHex(hex)
	if err != nil {
		return err
	}
	s.applyColor(c)
	return nil
}

// SetNamedColor sets hue, saturation and brightness from a web color name.
func (s *LightState) SetNamedColor(name string) error {
	c, err := color.FromName(name)
	if err != nil {
		return err
	}
	s.applyColor(c)
	return nil
}

// SetColor accepts either a color name or a hex string.
func (s *LightState) SetColor(value string) error {
	if _, ok := color.Lookup(value); ok {
		return s.SetNamedColor(value)
	}
	return s.SetHexCode(value)
}

func (s *LightState) applyColor(c color.HueColor) {
	s.hue = ptr(c.Hue)
	s.saturation = ptr(c.Saturation)
	s.brightness = ptr(c.Brightness)
}

// SetXYFromHex sets the CIE xy coordinates of an RGB hex string.
func (s *LightState) SetXYFromHex(hex string) error {
	digits := strings.TrimPrefix(hex, "#")
	if len(digits) != 6 {
		return fmt.Errorf("%w: %q has %d digits, want 6", color.ErrInvalidFormat, hex, len(digits))
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return fmt.Errorf("%w: %v", color.ErrInvalidFormat, err)
	}
	x, y, _ := c.Xyy()
	s.SetXY(x, y)
	return nil
}

// Clone returns a copy that shares no memory with s.
func (s *LightState) Clone() *LightState {
	if s == nil {
		return nil
	}
	return &LightState{
		on:             clonePtr(s.on),
		brightness:     clonePtr(s.brightness),
		hue:            clonePtr(s.hue),
		saturation:     clonePtr(s.saturation),
		xy:             clonePtr(s.xy),
		ct:             clonePtr(s.ct),
		alert:          clonePtr(s.alert),
		effect:         clonePtr(s.effect),
		colorMode:      clonePtr(s.colorMode),
		transitionTime: clonePtr(s.transitionTime),
	}
}

// IsEmpty reports whether no field is set.
func (s *LightState) IsEmpty() bool {
	return s.wire() == stateJSON{}
}

// Payload encodes the set fields as a bridge state update body.
func (s *LightState) Payload() ([]byte, error) {
	return json.Marshal(s.wire())
}

func (s *LightState) wire() stateJSON {
	return stateJSON{
		On:             s.on,
		Brightness:     s.brightness,
		Hue:            s.hue,
		Saturation:     s.saturation,
		XY:             s.xy,
		CT:             s.ct,
		Alert:          s.alert,
		Effect:         s.effect,
		ColorMode:      s.colorMode,
		TransitionTime: s.transitionTime,
	}
}

// MarshalJSON implements json.Marshaler using the bridge field names.
func (s LightState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// UnmarshalJSON implements json.Unmarshaler. Enumerated and ranged fields go
// through their setters, so values the setters reject are dropped.
func (s *LightState) UnmarshalJSON(data []byte) error {
	var w stateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = LightState{
		on:             w.On,
		brightness:     w.Brightness,
		hue:            w.Hue,
		xy:             w.XY,
		ct:             w.CT,
		transitionTime: w.TransitionTime,
	}
	if w.Saturation != nil {
		s.SetSaturation(*w.Saturation)
	}
	if w.Alert != nil {
		s.SetAlert(*w.Alert)
	}
	if w.Effect != nil {
		s.SetEffect(*w.Effect)
	}
	if w.ColorMode != nil {
		s.SetColorMode(*w.ColorMode)
	}
	return nil
}
