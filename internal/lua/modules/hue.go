package modules

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huetoolkit/internal/hue"
)

// LightAPI is the part of hue.Client the hue module uses.
type LightAPI interface {
	GetLight(ctx context.Context, id string) (*hue.Light, error)
	GetLights(ctx context.Context, fullyPopulate bool) ([]*hue.Light, error)
	SetLightState(ctx context.Context, id string, state *hue.LightState) error
	SetAllToState(ctx context.Context, state *hue.LightState) error
}

// PresetApplier applies a saved preset to the given lights.
type PresetApplier interface {
	Apply(ctx context.Context, name string, lightIDs ...string) error
}

// HueModule provides hue.* functions to Lua.
//
// ERROR HANDLING CONVENTION:
// Functions that can fail return (result, nil) on success and
// (nil, "error message") on failure.
//
//	local ok, err = hue.set_state("3", {on = true, color = "tomato"})
//	if err then
//	    log.error("Failed: " .. err)
//	end
//
// State tables accept: on, bri, hue, sat, sat_fraction, ct, xy = {x, y},
// alert, effect, colormode, transition (milliseconds), color (name or hex)
// and xy_color (hex converted to CIE xy).
type HueModule struct {
	api     LightAPI
	presets PresetApplier
}

// NewHueModule creates a new hue module. presets may be nil.
func NewHueModule(api LightAPI, presets PresetApplier) *HueModule {
	return &HueModule{api: api, presets: presets}
}

// Loader is the module loader for Lua
func (m *HueModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "light", L.NewFunction(m.light))
	L.SetField(mod, "lights", L.NewFunction(m.lights))
	L.SetField(mod, "set_state", L.NewFunction(m.setState))
	L.SetField(mod, "set_all", L.NewFunction(m.setAll))
	L.SetField(mod, "all_off", L.NewFunction(m.allOff))
	L.SetField(mod, "apply_preset", L.NewFunction(m.applyPreset))

	L.Push(mod)
	return 1
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// hue.light(id) -> table | nil, err
func (m *HueModule) light(L *lua.LState) int {
	light, err := m.api.GetLight(luaContext(L), L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lightTable(L, light))
	return 1
}

// hue.lights([full]) -> array | nil, err
func (m *HueModule) lights(L *lua.LState) int {
	lights, err := m.api.GetLights(luaContext(L), L.OptBool(1, false))
	if err != nil {
		return pushError(L, err)
	}
	tbl := L.NewTable()
	for _, light := range lights {
		tbl.Append(lightTable(L, light))
	}
	L.Push(tbl)
	return 1
}

// hue.set_state(id, state) -> true | nil, err
func (m *HueModule) setState(L *lua.LState) int {
	id := L.CheckString(1)
	state, err := StateFromTable(L.CheckTable(2))
	if err != nil {
		return pushError(L, err)
	}
	if err := m.api.SetLightState(luaContext(L), id, state); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// hue.set_all(state) -> true | nil, err
func (m *HueModule) setAll(L *lua.LState) int {
	state, err := StateFromTable(L.CheckTable(1))
	if err != nil {
		return pushError(L, err)
	}
	if err := m.api.SetAllToState(luaContext(L), state); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// hue.all_off() -> true | nil, err
func (m *HueModule) allOff(L *lua.LState) int {
	state := &hue.LightState{}
	state.SetOn(false)
	if err := m.api.SetAllToState(luaContext(L), state); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// hue.apply_preset(name, id, ...) -> true | nil, err
func (m *HueModule) applyPreset(L *lua.LState) int {
	if m.presets == nil {
		return pushError(L, fmt.Errorf("presets are not available"))
	}
	name := L.CheckString(1)
	var ids []string
	for i := 2; i <= L.GetTop(); i++ {
		ids = append(ids, L.CheckString(i))
	}
	if err := m.presets.Apply(luaContext(L), name, ids...); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// lightTable converts a light into a plain Lua table
func lightTable(L *lua.LState, light *hue.Light) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LString(light.ID))
	L.SetField(tbl, "name", lua.LString(light.Name))
	if light.Type != "" {
		L.SetField(tbl, "type", lua.LString(light.Type))
	}
	if light.ModelID != "" {
		L.SetField(tbl, "model", lua.LString(light.ModelID))
	}

	s := light.State
	if s == nil {
		return tbl
	}
	if on, ok := s.On(); ok {
		L.SetField(tbl, "on", lua.LBool(on))
	}
	for key, get := range map[string]func() (int, bool){
		"bri": s.Brightness,
		"hue": s.Hue,
		"sat": s.Saturation,
		"ct":  s.ColorTemperature,
	} {
		if v, ok := get(); ok {
			L.SetField(tbl, key, lua.LNumber(v))
		}
	}
	for key, get := range map[string]func() (string, bool){
		"alert":     s.Alert,
		"effect":    s.Effect,
		"colormode": s.ColorMode,
	} {
		if v, ok := get(); ok {
			L.SetField(tbl, key, lua.LString(v))
		}
	}
	if x, y, ok := s.XY(); ok {
		xy := L.NewTable()
		xy.Append(lua.LNumber(x))
		xy.Append(lua.LNumber(y))
		L.SetField(tbl, "xy", xy)
	}
	return tbl
}

// StateFromTable builds a LightState from a Lua table. Unlike the Go setters,
// rejected values are reported as errors so scripts notice typos.
func StateFromTable(tbl *lua.LTable) (*hue.LightState, error) {
	s := &hue.LightState{}
	var err error

	tbl.ForEach(func(k, v lua.LValue) {
		if err == nil {
			err = setField(s, lua.LVAsString(k), v)
		}
	})
	if err != nil {
		return nil, err
	}

	// Colors are applied last so an explicit bri in the same table does not
	// depend on iteration order.
	bri, hasBri := s.Brightness()
	if v := tbl.RawGetString("color"); v != lua.LNil {
		color, err := stringField("color", v)
		if err != nil {
			return nil, err
		}
		if err := s.SetColor(color); err != nil {
			return nil, err
		}
		if hasBri {
			s.SetBrightness(bri)
		}
	}
	if v := tbl.RawGetString("xy_color"); v != lua.LNil {
		hex, err := stringField("xy_color", v)
		if err != nil {
			return nil, err
		}
		if err := s.SetXYFromHex(hex); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func setField(s *hue.LightState, key string, v lua.LValue) error {
	switch key {
	case "on":
		on, ok := v.(lua.LBool)
		if !ok {
			return fmt.Errorf("on must be a boolean, got %s", v.Type())
		}
		s.SetOn(bool(on))
	case "bri", "hue", "ct", "sat", "transition":
		n, err := numberField(key, v)
		if err != nil {
			return err
		}
		switch key {
		case "bri":
			s.SetBrightness(int(n))
		case "hue":
			s.SetHue(int(n))
		case "ct":
			s.SetColorTemperature(int(n))
		case "transition":
			s.SetTransition(time.Duration(n) * time.Millisecond)
		case "sat":
			if !s.SetSaturation(int(n)) {
				return fmt.Errorf("sat %v out of range 0-255", n)
			}
		}
	case "sat_fraction":
		n, err := numberField(key, v)
		if err != nil {
			return err
		}
		if !s.SetSaturationFraction(n) {
			return fmt.Errorf("sat_fraction %v out of range 0-1", n)
		}
	case "alert", "effect", "colormode":
		str, err := stringField(key, v)
		if err != nil {
			return err
		}
		switch {
		case key == "alert" && !s.SetAlert(str):
			return fmt.Errorf("alert %q not one of %v", str, hue.AlertValues)
		case key == "effect" && !s.SetEffect(str):
			return fmt.Errorf("effect %q not one of %v", str, hue.EffectValues)
		case key == "colormode" && !s.SetColorMode(str):
			return fmt.Errorf("colormode %q not one of %v", str, hue.ColorModeValues)
		}
	case "xy":
		xy, ok := v.(*lua.LTable)
		if !ok || xy.Len() != 2 {
			return fmt.Errorf("xy must be a table of two numbers")
		}
		x, xok := xy.RawGetInt(1).(lua.LNumber)
		y, yok := xy.RawGetInt(2).(lua.LNumber)
		if !xok || !yok {
			return fmt.Errorf("xy must be a table of two numbers")
		}
		s.SetXY(float64(x), float64(y))
	case "color", "xy_color":
	default:
		return fmt.Errorf("unknown state field %q", key)
	}
	return nil
}

func numberField(key string, v lua.LValue) (float64, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%s must be a number, got %s", key, v.Type())
	}
	return float64(n), nil
}

func stringField(key string, v lua.LValue) (string, error) {
	str, ok := v.(lua.LString)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", key, v.Type())
	}
	return string(str), nil
}
