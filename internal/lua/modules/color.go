package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huetoolkit/internal/color"
)

// ColorModule exposes the hex and name converters as color.*
//
//	local c, err = color.from_name("tomato")
//	log.info("tomato", {hue = c.hue, sat = c.sat, bri = c.bri})
type ColorModule struct{}

// NewColorModule creates a new color module
func NewColorModule() *ColorModule {
	return &ColorModule{}
}

// Loader is the module loader for Lua
func (m *ColorModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "from_hex", L.NewFunction(m.fromHex))
	L.SetField(mod, "from_name", L.NewFunction(m.fromName))
	L.SetField(mod, "names", L.NewFunction(m.names))
	L.SetField(mod, "preview", L.NewFunction(m.preview))

	L.Push(mod)
	return 1
}

// pushHueColor pushes {hue=, sat=, bri=}
func pushHueColor(L *lua.LState, c color.HueColor) {
	tbl := L.NewTable()
	L.SetField(tbl, "hue", lua.LNumber(c.Hue))
	L.SetField(tbl, "sat", lua.LNumber(c.Saturation))
	L.SetField(tbl, "bri", lua.LNumber(c.Brightness))
	L.Push(tbl)
}

// color.from_hex("#FF0000") -> table | nil, err
func (m *ColorModule) fromHex(L *lua.LState) int {
	c, err := color.FromHex(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	pushHueColor(L, c)
	return 1
}

// color.from_name("dark red") -> table | nil, err
func (m *ColorModule) fromName(L *lua.LState) int {
	c, err := color.FromName(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	pushHueColor(L, c)
	return 1
}

// color.names() -> array of strings
func (m *ColorModule) names(L *lua.LState) int {
	tbl := L.NewTable()
	for _, n := range color.Names() {
		tbl.Append(lua.LString(n))
	}
	L.Push(tbl)
	return 1
}

// color.preview({hue=, sat=, bri=}) -> "#rrggbb"
func (m *ColorModule) preview(L *lua.LState) int {
	tbl := L.CheckTable(1)
	c := color.HueColor{
		Hue:        int(lua.LVAsNumber(tbl.RawGetString("hue"))),
		Saturation: int(lua.LVAsNumber(tbl.RawGetString("sat"))),
		Brightness: int(lua.LVAsNumber(tbl.RawGetString("bri"))),
	}
	L.Push(lua.LString(color.Preview(c)))
	return 1
}
