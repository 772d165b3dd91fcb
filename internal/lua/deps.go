package lua

import (
	"github.com/dokzlo13/huetoolkit/internal/lua/modules"
	"github.com/dokzlo13/huetoolkit/internal/preset"
)

// RuntimeDeps groups all dependencies needed by the Lua runtime.
type RuntimeDeps struct {
	Lights  modules.LightAPI
	Presets *preset.Store // optional
}
