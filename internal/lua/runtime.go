package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huetoolkit/internal/hue"
	"github.com/dokzlo13/huetoolkit/internal/lua/modules"
	"github.com/dokzlo13/huetoolkit/internal/preset"
)

// ErrRuntimeClosed is returned when the Lua runtime is closed
var ErrRuntimeClosed = errors.New("lua runtime closed")

// Runtime owns a single Lua VM. Scripts run one at a time; the VM is not
// safe for concurrent use.
type Runtime struct {
	L *lua.LState

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewRuntime creates a Lua runtime with the log, color and hue modules
// preloaded.
func NewRuntime(deps RuntimeDeps) *Runtime {
	r := &Runtime{L: lua.NewState()}
	r.registerModules(deps)
	return r
}

// registerModules registers all Lua modules
func (r *Runtime) registerModules(deps RuntimeDeps) {
	r.L.PreloadModule("log", modules.NewLogModule().Loader)
	r.L.PreloadModule("color", modules.NewColorModule().Loader)

	var presets modules.PresetApplier
	if deps.Presets != nil {
		presets = &presetApplier{store: deps.Presets, setter: deps.Lights}
	}
	r.L.PreloadModule("hue", modules.NewHueModule(deps.Lights, presets).Loader)
}

// Close closes the Lua state. Further runs return ErrRuntimeClosed.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.closed = true
		r.L.Close()
	})
}

// DoFile executes the script at path. A zero timeout means no limit.
func (r *Runtime) DoFile(ctx context.Context, path string, timeout time.Duration) error {
	log.Info().Str("path", path).Msg("Running Lua script")
	return r.run(ctx, timeout, func() error { return r.L.DoFile(path) })
}

// DoString executes a chunk of Lua source. A zero timeout means no limit.
func (r *Runtime) DoString(ctx context.Context, source string, timeout time.Duration) error {
	return r.run(ctx, timeout, func() error { return r.L.DoString(source) })
}

// run executes work on the VM with panic recovery
func (r *Runtime) run(ctx context.Context, timeout time.Duration, work func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Lua script panicked")
			err = fmt.Errorf("lua script panicked: %v", rec)
		}
	}()

	// Modules read the context through L.Context(); a cancelled context
	// also stops the VM between instructions.
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	start := time.Now()
	if err := work(); err != nil {
		return fmt.Errorf("lua script failed: %w", err)
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("Lua script finished")
	return nil
}

// presetApplier binds a preset store to the client that pushes its states
type presetApplier struct {
	store  *preset.Store
	setter preset.StateSetter
}

func (p *presetApplier) Apply(ctx context.Context, name string, lightIDs ...string) error {
	if len(lightIDs) == 0 {
		return fmt.Errorf("preset %q: no lights given", name)
	}
	return p.store.Apply(ctx, p.setter, name, lightIDs...)
}

var _ modules.LightAPI = (*hue.Client)(nil)
