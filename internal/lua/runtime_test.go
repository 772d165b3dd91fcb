package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/huetoolkit/internal/hue"
	"github.com/dokzlo13/huetoolkit/internal/kv"
	"github.com/dokzlo13/huetoolkit/internal/preset"
)

type recordingLights struct {
	set map[string]*hue.LightState
}

func (r *recordingLights) GetLight(_ context.Context, id string) (*hue.Light, error) {
	return &hue.Light{ID: id, Name: "Light " + id}, nil
}

func (r *recordingLights) GetLights(_ context.Context, _ bool) ([]*hue.Light, error) {
	return []*hue.Light{{ID: "1", Name: "Light 1"}}, nil
}

func (r *recordingLights) SetLightState(_ context.Context, id string, state *hue.LightState) error {
	r.set[id] = state
	return nil
}

func (r *recordingLights) SetAllToState(_ context.Context, _ *hue.LightState) error {
	return errors.New("not supported")
}

func newRuntime(t *testing.T) (*Runtime, *recordingLights, *preset.Store) {
	t.Helper()
	lights := &recordingLights{set: make(map[string]*hue.LightState)}
	store := preset.NewStore(kv.NewMemoryBucket())
	r := NewRuntime(RuntimeDeps{Lights: lights, Presets: store})
	t.Cleanup(r.Close)
	return r, lights, store
}

func TestRuntimeDoFile(t *testing.T) {
	r, lights, _ := newRuntime(t)

	path := filepath.Join(t.TempDir(), "evening.lua")
	script := `
local hue = require("hue")
local log = require("log")
for _, l in ipairs(hue.lights()) do
    assert(hue.set_state(l.id, {on = true, color = "orange", transition = 400}))
    log.info("light set", {id = l.id})
end
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := r.DoFile(context.Background(), path, time.Second); err != nil {
		t.Fatalf("DoFile: %v", err)
	}
	state := lights.set["1"]
	if state == nil {
		t.Fatal("light 1 was not set")
	}
	if tt, _ := state.TransitionTime(); tt != 4 {
		t.Errorf("transition = %d, want 4", tt)
	}
}

func TestRuntimeScriptError(t *testing.T) {
	r, _, _ := newRuntime(t)

	err := r.DoString(context.Background(), `error("boom")`, 0)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want boom", err)
	}

	err = r.DoFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua"), 0)
	if err == nil {
		t.Fatal("expected error for missing script")
	}
}

func TestRuntimeTimeout(t *testing.T) {
	r, _, _ := newRuntime(t)

	err := r.DoString(context.Background(), `while true do end`, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected the script to be stopped")
	}
}

func TestRuntimeAppliesPresets(t *testing.T) {
	r, lights, store := newRuntime(t)

	state := &hue.LightState{}
	state.SetOn(true)
	state.SetBrightness(30)
	if _, err := store.Save("Night", state); err != nil {
		t.Fatal(err)
	}

	src := `
local hue = require("hue")
assert(hue.apply_preset("night", "4", "5"))
_, err = hue.apply_preset("night")
`
	if err := r.DoString(context.Background(), src, 0); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	for _, id := range []string{"4", "5"} {
		if bri, _ := lights.set[id].Brightness(); bri != 30 {
			t.Errorf("light %s bri = %d, want 30", id, bri)
		}
	}
	if r.L.GetGlobal("err").String() == "nil" {
		t.Error("expected an error when no lights are given")
	}
}

func TestRuntimeClosed(t *testing.T) {
	r, _, _ := newRuntime(t)
	r.Close()

	if err := r.DoString(context.Background(), `x = 1`, 0); !errors.Is(err, ErrRuntimeClosed) {
		t.Fatalf("err = %v, want ErrRuntimeClosed", err)
	}
}
