package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/huetoolkit/internal/config"
	"github.com/dokzlo13/huetoolkit/internal/hue"
)

func testConfig(t *testing.T, bridge string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Hue.Bridge = bridge
	cfg.Hue.Token = "tester"
	cfg.Hue.RateLimitRPS = -1
	cfg.Database.Path = filepath.Join(t.TempDir(), "huectl.sqlite")
	cfg.Ledger.Enabled = true
	cfg.Cache.Enabled = true
	return cfg
}

func TestNew_WithoutBridge(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "huectl.sqlite")

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New without a bridge: %v", err)
	}
	defer a.Close()

	if _, err := a.Bridge(); !errors.Is(err, ErrNoBridge) {
		t.Errorf("Bridge() err = %v, want ErrNoBridge", err)
	}
	if _, err := a.NewRuntime(); !errors.Is(err, ErrNoBridge) {
		t.Errorf("NewRuntime() err = %v, want ErrNoBridge", err)
	}

	state := &hue.LightState{}
	state.SetOn(false)
	if _, err := a.Presets.Save("Off", state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	presets, err := a.Presets.List()
	if err != nil || len(presets) != 1 {
		t.Fatalf("List = %v, %v", presets, err)
	}
	if err := a.Presets.Delete("off"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := a.Prune(context.Background()); err != nil {
		t.Errorf("Prune: %v", err)
	}
}

func TestApp_RecordsCommandsAndRunsScripts(t *testing.T) {
	var puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/tester/lights/1/state":
			puts++
			w.Write([]byte(`[{"success":{"/lights/1/state/on":true}}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/tester/lights":
			w.Write([]byte(`{"1":{"name":"Desk"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, err := New(testConfig(t, strings.TrimPrefix(srv.URL, "http://")))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx := context.Background()

	state := &hue.LightState{}
	state.SetOn(true)
	if err := a.Client.SetLightState(ctx, "1", state); err != nil {
		t.Fatalf("SetLightState: %v", err)
	}

	rt, err := a.NewRuntime()
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()
	if err := rt.DoString(ctx, `assert(require("hue").set_all({on = true}))`, time.Second); err != nil {
		t.Fatalf("script: %v", err)
	}

	if puts != 2 {
		t.Errorf("puts = %d, want 2", puts)
	}

	entries, err := a.Ledger.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}

	if err := a.Prune(ctx); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if entries, _ := a.Ledger.Recent(ctx, 10); len(entries) != 2 {
		t.Errorf("fresh entries pruned: %d left", len(entries))
	}
}

func TestApp_PresetsPersist(t *testing.T) {
	cfg := testConfig(t, "127.0.0.1:1")

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	state := &hue.LightState{}
	if err := state.SetColor("gold"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Presets.Save("Reading", state); err != nil {
		t.Fatal(err)
	}
	a.Close()

	again, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()

	p, err := again.Presets.Get("reading")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if bri, _ := p.State.Brightness(); bri != 255 {
		t.Errorf("bri = %d, want 255", bri)
	}
}
