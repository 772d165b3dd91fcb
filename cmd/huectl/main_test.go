package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/pflag"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, bridge string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "huectl.yaml")
	cfg := `
hue:
  bridge: "` + bridge + `"
  token: tester
  rate_limit_rps: -1
database:
  path: "` + filepath.Join(dir, "huectl.sqlite") + `"
ledger:
  enabled: true
log:
  level: error
`
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStateFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{"on with color", []string{"--on", "--color", "tomato"}, `{"on":true,"bri":255,"hue":1940,"sat":184}`, ""},
		{"bri overrides color", []string{"--color", "#FF0000", "--bri", "10"}, `{"bri":10,"hue":0,"sat":255}`, ""},
		{"off with transition", []string{"--off", "--transition", "1s"}, `{"on":false,"transitiontime":10}`, ""},
		{"xy", []string{"--xy", "0.3,0.4"}, `{"xy":[0.3,0.4]}`, ""},
		{"alert", []string{"--alert", "select"}, `{"alert":"select"}`, ""},
		{"on and off", []string{"--on", "--off"}, "", "mutually exclusive"},
		{"bad sat", []string{"--sat", "256"}, "", "--sat"},
		{"bad effect", []string{"--effect", "rainbow"}, "", "--effect"},
		{"bad xy", []string{"--xy", "0.3"}, "", "two values"},
		{"bad color", []string{"--color", "GG0000"}, "", "invalid hex"},
		{"nothing", nil, "", "nothing to set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &stateFlags{}
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			f.register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			state, err := f.build(fs)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got, _ := state.Payload()
			if string(got) != tt.want {
				t.Errorf("payload = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConvertCommand(t *testing.T) {
	cfg := writeConfig(t, "")
	out, err := execute(t, "--config", cfg, "convert", "#00FF00", "Dark Red")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"25500", "139", "Dark Red"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "--config", cfg, "convert", "blurple"); err == nil {
		t.Error("expected error for unknown input")
	}
}

func TestColorsCommand(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t, ""), "colors", "Sea Green")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header plus darkseagreen, lightseagreen, mediumseagreen and seagreen
	if len(lines) != 5 {
		t.Errorf("got %d lines:\n%s", len(lines), out)
	}
}

func TestSetCommandAndHistory(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies = map[string]string{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies[r.URL.Path] = string(body)
		mu.Unlock()
		w.Write([]byte(`[{"success":{}}]`))
	}))
	defer srv.Close()

	cfg := writeConfig(t, strings.TrimPrefix(srv.URL, "http://"))

	if _, err := execute(t, "--config", cfg, "set", "1", "2", "--on", "--color", "blue"); err != nil {
		t.Fatalf("set: %v", err)
	}

	mu.Lock()
	got := bodies["/api/tester/lights/2/state"]
	mu.Unlock()
	if got != `{"on":true,"bri":255,"hue":46920,"sat":255}` {
		t.Errorf("body = %s", got)
	}

	out, err := execute(t, "--config", cfg, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Count(out, "/api/tester/lights/") != 2 {
		t.Errorf("history:\n%s", out)
	}
}

func TestBridgeCommandsNeedConfig(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t, ""), "lights")
	if err == nil || !strings.Contains(err.Error(), "no bridge configured") {
		t.Fatalf("err = %v", err)
	}
}

func TestPresetCommandsWithoutBridge(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := execute(t, "--config", cfg, "preset", "save", "night", "--on", "--color", "#ff8800")
	if err != nil {
		t.Fatalf("preset save: %v", err)
	}
	if !strings.Contains(out, `saved preset "night"`) {
		t.Errorf("preset save output: %q", out)
	}

	out, err = execute(t, "--config", cfg, "preset", "list")
	if err != nil {
		t.Fatalf("preset list: %v", err)
	}
	if !strings.Contains(out, "night") {
		t.Errorf("preset list output: %q", out)
	}

	if _, err := execute(t, "--config", cfg, "preset", "delete", "night"); err != nil {
		t.Fatalf("preset delete: %v", err)
	}

	_, err = execute(t, "--config", cfg, "preset", "apply", "night", "1")
	if err == nil || !strings.Contains(err.Error(), "no bridge configured") {
		t.Errorf("preset apply err = %v", err)
	}
	_, err = execute(t, "--config", cfg, "preset", "save", "desk", "--from", "1")
	if err == nil || !strings.Contains(err.Error(), "no bridge configured") {
		t.Errorf("preset save --from err = %v", err)
	}
}
