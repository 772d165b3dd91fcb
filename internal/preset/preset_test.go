package preset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dokzlo13/huetoolkit/internal/hue"
	"github.com/dokzlo13/huetoolkit/internal/kv"
)

type captureSetter struct {
	payloads map[string]string
	fail     string
}

func (c *captureSetter) SetLightState(_ context.Context, id string, state *hue.LightState) error {
	if id == c.fail {
		return errors.New("boom")
	}
	body, _ := state.Payload()
	c.payloads[id] = string(body)
	return nil
}

func relaxState(t *testing.T) *hue.LightState {
	t.Helper()
	s := &hue.LightState{}
	s.SetOn(true)
	if err := s.SetNamedColor("orange"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStore_SaveGetList(t *testing.T) {
	store := NewStore(kv.NewMemoryBucket())
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	saved, err := store.Save("Relax", relaxState(t))
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" {
		t.Error("preset has no id")
	}

	got, err := store.Get("relax")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := relaxState(t).Payload()
	have, _ := got.State.Payload()
	if string(have) != string(want) {
		t.Errorf("state = %s, want %s", have, want)
	}

	// Saving again keeps identity and creation time.
	store.now = func() time.Time { return first.Add(time.Hour) }
	off := &hue.LightState{}
	off.SetOn(false)
	again, err := store.Save("RELAX", off)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != saved.ID || !again.CreatedAt.Equal(first) || !again.UpdatedAt.Equal(first.Add(time.Hour)) {
		t.Errorf("resave = %+v", again)
	}

	if _, err := store.Save("Night", relaxState(t)); err != nil {
		t.Fatal(err)
	}
	all, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Name != "Night" || all[1].Name != "RELAX" {
		t.Errorf("List = %+v", all)
	}
}

func TestStore_Errors(t *testing.T) {
	store := NewStore(kv.NewMemoryBucket())

	if _, err := store.Save("  ", relaxState(t)); err == nil {
		t.Error("empty name accepted")
	}
	if _, err := store.Save("empty", &hue.LightState{}); err == nil {
		t.Error("empty state accepted")
	}
	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v", err)
	}
	if err := store.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v", err)
	}
}

func TestStore_Apply(t *testing.T) {
	store := NewStore(kv.NewMemoryBucket())
	if _, err := store.Save("relax", relaxState(t)); err != nil {
		t.Fatal(err)
	}

	setter := &captureSetter{payloads: map[string]string{}, fail: "2"}
	err := store.Apply(context.Background(), setter, "relax", "1", "2", "3")
	if err == nil {
		t.Error("expected error from light 2")
	}
	want, _ := relaxState(t).Payload()
	for _, id := range []string{"1", "3"} {
		if setter.payloads[id] != string(want) {
			t.Errorf("light %s got %q", id, setter.payloads[id])
		}
	}

	if err := store.Delete("relax"); err != nil {
		t.Fatal(err)
	}
	if err := store.Apply(context.Background(), setter, "relax", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Apply after delete error = %v", err)
	}
}
