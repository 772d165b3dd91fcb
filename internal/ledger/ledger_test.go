package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/huetoolkit/internal/db"
	"github.com/dokzlo13/huetoolkit/internal/hue"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return New(d.DB, "10.0.0.2")
}

func TestLedger_RecordAndRecent(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	cmds := []hue.Command{
		{ID: "c1", Method: "PUT", Address: "/api/u/lights/1/state", Body: `{"on":true}`},
		{ID: "c2", Method: "PUT", Address: "/api/u/lights/2/state", Body: `{"on":false}`},
	}
	for i, cmd := range cmds {
		l.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		var cmdErr error
		status := 200
		if i == 1 {
			cmdErr, status = errors.New("unauthorized user"), 403
		}
		if err := l.Record(ctx, cmd, status, cmdErr); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	newest := entries[0]
	if newest.ID != "c2" || newest.Status != 403 || newest.Error != "unauthorized user" || newest.Bridge != "10.0.0.2" {
		t.Errorf("newest = %+v", newest)
	}
	if entries[1].Error != "" || entries[1].Body != `{"on":true}` {
		t.Errorf("oldest = %+v", entries[1])
	}
	if !entries[1].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", entries[1].Timestamp, base)
	}

	ranged, err := l.GetByTimeRange(ctx, base, base.Add(30*time.Second), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 1 || ranged[0].ID != "c1" {
		t.Errorf("range = %+v", ranged)
	}
}

func TestLedger_DeleteOlderThan(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return now.Add(-48 * time.Hour) }
	if err := l.Record(ctx, hue.Command{ID: "old", Method: "PUT", Address: "/x"}, 200, nil); err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time { return now }
	if err := l.Record(ctx, hue.Command{ID: "new", Method: "PUT", Address: "/x"}, 200, nil); err != nil {
		t.Fatal(err)
	}

	removed, err := l.DeleteOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed %d, want 1", removed)
	}
	entries, _ := l.Recent(ctx, 10)
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Errorf("remaining = %+v", entries)
	}
}

var _ hue.Recorder = (*Ledger)(nil)
