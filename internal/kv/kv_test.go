package kv

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dokzlo13/huetoolkit/internal/db"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "kv.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestBucket(t *testing.T) {
	d := openDB(t)
	buckets := map[string]Bucket{
		"memory": NewMemoryBucket(),
		"sqlite": NewSQLiteBucket(d.DB, "test"),
	}

	for name, b := range buckets {
		t.Run(name, func(t *testing.T) {
			var out sample
			if ok, err := b.Get("missing", &out); ok || err != nil {
				t.Errorf("Get(missing) = %v, %v", ok, err)
			}
			if keys, err := b.Keys(); err != nil || len(keys) != 0 {
				t.Errorf("Keys on empty bucket = %v, %v", keys, err)
			}

			for _, put := range []struct {
				key string
				val sample
			}{
				{"b", sample{Name: "bee", Count: 2}},
				{"a", sample{Name: "ay", Count: 1}},
				{"a", sample{Name: "ay", Count: 3}},
			} {
				if err := b.Put(put.key, put.val); err != nil {
					t.Fatalf("Put(%s): %v", put.key, err)
				}
			}

			ok, err := b.Get("a", &out)
			if !ok || err != nil {
				t.Fatalf("Get(a) = %v, %v", ok, err)
			}
			if out != (sample{Name: "ay", Count: 3}) {
				t.Errorf("Get(a) = %+v", out)
			}

			keys, err := b.Keys()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(keys, []string{"a", "b"}) {
				t.Errorf("Keys = %v", keys)
			}

			if deleted, _ := b.Delete("b"); !deleted {
				t.Error("Delete(b) = false")
			}
			if deleted, _ := b.Delete("b"); deleted {
				t.Error("second Delete(b) = true")
			}
			if keys, _ := b.Keys(); !reflect.DeepEqual(keys, []string{"a"}) {
				t.Errorf("Keys after Delete = %v", keys)
			}
		})
	}
}

func TestBucket_DecodeError(t *testing.T) {
	b := NewMemoryBucket()
	if err := b.Put("k", "text"); err != nil {
		t.Fatal(err)
	}
	var out sample
	if ok, err := b.Get("k", &out); !ok || err == nil {
		t.Errorf("Get into mismatched type = %v, %v; want true and an error", ok, err)
	}
}

func TestSQLiteBucket_IsolatedByName(t *testing.T) {
	d := openDB(t)
	one := NewSQLiteBucket(d.DB, "one")
	two := NewSQLiteBucket(d.DB, "two")

	if err := one.Put("k", 1); err != nil {
		t.Fatal(err)
	}
	var n int
	if ok, _ := two.Get("k", &n); ok {
		t.Error("key leaked across buckets")
	}
	if deleted, _ := two.Delete("k"); deleted {
		t.Error("Delete removed a key from another bucket")
	}
	if ok, _ := one.Get("k", &n); !ok || n != 1 {
		t.Errorf("one.Get(k) = %v, %d", ok, n)
	}
}
