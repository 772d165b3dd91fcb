// Package preset saves named light states so they can be applied later.
package preset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/huetoolkit/internal/hue"
	"github.com/dokzlo13/huetoolkit/internal/kv"
)

// BucketName is the kv bucket presets are kept in.
const BucketName = "presets"

// ErrNotFound is returned when no preset has the requested name.
var ErrNotFound = errors.New("preset not found")

// Preset is a saved light state.
type Preset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	State     *hue.LightState `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StateSetter pushes a light state to a light. *hue.Client satisfies it.
type StateSetter interface {
	SetLightState(ctx context.Context, id string, state *hue.LightState) error
}

// Store keeps presets in a kv bucket keyed by lowercase name.
type Store struct {
	bucket kv.Bucket
	now    func() time.Time
}

// NewStore creates a preset store on top of bucket.
func NewStore(bucket kv.Bucket) *Store {
	return &Store{bucket: bucket, now: time.Now}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Save creates or replaces the preset called name.
func (s *Store) Save(name string, state *hue.LightState) (*Preset, error) {
	if key(name) == "" {
		return nil, errors.New("preset name is empty")
	}
	if state == nil || state.IsEmpty() {
		return nil, fmt.Errorf("preset %q: state is empty", name)
	}

	now := s.now().UTC()
	p := &Preset{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var existing Preset
	if ok, err := s.bucket.Get(key(name), &existing); err != nil {
		return nil, err
	} else if ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}

	if err := s.bucket.Put(key(name), p); err != nil {
		return nil, err
	}

	log.Debug().Str("preset", p.Name).Str("id", p.ID).Msg("Preset saved")
	return p, nil
}

// Get returns the preset called name.
func (s *Store) Get(name string) (*Preset, error) {
	var p Preset
	ok, err := s.bucket.Get(key(name), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return &p, nil
}

// List returns all presets ordered by name.
func (s *Store) List() ([]*Preset, error) {
	keys, err := s.bucket.Keys()
	if err != nil {
		return nil, err
	}

	presets := make([]*Preset, 0, len(keys))
	for _, k := range keys {
		p, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// Delete removes the preset called name.
func (s *Store) Delete(name string) error {
	deleted, err := s.bucket.Delete(key(name))
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Apply pushes the preset called name to each light.
func (s *Store) Apply(ctx context.Context, setter StateSetter, name string, lightIDs ...string) error {
	p, err := s.Get(name)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range lightIDs {
		if err := setter.SetLightState(ctx, id, p.State); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
