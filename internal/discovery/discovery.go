// Package discovery finds bridges on the local network and registers new
// whitelist users on them.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"
)

// ErrNoBridge is returned when discovery finds nothing usable.
var ErrNoBridge = errors.New("no hue bridge found")

// Found is a bridge seen during discovery.
type Found struct {
	ID   string
	Host string
}

// Discoverer locates bridges and creates users on them.
type Discoverer interface {
	Discover(ctx context.Context) ([]Found, error)
	Register(ctx context.Context, host, deviceType string) (string, error)
}

// Huego implements Discoverer with the Philips discovery endpoint.
type Huego struct{}

// Discover lists the bridges the discovery service knows for this network.
func (Huego) Discover(ctx context.Context) ([]Found, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bridges, err := huego.DiscoverAll()
	if err != nil {
		return nil, fmt.Errorf("discover bridges: %w", err)
	}

	found := make([]Found, 0, len(bridges))
	for _, b := range bridges {
		found = append(found, Found{ID: b.ID, Host: b.Host})
	}
	log.Debug().Int("count", len(found)).Msg("Bridge discovery finished")
	return found, nil
}

// Register creates a whitelist user. The bridge link button must have been
// pressed shortly before.
func (Huego) Register(ctx context.Context, host, deviceType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	username, err := huego.New(host, "").CreateUser(deviceType)
	if err != nil {
		return "", fmt.Errorf("register %q on %s: %w", deviceType, host, err)
	}
	log.Info().Str("bridge", host).Str("device_type", deviceType).Msg("Registered bridge user")
	return username, nil
}

// Pick returns the discovered bridge with the given host, or the first one
// when host is empty.
func Pick(ctx context.Context, d Discoverer, host string) (Found, error) {
	found, err := d.Discover(ctx)
	if err != nil {
		return Found{}, err
	}
	for _, f := range found {
		if host == "" || f.Host == host {
			return f, nil
		}
	}
	if host != "" {
		return Found{}, fmt.Errorf("%w at %s", ErrNoBridge, host)
	}
	return Found{}, ErrNoBridge
}
