package hue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxLightName is the longest light name the bridge accepts.
const maxLightName = 32

// User is a whitelisted bridge user.
type User struct {
	ID         string `json:"id,omitempty"`
	Username   string `json:"username"`
	DeviceType string `json:"devicetype,omitempty"`
}

// Bridge describes a Hue bridge and the user the client talks to it as.
type Bridge struct {
	Name             string
	ProxyPort        int
	ProxyAddress     string
	MACAddress       string
	IPAddress        string
	NetworkMask      string
	GatewayIPAddress string
	DHCP             bool
	Whitelist        []User
	DefaultUser      User
}

// NewBridge creates a Bridge reachable at ip, used as username.
func NewBridge(ip, username string) *Bridge {
	return &Bridge{
		IPAddress:   ip,
		DefaultUser: User{Username: username},
	}
}

// Light is a single bulb paired with the bridge.
type Light struct {
	ID              string
	Name            string
	Type            string
	ModelID         string
	SoftwareVersion string
	State           *LightState

	client *Client
}

// SetName sets the display name, truncated to the bridge limit of 32 bytes.
func (l *Light) SetName(name string) {
	if len(name) > maxLightName {
		name = name[:maxLightName]
	}
	l.Name = name
}

// StoreState records state on the Light without pushing it to the bridge.
func (l *Light) StoreState(state *LightState) {
	l.State = state
}

// SetState records state and pushes it to the bridge.
func (l *Light) SetState(ctx context.Context, state *LightState) error {
	l.State = state
	if l.client == nil {
		return fmt.Errorf("light %s: %w", l.ID, ErrNoClient)
	}
	return l.client.SetLightState(ctx, l.ID, state)
}

// ErrNoClient is returned when pushing state for a Light that was not
// obtained from a Client.
var ErrNoClient = errors.New("light is not bound to a bridge client")

// Group is a named set of lights.
type Group struct {
	ID     string
	Name   string
	Lights []*Light
}

// AddLight appends a light to the group.
func (g *Group) AddLight(l *Light) {
	g.Lights = append(g.Lights, l)
}

// SetState pushes state to every light in the group. Every light is tried;
// failures are joined into the returned error.
func (g *Group) SetState(ctx context.Context, state *LightState) error {
	var errs []error
	for _, l := range g.Lights {
		if err := l.SetState(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Command is a bridge request: an API address, an HTTP method and a body.
// Schedules carry one, and the client records one for every write it sends.
type Command struct {
	ID      string `json:"-"`
	Address string `json:"address"`
	Method  string `json:"method"`
	Body    string `json:"body,omitempty"`
}

// Schedule is an event the bridge performs at a given time.
type Schedule struct {
	Name        string
	Description string
	Time        time.Time
	Command     Command
}
