package hue

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives every write command the client sends, together with the
// response status (0 when no response arrived) and the resulting error.
type Recorder interface {
	Record(ctx context.Context, cmd Command, status int, cmdErr error) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithRateLimit caps writes to rps requests per second. Zero or negative
// disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = newLimiter(rps) }
}

// WithRecorder records every write command.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithCache serves GetLight from cache while entries are fresh.
func WithCache(cache *LightCache) Option {
	return func(c *Client) { c.cache = cache }
}

// Client talks to the v1 REST API of a single bridge.
type Client struct {
	bridge   *Bridge
	http     Doer
	timeout  time.Duration
	limiter  *rate.Limiter
	recorder Recorder
	cache    *LightCache
}

// NewClient creates a client for bridge. Writes are limited to 10 per second
// unless WithRateLimit says otherwise.
func NewClient(bridge *Bridge, opts ...Option) *Client {
	c := &Client{
		bridge:  bridge,
		timeout: 30 * time.Second,
		limiter: newLimiter(10),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Bridge returns the bridge this client talks to.
func (c *Client) Bridge() *Bridge {
	return c.bridge
}

// Close releases idle connections.
func (c *Client) Close() error {
	if hc, ok := c.http.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
	return nil
}

// address builds a bridge API address such as /api/<user>/lights/1.
func (c *Client) address(path string) string {
	return fmt.Sprintf("/api/%s/%s", c.bridge.DefaultUser.Username, path)
}

func (c *Client) do(ctx context.Context, method, address string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+c.bridge.IPAddress+address, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, address, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if apiErr := parseAPIError(resp.StatusCode, data); apiErr != nil {
			return data, resp.StatusCode, apiErr
		}
		return data, resp.StatusCode, &APIError{StatusCode: resp.StatusCode}
	}
	if apiErr := parseAPIError(resp.StatusCode, data); apiErr != nil {
		return data, resp.StatusCode, apiErr
	}

	return data, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	address := c.address(path)
	data, _, err := c.do(ctx, http.MethodGet, address, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", address, err)
	}
	return nil
}

// write sends a command through the rate limiter and records it.
func (c *Client) write(ctx context.Context, method, path string, body []byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	cmd := Command{
		ID:      uuid.NewString(),
		Address: c.address(path),
		Method:  method,
		Body:    string(body),
	}

	_, status, err := c.do(ctx, method, cmd.Address, body)

	if c.recorder != nil {
		if recErr := c.recorder.Record(context.WithoutCancel(ctx), cmd, status, err); recErr != nil {
			log.Warn().Err(recErr).Str("command", cmd.ID).Msg("Failed to record command")
		}
	}

	log.Debug().
		Str("command", cmd.ID).
		Str("method", method).
		Str("address", cmd.Address).
		Int("status", status).
		Err(err).
		Msg("Bridge command sent")

	return err
}

// lightJSON is the v1 shape of /lights/<id>.
type lightJSON struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	ModelID   string      `json:"modelid"`
	SWVersion string      `json:"swversion"`
	State     *LightState `json:"state"`
}

// GetLight fetches a light and its current state.
func (c *Client) GetLight(ctx context.Context, id string) (*Light, error) {
	if c.cache != nil {
		if cached := c.cache.Get(id); cached != nil {
			cached.client = c
			return cached, nil
		}
	}

	var raw lightJSON
	if err := c.get(ctx, "lights/"+id, &raw); err != nil {
		return nil, fmt.Errorf("get light %s: %w", id, err)
	}

	light := &Light{
		ID:              id,
		Type:            raw.Type,
		ModelID:         raw.ModelID,
		SoftwareVersion: raw.SWVersion,
		State:           raw.State,
		client:          c,
	}
	light.SetName(raw.Name)

	if c.cache != nil {
		c.cache.Set(light)
	}

	return light, nil
}

// GetLights lists the lights paired with the bridge, ordered by ID. Only ID
// and name are filled unless fullyPopulate is set, in which case every light
// is fetched with its state.
func (c *Client) GetLights(ctx context.Context, fullyPopulate bool) ([]*Light, error) {
	var raw map[string]struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "lights", &raw); err != nil {
		return nil, fmt.Errorf("list lights: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sortIDs(ids)

	lights := make([]*Light, 0, len(ids))
	for _, id := range ids {
		if fullyPopulate {
			light, err := c.GetLight(ctx, id)
			if err != nil {
				return nil, err
			}
			lights = append(lights, light)
			continue
		}
		light := &Light{ID: id, client: c}
		light.SetName(raw[id].Name)
		lights = append(lights, light)
	}

	return lights, nil
}

// SetLightState pushes state to a light. Unset fields are omitted.
func (c *Client) SetLightState(ctx context.Context, id string, state *LightState) error {
	if state == nil {
		return fmt.Errorf("set light %s state: nil state", id)
	}
	body, err := state.Payload()
	if err != nil {
		return fmt.Errorf("encode light state: %w", err)
	}

	if c.cache != nil {
		c.cache.Invalidate(id)
	}

	if err := c.write(ctx, http.MethodPut, "lights/"+id+"/state", body); err != nil {
		return fmt.Errorf("set light %s state: %w", id, err)
	}
	return nil
}

// SetAllToState pushes state to every light on the bridge.
func (c *Client) SetAllToState(ctx context.Context, state *LightState) error {
	lights, err := c.GetLights(ctx, false)
	if err != nil {
		return err
	}

	var errs []error
	for _, light := range lights {
		if err := light.SetState(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetAllOff turns every light on the bridge off.
func (c *Client) SetAllOff(ctx context.Context) error {
	state := &LightState{}
	state.SetOn(false)
	return c.SetAllToState(ctx, state)
}

// configJSON is the v1 shape of /config.
type configJSON struct {
	Name         string `json:"name"`
	MAC          string `json:"mac"`
	DHCP         bool   `json:"dhcp"`
	IPAddress    string `json:"ipaddress"`
	Netmask      string `json:"netmask"`
	Gateway      string `json:"gateway"`
	ProxyAddress string `json:"proxyaddress"`
	ProxyPort    int    `json:"proxyport"`
	Whitelist    map[string]struct {
		Name string `json:"name"`
	} `json:"whitelist"`
}

// GetConfig reads the bridge configuration into the client's Bridge and
// returns it. The address used to reach the bridge is kept.
func (c *Client) GetConfig(ctx context.Context) (*Bridge, error) {
	var raw configJSON
	if err := c.get(ctx, "config", &raw); err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}

	b := c.bridge
	b.Name = raw.Name
	b.MACAddress = raw.MAC
	b.DHCP = raw.DHCP
	b.NetworkMask = raw.Netmask
	b.GatewayIPAddress = raw.Gateway
	b.ProxyAddress = raw.ProxyAddress
	b.ProxyPort = raw.ProxyPort

	b.Whitelist = b.Whitelist[:0]
	for username, entry := range raw.Whitelist {
		b.Whitelist = append(b.Whitelist, User{ID: username, Username: username, DeviceType: entry.Name})
	}
	slices.SortFunc(b.Whitelist, func(x, y User) int { return cmp.Compare(x.Username, y.Username) })

	log.Debug().
		Str("bridge", b.Name).
		Str("reported_ip", raw.IPAddress).
		Int("whitelist", len(b.Whitelist)).
		Msg("Bridge config loaded")

	return b, nil
}

// GetGroups lists the light groups on the bridge, ordered by ID. Member
// lights carry only their ID.
func (c *Client) GetGroups(ctx context.Context) ([]*Group, error) {
	var raw map[string]struct {
		Name   string   `json:"name"`
		Lights []string `json:"lights"`
	}
	if err := c.get(ctx, "groups", &raw); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sortIDs(ids)

	groups := make([]*Group, 0, len(ids))
	for _, id := range ids {
		g := &Group{ID: id, Name: raw[id].Name}
		for _, lightID := range raw[id].Lights {
			g.AddLight(&Light{ID: lightID, client: c})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// sortIDs orders bridge resource IDs numerically, falling back to string order.
func sortIDs(ids []string) {
	slices.SortFunc(ids, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return cmp.Compare(na, nb)
		}
		return cmp.Compare(a, b)
	})
}
