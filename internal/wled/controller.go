// Package wled is the reliable control channel for a WLED-compatible LED
// controller. It speaks the JSON state API over HTTP for solid colours,
// brightness and device identity, and hands out the cached UDP client used
// by the pixel-streaming path.
//
// Unlike the DDP datagram path, every control request is acknowledged: a
// non-2xx response from the device surfaces as an explicit remote error.
package wled

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/ledwall/internal/ddp"
	"github.com/banshee-data/ledwall/internal/httputil"
	"github.com/banshee-data/ledwall/internal/matrix"
)

// DefaultTimeout bounds every control-channel request. Timeout policy lives
// here, not in the pixel pipeline.
const DefaultTimeout = 3 * time.Second

// ControllerConfig contains configuration options for the controller client.
type ControllerConfig struct {
	Host    string
	Port    int           // defaults to 80
	Timeout time.Duration // defaults to DefaultTimeout

	// HTTPClient overrides the transport, used by tests. When nil a
	// standard client with the configured timeout is used.
	HTTPClient httputil.HTTPClient
	// Dialer overrides UDP socket creation for the cached DDP client.
	Dialer ddp.UDPDialer
}

// DeviceInfo is the subset of /json/info the driver cares about.
type DeviceInfo struct {
	Version string `json:"ver"`
	Name    string `json:"name"`
	LEDs    struct {
		Count int `json:"count"`
	} `json:"leds"`
}

// DeviceState is the subset of /json/state the driver cares about.
type DeviceState struct {
	On         bool `json:"on"`
	Brightness int  `json:"bri"`
}

// Controller is a client for one WLED-compatible device. It owns a single
// keep-alive HTTP client and at most one cached DDP client, replaced when
// the requested port or destination id changes.
type Controller struct {
	baseURL string
	host    string
	client  httputil.HTTPClient
	dialer  ddp.UDPDialer

	ddpClient *ddp.Client
}

// NewController creates a controller client for the given device.
func NewController(config ControllerConfig) (*Controller, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("controller requires a host")
	}
	port := config.Port
	if port == 0 {
		port = 80
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = httputil.NewStandardClient(&http.Client{Timeout: timeout})
	}

	return &Controller{
		baseURL: fmt.Sprintf("http://%s:%d", config.Host, port),
		host:    config.Host,
		client:  client,
		dialer:  config.Dialer,
	}, nil
}

// Close releases the cached DDP client, if any.
func (c *Controller) Close() error {
	if c.ddpClient != nil {
		err := c.ddpClient.Close()
		c.ddpClient = nil
		return err
	}
	return nil
}

// Info queries /json/info for device identity.
func (c *Controller) Info() (*DeviceInfo, error) {
	var info DeviceInfo
	if err := c.getJSON("/json/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// State queries /json/state for the current device state.
func (c *Controller) State() (*DeviceState, error) {
	var state DeviceState
	if err := c.getJSON("/json/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SetBrightness sets the global brightness (clamped to 0..255).
func (c *Controller) SetBrightness(bri int) error {
	return c.postState(map[string]any{"bri": clampChannel(bri)})
}

// SetSolidColor sets segment 0 to a single solid colour. It also clears any
// per-pixel overrides and unfreezes the segment so the solid colour applies
// consistently after SetPixels has been used.
func (c *Controller) SetSolidColor(col matrix.Color) error {
	return c.postState(map[string]any{
		"seg": []map[string]any{{
			"id":  0,
			"fx":  0, // solid
			"frz": false,
			"col": [][]int{{int(col.R), int(col.G), int(col.B)}},
		}},
	})
}

// SetPixels sends a full frame of per-pixel colours through the reliable
// JSON path using the per-segment "i" array, colours from LED 0 onward. Far
// slower than DDP, but acknowledged.
func (c *Controller) SetPixels(colors []matrix.Color) error {
	pixels := make([][]int, len(colors))
	for i, col := range colors {
		pixels[i] = []int{int(col.R), int(col.G), int(col.B)}
	}
	return c.postState(map[string]any{
		"seg": []map[string]any{{
			"id": 0,
			"fx": 0, // solid effect so per-pixel colours are visible
			"i":  pixels,
		}},
	})
}

// DDPClient returns the cached pixel-streaming client for the given port and
// destination id. The cache holds one client; a request with a different
// port or destination closes the old socket and dials a new one.
func (c *Controller) DDPClient(port, destination int) (*ddp.Client, error) {
	if c.ddpClient != nil &&
		c.ddpClient.Port() == port &&
		c.ddpClient.Destination() == destination {
		return c.ddpClient, nil
	}

	if c.ddpClient != nil {
		if err := c.ddpClient.Close(); err != nil {
			return nil, fmt.Errorf("failed to close previous DDP client: %w", err)
		}
		c.ddpClient = nil
	}

	client, err := ddp.NewClient(ddp.ClientConfig{
		Host:        c.host,
		Port:        port,
		Destination: destination,
		Dialer:      c.dialer,
	})
	if err != nil {
		return nil, err
	}
	c.ddpClient = client
	return client, nil
}

// postState POSTs a state payload to /json/state. The device is always
// switched on with instant transitions so colour changes apply immediately.
func (c *Controller) postState(payload map[string]any) error {
	merged := map[string]any{
		"on": true,
		"tt": 0, // transition time in ms
	}
	for k, v := range payload {
		merged[k] = v
	}

	body, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal state payload: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/json/state", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("control request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("controller returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

func (c *Controller) getJSON(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("control request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("controller returned status %d: %s", resp.StatusCode, string(detail))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode controller response: %w", err)
	}
	return nil
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
