package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/ledwall/internal/display"
	"github.com/banshee-data/ledwall/internal/matrix"
)

// DefaultConfigPath is the path to the canonical defaults file. This is the
// single source of truth for all default wall settings.
const DefaultConfigPath = "config/wall.defaults.json"

// WallConfig represents the root configuration for a wall. All fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// methods provide fallback defaults for everything else.
type WallConfig struct {
	// Device params
	DeviceHost    *string `json:"device_host,omitempty"`
	DeviceHTTP    *int    `json:"device_http_port,omitempty"`
	DeviceTimeout *string `json:"device_timeout,omitempty"` // duration string like "3s"

	// Matrix params
	MatrixWidth  *int    `json:"matrix_width,omitempty"`
	MatrixHeight *int    `json:"matrix_height,omitempty"`
	Wiring       *string `json:"wiring,omitempty"` // row-major, row-serpentine, column-serpentine

	// Transport params
	Protocol           *string  `json:"protocol,omitempty"` // json, ddp-full, ddp
	DDPPort            *int     `json:"ddp_port,omitempty"`
	Destination        *int     `json:"destination,omitempty"`
	MaxPixelsPerPacket *int     `json:"max_pixels_per_packet,omitempty"`
	SparseThreshold    *float64 `json:"sparse_threshold,omitempty"`

	// Render params
	Brightness *int     `json:"brightness,omitempty"`
	Scene      *string  `json:"scene,omitempty"`
	TargetFPS  *float64 `json:"target_fps,omitempty"`

	// Stats params
	StatsDBPath *string `json:"stats_db_path,omitempty"`
}

// EmptyWallConfig returns a WallConfig with all fields set to nil. Use
// LoadWallConfig to load actual values from the defaults file.
func EmptyWallConfig() *WallConfig {
	return &WallConfig{}
}

// LoadWallConfig loads a WallConfig from a JSON file. The file is validated
// to ensure it has a .json extension and is under the max file size. Fields
// omitted from the JSON file retain their default values, so partial configs
// are safe.
func LoadWallConfig(path string) (*WallConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyWallConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *WallConfig) Validate() error {
	if c.MatrixWidth != nil && *c.MatrixWidth <= 0 {
		return fmt.Errorf("matrix_width must be positive, got %d", *c.MatrixWidth)
	}
	if c.MatrixHeight != nil && *c.MatrixHeight <= 0 {
		return fmt.Errorf("matrix_height must be positive, got %d", *c.MatrixHeight)
	}

	if c.Wiring != nil {
		if _, err := matrix.ParseWiringMode(*c.Wiring); err != nil {
			return err
		}
	}
	if c.Protocol != nil {
		if _, err := display.ParseProtocol(*c.Protocol); err != nil {
			return err
		}
	}

	if c.DDPPort != nil && (*c.DDPPort < 1 || *c.DDPPort > 65535) {
		return fmt.Errorf("ddp_port must be between 1 and 65535, got %d", *c.DDPPort)
	}
	if c.Destination != nil && (*c.Destination < 0 || *c.Destination > 255) {
		return fmt.Errorf("destination must be between 0 and 255, got %d", *c.Destination)
	}
	if c.MaxPixelsPerPacket != nil && *c.MaxPixelsPerPacket <= 0 {
		return fmt.Errorf("max_pixels_per_packet must be positive, got %d", *c.MaxPixelsPerPacket)
	}
	if c.SparseThreshold != nil && (*c.SparseThreshold < 0 || *c.SparseThreshold > 1) {
		return fmt.Errorf("sparse_threshold must be between 0 and 1, got %f", *c.SparseThreshold)
	}
	if c.Brightness != nil && (*c.Brightness < 0 || *c.Brightness > 255) {
		return fmt.Errorf("brightness must be between 0 and 255, got %d", *c.Brightness)
	}
	if c.TargetFPS != nil && *c.TargetFPS < 0 {
		return fmt.Errorf("target_fps must be non-negative, got %f", *c.TargetFPS)
	}

	if c.DeviceTimeout != nil && *c.DeviceTimeout != "" {
		if _, err := time.ParseDuration(*c.DeviceTimeout); err != nil {
			return fmt.Errorf("invalid device_timeout '%s': %w", *c.DeviceTimeout, err)
		}
	}

	return nil
}

// GetDeviceHost returns the device_host value or the default.
func (c *WallConfig) GetDeviceHost() string {
	if c.DeviceHost == nil {
		return "ledwall.local"
	}
	return *c.DeviceHost
}

// GetDeviceHTTPPort returns the device_http_port value or the default.
func (c *WallConfig) GetDeviceHTTPPort() int {
	if c.DeviceHTTP == nil {
		return 80
	}
	return *c.DeviceHTTP
}

// GetDeviceTimeout parses and returns the DeviceTimeout as a time.Duration.
func (c *WallConfig) GetDeviceTimeout() time.Duration {
	if c.DeviceTimeout == nil || *c.DeviceTimeout == "" {
		return 3 * time.Second // default
	}
	d, err := time.ParseDuration(*c.DeviceTimeout)
	if err != nil {
		return 3 * time.Second // default on parse error
	}
	return d
}

// GetMatrixWidth returns the matrix_width value or the default.
func (c *WallConfig) GetMatrixWidth() int {
	if c.MatrixWidth == nil {
		return 16
	}
	return *c.MatrixWidth
}

// GetMatrixHeight returns the matrix_height value or the default.
func (c *WallConfig) GetMatrixHeight() int {
	if c.MatrixHeight == nil {
		return 16
	}
	return *c.MatrixHeight
}

// GetWiring parses and returns the wiring mode or the default.
func (c *WallConfig) GetWiring() matrix.WiringMode {
	if c.Wiring == nil {
		return matrix.WiringRowSerpentine
	}
	mode, err := matrix.ParseWiringMode(*c.Wiring)
	if err != nil {
		return matrix.WiringRowSerpentine
	}
	return mode
}

// GetProtocol parses and returns the transport protocol or the default.
func (c *WallConfig) GetProtocol() display.Protocol {
	if c.Protocol == nil {
		return display.ProtocolDDP
	}
	p, err := display.ParseProtocol(*c.Protocol)
	if err != nil {
		return display.ProtocolDDP
	}
	return p
}

// GetDDPPort returns the ddp_port value or the default.
func (c *WallConfig) GetDDPPort() int {
	if c.DDPPort == nil {
		return 4048
	}
	return *c.DDPPort
}

// GetDestination returns the destination value or the default.
func (c *WallConfig) GetDestination() int {
	if c.Destination == nil {
		return 1
	}
	return *c.Destination
}

// GetMaxPixelsPerPacket returns the max_pixels_per_packet value or the default.
func (c *WallConfig) GetMaxPixelsPerPacket() int {
	if c.MaxPixelsPerPacket == nil {
		return 480
	}
	return *c.MaxPixelsPerPacket
}

// GetSparseThreshold returns the sparse_threshold value or the default.
func (c *WallConfig) GetSparseThreshold() float64 {
	if c.SparseThreshold == nil {
		return 0.5
	}
	return *c.SparseThreshold
}

// GetBrightness returns the brightness value or the default.
func (c *WallConfig) GetBrightness() int {
	if c.Brightness == nil {
		return 128
	}
	return *c.Brightness
}

// GetScene returns the scene value or the default.
func (c *WallConfig) GetScene() string {
	if c.Scene == nil {
		return "fireplace"
	}
	return *c.Scene
}

// GetTargetFPS returns the target_fps value or the default.
func (c *WallConfig) GetTargetFPS() float64 {
	if c.TargetFPS == nil {
		return 30
	}
	return *c.TargetFPS
}

// GetStatsDBPath returns the stats_db_path value or the default. An empty
// path disables frame stats recording.
func (c *WallConfig) GetStatsDBPath() string {
	if c.StatsDBPath == nil {
		return ""
	}
	return *c.StatsDBPath
}
