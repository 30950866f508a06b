// Package config loads the optional gridcast.json server
// configuration file. Command-line flags override anything set here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "gridcast.json"

// Config represents the complete gridcast.json configuration.
type Config struct {
	// Name is an optional label for this deployment, used in logs.
	Name string `json:"name,omitempty"`

	// Server contains the streaming server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Stream contains frame production configuration.
	Stream StreamConfig `json:"stream,omitempty"`

	configPath string
}

// ServerConfig configures the streaming server.
type ServerConfig struct {
	// Address is the TCP address to stream on.
	Address string `json:"address,omitempty"`

	// AdminAddress is the HTTP address for metrics and WebSocket
	// viewers. Pass --admin-addr="" on the command line to disable
	// the endpoint.
	AdminAddress string `json:"adminAddress,omitempty"`

	// GridWidth and GridHeight are the water grid dimensions in cell
	// corners.
	GridWidth  uint32 `json:"gridWidth,omitempty"`
	GridHeight uint32 `json:"gridHeight,omitempty"`

	// CellWidth and CellHeight are the physical cell extents.
	CellWidth  float32 `json:"cellWidth,omitempty"`
	CellHeight float32 `json:"cellHeight,omitempty"`

	// ElevationMin and ElevationMax bound the streamed elevations.
	ElevationMin float32 `json:"elevationMin,omitempty"`
	ElevationMax float32 `json:"elevationMax,omitempty"`
}

// StreamConfig configures frame production.
type StreamConfig struct {
	// Rate is the broadcast rate in frames per second.
	Rate float64 `json:"rate,omitempty"`
}

// New returns a Config with all defaults applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads gridcast.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a configuration file from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	path := c.configPath
	if path == "" {
		path = ConfigFileName
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path as indented JSON.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the configuration was loaded from or saved to.
func (c *Config) Path() string {
	return c.configPath
}

// Exists reports whether dir contains a gridcast.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":26000"
	}
	if c.Server.AdminAddress == "" {
		c.Server.AdminAddress = ":26080"
	}
	if c.Server.GridWidth == 0 {
		c.Server.GridWidth = 641
	}
	if c.Server.GridHeight == 0 {
		c.Server.GridHeight = 481
	}
	if c.Server.CellWidth == 0 {
		c.Server.CellWidth = 1
	}
	if c.Server.CellHeight == 0 {
		c.Server.CellHeight = 1
	}
	if c.Server.ElevationMin == 0 && c.Server.ElevationMax == 0 {
		c.Server.ElevationMin = -100
		c.Server.ElevationMax = 100
	}
	if c.Stream.Rate == 0 {
		c.Stream.Rate = 30
	}
}

// Validate checks the configuration for values the server would
// reject.
func (c *Config) Validate() error {
	if c.Server.GridWidth < 2 || c.Server.GridHeight < 2 {
		return fmt.Errorf("config: grid size %dx%d too small", c.Server.GridWidth, c.Server.GridHeight)
	}
	if !(c.Server.ElevationMin < c.Server.ElevationMax) {
		return fmt.Errorf("config: empty elevation range [%g, %g]", c.Server.ElevationMin, c.Server.ElevationMax)
	}
	if c.Stream.Rate <= 0 {
		return fmt.Errorf("config: rate %g not positive", c.Stream.Rate)
	}
	return nil
}
