package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config holds configuration for the streaming server.
type Config struct {
	// Address is the TCP address to listen on.
	// Default: ":26000".
	Address string

	// Grid geometry

	// GridWidth and GridHeight are the dimensions of the water and
	// snow grids in cell corners. The bathymetry grid is one smaller
	// in each dimension. Both must be at least 2.
	GridWidth  uint32
	GridHeight uint32

	// CellSize is the physical extent of one grid cell along x and y.
	CellSize [2]float32

	// ElevationMin and ElevationMax bound the elevations the server
	// will stream. The range is widened by a safety margin before
	// quantization; clients receive the widened range in the
	// handshake.
	ElevationMin float32
	ElevationMax float32

	// Timeouts

	// WriteTimeout is the maximum time one broadcast send to a single
	// client may take before that client is disconnected.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// Observability

	// Logger receives structured logs. Default: slog.Default().
	Logger *slog.Logger

	// Registry is the Prometheus registry metrics are registered
	// with. Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// TracerProvider supplies the tracer for broadcast spans.
	// Default: the global otel provider.
	TracerProvider trace.TracerProvider
}

// DefaultConfig returns a Config with sensible defaults and a 640x480
// water grid.
func DefaultConfig() *Config {
	return &Config{
		Address:      ":26000",
		GridWidth:    641,
		GridHeight:   481,
		CellSize:     [2]float32{1, 1},
		ElevationMin: -100,
		ElevationMax: 100,
		WriteTimeout: 10 * time.Second,
	}
}

func (c *Config) validate() error {
	if c.GridWidth < 2 || c.GridHeight < 2 {
		return fmt.Errorf("server: grid size %dx%d too small", c.GridWidth, c.GridHeight)
	}
	if !(c.ElevationMin < c.ElevationMax) {
		return fmt.Errorf("server: empty elevation range [%g, %g]", c.ElevationMin, c.ElevationMax)
	}
	if c.CellSize[0] <= 0 || c.CellSize[1] <= 0 {
		return fmt.Errorf("server: cell size %gx%g not positive", c.CellSize[0], c.CellSize[1])
	}
	return nil
}

func (c *Config) fillDefaults() {
	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Registry == nil {
		c.Registry = prometheus.DefaultRegisterer
	}
	if c.TracerProvider == nil {
		c.TracerProvider = otel.GetTracerProvider()
	}
}
