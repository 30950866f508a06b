// Package simdemo generates a deterministic animated surface so the
// demo server and end-to-end tests have frames to broadcast without a
// real simulation behind them.
package simdemo

import (
	"context"
	"math"
	"time"
)

// Source produces bathymetry, water level, and snow height grids for a
// basin with two islands, with ripples travelling across the water and
// snow accumulating on the peaks.
type Source struct {
	width  int
	height int

	elevMin float32
	elevMax float32

	t float64

	bathymetry []float32
	waterLevel []float32
	snowHeight []float32
}

// New creates a Source for a width x height corner grid. The generated
// elevations stay inside [elevMin, elevMax].
func New(width, height uint32, elevMin, elevMax float32) *Source {
	w, h := int(width), int(height)
	s := &Source{
		width:      w,
		height:     h,
		elevMin:    elevMin,
		elevMax:    elevMax,
		bathymetry: make([]float32, (w-1)*(h-1)),
		waterLevel: make([]float32, w*h),
		snowHeight: make([]float32, w*h),
	}
	s.fill()
	return s
}

// Step advances the animation by dt seconds and regenerates the grids.
func (s *Source) Step(dt float64) {
	s.t += dt
	s.fill()
}

// Frame returns the current grids. The slices are reused across Steps;
// callers that keep a frame must copy it.
func (s *Source) Frame() (bathymetry, waterLevel, snowHeight []float32) {
	return s.bathymetry, s.waterLevel, s.snowHeight
}

// Run steps the source at the given interval and hands each frame to
// submit until the context is cancelled or submit fails.
func (s *Source) Run(ctx context.Context, interval time.Duration, submit func(bathymetry, waterLevel, snowHeight []float32) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Step(interval.Seconds())
			if err := submit(s.Frame()); err != nil {
				return err
			}
		}
	}
}

// terrain is the static basin floor at normalized coordinates, in
// [0, 1]: a bowl with two island peaks.
func (s *Source) terrain(nx, ny float64) float64 {
	dx, dy := nx-0.5, ny-0.5
	bowl := 0.25 + 1.4*(dx*dx+dy*dy)
	peak1 := 0.55 * math.Exp(-40*((nx-0.3)*(nx-0.3)+(ny-0.35)*(ny-0.35)))
	peak2 := 0.4 * math.Exp(-55*((nx-0.72)*(nx-0.72)+(ny-0.66)*(ny-0.66)))
	v := bowl + peak1 + peak2
	return math.Min(v, 1)
}

func (s *Source) toElevation(v float64) float32 {
	return s.elevMin + float32(v)*(s.elevMax-s.elevMin)
}

func (s *Source) fill() {
	w, h := s.width, s.height

	// Bathymetry on cell centers.
	for y := 0; y < h-1; y++ {
		ny := (float64(y) + 0.5) / float64(h-1)
		for x := 0; x < w-1; x++ {
			nx := (float64(x) + 0.5) / float64(w-1)
			s.bathymetry[y*(w-1)+x] = s.toElevation(s.terrain(nx, ny))
		}
	}

	// Water surface on cell corners: a flat pool at 45% of the range
	// with two crossing ripple trains. Where the terrain pokes above
	// the pool, the water surface follows the terrain (dry land).
	pool := 0.45
	for y := 0; y < h; y++ {
		ny := float64(y) / float64(h-1)
		for x := 0; x < w; x++ {
			nx := float64(x) / float64(w-1)
			ripple := 0.01*math.Sin(14*nx+2.1*s.t) + 0.008*math.Sin(11*ny-1.7*s.t+3)
			surface := pool + ripple
			ground := s.terrain(nx, ny)
			if ground > surface {
				surface = ground
			}
			s.waterLevel[y*w+x] = s.toElevation(surface)

			// Snow above the snow line, thickening slowly with time.
			snow := 0.0
			if ground > 0.7 {
				depth := (ground - 0.7) * (0.04 + 0.02*math.Sin(0.3*s.t))
				snow = math.Max(depth, 0)
			}
			s.snowHeight[y*w+x] = float32(snow) * (s.elevMax - s.elevMin)
		}
	}
}
