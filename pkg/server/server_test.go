package server

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	gcclient "github.com/gridcast-dev/gridcast/pkg/client"
)

func newTestServer(t *testing.T, width, height uint32) *Server {
	t.Helper()
	config := DefaultConfig()
	config.Address = "127.0.0.1:0"
	config.GridWidth = width
	config.GridHeight = height
	config.ElevationMin = -10
	config.ElevationMax = 10
	config.Registry = prometheus.NewRegistry()
	config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testFrame builds a frame whose water level varies smoothly and whose
// bathymetry and snow are constants inside the quantization range.
func testFrame(width, height uint32, phase float64) (bathymetry, waterLevel, snowHeight []float32) {
	w, h := int(width), int(height)
	bathymetry = make([]float32, (w-1)*(h-1))
	waterLevel = make([]float32, w*h)
	snowHeight = make([]float32, w*h)
	for i := range bathymetry {
		bathymetry[i] = -5
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			waterLevel[y*w+x] = float32(2 * math.Sin(float64(x+y)/7+phase))
		}
	}
	return bathymetry, waterLevel, snowHeight
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func dialClient(t *testing.T, s *Server) *gcclient.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := gcclient.Dial(s.Addr().String(), logger)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// submitUntil keeps submitting frames until cond holds. Broadcasts
// only go out when a frame is published, so tests drive the cycle
// explicitly.
func (s *Server) submitUntil(t *testing.T, phase float64, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		b, w, sn := testFrame(s.config.GridWidth, s.config.GridHeight, phase)
		if err := s.Submit(b, w, sn); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for broadcast to take effect")
}

func TestHandshakeGeometry(t *testing.T) {
	s := newTestServer(t, 33, 25)
	c := dialClient(t, s)

	hs := c.Handshake()
	if hs.GridSize != [2]uint32{33, 25} {
		t.Errorf("grid size = %v, want {33 25}", hs.GridSize)
	}
	// The advertised range is the configured range widened by the
	// quantization margin.
	if hs.ElevationMin >= -10 || hs.ElevationMax <= 10 {
		t.Errorf("elevation range [%g, %g] not widened around [-10, 10]", hs.ElevationMin, hs.ElevationMax)
	}
}

func TestBroadcastRoundTrip(t *testing.T) {
	const width, height = 17, 13
	s := newTestServer(t, width, height)
	c := dialClient(t, s)
	go c.Run()

	waitFor(t, "handshake", func() bool { return s.activeClients.Load() == 1 })

	bathy, water, _ := testFrame(width, height, 0)
	s.submitUntil(t, 0, func() bool {
		_, ok := c.Grids()
		return ok
	})

	snap, _ := c.Grids()
	hs := c.Handshake()
	step := float64(hs.ElevationMax-hs.ElevationMin) / 65535

	for i, want := range water {
		if diff := math.Abs(float64(snap.WaterLevel[i] - want)); diff > 2*step {
			t.Fatalf("water[%d] = %g, want %g within %g", i, snap.WaterLevel[i], want, 2*step)
		}
	}
	for i, want := range bathy {
		if diff := math.Abs(float64(snap.Bathymetry[i] - want)); diff > 2*step {
			t.Fatalf("bathymetry[%d] = %g, want %g within %g", i, snap.Bathymetry[i], want, 2*step)
		}
	}
}

func TestInterFramesFollowIntra(t *testing.T) {
	const width, height = 9, 7
	s := newTestServer(t, width, height)
	c := dialClient(t, s)
	go c.Run()

	waitFor(t, "handshake", func() bool { return s.activeClients.Load() == 1 })

	s.submitUntil(t, 0, func() bool {
		_, ok := c.Grids()
		return ok
	})
	first, _ := c.Grids()

	// Later frames are delta-coded; the client must still track a
	// changing surface.
	s.submitUntil(t, 1.5, func() bool {
		snap, ok := c.Grids()
		return ok && snap.Frame > first.Frame
	})

	_, water, _ := testFrame(width, height, 1.5)
	snap, _ := c.Grids()
	hs := c.Handshake()
	step := float64(hs.ElevationMax-hs.ElevationMin) / 65535
	for i, want := range water {
		if diff := math.Abs(float64(snap.WaterLevel[i] - want)); diff > 2*step {
			t.Fatalf("water[%d] = %g after inter frame, want %g within %g", i, snap.WaterLevel[i], want, 2*step)
		}
	}
}

func TestProtocolIsolation(t *testing.T) {
	const width, height = 9, 7
	s := newTestServer(t, width, height)

	good1 := dialClient(t, s)
	good2 := dialClient(t, s)
	go good1.Run()
	go good2.Run()

	// Third connection acks with garbage instead of the magic.
	raw, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer raw.Close()
	if err := binary.Write(raw, binary.LittleEndian, uint32(0xBADC0FFE)); err != nil {
		t.Fatalf("write bad ack: %v", err)
	}

	waitFor(t, "two good handshakes", func() bool { return s.activeClients.Load() == 2 })

	// The bad client is disconnected; its connection drains to EOF.
	waitFor(t, "bad client disconnect", func() bool {
		raw.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
		_, err := io.Copy(io.Discard, raw)
		return err == nil || strings.Contains(err.Error(), "closed")
	})

	// Both good clients still receive a full broadcast.
	s.submitUntil(t, 0, func() bool {
		_, ok1 := good1.Grids()
		_, ok2 := good2.Grids()
		return ok1 && ok2
	})

	// A mid-stream failure on one client does not affect the other.
	good1.Close()
	s.submitUntil(t, 2.0, func() bool {
		snap, ok := good2.Grids()
		return ok && snap.Frame > 1
	})
	waitFor(t, "failed client removal", func() bool { return s.activeClients.Load() == 1 })
}

func TestPositionsSnapshot(t *testing.T) {
	const width, height = 9, 7
	s := newTestServer(t, width, height)
	c := dialClient(t, s)
	go c.Run()

	waitFor(t, "handshake", func() bool { return s.activeClients.Load() == 1 })

	pos := [3]float32{1, 2, 3}
	dir := [3]float32{0, 0, -1}
	if err := c.SendPosition(pos, dir); err != nil {
		t.Fatalf("SendPosition: %v", err)
	}

	// Position snapshots refresh once per broadcast cycle.
	s.submitUntil(t, 0, func() bool {
		ps := s.Positions()
		return len(ps) == 1 && ps[0].Pos == pos && ps[0].Dir == dir
	})
}

func TestSubmitValidatesSizes(t *testing.T) {
	s := newTestServer(t, 9, 7)
	if err := s.Submit(make([]float32, 5), make([]float32, 63), make([]float32, 63)); err == nil {
		t.Error("short bathymetry accepted")
	}
	if err := s.Submit(make([]float32, 48), make([]float32, 62), make([]float32, 63)); err == nil {
		t.Error("short water level accepted")
	}
	if err := s.Submit(make([]float32, 48), make([]float32, 63), make([]float32, 64)); err == nil {
		t.Error("long snow height accepted")
	}
}

func TestWebSocketBridge(t *testing.T) {
	const width, height = 9, 7
	s := newTestServer(t, width, height)

	hts := httptest.NewServer(s.WebSocketHandler())
	defer hts.Close()

	url := "ws" + strings.TrimPrefix(hts.URL, "http")
	wsc, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := gcclient.New(&wsStream{conn: wsc}, logger)
	if err != nil {
		t.Fatalf("client over websocket: %v", err)
	}
	defer c.Close()
	go c.Run()

	waitFor(t, "handshake", func() bool { return s.activeClients.Load() == 1 })
	s.submitUntil(t, 0, func() bool {
		_, ok := c.Grids()
		return ok
	})
}
