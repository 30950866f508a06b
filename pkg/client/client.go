// Package client implements a viewer-side connection to a grid
// streaming server: it performs the handshake, decodes the broadcast
// stream, and exposes the latest decoded grids to a renderer.
package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/gridcast-dev/gridcast/pkg/codec"
	"github.com/gridcast-dev/gridcast/pkg/latest"
	"github.com/gridcast-dev/gridcast/pkg/protocol"
)

// Snapshot is one decoded frame in physical units.
type Snapshot struct {
	// Frame counts decoded frames, starting at 1.
	Frame      uint64
	Bathymetry []float32
	WaterLevel []float32
	SnowHeight []float32
}

// Client is a connection to a streaming server. Run decodes frames on
// the caller's goroutine; Grids may be polled from one other goroutine.
type Client struct {
	conn io.ReadWriteCloser
	hs   protocol.Handshake
	pr   *protocol.Reader
	deq  codec.Dequantizer
	log  *slog.Logger

	wmu sync.Mutex
	pw  *protocol.Writer

	bathymetry *codec.Grid
	waterLevel *codec.Grid
	snowHeight *codec.Grid

	snaps *latest.Buffer[Snapshot]
	frame uint64
}

// Dial connects to a server at addr and completes the handshake.
func Dial(addr string, logger *slog.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}
	c, err := New(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// New completes the handshake over an established connection: it reads
// the server's header, enabling byte swapping if the server's magic
// arrives in the opposite byte order, and sends the client's ack.
func New(conn io.ReadWriteCloser, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		conn:  conn,
		pr:    protocol.NewReader(conn),
		pw:    protocol.NewWriter(conn),
		log:   logger.With("component", "client"),
		snaps: latest.New[Snapshot](),
	}
	if err := c.hs.Decode(c.pr); err != nil {
		return nil, fmt.Errorf("client: handshake: %w", err)
	}
	if err := protocol.WriteAck(c.pw); err != nil {
		return nil, fmt.Errorf("client: ack: %w", err)
	}

	w, h := int(c.hs.GridSize[0]), int(c.hs.GridSize[1])
	c.bathymetry = codec.NewGrid(w-1, h-1)
	c.waterLevel = codec.NewGrid(w, h)
	c.snowHeight = codec.NewGrid(w, h)
	c.deq = codec.NewDequantizer(c.hs.ElevationMin, c.hs.ElevationMax)

	c.log.Info("connected",
		"grid", fmt.Sprintf("%dx%d", w, h),
		"elevation", fmt.Sprintf("[%g, %g]", c.hs.ElevationMin, c.hs.ElevationMax),
		"swapped", c.pr.Swapped())
	return c, nil
}

// Handshake returns the geometry received from the server.
func (c *Client) Handshake() protocol.Handshake {
	return c.hs
}

// Run decodes broadcast frames until the connection closes or fails.
// The first frame is intra-coded; every later frame is delta-coded
// against the grids decoded before it. Once the first frame is in, a
// closed connection ends Run with nil.
func (c *Client) Run() error {
	intra := codec.NewIntraDecoder(c.conn)
	for _, g := range []*codec.Grid{c.bathymetry, c.waterLevel, c.snowHeight} {
		if err := intra.DecodeGrid(g); err != nil {
			return fmt.Errorf("client: intra frame: %w", err)
		}
	}
	c.publish()

	inter := codec.NewInterDecoder(c.conn)
	prev := &triplet{
		bathymetry: c.bathymetry.Clone(),
		waterLevel: c.waterLevel.Clone(),
		snowHeight: c.snowHeight.Clone(),
	}
	for {
		err := c.decodeInter(inter, prev)
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return fmt.Errorf("client: inter frame: %w", err)
		}
		c.publish()
	}
}

type triplet struct {
	bathymetry, waterLevel, snowHeight *codec.Grid
}

func (c *Client) decodeInter(dec *codec.InterDecoder, prev *triplet) error {
	if err := dec.DecodeDelta(prev.bathymetry, c.bathymetry); err != nil {
		return err
	}
	if err := dec.DecodeDelta(prev.waterLevel, c.waterLevel); err != nil {
		return err
	}
	if err := dec.DecodeDelta(prev.snowHeight, c.snowHeight); err != nil {
		return err
	}
	copy(prev.bathymetry.Pix, c.bathymetry.Pix)
	copy(prev.waterLevel.Pix, c.waterLevel.Pix)
	copy(prev.snowHeight.Pix, c.snowHeight.Pix)
	return nil
}

// publish dequantizes the current grids into the next snapshot slot.
func (c *Client) publish() {
	c.frame++
	s := c.snaps.StartWrite()
	s.Frame = c.frame
	s.Bathymetry = resize(s.Bathymetry, len(c.bathymetry.Pix))
	s.WaterLevel = resize(s.WaterLevel, len(c.waterLevel.Pix))
	s.SnowHeight = resize(s.SnowHeight, len(c.snowHeight.Pix))
	c.deq.Dequantize(c.bathymetry, s.Bathymetry)
	c.deq.Dequantize(c.waterLevel, s.WaterLevel)
	c.deq.Dequantize(c.snowHeight, s.SnowHeight)
	c.snaps.Publish()
}

func resize(s []float32, n int) []float32 {
	if len(s) != n {
		return make([]float32, n)
	}
	return s
}

// Grids returns the most recently decoded frame. It reports false
// until the first frame has arrived. Intended for a single rendering
// goroutine running alongside Run.
func (c *Client) Grids() (*Snapshot, bool) {
	c.snaps.Refresh()
	s := c.snaps.Current()
	return s, s.Frame > 0
}

// SendPosition reports the viewer's position and view direction to the
// server. Safe to call concurrently with Run.
func (c *Client) SendPosition(pos, dir [3]float32) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	p := protocol.PositionUpdate{Pos: pos, Dir: dir}
	return p.Encode(c.pw)
}

// Close closes the connection, unblocking Run.
func (c *Client) Close() error {
	return c.conn.Close()
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}
