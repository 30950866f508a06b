package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridcast-dev/gridcast/pkg/codec"
	"github.com/gridcast-dev/gridcast/pkg/latest"
	"github.com/gridcast-dev/gridcast/pkg/protocol"
)

// Frame is one simulation output: bathymetry on cell centers, water
// level and snow height on cell corners, all in physical units.
type Frame struct {
	Bathymetry []float32
	WaterLevel []float32
	SnowHeight []float32
}

// ViewerPosition is the last known head position and view direction of
// one active client.
type ViewerPosition struct {
	ID  uuid.UUID
	Pos [3]float32
	Dir [3]float32
}

// Server broadcasts compressed grid triplets to connected viewers.
type Server struct {
	config    *Config
	handshake protocol.Handshake
	quant     codec.Quantizer

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	conns  chan io.ReadWriteCloser
	events chan clientEvent
	wake   chan struct{}

	frames    *latest.Buffer[Frame]
	positions *latest.Buffer[[]ViewerPosition]

	clients clientSlots
	cur     *triplet

	metrics *metrics
	tracer  trace.Tracer
	log     *slog.Logger

	// Read outside the dispatch goroutine by the admin endpoint.
	activeClients atomic.Int64
	cycles        atomic.Uint64
	started       time.Time
}

// New creates a Server from config. The config's elevation range is
// widened by the quantization safety margin; the widened range is what
// clients receive in the handshake.
func New(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.fillDefaults()

	elevMin, elevMax := codec.WidenRange(config.ElevationMin, config.ElevationMax)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config: config,
		handshake: protocol.Handshake{
			GridSize:     [2]uint32{config.GridWidth, config.GridHeight},
			CellSize:     config.CellSize,
			ElevationMin: elevMin,
			ElevationMax: elevMax,
		},
		quant:     codec.NewQuantizer(elevMin, elevMax),
		ctx:       ctx,
		cancel:    cancel,
		conns:     make(chan io.ReadWriteCloser),
		events:    make(chan clientEvent),
		wake:      make(chan struct{}, 1),
		frames:    latest.New[Frame](),
		positions: latest.New[[]ViewerPosition](),
		cur:       newTriplet(config.GridWidth, config.GridHeight),
		metrics:   newMetrics(config.Registry),
		tracer:    config.TracerProvider.Tracer("github.com/gridcast-dev/gridcast/pkg/server"),
		log:       config.Logger.With("component", "server"),
	}
	return s, nil
}

// Start begins listening on the configured address and starts the
// dispatch loop.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = l
	s.started = time.Now()
	s.log.Info("listening", "addr", l.Addr().String(),
		"grid", fmt.Sprintf("%dx%d", s.config.GridWidth, s.config.GridHeight))

	s.wg.Add(2)
	go s.acceptLoop()
	go s.run()
	return nil
}

// Addr returns the listener address, useful when Address was ":0".
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the dispatch loop, closes the listener and all client
// connections, and waits for the server goroutines to exit.
func (s *Server) Close() error {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Submit publishes a new frame for broadcast. The slices are copied;
// the caller may reuse them immediately. If the network side is still
// busy with an earlier frame, intermediate frames are dropped and only
// the newest is sent.
func (s *Server) Submit(bathymetry, waterLevel, snowHeight []float32) error {
	w, h := int(s.config.GridWidth), int(s.config.GridHeight)
	if len(bathymetry) != (w-1)*(h-1) {
		return fmt.Errorf("server: bathymetry has %d samples, want %d", len(bathymetry), (w-1)*(h-1))
	}
	if len(waterLevel) != w*h {
		return fmt.Errorf("server: water level has %d samples, want %d", len(waterLevel), w*h)
	}
	if len(snowHeight) != w*h {
		return fmt.Errorf("server: snow height has %d samples, want %d", len(snowHeight), w*h)
	}

	f := s.frames.StartWrite()
	f.Bathymetry = append(f.Bathymetry[:0], bathymetry...)
	f.WaterLevel = append(f.WaterLevel[:0], waterLevel...)
	f.SnowHeight = append(f.SnowHeight[:0], snowHeight...)
	s.frames.Publish()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Positions returns a snapshot of the latest known viewer positions,
// refreshed once per broadcast cycle. Intended for a single rendering
// goroutine.
func (s *Server) Positions() []ViewerPosition {
	s.positions.Refresh()
	cur := *s.positions.Current()
	out := make([]ViewerPosition, len(cur))
	copy(out, cur)
	return out
}

// HandleConn hands an established connection to the server, as if it
// had arrived on the listener. Used by the WebSocket bridge and by
// tests running over pipes.
func (s *Server) HandleConn(conn io.ReadWriteCloser) {
	select {
	case s.conns <- conn:
	case <-s.ctx.Done():
		conn.Close()
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
			default:
				s.log.Error("accept failed", "err", err)
			}
			return
		}
		s.HandleConn(conn)
	}
}

// run is the dispatch loop. It is the only goroutine that touches the
// client registry and per-client protocol state.
func (s *Server) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.shutdownClients()
			return
		case conn := <-s.conns:
			s.admit(conn)
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-s.wake:
			if s.frames.Refresh() {
				s.broadcast(s.frames.Current())
			}
		}
	}
}

// admit registers a new connection and pushes the handshake header.
// The client does not receive broadcasts until its ack arrives.
func (s *Server) admit(conn io.ReadWriteCloser) {
	count := &countingWriter{w: conn}
	buf := bufio.NewWriter(count)
	c := &client{
		id:    uuid.New(),
		conn:  conn,
		count: count,
		buf:   buf,
		pw:    protocol.NewWriter(buf),
		pr:    protocol.NewReader(conn),
	}
	c.log = s.log.With("client", c.id.String())

	err := s.handshake.Encode(c.pw)
	if err == nil {
		err = buf.Flush()
	}
	if err != nil {
		c.log.Warn("handshake send failed", "err", err)
		conn.Close()
		s.metrics.disconnectsTotal.WithLabelValues(reasonHandshake).Inc()
		return
	}

	c.slot = s.clients.insert(c)
	s.metrics.clientsTotal.Inc()
	c.log.Info("connected", "clients", s.clients.len())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.readLoop(c)
	}()
}

func (s *Server) handleEvent(ev clientEvent) {
	c := ev.c
	if s.clients.slots[c.slot] != c {
		// Already removed; late event from the reader goroutine.
		return
	}
	switch {
	case ev.err != nil:
		if disconnectReason(ev.err) == reasonViolation {
			c.log.Warn("protocol violation", "err", ev.err)
		} else if !isExpectedClose(ev.err) {
			c.log.Warn("read failed", "err", ev.err)
		}
		s.drop(c, disconnectReason(ev.err))
	case ev.ready:
		c.active = true
		if c.pr.Swapped() {
			c.log.Info("client ready", "byteorder", "swapped")
		} else {
			c.log.Info("client ready")
		}
		s.activeClients.Add(1)
		s.metrics.clientsActive.Inc()
	case ev.pos != nil:
		c.pos = *ev.pos
		c.hasPos = true
		s.metrics.positionsReceived.Inc()
	}
}

// drop removes a client from the registry and closes its connection.
func (s *Server) drop(c *client, reason string) {
	c.conn.Close()
	s.clients.remove(c.slot)
	if c.active {
		s.activeClients.Add(-1)
		s.metrics.clientsActive.Dec()
	}
	s.metrics.disconnectsTotal.WithLabelValues(reason).Inc()
	c.log.Info("disconnected", "reason", reason, "clients", s.clients.len())
}

func (s *Server) shutdownClients() {
	for _, c := range s.clients.slots {
		if c != nil {
			s.drop(c, reasonShutdown)
		}
	}
}

// broadcast quantizes one frame and sends it to every active client.
// A send failure disconnects only the failing client.
func (s *Server) broadcast(f *Frame) {
	start := time.Now()
	_, span := s.tracer.Start(s.ctx, "broadcast")
	defer span.End()

	s.quant.Quantize(f.Bathymetry, s.cur.bathymetry)
	s.quant.Quantize(f.WaterLevel, s.cur.waterLevel)
	s.quant.Quantize(f.SnowHeight, s.cur.snowHeight)

	sent := 0
	for _, c := range s.clients.slots {
		if c == nil || !c.active {
			continue
		}
		if err := s.sendTriplet(c); err != nil {
			c.log.Warn("send failed", "err", err)
			s.drop(c, reasonSend)
			continue
		}
		sent++
	}

	s.snapshotPositions()
	s.cycles.Add(1)
	s.metrics.cyclesTotal.Inc()
	s.metrics.cycleDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("clients", sent),
		attribute.Int64("cycle", int64(s.cycles.Load())),
	)
}

// sendTriplet writes one frame to one client: intra-coded if this is
// the client's first frame, delta-coded against the previously sent
// grids otherwise.
func (s *Server) sendTriplet(c *client) error {
	if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok && s.config.WriteTimeout > 0 {
		d.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		defer d.SetWriteDeadline(time.Time{})
	}

	before := c.count.n
	kind := "inter"
	var err error
	if c.ref == nil {
		kind = "intra"
		enc := codec.NewIntraEncoder(c.buf)
		for _, g := range []*codec.Grid{s.cur.bathymetry, s.cur.waterLevel, s.cur.snowHeight} {
			if err = enc.EncodeGrid(g); err != nil {
				return err
			}
		}
		c.ref = newTriplet(s.config.GridWidth, s.config.GridHeight)
	} else {
		enc := codec.NewInterEncoder(c.buf)
		if err = enc.EncodeDelta(c.ref.bathymetry, s.cur.bathymetry); err != nil {
			return err
		}
		if err = enc.EncodeDelta(c.ref.waterLevel, s.cur.waterLevel); err != nil {
			return err
		}
		if err = enc.EncodeDelta(c.ref.snowHeight, s.cur.snowHeight); err != nil {
			return err
		}
	}
	if err = c.buf.Flush(); err != nil {
		return err
	}
	c.ref.copyFrom(s.cur)
	s.metrics.broadcastBytes.WithLabelValues(kind).Add(float64(c.count.n - before))
	return nil
}

// snapshotPositions publishes the positions of all active clients for
// the rendering side.
func (s *Server) snapshotPositions() {
	out := s.positions.StartWrite()
	*out = (*out)[:0]
	for _, c := range s.clients.slots {
		if c == nil || !c.active || !c.hasPos {
			continue
		}
		*out = append(*out, ViewerPosition{ID: c.id, Pos: c.pos.Pos, Dir: c.pos.Dir})
	}
	s.positions.Publish()
}
