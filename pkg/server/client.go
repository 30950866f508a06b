package server

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/gridcast-dev/gridcast/pkg/codec"
	"github.com/gridcast-dev/gridcast/pkg/protocol"
)

// triplet is one broadcast frame in quantized form.
type triplet struct {
	bathymetry *codec.Grid
	waterLevel *codec.Grid
	snowHeight *codec.Grid
}

func newTriplet(w, h uint32) *triplet {
	return &triplet{
		bathymetry: codec.NewGrid(int(w-1), int(h-1)),
		waterLevel: codec.NewGrid(int(w), int(h)),
		snowHeight: codec.NewGrid(int(w), int(h)),
	}
}

func (t *triplet) copyFrom(o *triplet) {
	copy(t.bathymetry.Pix, o.bathymetry.Pix)
	copy(t.waterLevel.Pix, o.waterLevel.Pix)
	copy(t.snowHeight.Pix, o.snowHeight.Pix)
}

// client is one viewer connection. All fields except the ones the
// reader goroutine uses (pr, conn for reads) are owned by the dispatch
// goroutine.
type client struct {
	id   uuid.UUID
	slot int
	conn io.ReadWriteCloser
	log  *slog.Logger

	// Write side, dispatch goroutine only.
	buf   *bufio.Writer
	count *countingWriter
	pw    *protocol.Writer

	// Read side, reader goroutine only.
	pr *protocol.Reader

	// active is set once the client's magic ack arrives. Only active
	// clients receive broadcasts.
	active bool

	// ref holds the grids most recently sent to this client. nil
	// until the first intra-coded frame goes out; afterwards every
	// frame is delta-coded against it.
	ref *triplet

	pos    protocol.PositionUpdate
	hasPos bool
}

// clientEvent flows from a reader goroutine to the dispatch loop.
type clientEvent struct {
	c     *client
	ready bool
	pos   *protocol.PositionUpdate
	err   error
}

// readLoop runs in the client's reader goroutine. It performs the ack
// read, then forwards position updates until the connection dies.
func (s *Server) readLoop(c *client) {
	if _, err := protocol.ReadAck(c.pr); err != nil {
		s.post(clientEvent{c: c, err: err})
		return
	}
	s.post(clientEvent{c: c, ready: true})
	for {
		msg, err := protocol.ReadMessage(c.pr)
		if err != nil {
			s.post(clientEvent{c: c, err: err})
			return
		}
		if !s.post(clientEvent{c: c, pos: msg}) {
			return
		}
	}
}

func (s *Server) post(ev clientEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func disconnectReason(err error) string {
	if errors.Is(err, protocol.ErrProtocolViolation) || errors.Is(err, protocol.ErrBadMagic) {
		return reasonViolation
	}
	return reasonClosed
}

func isExpectedClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}

// countingWriter tracks bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// clientSlots is index-stable storage for the client registry. Slots
// keep their index for the life of a client, so removing one client
// while iterating during a broadcast never shifts the others.
type clientSlots struct {
	slots []*client
	free  []int
	n     int
}

func (r *clientSlots) insert(c *client) int {
	r.n++
	if len(r.free) > 0 {
		slot := r.free[len(r.free)-1]
		r.free = r.free[:len(r.free)-1]
		r.slots[slot] = c
		return slot
	}
	r.slots = append(r.slots, c)
	return len(r.slots) - 1
}

func (r *clientSlots) remove(slot int) {
	r.slots[slot] = nil
	r.free = append(r.free, slot)
	r.n--
}

func (r *clientSlots) len() int { return r.n }
