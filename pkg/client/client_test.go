package client

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"net"
	"testing"

	"github.com/gridcast-dev/gridcast/pkg/protocol"
)

// TestSwappedServer simulates a server with the opposite native byte
// order: every scalar arrives byte-reversed, flagged by the swapped
// magic word.
func TestSwappedServer(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer serverEnd.Close()

	ackCh := make(chan uint32, 1)
	go func() {
		w := func(v uint32) {
			binary.Write(serverEnd, binary.BigEndian, v)
		}
		w(protocol.Magic)
		w(9) // grid width
		w(math.Float32bits(1.5))
		w(7) // grid height
		w(math.Float32bits(1.5))
		w(math.Float32bits(-20))
		w(math.Float32bits(20))

		var ack uint32
		binary.Read(serverEnd, binary.LittleEndian, &ack)
		ackCh <- ack
	}()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := New(clientEnd, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	hs := c.Handshake()
	if hs.GridSize != [2]uint32{9, 7} {
		t.Errorf("grid size = %v, want {9 7}", hs.GridSize)
	}
	if hs.ElevationMin != -20 || hs.ElevationMax != 20 {
		t.Errorf("elevation range = [%g, %g], want [-20, 20]", hs.ElevationMin, hs.ElevationMax)
	}

	// The ack goes out in the client's own byte order; this server
	// would read it as the swapped magic and enable swapping its way.
	if ack := <-ackCh; ack != protocol.Magic {
		t.Errorf("ack = %#08x, want %#08x", ack, protocol.Magic)
	}
}

func TestBadServerMagic(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer serverEnd.Close()

	go func() {
		binary.Write(serverEnd, binary.LittleEndian, uint32(0x0BADF00D))
	}()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := New(clientEnd, logger); err == nil {
		t.Fatal("handshake with bad magic accepted")
	}
}
