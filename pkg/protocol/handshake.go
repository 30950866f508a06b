package protocol

import (
	"fmt"
	"io"
)

// Handshake is the first message a server sends on a fresh connection.
// It fixes the grid geometry and elevation range for the lifetime of
// the connection; there is no renegotiation.
type Handshake struct {
	// GridSize is the number of cell corners along x and y. The
	// bathymetry grid is one smaller in each dimension.
	GridSize [2]uint32

	// CellSize is the physical extent of one grid cell along x and y.
	CellSize [2]float32

	// ElevationMin and ElevationMax bound the quantization range for
	// all elevation-like grids on this connection.
	ElevationMin float32
	ElevationMax float32
}

// BathymetrySize returns the dimensions of the bathymetry grid, which
// is vertex-centered relative to the water and snow grids.
func (h *Handshake) BathymetrySize() (w, height uint32) {
	return h.GridSize[0] - 1, h.GridSize[1] - 1
}

// Encode writes the magic word followed by the handshake fields.
func (h *Handshake) Encode(pw *Writer) error {
	if err := pw.WriteUint32(Magic); err != nil {
		return fmt.Errorf("protocol: write magic: %w", err)
	}
	for i := 0; i < 2; i++ {
		if err := pw.WriteUint32(h.GridSize[i]); err != nil {
			return err
		}
		if err := pw.WriteFloat32(h.CellSize[i]); err != nil {
			return err
		}
	}
	if err := pw.WriteFloat32(h.ElevationMin); err != nil {
		return err
	}
	return pw.WriteFloat32(h.ElevationMax)
}

// Decode reads the magic word and handshake fields from pr. If the
// peer's magic arrives byte-swapped, swapping is enabled on pr before
// the remaining fields are read.
func (h *Handshake) Decode(pr *Reader) error {
	magic, err := pr.ReadUint32()
	if err != nil {
		return fmt.Errorf("protocol: read magic: %w", err)
	}
	switch magic {
	case Magic:
	case MagicSwapped:
		pr.SetSwap(true)
	default:
		return fmt.Errorf("protocol: %w: bad magic %#08x", ErrBadMagic, magic)
	}
	for i := 0; i < 2; i++ {
		if h.GridSize[i], err = pr.ReadUint32(); err != nil {
			return err
		}
		if h.CellSize[i], err = pr.ReadFloat32(); err != nil {
			return err
		}
	}
	if h.GridSize[0] < 2 || h.GridSize[1] < 2 {
		return fmt.Errorf("protocol: %w: grid size %dx%d", ErrBadHandshake, h.GridSize[0], h.GridSize[1])
	}
	if h.ElevationMin, err = pr.ReadFloat32(); err != nil {
		return err
	}
	if h.ElevationMax, err = pr.ReadFloat32(); err != nil {
		return err
	}
	if !(h.ElevationMin < h.ElevationMax) {
		return fmt.Errorf("protocol: %w: elevation range [%g, %g]", ErrBadHandshake, h.ElevationMin, h.ElevationMax)
	}
	return nil
}

// WriteAck sends the client's magic word back to the server.
func WriteAck(pw *Writer) error {
	return pw.WriteUint32(Magic)
}

// ReadAck consumes the client's acknowledgement and reports whether the
// client's byte order differs from the server's.
func ReadAck(pr *Reader) (swapped bool, err error) {
	magic, err := pr.ReadUint32()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return false, fmt.Errorf("protocol: read ack: %w", err)
	}
	switch magic {
	case Magic:
		return false, nil
	case MagicSwapped:
		pr.SetSwap(true)
		return true, nil
	default:
		return false, fmt.Errorf("protocol: %w: bad ack %#08x", ErrBadMagic, magic)
	}
}
