package protocol

import (
	"encoding/binary"
	"io"
	"math"
)

// Magic identifies the protocol. It is chosen so its byte-swapped form is
// unambiguous: a peer that reads MagicSwapped knows every scalar it
// receives needs swapping.
const (
	Magic        uint32 = 0x12345678
	MagicSwapped uint32 = 0x78563412
)

// Writer writes wire scalars in the server's byte order.
type Writer struct {
	w   io.Writer
	buf [4]byte
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteUint16 writes a 16-bit scalar.
func (pw *Writer) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(pw.buf[:2], v)
	_, err := pw.w.Write(pw.buf[:2])
	return err
}

// WriteUint32 writes a 32-bit scalar.
func (pw *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(pw.buf[:4], v)
	_, err := pw.w.Write(pw.buf[:4])
	return err
}

// WriteFloat32 writes an IEEE 754 float.
func (pw *Writer) WriteFloat32(v float32) error {
	return pw.WriteUint32(math.Float32bits(v))
}

// Reader reads wire scalars, optionally byte-swapping every value for
// peers that acked with the swapped magic.
type Reader struct {
	r    io.Reader
	swap bool
	buf  [4]byte
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// SetSwap enables or disables byte swapping on all subsequent reads.
func (pr *Reader) SetSwap(swap bool) {
	pr.swap = swap
}

// Swapped reports whether byte swapping is enabled.
func (pr *Reader) Swapped() bool {
	return pr.swap
}

// ReadUint16 reads a 16-bit scalar.
func (pr *Reader) ReadUint16() (uint16, error) {
	if _, err := io.ReadFull(pr.r, pr.buf[:2]); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(pr.buf[:2])
	if pr.swap {
		v = v<<8 | v>>8
	}
	return v, nil
}

// ReadUint32 reads a 32-bit scalar.
func (pr *Reader) ReadUint32() (uint32, error) {
	if _, err := io.ReadFull(pr.r, pr.buf[:4]); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(pr.buf[:4])
	if pr.swap {
		v = swap32(v)
	}
	return v, nil
}

// ReadFloat32 reads an IEEE 754 float.
func (pr *Reader) ReadFloat32() (float32, error) {
	v, err := pr.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func swap32(v uint32) uint32 {
	return v<<24 | v>>24 | (v&0x0000FF00)<<8 | (v&0x00FF0000)>>8
}
