package huffman

import "github.com/gridcast-dev/gridcast/pkg/bitstream"

// Encoder writes prefix-coded symbols to a bit stream using a fixed
// encoding table.
type Encoder struct {
	bw    *bitstream.Writer
	table []Code
}

// NewEncoder creates an Encoder over bw using the given table.
func NewEncoder(bw *bitstream.Writer, table []Code) *Encoder {
	return &Encoder{bw: bw, table: table}
}

// Encode writes the code for sym.
func (e *Encoder) Encode(sym int) error {
	c := e.table[sym]
	return e.bw.Write(c.Bits, uint(c.Len))
}

// WriteBits writes numBits raw bits, bypassing the entropy coder.
func (e *Encoder) WriteBits(bits uint32, numBits uint) error {
	return e.bw.Write(bits, numBits)
}

// Flush flushes the underlying bit stream.
func (e *Encoder) Flush() error {
	return e.bw.Flush()
}
