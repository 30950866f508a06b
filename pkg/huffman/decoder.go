package huffman

import "github.com/gridcast-dev/gridcast/pkg/bitstream"

// Decoder reads prefix-coded symbols from a bit stream by walking a fixed
// decoding tree.
//
// Decoding never fails on a well-formed tree; a bit stream that does not
// match the encoder's sequence of writes simply yields wrong symbols.
type Decoder struct {
	br   *bitstream.Reader
	tree []Node
}

// NewDecoder creates a Decoder over br using the given tree.
func NewDecoder(br *bitstream.Reader, tree []Node) *Decoder {
	return &Decoder{br: br, tree: tree}
}

// Decode reads bits until it reaches a leaf and returns the leaf's symbol.
func (d *Decoder) Decode() (int, error) {
	idx := int32(0)
	for d.tree[idx].Symbol < 0 {
		bit, err := d.br.ReadBit()
		if err != nil {
			return 0, err
		}
		idx = d.tree[idx].Child[bit]
	}
	return int(d.tree[idx].Symbol), nil
}

// ReadBits reads numBits raw bits, bypassing the entropy coder.
func (d *Decoder) ReadBits(numBits uint) (uint32, error) {
	return d.br.Read(numBits)
}

// Reset discards buffered bits in the underlying stream so decoding can
// resume on a flush boundary.
func (d *Decoder) Reset() {
	d.br.Reset()
}
