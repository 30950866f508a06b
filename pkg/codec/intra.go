package codec

import (
	"io"

	"github.com/gridcast-dev/gridcast/pkg/bitstream"
	"github.com/gridcast-dev/gridcast/pkg/huffman"
)

// Symbol-space layout shared by both frame codecs. A prediction error or
// delta e in [-codeMax, codeMax] maps to symbol e+codeMax; everything else
// escapes through the outOfRange symbol followed by the raw 16-bit value.
const (
	codeMax    = 256
	outOfRange = 2*codeMax + 1
)

// IntraEncoder compresses grids independently of any reference (keyframes).
// One encoder can compress several grids in sequence; each grid's bit
// stream is flushed to a word boundary.
type IntraEncoder struct {
	enc *huffman.Encoder
}

// NewIntraEncoder creates an intra-frame encoder writing to w.
func NewIntraEncoder(w io.Writer) *IntraEncoder {
	return &IntraEncoder{enc: huffman.NewEncoder(bitstream.NewWriter(w), intraTable)}
}

func (e *IntraEncoder) encodeError(err16 Pixel) error {
	switch {
	case err16 >= 65536-codeMax: // negative in-range error
		return e.enc.Encode(int(err16) - (65536 - codeMax))
	case err16 <= codeMax: // positive in-range error
		return e.enc.Encode(int(err16) + codeMax)
	default:
		if err := e.enc.Encode(outOfRange); err != nil {
			return err
		}
		return e.enc.WriteBits(uint32(err16), PixelBits)
	}
}

// predictPaeth picks whichever of the three neighbors is closest to
// a+b-c, ties resolved in the order a, b, c (Paeth's PNG filter).
func predictPaeth(a, b, c Pixel) Pixel {
	p := int(a) + int(b) - int(c)

	result := a
	d := abs(p - int(a))

	if db := abs(p - int(b)); d > db {
		result = b
		d = db
	}
	if dc := abs(p - int(c)); d > dc {
		result = c
	}
	return result
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// EncodeGrid compresses g. Pixels are visited in serpentine order: the
// first pixel raw, the rest of the first row predicted from the left
// neighbor, and all later rows through the three-neighbor predictor with
// the horizontal role following the scan direction.
func (e *IntraEncoder) EncodeGrid(g *Grid) error {
	w, pix := g.Width, g.Pix

	if err := e.enc.WriteBits(uint32(pix[0]), PixelBits); err != nil {
		return err
	}
	for x := 1; x < w; x++ {
		if err := e.encodeError(pix[x] - pix[x-1]); err != nil {
			return err
		}
	}

	for y := 1; y < g.Height; y++ {
		base := y * w
		if y%2 == 1 {
			// Odd rows run right to left; the rightmost pixel only has
			// its vertical neighbor.
			i := base + w - 1
			if err := e.encodeError(pix[i] - pix[i-w]); err != nil {
				return err
			}
			for x := w - 2; x >= 0; x-- {
				i = base + x
				pred := predictPaeth(pix[i+1], pix[i-w], pix[i-w+1])
				if err := e.encodeError(pix[i] - pred); err != nil {
					return err
				}
			}
		} else {
			i := base
			if err := e.encodeError(pix[i] - pix[i-w]); err != nil {
				return err
			}
			for x := 1; x < w; x++ {
				i = base + x
				pred := predictPaeth(pix[i-1], pix[i-w], pix[i-w-1])
				if err := e.encodeError(pix[i] - pred); err != nil {
					return err
				}
			}
		}
	}

	return e.enc.Flush()
}

// IntraDecoder mirrors IntraEncoder exactly: identical scan order and
// predictor, with decoded pixels feeding back as future neighbors.
type IntraDecoder struct {
	dec *huffman.Decoder
}

// NewIntraDecoder creates an intra-frame decoder reading from r.
func NewIntraDecoder(r io.Reader) *IntraDecoder {
	return &IntraDecoder{dec: huffman.NewDecoder(bitstream.NewReader(r), intraTree)}
}

func (d *IntraDecoder) decodeError() (Pixel, error) {
	sym, err := d.dec.Decode()
	if err != nil {
		return 0, err
	}
	if sym < outOfRange {
		return Pixel(sym - codeMax), nil
	}
	raw, err := d.dec.ReadBits(PixelBits)
	if err != nil {
		return 0, err
	}
	return Pixel(raw), nil
}

// DecodeGrid fills g, which carries the expected dimensions, from the
// stream.
func (d *IntraDecoder) DecodeGrid(g *Grid) error {
	w, pix := g.Width, g.Pix

	raw, err := d.dec.ReadBits(PixelBits)
	if err != nil {
		return err
	}
	pix[0] = Pixel(raw)
	for x := 1; x < w; x++ {
		e, err := d.decodeError()
		if err != nil {
			return err
		}
		pix[x] = pix[x-1] + e
	}

	for y := 1; y < g.Height; y++ {
		base := y * w
		if y%2 == 1 {
			i := base + w - 1
			e, err := d.decodeError()
			if err != nil {
				return err
			}
			pix[i] = pix[i-w] + e
			for x := w - 2; x >= 0; x-- {
				i = base + x
				e, err := d.decodeError()
				if err != nil {
					return err
				}
				pix[i] = predictPaeth(pix[i+1], pix[i-w], pix[i-w+1]) + e
			}
		} else {
			i := base
			e, err := d.decodeError()
			if err != nil {
				return err
			}
			pix[i] = pix[i-w] + e
			for x := 1; x < w; x++ {
				i = base + x
				e, err := d.decodeError()
				if err != nil {
					return err
				}
				pix[i] = predictPaeth(pix[i-1], pix[i-w], pix[i-w-1]) + e
			}
		}
	}

	d.dec.Reset()
	return nil
}
