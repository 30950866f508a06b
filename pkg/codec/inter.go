package codec

import (
	"io"

	"github.com/gridcast-dev/gridcast/pkg/bitstream"
	"github.com/gridcast-dev/gridcast/pkg/huffman"
)

// maxZeroRun caps how many consecutive zero deltas collapse into a single
// run-length symbol.
const maxZeroRun = 512

// InterEncoder compresses a grid as a per-pixel delta against a reference
// grid of identical dimensions. Deltas are scanned in plain row-major
// order; runs of zero deltas become single run-length symbols.
type InterEncoder struct {
	enc     *huffman.Encoder
	zeroRun int
}

// NewInterEncoder creates an inter-frame encoder writing to w.
func NewInterEncoder(w io.Writer) *InterEncoder {
	return &InterEncoder{enc: huffman.NewEncoder(bitstream.NewWriter(w), interTable)}
}

func (e *InterEncoder) finishZeroRun() error {
	err := e.enc.Encode(outOfRange + e.zeroRun)
	e.zeroRun = 0
	return err
}

// EncodeDelta compresses cur against ref. The trailing zero run, if any,
// is flushed before the bit stream is.
func (e *InterEncoder) EncodeDelta(ref, cur *Grid) error {
	for i := range cur.Pix {
		delta := cur.Pix[i] - ref.Pix[i]

		if delta == 0 {
			e.zeroRun++
			if e.zeroRun == maxZeroRun {
				if err := e.finishZeroRun(); err != nil {
					return err
				}
			}
			continue
		}

		if e.zeroRun > 0 {
			if err := e.finishZeroRun(); err != nil {
				return err
			}
		}

		switch {
		case delta >= 65536-codeMax: // negative in-range delta
			if err := e.enc.Encode(int(delta) - (65536 - codeMax)); err != nil {
				return err
			}
		case delta <= codeMax: // positive in-range delta
			if err := e.enc.Encode(int(delta) + codeMax); err != nil {
				return err
			}
		default:
			if err := e.enc.Encode(outOfRange); err != nil {
				return err
			}
			if err := e.enc.WriteBits(uint32(delta), PixelBits); err != nil {
				return err
			}
		}
	}

	if e.zeroRun > 0 {
		if err := e.finishZeroRun(); err != nil {
			return err
		}
	}
	return e.enc.Flush()
}

// InterDecoder reconstructs a grid from a delta stream and the same
// reference the encoder used.
type InterDecoder struct {
	dec *huffman.Decoder
}

// NewInterDecoder creates an inter-frame decoder reading from r.
func NewInterDecoder(r io.Reader) *InterDecoder {
	return &InterDecoder{dec: huffman.NewDecoder(bitstream.NewReader(r), interTree)}
}

// DecodeDelta fills cur from the stream, applying decoded deltas to ref.
// A run-length symbol copies the reference pixels through unchanged.
func (d *InterDecoder) DecodeDelta(ref, cur *Grid) error {
	pos := 0
	n := len(cur.Pix)

	for pos < n {
		sym, err := d.dec.Decode()
		if err != nil {
			return err
		}

		switch {
		case sym < outOfRange:
			cur.Pix[pos] = ref.Pix[pos] + Pixel(sym-codeMax)
			pos++
		case sym == outOfRange:
			raw, err := d.dec.ReadBits(PixelBits)
			if err != nil {
				return err
			}
			cur.Pix[pos] = ref.Pix[pos] + Pixel(raw)
			pos++
		default:
			run := sym - outOfRange
			if run > n-pos {
				// Desynchronized stream; truncate rather than overrun.
				run = n - pos
			}
			copy(cur.Pix[pos:pos+run], ref.Pix[pos:pos+run])
			pos += run
		}
	}

	d.dec.Reset()
	return nil
}
