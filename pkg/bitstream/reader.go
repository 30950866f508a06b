package bitstream

import (
	"encoding/binary"
	"io"
)

// Reader mirrors Writer: it refills a 32-bit register from an underlying
// io.Reader exactly when the register is exhausted and hands out bits most
// significant first.
type Reader struct {
	r       io.Reader
	reg     uint32
	used    uint
	scratch [4]byte
}

// NewReader creates a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read returns the next numBits bits of the stream, right-justified in the
// result. numBits must be in [1, 32].
func (br *Reader) Read(numBits uint) (uint32, error) {
	var result uint32

	switch {
	case br.used >= numBits:
		result = br.reg
		br.reg <<= numBits
		br.used -= numBits

	case br.used == 0:
		if err := br.fill(); err != nil {
			return 0, err
		}
		result = br.reg
		br.reg <<= numBits
		br.used = WordBits - numBits

	default:
		// The request spans two transport words.
		result = br.reg
		if err := br.fill(); err != nil {
			return 0, err
		}
		result |= br.reg >> br.used
		low := numBits - br.used
		br.reg <<= low
		br.used = WordBits - low
	}

	return result >> (WordBits - numBits), nil
}

// ReadBit is a fast path for Read(1).
func (br *Reader) ReadBit() (uint32, error) {
	if br.used == 0 {
		if err := br.fill(); err != nil {
			return 0, err
		}
		br.used = WordBits
	}
	bit := br.reg >> (WordBits - 1)
	br.reg <<= 1
	br.used--
	return bit, nil
}

// Reset discards any buffered bits so the next read starts on a register
// boundary. Call it between logical messages that were flushed separately
// on the writing side.
func (br *Reader) Reset() {
	br.reg = 0
	br.used = 0
}

func (br *Reader) fill() error {
	if _, err := io.ReadFull(br.r, br.scratch[:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	br.reg = binary.BigEndian.Uint32(br.scratch[:])
	return nil
}
