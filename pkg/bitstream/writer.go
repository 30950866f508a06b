package bitstream

import (
	"encoding/binary"
	"io"
)

// WordBits is the width of the internal bit register.
const WordBits = 32

// Writer accumulates bits into a 32-bit register and writes completed
// registers to an underlying io.Writer as big-endian words.
//
// Writer buffers at most one register; call Flush before the end of a
// logical message so no bits are left behind.
type Writer struct {
	w       io.Writer
	reg     uint32
	free    uint
	scratch [4]byte
}

// NewWriter creates a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, free: WordBits}
}

// Write appends the low numBits bits of value to the stream, most
// significant bit first. numBits must be in [1, 32].
func (bw *Writer) Write(value uint32, numBits uint) error {
	if numBits < WordBits {
		value &= (1 << numBits) - 1
	}

	switch {
	case bw.free >= numBits:
		// The bits fit into the current register.
		bw.reg = bw.reg<<numBits | value
		bw.free -= numBits

	case bw.free == 0:
		// The register is exactly full; emit it and start over.
		if err := bw.emit(bw.reg); err != nil {
			return err
		}
		bw.reg = value
		bw.free = WordBits - numBits

	default:
		// Split: the high part completes the register, the low part
		// seeds the next one.
		low := numBits - bw.free
		if err := bw.emit(bw.reg<<bw.free | value>>low); err != nil {
			return err
		}
		bw.reg = value & ((1 << low) - 1)
		bw.free = WordBits - low
	}
	return nil
}

// Flush left-justifies a partially filled register, zero-pads the low bits
// and writes the whole register out. It is a no-op on an empty register.
func (bw *Writer) Flush() error {
	if bw.free == WordBits {
		return nil
	}
	err := bw.emit(bw.reg << bw.free)
	bw.reg = 0
	bw.free = WordBits
	return err
}

func (bw *Writer) emit(word uint32) error {
	binary.BigEndian.PutUint32(bw.scratch[:], word)
	_, err := bw.w.Write(bw.scratch[:])
	return err
}
