package bitstream

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
		widths []uint
	}{
		{"single_bit", []uint32{1}, []uint{1}},
		{"full_word", []uint32{0xDEADBEEF}, []uint{32}},
		{"byte_sequence", []uint32{0xAB, 0xCD, 0xEF}, []uint{8, 8, 8}},
		{"register_boundary", []uint32{0xFFFF, 0xFFFF, 0x3}, []uint{16, 16, 2}},
		{"split_across_words", []uint32{0x1FFFF, 0x1FFFF, 0x1FFFF}, []uint{17, 17, 17}},
		{"mixed_widths", []uint32{1, 0, 5, 300, 70000, 1}, []uint{1, 3, 5, 9, 20, 1}},
		{"max_values", []uint32{0x7FFFFFFF, 0xFFFFFFFF, 0x1}, []uint{31, 32, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			for i, v := range tc.values {
				if err := w.Write(v, tc.widths[i]); err != nil {
					t.Fatalf("Write(%#x, %d): %v", v, tc.widths[i], err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			r := NewReader(&buf)
			for i, want := range tc.values {
				got, err := r.Read(tc.widths[i])
				if err != nil {
					t.Fatalf("Read(%d): %v", tc.widths[i], err)
				}
				mask := uint32(0xFFFFFFFF)
				if tc.widths[i] < 32 {
					mask = 1<<tc.widths[i] - 1
				}
				if got != want&mask {
					t.Errorf("value %d: got %#x, want %#x", i, got, want&mask)
				}
			}
		})
	}
}

func TestRandomWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var values []uint32
	var widths []uint
	for i := 0; i < 10000; i++ {
		w := uint(rng.Intn(32)) + 1
		v := rng.Uint32()
		if w < 32 {
			v &= 1<<w - 1
		}
		values = append(values, v)
		widths = append(widths, w)
	}

	var buf bytes.Buffer
	bw := NewWriter(&buf)
	for i := range values {
		if err := bw.Write(values[i], widths[i]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	br := NewReader(&buf)
	for i := range values {
		got, err := br.Read(widths[i])
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if got != values[i] {
			t.Fatalf("value %d (width %d): got %#x, want %#x", i, widths[i], got, values[i])
		}
	}
}

func TestMidStreamFlush(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	// First message, flushed independently.
	w.Write(0x5, 3)
	w.Write(0x1234, 13)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Second message continues on a fresh register.
	w.Write(0xCAFE, 16)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(&buf)
	if got, _ := r.Read(3); got != 0x5 {
		t.Errorf("first value: got %#x, want 0x5", got)
	}
	if got, _ := r.Read(13); got != 0x1234 {
		t.Errorf("second value: got %#x, want 0x1234", got)
	}

	// Resynchronize on the flush boundary.
	r.Reset()
	if got, _ := r.Read(16); got != 0xCAFE {
		t.Errorf("post-flush value: got %#x, want 0xCAFE", got)
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("flush of empty writer emitted %d bytes", buf.Len())
	}

	// Flushing twice after a write emits exactly one word.
	w.Write(1, 1)
	w.Flush()
	w.Flush()
	if buf.Len() != 4 {
		t.Errorf("got %d bytes, want 4", buf.Len())
	}
}

func TestMSBFirstLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write(1, 1)
	w.Flush()

	// A single 1-bit lands in the most significant bit of the first byte.
	want := []byte{0x80, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("wire layout: got % x, want % x", buf.Bytes(), want)
	}
}

func TestReadBitMatchesRead(t *testing.T) {
	payload := []uint32{0xA5A5A5A5, 0x0F0F0F0F}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, v := range payload {
		w.Write(v, 32)
	}
	w.Flush()

	r := NewReader(&buf)
	for _, v := range payload {
		for i := 31; i >= 0; i-- {
			bit, err := r.ReadBit()
			if err != nil {
				t.Fatalf("ReadBit: %v", err)
			}
			if want := (v >> uint(i)) & 1; bit != want {
				t.Fatalf("bit %d of %#x: got %d, want %d", i, v, bit, want)
			}
		}
	}
}

func TestReaderShortStream(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xFF, 0x00}))
	if _, err := r.Read(8); err != io.ErrUnexpectedEOF {
		t.Errorf("short stream: got %v, want io.ErrUnexpectedEOF", err)
	}
}
