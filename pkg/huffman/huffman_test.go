package huffman

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/gridcast-dev/gridcast/pkg/bitstream"
)

func buildTables(t *testing.T, freqs []uint64) ([]Code, []Node) {
	t.Helper()
	b := NewBuilder()
	for _, f := range freqs {
		b.AddLeaf(f)
	}
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	table, err := b.EncodingTable()
	if err != nil {
		t.Fatalf("EncodingTable: %v", err)
	}
	tree, err := b.DecodingTree()
	if err != nil {
		t.Fatalf("DecodingTree: %v", err)
	}
	return table, tree
}

func TestBuildEmpty(t *testing.T) {
	b := NewBuilder()
	if err := b.Build(); err != ErrNoLeaves {
		t.Errorf("Build on empty builder: got %v, want ErrNoLeaves", err)
	}
}

func TestTreeShape(t *testing.T) {
	tests := []struct {
		name  string
		freqs []uint64
	}{
		{"two_symbols", []uint64{1, 1}},
		{"uniform", []uint64{5, 5, 5, 5}},
		{"skewed", []uint64{1000, 100, 10, 1}},
		{"with_zero_freqs", []uint64{0, 0, 7, 3, 0}},
		{"many", func() []uint64 {
			f := make([]uint64, 300)
			for i := range f {
				f[i] = uint64(i*i + 1)
			}
			return f
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, tree := buildTables(t, tc.freqs)

			if want := 2*len(tc.freqs) - 1; len(tree) != want {
				t.Fatalf("tree has %d nodes, want %d", len(tree), want)
			}

			// Every leaf must be reachable from the root, each exactly once.
			seen := make(map[int32]bool)
			var walk func(idx int32)
			walk = func(idx int32) {
				n := tree[idx]
				if n.Symbol >= 0 {
					if seen[n.Symbol] {
						t.Fatalf("symbol %d reachable twice", n.Symbol)
					}
					seen[n.Symbol] = true
					return
				}
				walk(n.Child[0])
				walk(n.Child[1])
			}
			walk(0)
			if len(seen) != len(tc.freqs) {
				t.Errorf("reached %d leaves, want %d", len(seen), len(tc.freqs))
			}
		})
	}
}

// decodeCode feeds one code's bits through the tree without a bit stream.
func decodeCode(tree []Node, c Code) int32 {
	idx := int32(0)
	for i := int(c.Len) - 1; i >= 0; i-- {
		if tree[idx].Symbol >= 0 {
			return -1 // ran out of tree before bits
		}
		bit := (c.Bits >> uint(i)) & 1
		idx = tree[idx].Child[bit]
	}
	return tree[idx].Symbol
}

func TestCodesDecodeToTheirSymbols(t *testing.T) {
	freqs := []uint64{1, 2, 4, 8, 16, 16, 8, 4, 2, 1, 0, 100}
	table, tree := buildTables(t, freqs)

	for sym, c := range table {
		if got := decodeCode(tree, c); got != int32(sym) {
			t.Errorf("code of symbol %d decodes to %d", sym, got)
		}
	}
}

func TestPrefixFreeProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := rng.Intn(500) + 2
		freqs := make([]uint64, n)
		for i := range freqs {
			freqs[i] = uint64(rng.Intn(10000))
		}
		table, _ := buildTables(t, freqs)

		// No code may be a prefix of another, reading MSB-first as the
		// decoder consumes them.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				a, b := table[i], table[j]
				if a.Len > b.Len {
					continue
				}
				if b.Bits>>(b.Len-a.Len) == a.Bits {
					t.Fatalf("trial %d: code %d (%0*b) is a prefix of code %d (%0*b)",
						trial, i, a.Len, a.Bits, j, b.Len, b.Bits)
				}
			}
		}
	}
}

func TestDeterministicConstruction(t *testing.T) {
	freqs := []uint64{3, 3, 3, 3, 1, 1, 7}

	first, _ := buildTables(t, freqs)
	second, _ := buildTables(t, freqs)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("symbol %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestOversizedCode(t *testing.T) {
	// Fibonacci-like frequencies force maximally skewed trees; enough
	// symbols push the deepest code past 32 bits.
	b := NewBuilder()
	fa, fb := uint64(1), uint64(1)
	for i := 0; i < 40; i++ {
		b.AddLeaf(fa)
		fa, fb = fb, fa+fb
	}
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := b.EncodingTable(); err == nil {
		t.Fatal("EncodingTable succeeded on pathologically skewed frequencies")
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	freqs := make([]uint64, 64)
	for i := range freqs {
		freqs[i] = uint64(1 << (uint(i) % 12))
	}
	table, tree := buildTables(t, freqs)

	rng := rand.New(rand.NewSource(99))
	symbols := make([]int, 5000)
	for i := range symbols {
		symbols[i] = rng.Intn(len(freqs))
	}

	var buf bytes.Buffer
	enc := NewEncoder(bitstream.NewWriter(&buf), table)
	for _, s := range symbols {
		if err := enc.Encode(s); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	// Interleave a raw value the way the frame codecs escape out-of-range
	// deltas.
	enc.WriteBits(0xBEEF, 16)
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dec := NewDecoder(bitstream.NewReader(&buf), tree)
	for i, want := range symbols {
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("symbol %d: got %d, want %d", i, got, want)
		}
	}
	raw, err := dec.ReadBits(16)
	if err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	if raw != 0xBEEF {
		t.Errorf("raw value: got %#x, want 0xbeef", raw)
	}
}
