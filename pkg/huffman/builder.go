package huffman

import (
	"container/heap"
	"errors"
	"fmt"
)

// MaxCodeBits is the widest supported code, bounded by the bitstream
// register width.
const MaxCodeBits = 32

// Common builder errors.
var (
	ErrNoLeaves    = errors.New("huffman: builder has no leaves")
	ErrCodeTooLong = errors.New("huffman: code exceeds maximum width")
)

// Code is the prefix code assigned to one symbol.
type Code struct {
	Bits uint32 // code pattern, path bit nearest the leaf in the LSB
	Len  uint8  // number of valid bits, 0..32
}

// Node is one entry of a prefix-ordered decoding tree. A leaf carries the
// decoded symbol; an interior node carries the indices of its two children
// within the same slice and has Symbol == -1.
type Node struct {
	Symbol int32
	Child  [2]int32
}

// noParent marks a node that has not been merged under a parent yet.
const noParent = 2

type builderNode struct {
	parent      int
	parentChild uint8 // 0 or 1; noParent while unmerged
	child       [2]int
	freq        uint64
}

// Builder accumulates (symbol, frequency) leaves and constructs the code
// tree. Symbols are identified by the order leaves were added.
type Builder struct {
	nodes     []builderNode
	numLeaves int
	built     bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddLeaf registers a symbol with the given frequency and returns the
// symbol's index. Must be called before Build.
func (b *Builder) AddLeaf(freq uint64) int {
	sym := b.numLeaves
	b.nodes = append(b.nodes, builderNode{parentChild: noParent, freq: freq})
	b.numLeaves++
	return sym
}

// NumLeaves returns the number of registered symbols.
func (b *Builder) NumLeaves() int {
	return b.numLeaves
}

// mergeItem orders the priority queue by frequency with ties broken by
// insertion sequence, which keeps construction deterministic.
type mergeItem struct {
	index int
	freq  uint64
	seq   int
}

type mergeQueue []mergeItem

func (q mergeQueue) Len() int { return len(q) }
func (q mergeQueue) Less(i, j int) bool {
	if q[i].freq != q[j].freq {
		return q[i].freq < q[j].freq
	}
	return q[i].seq < q[j].seq
}
func (q mergeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *mergeQueue) Push(x any)   { *q = append(*q, x.(mergeItem)) }
func (q *mergeQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// Build merges the registered leaves into a code tree. It repeatedly
// extracts the two lowest-frequency nodes and joins them under a fresh
// interior node; the first-extracted (lower) of the pair becomes child 1,
// the second child 0.
func (b *Builder) Build() error {
	if b.numLeaves == 0 {
		return ErrNoLeaves
	}
	if b.built {
		return nil
	}

	q := make(mergeQueue, 0, b.numLeaves)
	seq := 0
	for i := 0; i < b.numLeaves; i++ {
		q = append(q, mergeItem{index: i, freq: b.nodes[i].freq, seq: seq})
		seq++
	}
	heap.Init(&q)

	for q.Len() >= 2 {
		lo := heap.Pop(&q).(mergeItem) // less frequent of the pair
		hi := heap.Pop(&q).(mergeItem)

		parent := len(b.nodes)
		b.nodes[hi.index].parent = parent
		b.nodes[hi.index].parentChild = 0
		b.nodes[lo.index].parent = parent
		b.nodes[lo.index].parentChild = 1

		b.nodes = append(b.nodes, builderNode{
			parentChild: noParent,
			child:       [2]int{hi.index, lo.index},
			freq:        hi.freq + lo.freq,
		})
		heap.Push(&q, mergeItem{index: parent, freq: hi.freq + lo.freq, seq: seq})
		seq++
	}

	b.built = true
	return nil
}

// EncodingTable exports one Code per symbol by walking each leaf up to the
// root, accumulating the path bits LSB-first. Returns ErrCodeTooLong if any
// code would not fit the bitstream register.
func (b *Builder) EncodingTable() ([]Code, error) {
	if !b.built {
		if err := b.Build(); err != nil {
			return nil, err
		}
	}

	table := make([]Code, b.numLeaves)
	for sym := 0; sym < b.numLeaves; sym++ {
		var c Code
		mask := uint32(1)
		for idx := sym; b.nodes[idx].parentChild != noParent; idx = b.nodes[idx].parent {
			if b.nodes[idx].parentChild != 0 {
				c.Bits |= mask
			}
			c.Len++
			mask <<= 1

			if c.Len > MaxCodeBits {
				return nil, fmt.Errorf("%w: symbol %d needs more than %d bits", ErrCodeTooLong, sym, MaxCodeBits)
			}
		}
		table[sym] = c
	}
	return table, nil
}

// DecodingTree re-linearizes the tree into prefix (root-first) order.
// The result has exactly 2N-1 nodes for N leaves; the root is index 0.
func (b *Builder) DecodingTree() ([]Node, error) {
	if !b.built {
		if err := b.Build(); err != nil {
			return nil, err
		}
	}

	tree := make([]Node, 0, len(b.nodes))
	b.orderTree(len(b.nodes)-1, &tree)
	return tree, nil
}

func (b *Builder) orderTree(idx int, tree *[]Node) {
	if idx < b.numLeaves {
		*tree = append(*tree, Node{Symbol: int32(idx)})
		return
	}

	self := len(*tree)
	*tree = append(*tree, Node{Symbol: -1})
	for i := 0; i < 2; i++ {
		(*tree)[self].Child[i] = int32(len(*tree))
		b.orderTree(b.nodes[idx].child[i], tree)
	}
}
