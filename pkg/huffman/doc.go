// Package huffman builds minimum-redundancy prefix codes from symbol
// frequencies and provides an encoder and decoder over pkg/bitstream.
//
// The builder keeps its tree as an arena of index-linked nodes. The
// encoding table maps each symbol to a bit pattern assembled leaf-to-root
// (the bit nearest the leaf is the least significant), and the decoding
// tree is exported in prefix order so traversal stays cache-friendly.
//
// Construction is deterministic: nodes with equal frequency are merged in
// insertion order, so two processes building from the same frequency list
// produce bit-identical tables. The frame codecs rely on this to share
// fixed tables without ever transmitting them.
package huffman
