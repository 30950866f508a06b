// Package bitstream provides buffered bit-level reading and writing over
// byte-oriented transports.
//
// Bits are packed into 32-bit registers, most significant bit first, and
// registers are emitted to the underlying transport as big-endian words.
// There is no framing at this layer: readers and writers must agree exactly
// on the sequence and widths of the values they exchange. The frame codecs
// in pkg/codec are the intended callers.
package bitstream
