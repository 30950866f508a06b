// Package protocol defines the wire protocol between a grid streaming
// server and its viewers.
//
// The connection is a plain byte stream. On accept, the server pushes a
// one-time header: a magic word, the grid dimensions and cell sizes for
// both axes, and the elevation range. The client answers with the magic as
// it read it; if the client's answer arrives byte-swapped, the server
// swaps all further reads from that client. After the handshake the client
// sends token-framed messages (currently only position updates), while the
// server streams compressed grid triplets encoded by pkg/codec.
//
// Multi-byte scalars travel in the server's byte order, little-endian.
// Compressed frame payloads are not scalar data; they are bit streams with
// a fixed layout (see pkg/bitstream) and are unaffected by the swap.
//
// There is no length framing for compressed frames and no renegotiation:
// grid dimensions are fixed for the life of a connection, and the receiver
// must decode exactly the pixel count implied by the header.
package protocol
