// Package server implements the streaming side of the grid broadcast
// protocol: it accepts viewer connections, runs the per-client
// handshake, and pushes compressed grid triplets to every active
// viewer whenever the simulation publishes a new frame.
//
// All protocol state lives on a single dispatch goroutine. Per-client
// reader goroutines do the blocking reads and forward parsed messages
// over channels; the dispatch goroutine is the only one that touches
// the client registry, so broadcasting never races with connects or
// disconnects. Frames cross from the simulation into the dispatch
// goroutine through a latest.Buffer, so a slow network never blocks
// the producer.
package server
