// Package codec implements the lossless grid compression used by the
// streaming protocol: an intra-frame codec that encodes a grid on its own
// using spatial prediction, and an inter-frame codec that encodes a grid
// as a delta against a reference using zero-run coding.
//
// Samples are unsigned 16-bit pixels; all pixel arithmetic wraps modulo
// 65536 and is exactly invertible. Prediction errors and deltas in
// [-256, 256] map to direct prefix-code symbols; anything outside escapes
// to a raw 16-bit value. Both codecs share fixed code tables built at
// startup from embedded training frequencies, so the two ends of a
// connection never negotiate them.
package codec
