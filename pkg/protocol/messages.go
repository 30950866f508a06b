package protocol

import (
	"errors"
	"fmt"
)

// Message tokens sent from client to server. Each client message starts
// with a 16-bit token followed by a fixed payload for that token.
const (
	// MsgPosition carries the viewer's head position and view direction.
	MsgPosition uint16 = 0
)

var (
	// ErrBadMagic is returned when a peer's magic word matches neither
	// byte order of the protocol magic.
	ErrBadMagic = errors.New("unrecognized magic")

	// ErrBadHandshake is returned when handshake fields are out of range.
	ErrBadHandshake = errors.New("invalid handshake")

	// ErrProtocolViolation is returned when a client sends an unknown
	// message token. The connection cannot be resynchronized afterwards
	// and must be closed.
	ErrProtocolViolation = errors.New("protocol violation")
)

// PositionUpdate is the payload of a MsgPosition message.
type PositionUpdate struct {
	Pos [3]float32 // viewer position, server coordinates
	Dir [3]float32 // view direction, not necessarily normalized
}

// Encode writes the message token and payload.
func (p *PositionUpdate) Encode(pw *Writer) error {
	if err := pw.WriteUint16(MsgPosition); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := pw.WriteFloat32(p.Pos[i]); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ {
		if err := pw.WriteFloat32(p.Dir[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadMessage reads the next client message. Only MsgPosition is
// defined; any other token is a protocol violation because the payload
// length of an unknown token cannot be known.
func ReadMessage(pr *Reader) (*PositionUpdate, error) {
	token, err := pr.ReadUint16()
	if err != nil {
		return nil, err
	}
	if token != MsgPosition {
		return nil, fmt.Errorf("protocol: %w: token %d", ErrProtocolViolation, token)
	}
	var p PositionUpdate
	for i := 0; i < 3; i++ {
		if p.Pos[i], err = pr.ReadFloat32(); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 3; i++ {
		if p.Dir[i], err = pr.ReadFloat32(); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
