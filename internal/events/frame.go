package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decode failure modes. Sessions map these to close codes: ErrUnknownOpcode to 4001, everything else to 4002.
var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrUnknownDispatch = errors.New("unknown dispatch name")
	ErrDeprecated      = errors.New("deprecated opcode")
)

// Frame is the gateway wire envelope. Op is always present; Seq and Type are only set on dispatch frames; Data carries
// the opaque event payload.
type Frame struct {
	Op   Opcode          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  *int64          `json:"s,omitempty"`
	Type *DispatchName   `json:"t,omitempty"`
}

// Decode parses a raw text frame into an envelope.
//
// Dispatch frames (op 0) must name a known dispatch event; the name is normalised to canonical form. Deprecated
// opcodes always fail. Every other recognised opcode decodes directly; a Type field on a non-dispatch frame is
// dropped per the envelope invariant.
func Decode(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch ClassifyOpcode(f.Op) {
	case KindUnknown:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, f.Op)
	case KindDeprecated:
		return nil, fmt.Errorf("%w: %d", ErrDeprecated, f.Op)
	case KindDispatch:
		if f.Type == nil {
			return nil, fmt.Errorf("%w: dispatch frame without event name", ErrUnknownDispatch)
		}
		name, err := ParseDispatchName(string(*f.Type))
		if err != nil {
			return nil, err
		}
		f.Type = &name
	default:
		f.Type = nil
	}

	return &f, nil
}

// Encode serialises an envelope to a wire frame.
func Encode(f *Frame) ([]byte, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return raw, nil
}

// HelloData is the payload of the Hello frame.
type HelloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

// IdentifyData is the payload of an Identify frame. The token doubles as the session key in the registry.
type IdentifyData struct {
	Token string `json:"token"`
}

// ResumeData is the payload of a Resume frame.
type ResumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

// NewHelloFrame returns a serialised Hello frame with the heartbeat interval in milliseconds.
func NewHelloFrame(heartbeatIntervalMS int) ([]byte, error) {
	data, err := json.Marshal(HelloData{HeartbeatInterval: heartbeatIntervalMS})
	if err != nil {
		return nil, fmt.Errorf("marshal hello data: %w", err)
	}
	return Encode(&Frame{Op: OpcodeHello, Data: data})
}

// NewHeartbeatACKFrame returns a serialised HeartbeatACK frame.
func NewHeartbeatACKFrame() ([]byte, error) {
	return Encode(&Frame{Op: OpcodeHeartbeatACK})
}

// NewReconnectFrame returns a serialised Reconnect frame instructing the client to reconnect.
func NewReconnectFrame() ([]byte, error) {
	return Encode(&Frame{Op: OpcodeReconnect})
}

// NewInvalidSessionFrame returns a serialised InvalidSession frame. The resumable flag tells the client whether a
// Resume attempt may still succeed.
func NewInvalidSessionFrame(resumable bool) ([]byte, error) {
	data, err := json.Marshal(resumable)
	if err != nil {
		return nil, fmt.Errorf("marshal invalid session data: %w", err)
	}
	return Encode(&Frame{Op: OpcodeInvalidSession, Data: data})
}

// NewDispatchFrame returns a dispatch envelope with the given sequence number, event name, and raw payload.
func NewDispatchFrame(seq int64, name DispatchName, data json.RawMessage) *Frame {
	return &Frame{Op: OpcodeDispatch, Seq: &seq, Type: &name, Data: data}
}
