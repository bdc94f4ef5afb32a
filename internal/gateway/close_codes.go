package gateway

import "errors"

// Custom WebSocket close codes used by the gateway protocol. Standard codes (1000, 1001) are defined by RFC 6455; the
// 4000 range is reserved for application use.
const (
	CloseUnknownError         = 4000
	CloseUnknownOpcode        = 4001
	CloseDecodeError          = 4002
	CloseNotAuthenticated     = 4003
	CloseAuthFailed           = 4004
	CloseAlreadyAuthenticated = 4005
	CloseInvalidSequence      = 4007
	CloseSessionTimedOut      = 4009
)

// ErrUnknownDispatchName is returned when a producer publishes an event name outside the closed enumeration.
var ErrUnknownDispatchName = errors.New("bulk publish names an unknown dispatch event")
