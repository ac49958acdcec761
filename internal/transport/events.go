package transport

import "github.com/lox/tableclient/internal/protocol"

// EventKind distinguishes transport lifecycle events from server frames
type EventKind int

const (
	EventConnected EventKind = iota
	EventConnectError
	EventDisconnected
	EventReconnected
	EventReconnectFailed
	EventMessage
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventConnectError:
		return "connect_error"
	case EventDisconnected:
		return "disconnected"
	case EventReconnected:
		return "reconnected"
	case EventReconnectFailed:
		return "reconnect_failed"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is one item on the transport's event stream
type Event struct {
	Kind     EventKind
	Attempt  int                // EventReconnected
	Err      error              // EventConnectError
	Envelope *protocol.Envelope // EventMessage
}
