package tablestate

import (
	"time"

	"github.com/lox/tableclient/internal/protocol"
)

// Connection is the client's view of the transport lifecycle
type Connection int

const (
	Connecting Connection = iota
	Connected
	Disconnected
	Failed // reconnect attempts exhausted, no automatic recovery
)

// String returns the string representation of a connection state
func (c Connection) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MessageDuration is how long a transient message stays visible
const MessageDuration = 3000 * time.Millisecond

// Message is a transient user-visible notice
type Message struct {
	Text      string
	IsError   bool
	ExpiresAt time.Time
}

// RaiseBounds is the range offered to the action-amount input. It is zero
// unless it is the local player's turn and a snapshot is held.
type RaiseBounds struct {
	Min       int
	Max       int
	Suggested int
}

// State is everything the client knows about the table. A State returned
// from Controller.State is a copy; the snapshot and lobby it references are
// never mutated after they are stored and must be treated as read-only.
type State struct {
	PlayerName    string
	IsMyTurn      bool
	IsGameStarted bool

	Snapshot        *protocol.GameSnapshot
	GameUnavailable bool

	Lobby     []protocol.LobbyPlayer
	ShowStart bool

	Raise      RaiseBounds
	Connection Connection
	Message    *Message
}

// LoggedIn reports whether a player name has been established
func (s State) LoggedIn() bool {
	return s.PlayerName != ""
}

// ShowControls reports whether the in-turn action controls are visible
func (s State) ShowControls() bool {
	return s.IsMyTurn && s.Connection == Connected
}

// ShowLobby reports whether lobby controls are visible
func (s State) ShowLobby() bool {
	return s.LoggedIn() && !s.IsGameStarted
}

// CurrentPlayer returns the snapshot's acting player, if any
func (s State) CurrentPlayer() (protocol.PlayerView, bool) {
	if s.Snapshot == nil {
		return protocol.PlayerView{}, false
	}
	idx := s.Snapshot.CurrentPlayer()
	if idx < 0 {
		return protocol.PlayerView{}, false
	}
	return s.Snapshot.Players[idx], true
}
