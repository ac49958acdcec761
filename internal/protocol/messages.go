package protocol

import (
	"encoding/json"
	"errors"
)

// EventType identifies an event on the table connection
type EventType string

const (
	// Client -> Server
	EventJoinGame     EventType = "join_game"
	EventStartGame    EventType = "start_game"
	EventPlayerAction EventType = "player_action"

	// Server -> Client
	EventGameState   EventType = "game_state"
	EventLobbyUpdate EventType = "lobby_update"
	EventGameStarted EventType = "game_started"
	EventYourTurn    EventType = "your_turn"
	EventNotYourTurn EventType = "not_your_turn"
	EventGameMessage EventType = "game_message"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

var (
	ErrInvalidCard     = errors.New("invalid card")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrUnknownEvent    = errors.New("unknown event")
)

// ActionKind is an in-turn player action
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCall  ActionKind = "call"
	ActionRaise ActionKind = "raise"
)

// ParseActionKind maps user input (full word or first letter) to an action kind
func ParseActionKind(s string) (ActionKind, bool) {
	switch s {
	case "f", "fold":
		return ActionFold, true
	case "c", "call":
		return ActionCall, true
	case "r", "raise":
		return ActionRaise, true
	default:
		return "", false
	}
}

// Client -> Server Messages

// JoinGame is sent after login and again after every reconnect
type JoinGame struct {
	Name string `json:"name"`
}

// PlayerAction is sent when the local player acts in turn
type PlayerAction struct {
	Action ActionKind `json:"action"`
	Amount int        `json:"amount,omitempty"` // Only for raise
}

// MarshalJSON always writes amount for a raise, even when it is zero, and
// never for fold or call
func (a PlayerAction) MarshalJSON() ([]byte, error) {
	if a.Action == ActionRaise {
		return json.Marshal(struct {
			Action ActionKind `json:"action"`
			Amount int        `json:"amount"`
		}{a.Action, a.Amount})
	}
	return json.Marshal(struct {
		Action ActionKind `json:"action"`
	}{a.Action})
}

// Server -> Client Messages

// PlayerView is a seat as seen by this client
type PlayerView struct {
	Name      string `json:"name"`
	Chips     int    `json:"chips"`
	Bet       int    `json:"bet"`
	Hand      []Card `json:"hand"`
	IsCurrent bool   `json:"is_current"`
	Ready     bool   `json:"ready,omitempty"`
}

// GameSnapshot is the full authoritative table state
type GameSnapshot struct {
	Pot            int          `json:"pot"`
	CommunityCards []Card       `json:"community_cards"`
	Players        []PlayerView `json:"players"`
	DealerPosition int          `json:"dealer_position"`
	MinimumBet     int          `json:"minimum_bet"`
}

// LobbyPlayer is an entry in a lobby_update
type LobbyPlayer struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// MaxCommunityCards is the size of a full board (flop, turn, river)
const MaxCommunityCards = 5

// CurrentPlayer returns the index of the one player flagged is_current. It
// returns -1 when no player is flagged or when more than one is.
func (s *GameSnapshot) CurrentPlayer() int {
	current := -1
	for i, p := range s.Players {
		if !p.IsCurrent {
			continue
		}
		if current >= 0 {
			return -1
		}
		current = i
	}
	return current
}

// HasStarted reports whether a hand is visibly in progress: any community
// card is out or any player holds cards.
func (s *GameSnapshot) HasStarted() bool {
	if len(s.CommunityCards) > 0 {
		return true
	}
	for _, p := range s.Players {
		if len(p.Hand) > 0 {
			return true
		}
	}
	return false
}

// Validate rejects snapshots that cannot be rendered
func (s *GameSnapshot) Validate() error {
	if len(s.CommunityCards) > MaxCommunityCards {
		return errors.Join(ErrInvalidSnapshot, errors.New("too many community cards"))
	}
	for _, c := range s.CommunityCards {
		if err := c.Validate(); err != nil {
			return errors.Join(ErrInvalidSnapshot, err)
		}
	}
	for _, p := range s.Players {
		for _, c := range p.Hand {
			if err := c.Validate(); err != nil {
				return errors.Join(ErrInvalidSnapshot, err)
			}
		}
	}
	return nil
}
