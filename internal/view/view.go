// Package view maps client table state to what a renderer should draw.
// Render is a pure function so every renderer (the terminal UI, the headless
// watcher, tests) sees the same decisions about what is visible.
package view

import (
	"fmt"
	"strings"

	"github.com/lox/tableclient/internal/protocol"
	"github.com/lox/tableclient/internal/tablestate"
)

// Slot names for the five community cards, in deal order
var SlotNames = [protocol.MaxCommunityCards]string{"flop1", "flop2", "flop3", "turn", "river"}

// CardSlot is one community card position; Empty slots are drawn blank
type CardSlot struct {
	Name  string
	Card  protocol.Card
	Empty bool
}

// Seat is a player as drawn around the table
type Seat struct {
	Name   string
	Chips  int
	Bet    int
	Cards  []protocol.Card
	Active bool // acting player
	Dealer bool
	IsMe   bool
}

// LobbySeat is a player waiting in the lobby
type LobbySeat struct {
	Name   string
	Ready  bool
	IsHost bool
	IsMe   bool
}

// Notice is the transient message line
type Notice struct {
	Text    string
	IsError bool
}

// View is everything a renderer needs for one frame
type View struct {
	Status      string
	StatusAlert bool
	NeedLogin   bool
	PlayerName  string

	HasTable        bool
	GameUnavailable bool
	Pot             int
	MinimumBet      int
	Board           [protocol.MaxCommunityCards]CardSlot
	Seats           []Seat

	ShowLobby bool
	Lobby     []LobbySeat
	ShowStart bool

	ShowControls bool
	Actions      []protocol.ActionKind
	Raise        tablestate.RaiseBounds

	Notice *Notice
}

// Render builds a View from state
func Render(s tablestate.State) View {
	v := View{
		PlayerName:      s.PlayerName,
		NeedLogin:       !s.LoggedIn(),
		GameUnavailable: s.GameUnavailable,
		ShowLobby:       s.ShowLobby(),
		ShowStart:       s.ShowStart,
		ShowControls:    s.ShowControls(),
	}
	v.Status, v.StatusAlert = connectionStatus(s.Connection)

	for i := range v.Board {
		v.Board[i] = CardSlot{Name: SlotNames[i], Empty: true}
	}

	if snap := s.Snapshot; snap != nil {
		v.HasTable = true
		v.Pot = snap.Pot
		v.MinimumBet = snap.MinimumBet
		for i, card := range snap.CommunityCards {
			if i >= len(v.Board) {
				break
			}
			v.Board[i] = CardSlot{Name: SlotNames[i], Card: card}
		}
		v.Seats = make([]Seat, len(snap.Players))
		for i, p := range snap.Players {
			v.Seats[i] = Seat{
				Name:   p.Name,
				Chips:  p.Chips,
				Bet:    p.Bet,
				Cards:  p.Hand,
				Active: p.IsCurrent,
				Dealer: i == snap.DealerPosition,
				IsMe:   s.PlayerName != "" && p.Name == s.PlayerName,
			}
		}
	}

	if !s.IsGameStarted && len(s.Lobby) > 0 {
		v.Lobby = make([]LobbySeat, len(s.Lobby))
		for i, p := range s.Lobby {
			v.Lobby[i] = LobbySeat{
				Name:   p.Name,
				Ready:  p.Ready,
				IsHost: i == 0,
				IsMe:   s.PlayerName != "" && p.Name == s.PlayerName,
			}
		}
	}

	if v.ShowControls {
		v.Actions = []protocol.ActionKind{protocol.ActionFold, protocol.ActionCall, protocol.ActionRaise}
		v.Raise = s.Raise
	}

	if s.Message != nil {
		v.Notice = &Notice{Text: s.Message.Text, IsError: s.Message.IsError}
	}

	return v
}

func connectionStatus(c tablestate.Connection) (string, bool) {
	switch c {
	case tablestate.Connected:
		return "Connected", false
	case tablestate.Connecting:
		return "Connecting...", false
	case tablestate.Disconnected:
		return "Disconnected - reconnecting", true
	case tablestate.Failed:
		return "Disconnected", true
	default:
		return c.String(), true
	}
}

// FormatCards joins cards as "[A♥ K♦]"; an empty hand renders as ""
func FormatCards(cards []protocol.Card) string {
	if len(cards) == 0 {
		return ""
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// BoardString renders the board with blank slots as "__"
func (v View) BoardString() string {
	parts := make([]string, len(v.Board))
	for i, slot := range v.Board {
		if slot.Empty {
			parts[i] = "__"
		} else {
			parts[i] = slot.Card.String()
		}
	}
	return strings.Join(parts, " ")
}

// SeatLine renders one seat as plain text
func (s Seat) SeatLine() string {
	var b strings.Builder
	if s.Active {
		b.WriteString("> ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(s.Name)
	if s.Dealer {
		b.WriteString(" (D)")
	}
	fmt.Fprintf(&b, " $%d", s.Chips)
	if s.Bet > 0 {
		fmt.Fprintf(&b, " bet $%d", s.Bet)
	}
	if cards := FormatCards(s.Cards); cards != "" {
		b.WriteString(" ")
		b.WriteString(cards)
	}
	return b.String()
}

// Summary renders the frame as a single plain-text line
func (v View) Summary() string {
	if !v.HasTable {
		if v.GameUnavailable {
			return "game not available"
		}
		if len(v.Lobby) > 0 {
			names := make([]string, len(v.Lobby))
			for i, p := range v.Lobby {
				names[i] = p.Name
			}
			return fmt.Sprintf("lobby: %s", strings.Join(names, ", "))
		}
		return "waiting for game"
	}

	seats := make([]string, len(v.Seats))
	for i, s := range v.Seats {
		seats[i] = strings.TrimSpace(s.SeatLine())
	}
	return fmt.Sprintf("pot $%d | board %s | %s", v.Pot, v.BoardString(), strings.Join(seats, " | "))
}
