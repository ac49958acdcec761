package tablestate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/tableclient/internal/protocol"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidAction   = errors.New("invalid action")
	ErrRaiseOutOfRange = errors.New("raise amount out of range")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrStartNotAllowed = errors.New("cannot start game")
)

// User-visible notices
const (
	MsgEnterName        = "Please enter a name"
	MsgConnectFailed    = "Failed to connect to server"
	MsgDisconnected     = "Disconnected from server"
	MsgReconnectFailed  = "Unable to reconnect to server"
	MsgGameNotAvailable = "Game not available"
)

// Emitter sends an intent to the server
type Emitter interface {
	Emit(event protocol.EventType, data interface{}) error
}

// EmitterFunc adapts a function to the Emitter interface
type EmitterFunc func(event protocol.EventType, data interface{}) error

// Emit calls f(event, data)
func (f EmitterFunc) Emit(event protocol.EventType, data interface{}) error {
	return f(event, data)
}

// Controller owns the client's table state and is the only thing that
// mutates it. Inbound events and user intents both go through it.
type Controller struct {
	mu      sync.Mutex
	state   State
	emitter Emitter
	clock   quartz.Clock
	logger  *log.Logger

	messageSeq   uint64
	messageTimer *quartz.Timer

	listeners []func(State)
}

// NewController creates a controller that emits intents through emitter
func NewController(emitter Emitter, clock quartz.Clock, logger *log.Logger) *Controller {
	return &Controller{
		state:   State{Connection: Connecting},
		emitter: emitter,
		clock:   clock,
		logger:  logger.WithPrefix("tablestate"),
	}
}

// OnChange registers a callback invoked with a copy of the state after every change
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

func (c *Controller) copyState() State {
	s := c.state
	if s.Message != nil {
		m := *s.Message
		s.Message = &m
	}
	return s
}

// update runs fn under the lock and then notifies listeners outside it
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snapshot := c.copyState()
	listeners := c.listeners
	c.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// Connection lifecycle

// OnConnect clears the disconnected indicator. Game state is untouched.
func (c *Controller) OnConnect() {
	c.logger.Info("Connected to server")
	c.update(func() {
		c.state.Connection = Connected
	})
}

// OnConnectError surfaces a failed connection attempt
func (c *Controller) OnConnectError(err error) {
	c.logger.Warn("Connection error", "error", err)
	c.update(func() {
		c.clearTurn()
		c.state.Connection = Disconnected
		c.showMessage(MsgConnectFailed, true)
	})
}

// OnDisconnect drops turn gating. The player must wait for a fresh snapshot
// or turn notification before acting again.
func (c *Controller) OnDisconnect() {
	c.logger.Info("Disconnected from server")
	c.update(func() {
		c.clearTurn()
		if c.state.Connection != Disconnected {
			c.showMessage(MsgDisconnected, true)
		}
		c.state.Connection = Disconnected
	})
}

// OnReconnect rebinds the session by re-issuing the join intent if the
// player has already logged in. IsGameStarted is left as is.
func (c *Controller) OnReconnect(attempt int) {
	c.logger.Info("Reconnected to server", "attempt", attempt)
	c.update(func() {
		c.state.Connection = Connected
		if c.state.PlayerName == "" {
			return
		}
		if err := c.emit(protocol.EventJoinGame, protocol.JoinGame{Name: c.state.PlayerName}); err != nil {
			c.logger.Error("Failed to rejoin after reconnect", "error", err)
			c.showMessage(MsgConnectFailed, true)
		}
	})
}

// OnReconnectFailed enters the terminal disconnected state
func (c *Controller) OnReconnectFailed() {
	c.logger.Error("Reconnect attempts exhausted")
	c.update(func() {
		c.clearTurn()
		c.state.Connection = Failed
		c.showMessage(MsgReconnectFailed, true)
	})
}

// User intents

// SubmitLogin stores the player name and emits a single join intent
func (c *Controller) SubmitLogin(name string) error {
	name = strings.TrimSpace(name)

	var err error
	c.update(func() {
		if name == "" {
			c.showMessage(MsgEnterName, true)
			err = fmt.Errorf("%w: name is required", ErrInvalidInput)
			return
		}

		c.logger.Info("Attempting to join game", "name", name)
		c.state.PlayerName = name
		err = c.emit(protocol.EventJoinGame, protocol.JoinGame{Name: name})
		if err != nil {
			c.showMessage(MsgConnectFailed, true)
		}
	})
	return err
}

// SubmitAction emits an in-turn action. The turn flag is read at the moment
// of submission; on success the controls are hidden until the server grants
// the turn again.
func (c *Controller) SubmitAction(kind protocol.ActionKind, amount int) error {
	var err error
	c.update(func() {
		if !c.state.IsMyTurn {
			err = ErrNotYourTurn
			return
		}

		action := protocol.PlayerAction{Action: kind}
		switch kind {
		case protocol.ActionFold, protocol.ActionCall:
		case protocol.ActionRaise:
			if err = c.checkRaise(amount); err != nil {
				c.showMessage(err.Error(), true)
				return
			}
			action.Amount = amount
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidAction, kind)
			c.showMessage(err.Error(), true)
			return
		}

		c.logger.Debug("Submitting action", "action", kind, "amount", action.Amount)
		err = c.emit(protocol.EventPlayerAction, action)
		c.clearTurn()
		if err != nil {
			c.showMessage(fmt.Sprintf("Error sending action: %s", err), true)
		}
	})
	return err
}

// checkRaise validates a raise against the held snapshot. Without a
// snapshot the bounds are unknown and only a positive amount is required.
// Either way the amount must be at least 1.
func (c *Controller) checkRaise(amount int) error {
	r := c.state.Raise
	if c.state.Snapshot == nil {
		if amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", ErrRaiseOutOfRange)
		}
		return nil
	}
	if amount < max(r.Min, 1) || amount > r.Max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrRaiseOutOfRange, amount, r.Min, r.Max)
	}
	return nil
}

// SubmitStart asks the server to start the game. Only the first player in
// the lobby may do this, and only once two players are present.
func (c *Controller) SubmitStart() error {
	var err error
	c.update(func() {
		if !c.state.ShowStart {
			err = ErrStartNotAllowed
			return
		}
		c.logger.Info("Starting game")
		err = c.emit(protocol.EventStartGame, nil)
		if err != nil {
			c.showMessage(MsgConnectFailed, true)
		}
	})
	return err
}

// Inbound notifications

// ApplySnapshot replaces the held snapshot and re-derives turn state from
// it. A nil snapshot means the server has no active game: the previous
// snapshot stays on screen but nothing is actionable.
func (c *Controller) ApplySnapshot(snap *protocol.GameSnapshot) {
	c.update(func() {
		if snap == nil {
			c.logger.Warn("Server reports no active game")
			c.state.GameUnavailable = true
			c.clearTurn()
			c.showMessage(MsgGameNotAvailable, true)
			return
		}

		c.state.Snapshot = snap
		c.state.GameUnavailable = false
		if snap.HasStarted() {
			c.markStarted()
		}
		c.deriveTurn()

		c.logger.Debug("Applied game state",
			"pot", snap.Pot,
			"board", len(snap.CommunityCards),
			"players", len(snap.Players),
			"myTurn", c.state.IsMyTurn)
	})
}

// ApplyTurnNotification handles your_turn / not_your_turn. Turning off is
// always honoured. Turning on is a hint that must agree with the held
// snapshot; the next snapshot overrides it either way.
func (c *Controller) ApplyTurnNotification(myTurn bool) {
	c.update(func() {
		if !myTurn {
			c.logger.Debug("Not your turn")
			c.clearTurn()
			return
		}

		if c.state.PlayerName == "" {
			c.logger.Warn("Ignoring turn notification before login")
			return
		}

		if c.state.Snapshot != nil {
			if current, ok := c.state.CurrentPlayer(); !ok || current.Name != c.state.PlayerName {
				c.logger.Warn("Ignoring turn notification that disagrees with game state",
					"current", current.Name, "player", c.state.PlayerName)
				return
			}
		}

		c.logger.Debug("It is your turn")
		c.state.IsMyTurn = true
		c.deriveRaise()
	})
}

// ApplyLobbyUpdate stores the lobby list and recomputes start visibility
func (c *Controller) ApplyLobbyUpdate(players []protocol.LobbyPlayer) {
	c.update(func() {
		c.state.Lobby = players
		c.deriveStart()
	})
}

// ApplyGameStarted hides the lobby controls
func (c *Controller) ApplyGameStarted() {
	c.logger.Info("Game started")
	c.update(func() {
		c.markStarted()
	})
}

// ApplyGameMessage shows a server message that dismisses itself after MessageDuration
func (c *Controller) ApplyGameMessage(text string) {
	c.logger.Info("Game message", "message", text)
	c.update(func() {
		c.showMessage(text, false)
	})
}

// Derivations. Callers hold c.mu.

func (c *Controller) deriveTurn() {
	current, ok := c.state.CurrentPlayer()
	c.state.IsMyTurn = ok && c.state.PlayerName != "" && current.Name == c.state.PlayerName
	c.deriveRaise()
}

func (c *Controller) deriveRaise() {
	c.state.Raise = RaiseBounds{}
	if !c.state.IsMyTurn {
		return
	}
	current, ok := c.state.CurrentPlayer()
	if !ok {
		return
	}
	// A raise is never below 1, even when the table reports no minimum bet
	minimum := max(c.state.Snapshot.MinimumBet, 1)
	c.state.Raise = RaiseBounds{
		Min:       minimum,
		Max:       current.Chips + current.Bet,
		Suggested: minimum,
	}
}

func (c *Controller) deriveStart() {
	lobby := c.state.Lobby
	c.state.ShowStart = !c.state.IsGameStarted &&
		len(lobby) >= 2 &&
		c.state.PlayerName != "" &&
		lobby[0].Name == c.state.PlayerName
}

func (c *Controller) markStarted() {
	c.state.IsGameStarted = true
	c.deriveStart()
}

func (c *Controller) clearTurn() {
	c.state.IsMyTurn = false
	c.state.Raise = RaiseBounds{}
}

func (c *Controller) emit(event protocol.EventType, data interface{}) error {
	if c.emitter == nil {
		return fmt.Errorf("emit %s: no transport", event)
	}
	return c.emitter.Emit(event, data)
}

// showMessage replaces the current message and schedules its dismissal
func (c *Controller) showMessage(text string, isError bool) {
	if c.messageTimer != nil {
		c.messageTimer.Stop()
	}

	c.messageSeq++
	seq := c.messageSeq
	c.state.Message = &Message{
		Text:      text,
		IsError:   isError,
		ExpiresAt: c.clock.Now().Add(MessageDuration),
	}
	c.messageTimer = c.clock.AfterFunc(MessageDuration, func() {
		c.dismissMessage(seq)
	}, "tablestate", "message")
}

func (c *Controller) dismissMessage(seq uint64) {
	c.update(func() {
		if c.messageSeq != seq {
			return
		}
		c.state.Message = nil
		c.messageTimer = nil
	})
}
