package client

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/lox/tableclient/internal/protocol"
	"github.com/lox/tableclient/internal/tablestate"
	"github.com/lox/tableclient/internal/transport"
)

// EventSource is the ordered stream of transport events
type EventSource interface {
	Events() <-chan transport.Event
}

// Session feeds transport events into the state controller. It is the only
// consumer of the event stream, so inbound state transitions are serialized.
type Session struct {
	source     EventSource
	controller *tablestate.Controller
	logger     *log.Logger

	handlers map[protocol.EventType]func(*protocol.Envelope)

	// autoJoin is submitted as the player name on connect when set
	autoJoin string
}

// NewSession creates a session bound to source and controller
func NewSession(source EventSource, controller *tablestate.Controller, logger *log.Logger) *Session {
	s := &Session{
		source:     source,
		controller: controller,
		logger:     logger.WithPrefix("session"),
		handlers:   make(map[protocol.EventType]func(*protocol.Envelope)),
	}

	s.setupEventHandlers()

	return s
}

// setupEventHandlers registers handlers for server events
func (s *Session) setupEventHandlers() {
	// Table state
	s.handlers[protocol.EventGameState] = s.handleGameState
	s.handlers[protocol.EventLobbyUpdate] = s.handleLobbyUpdate
	s.handlers[protocol.EventGameStarted] = s.handleGameStarted

	// Turn notifications
	s.handlers[protocol.EventYourTurn] = s.handleYourTurn
	s.handlers[protocol.EventNotYourTurn] = s.handleNotYourTurn

	// Messages
	s.handlers[protocol.EventGameMessage] = s.handleGameMessage
}

// SetAutoJoin logs in as name on the first successful connection
func (s *Session) SetAutoJoin(name string) {
	s.autoJoin = name
}

// Run dispatches events until the stream closes or ctx is cancelled
func (s *Session) Run(ctx context.Context) error {
	events := s.source.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.dispatch(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) dispatch(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnected:
		s.controller.OnConnect()
		s.joinIfConfigured()
	case transport.EventConnectError:
		s.controller.OnConnectError(ev.Err)
	case transport.EventDisconnected:
		s.controller.OnDisconnect()
	case transport.EventReconnected:
		s.controller.OnReconnect(ev.Attempt)
	case transport.EventReconnectFailed:
		s.controller.OnReconnectFailed()
	case transport.EventMessage:
		s.handleEnvelope(ev.Envelope)
	}
}

func (s *Session) joinIfConfigured() {
	if s.autoJoin == "" || s.controller.State().LoggedIn() {
		return
	}
	if err := s.controller.SubmitLogin(s.autoJoin); err != nil {
		s.logger.Warn("Auto join failed", "name", s.autoJoin, "error", err)
	}
}

func (s *Session) handleEnvelope(env *protocol.Envelope) {
	if env == nil {
		return
	}
	handler, exists := s.handlers[env.Event]
	if !exists {
		s.logger.Debug("No handler for event", "event", env.Event)
		return
	}
	handler(env)
}

// Event Handlers

func (s *Session) handleGameState(env *protocol.Envelope) {
	snap, err := env.DecodeSnapshot()
	if err != nil {
		s.logger.Error("Failed to parse game state", "error", err)
		return
	}
	s.controller.ApplySnapshot(snap)
}

func (s *Session) handleLobbyUpdate(env *protocol.Envelope) {
	var players []protocol.LobbyPlayer
	if !env.IsNull() {
		if err := env.Decode(&players); err != nil {
			s.logger.Error("Failed to parse lobby update", "error", err)
			return
		}
	}
	s.controller.ApplyLobbyUpdate(players)
}

func (s *Session) handleGameStarted(*protocol.Envelope) {
	s.controller.ApplyGameStarted()
}

func (s *Session) handleYourTurn(*protocol.Envelope) {
	s.controller.ApplyTurnNotification(true)
}

func (s *Session) handleNotYourTurn(*protocol.Envelope) {
	s.controller.ApplyTurnNotification(false)
}

func (s *Session) handleGameMessage(env *protocol.Envelope) {
	var text string
	if err := env.Decode(&text); err != nil {
		s.logger.Error("Failed to parse game message", "error", err)
		return
	}
	s.controller.ApplyGameMessage(text)
}
