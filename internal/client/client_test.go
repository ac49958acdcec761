package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/tableclient/internal/protocol"
	"github.com/lox/tableclient/internal/tablestate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = NewLogger(&buf, "chatty")
	assert.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	ctrl := tablestate.NewController(&recordingEmitter{}, quartz.NewMock(t), quietLogger())
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() { done <- Watch(context.Background(), ctrl, out) }()

	waitForOutput := func(want string) {
		t.Helper()
		assert.Eventually(t, func() bool {
			return strings.Contains(out.String(), want)
		}, waitFor, 5*time.Millisecond, "missing %q in:\n%s", want, out.String())
	}

	waitForOutput("* Connecting...\nwaiting for game\n")

	ctrl.OnConnect()
	waitForOutput("* Connected\n")

	ctrl.ApplyLobbyUpdate([]protocol.LobbyPlayer{{Name: "Alice"}, {Name: "Bob"}})
	waitForOutput("lobby: Alice, Bob\n")

	ctrl.ApplySnapshot(&protocol.GameSnapshot{
		Pot:            45,
		CommunityCards: []protocol.Card{{Suit: protocol.Hearts, Value: protocol.Ace}},
		Players: []protocol.PlayerView{
			{Name: "Alice", Chips: 100, Bet: 10, IsCurrent: true},
			{Name: "Bob", Chips: 80, Bet: 20},
		},
		DealerPosition: 1,
		MinimumBet:     20,
	})
	waitForOutput("pot $45 | board A♥ __ __ __ __ | > Alice $100 bet $10 | Bob (D) $80 bet $20\n")

	ctrl.ApplyGameMessage("Bob raises to 20")
	waitForOutput("! Bob raises to 20\n")

	ctrl.OnReconnectFailed()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Watch did not return after reconnect failure")
	}

	output := out.String()
	assert.Contains(t, output, "* Disconnected\n")
	assert.Contains(t, output, "! "+tablestate.MsgReconnectFailed+"\n")
	assert.Equal(t, 1, strings.Count(output, "lobby: Alice, Bob"), "unchanged frames are not repeated")
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctrl := tablestate.NewController(&recordingEmitter{}, quartz.NewMock(t), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, Watch(ctx, ctrl, &syncBuffer{}))
}

// tableServer accepts one player, expects a join and answers with a lobby
func tableServer(t *testing.T, joined chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Unmarshal(frame)
		if err != nil || env.Event != protocol.EventJoinGame {
			t.Errorf("expected join_game, got %s", frame)
			return
		}
		var join protocol.JoinGame
		if err := env.Decode(&join); err == nil {
			joined <- join.Name
		}

		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"event":"lobby_update","data":[{"name":"`+join.Name+`"},{"name":"Bob"}]}`))

		// Hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestAppRun(t *testing.T) {
	t.Run("front returning stops everything", func(t *testing.T) {
		joined := make(chan string, 1)
		ts := tableServer(t, joined)

		cfg := DefaultClientConfig()
		cfg.Server.URL = ts.URL

		app, err := NewApp(cfg, quartz.NewReal(), quietLogger())
		require.NoError(t, err)
		app.Session.SetAutoJoin("Alice")

		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()

		err = app.Run(ctx, func(ctx context.Context) error {
			ticker := time.NewTicker(5 * time.Millisecond)
			defer ticker.Stop()
			for {
				state := app.Controller.State()
				if len(state.Lobby) == 2 {
					return nil
				}
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		require.NoError(t, err)

		assert.Equal(t, "Alice", <-joined)
		state := app.Controller.State()
		assert.Equal(t, tablestate.Connected, state.Connection)
		assert.True(t, state.ShowStart)
		assert.False(t, app.Transport.IsConnected())
	})

	t.Run("front error is returned", func(t *testing.T) {
		cfg := DefaultClientConfig()
		cfg.Server.URL = "http://127.0.0.1:1"

		app, err := NewApp(cfg, quartz.NewReal(), quietLogger())
		require.NoError(t, err)

		boom := errors.New("boom")
		err = app.Run(context.Background(), func(context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("bad config", func(t *testing.T) {
		cfg := DefaultClientConfig()
		cfg.Server.URL = "ftp://localhost"
		_, err := NewApp(cfg, quartz.NewReal(), quietLogger())
		assert.Error(t, err)
	})
}
