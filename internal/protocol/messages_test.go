package protocol

import (
	"errors"
	"testing"
)

func TestJoinGameEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventJoinGame, JoinGame{Name: "Alice"})
	if err != nil {
		t.Fatalf("Failed to build envelope: %v", err)
	}

	data, err := Marshal(env)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	want := `{"event":"join_game","data":{"name":"Alice"}}`
	if string(data) != want {
		t.Errorf("Frame mismatch: got %s, want %s", data, want)
	}
}

func TestStartGameEnvelopeHasNoData(t *testing.T) {
	env, err := NewEnvelope(EventStartGame, nil)
	if err != nil {
		t.Fatalf("Failed to build envelope: %v", err)
	}

	data, err := Marshal(env)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	if string(data) != `{"event":"start_game"}` {
		t.Errorf("Unexpected frame: %s", data)
	}
}

func TestPlayerActionOmitsAmountForFoldAndCall(t *testing.T) {
	tests := []struct {
		action PlayerAction
		want   string
	}{
		{PlayerAction{Action: ActionFold}, `{"event":"player_action","data":{"action":"fold"}}`},
		{PlayerAction{Action: ActionCall}, `{"event":"player_action","data":{"action":"call"}}`},
		{PlayerAction{Action: ActionRaise, Amount: 50}, `{"event":"player_action","data":{"action":"raise","amount":50}}`},
		{PlayerAction{Action: ActionRaise}, `{"event":"player_action","data":{"action":"raise","amount":0}}`},
		{PlayerAction{Action: ActionCall, Amount: 30}, `{"event":"player_action","data":{"action":"call"}}`},
	}

	for _, tt := range tests {
		env, err := NewEnvelope(EventPlayerAction, tt.action)
		if err != nil {
			t.Fatalf("Failed to build envelope: %v", err)
		}
		data, err := Marshal(env)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("%s: got %s, want %s", tt.action.Action, data, tt.want)
		}
	}
}

func TestDecodeGameState(t *testing.T) {
	frame := []byte(`{"event":"game_state","data":{
		"pot": 30,
		"community_cards": [{"suit":"HEARTS","value":14},{"suit":"CLUBS","value":10},{"suit":"SPADES","value":2}],
		"players": [
			{"name":"Alice","chips":100,"bet":10,"hand":[{"suit":"DIAMONDS","value":11},{"suit":"DIAMONDS","value":12}],"is_current":true},
			{"name":"Bob","chips":90,"bet":20,"hand":[],"is_current":false}
		],
		"dealer_position": 1,
		"minimum_bet": 20
	}}`)

	env, err := Unmarshal(frame)
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if env.Event != EventGameState {
		t.Fatalf("Event mismatch: got %s", env.Event)
	}

	snap, err := env.DecodeSnapshot()
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("Expected a snapshot")
	}

	if snap.Pot != 30 {
		t.Errorf("Pot mismatch: got %d, want 30", snap.Pot)
	}
	if len(snap.CommunityCards) != 3 {
		t.Errorf("Expected 3 community cards, got %d", len(snap.CommunityCards))
	}
	if snap.CurrentPlayer() != 0 {
		t.Errorf("Current player mismatch: got %d, want 0", snap.CurrentPlayer())
	}
	if snap.MinimumBet != 20 {
		t.Errorf("Minimum bet mismatch: got %d, want 20", snap.MinimumBet)
	}
	if !snap.HasStarted() {
		t.Error("Snapshot with a board should count as started")
	}
}

func TestDecodeNullGameState(t *testing.T) {
	for _, frame := range []string{
		`{"event":"game_state","data":null}`,
		`{"event":"game_state"}`,
	} {
		env, err := Unmarshal([]byte(frame))
		if err != nil {
			t.Fatalf("Failed to unmarshal %s: %v", frame, err)
		}
		snap, err := env.DecodeSnapshot()
		if err != nil {
			t.Fatalf("Null snapshot should not error: %v", err)
		}
		if snap != nil {
			t.Errorf("Expected nil snapshot for %s", frame)
		}
	}
}

func TestDecodeRejectsBadCards(t *testing.T) {
	frame := []byte(`{"event":"game_state","data":{"pot":0,"community_cards":[{"suit":"STARS","value":3}],"players":[]}}`)

	env, err := Unmarshal(frame)
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	_, err = env.DecodeSnapshot()
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("Expected ErrInvalidSnapshot, got %v", err)
	}
	if !errors.Is(err, ErrInvalidCard) {
		t.Errorf("Expected ErrInvalidCard, got %v", err)
	}
}

func TestUnmarshalRequiresEvent(t *testing.T) {
	_, err := Unmarshal([]byte(`{"data":{}}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
}

func TestHasStarted(t *testing.T) {
	empty := GameSnapshot{Players: []PlayerView{{Name: "Alice"}, {Name: "Bob"}}}
	if empty.HasStarted() {
		t.Error("No cards anywhere should not count as started")
	}

	dealt := GameSnapshot{Players: []PlayerView{
		{Name: "Alice"},
		{Name: "Bob", Hand: []Card{{Suit: Spades, Value: 9}, {Suit: Hearts, Value: 9}}},
	}}
	if !dealt.HasStarted() {
		t.Error("A dealt hand should count as started")
	}
}

func TestCurrentPlayerNone(t *testing.T) {
	snap := GameSnapshot{Players: []PlayerView{{Name: "Alice"}, {Name: "Bob"}}}
	if got := snap.CurrentPlayer(); got != -1 {
		t.Errorf("Expected -1, got %d", got)
	}
}

func TestCurrentPlayerAmbiguous(t *testing.T) {
	tests := [][]PlayerView{
		{{Name: "Alice", IsCurrent: true}, {Name: "Bob", IsCurrent: true}},
		{{Name: "Bob", IsCurrent: true}, {Name: "Alice", IsCurrent: true}},
		{{Name: "Carol"}, {Name: "Alice", IsCurrent: true}, {Name: "Bob", IsCurrent: true}},
	}

	for _, players := range tests {
		snap := GameSnapshot{Players: players}
		if got := snap.CurrentPlayer(); got != -1 {
			t.Errorf("Expected -1 with two current players, got %d", got)
		}
	}

	single := GameSnapshot{Players: []PlayerView{{Name: "Alice"}, {Name: "Bob", IsCurrent: true}}}
	if got := single.CurrentPlayer(); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
}

func TestParseActionKind(t *testing.T) {
	tests := map[string]ActionKind{
		"f": ActionFold, "fold": ActionFold,
		"c": ActionCall, "call": ActionCall,
		"r": ActionRaise, "raise": ActionRaise,
	}
	for input, want := range tests {
		got, ok := ParseActionKind(input)
		if !ok || got != want {
			t.Errorf("ParseActionKind(%q) = %q, %v; want %q", input, got, ok, want)
		}
	}

	if _, ok := ParseActionKind("check"); ok {
		t.Error("check is not a supported action")
	}
}
