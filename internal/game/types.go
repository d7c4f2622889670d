// internal/game/types.go
//
// Core type definitions for the cities game engine.
// Defines:
//   - Reason: why a submitted move was rejected (or "ok").
//   - State: the outcome tag handed back to the transport layer.
//   - Outcome: one structured result per operation, never free-form strings.
//   - Session: state for a single two-player game in one chat.

package game

// Reason classifies a move validation result. Checks run in a fixed
// short-circuit order; the first failing check wins.
// Possible values:
//   - "ok":           the move is legal.
//   - "invalid_name": normalization produced nothing usable.
//   - "not_in_db":    not a known city.
//   - "already_used": the city was already named in this session.
//   - "wrong_letter": does not start with the required letter.
type Reason string

const (
	ReasonOK          Reason = "ok"
	ReasonInvalidName Reason = "invalid_name"
	ReasonNotInDB     Reason = "not_in_db"
	ReasonAlreadyUsed Reason = "already_used"
	ReasonWrongLetter Reason = "wrong_letter"
)

// State tags an Outcome. The set is closed; the transport layer renders
// each tag as its own message.
type State string

const (
	StateLobbyCreated   State = "lobby_created"
	StateAlreadyInLobby State = "already_in_lobby"
	StateLobbyFull      State = "lobby_full"
	StateJoined         State = "joined"
	StateMoveAccepted   State = "move_accepted"
	StateGameWon        State = "game_won"
	StateMoveRejected   State = "move_rejected"
	StateNotYourTurn    State = "not_your_turn"
	StateNoActiveGame   State = "no_active_game"
	StateStatus         State = "status"
	StateReset          State = "reset"
)

// Outcome is the structured result of one game operation.
// Only the fields relevant to State are populated.
type Outcome struct {
	State      State    `json:"state"`
	Reason     Reason   `json:"reason,omitempty"`     // move_rejected only
	City       string   `json:"city,omitempty"`       // accepted city, normalized
	NeedLetter string   `json:"needLetter,omitempty"` // display form; empty = any letter
	NextID     string   `json:"nextId,omitempty"`     // whose turn it is now
	NextName   string   `json:"nextName,omitempty"`
	WinnerID   string   `json:"winnerId,omitempty"` // game_won only
	WinnerName string   `json:"winnerName,omitempty"`
	LoserID    string   `json:"loserId,omitempty"` // game_won only
	LoserName  string   `json:"loserName,omitempty"`
	Roster     []string `json:"roster,omitempty"` // display names, join order
	UsedCount  int      `json:"usedCount,omitempty"`
}

// Session holds the state of one cities game. Two players, cyclic turns,
// a grow-only set of used cities, and the letter the next city must start
// with (0 before the first move = any letter is fine).
//
// A Session is not safe for concurrent use; the registry serializes all
// mutation through a per-chat guard.
type Session struct {
	Players    []string            // participant ids, join order
	Names      map[string]string   // id → display name
	Used       map[string]struct{} // normalized cities named so far
	TurnIdx    int
	NeedLetter rune // 0 = no constraint
	Started    bool // true once the second player joins
}

// maxPlayers is fixed: the game is strictly two-player.
const maxPlayers = 2

// NewSession creates a lobby holding its first player.
func NewSession(playerID, name string) *Session {
	return &Session{
		Players: []string{playerID},
		Names:   map[string]string{playerID: name},
		Used:    make(map[string]struct{}),
	}
}

// CurrentPlayer returns the id of the player whose turn it is,
// or "" for an empty session.
func (s *Session) CurrentPlayer() string {
	if len(s.Players) == 0 {
		return ""
	}
	return s.Players[s.TurnIdx%len(s.Players)]
}

// HasPlayer reports whether id already participates.
func (s *Session) HasPlayer(id string) bool {
	_, ok := s.Names[id]
	return ok
}

// Full reports whether the lobby is at capacity.
func (s *Session) Full() bool {
	return len(s.Players) >= maxPlayers
}

// Join adds the second player and activates the game.
// Callers must have checked HasPlayer and Full first.
func (s *Session) Join(id, name string) {
	s.Players = append(s.Players, id)
	s.Names[id] = name
	s.Started = true
}

// nextTurn advances the cyclic turn index.
func (s *Session) nextTurn() {
	s.TurnIdx = (s.TurnIdx + 1) % len(s.Players)
}
