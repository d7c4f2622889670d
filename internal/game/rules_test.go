package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goroda-game/go-server/internal/cities"
)

func testIndex() *cities.Index {
	return cities.Build([]string{"Москва", "Омск", "Казань", "Астрахань", "Новгород"})
}

// activeSession returns a started two-player session, player "a" to move.
func activeSession() *Session {
	s := NewSession("a", "Алиса")
	s.Join("b", "Боб")
	return s
}

func TestLastLetter(t *testing.T) {
	req := require.New(t)

	l, ok := LastLetter("москва")
	req.True(ok)
	req.Equal('а', l)

	// trailing ь is skipped
	l, ok = LastLetter("казань")
	req.True(ok)
	req.Equal('н', l)

	_, ok = LastLetter("")
	req.False(ok)

	// nothing but tail-skip letters
	_, ok = LastLetter("ьыъ")
	req.False(ok)
}

func TestValidateMoveOrder(t *testing.T) {
	req := require.New(t)
	ix := testIndex()
	s := activeSession()

	_, reason := ValidateMove(ix, s, "123!")
	req.Equal(ReasonInvalidName, reason)

	_, reason = ValidateMove(ix, s, "Питер")
	req.Equal(ReasonNotInDB, reason)

	s.Used["москва"] = struct{}{}
	_, reason = ValidateMove(ix, s, "Москва")
	req.Equal(ReasonAlreadyUsed, reason)

	s.NeedLetter = 'а'
	_, reason = ValidateMove(ix, s, "Омск")
	req.Equal(ReasonWrongLetter, reason)

	city, reason := ValidateMove(ix, s, "Астрахань")
	req.Equal(ReasonOK, reason)
	req.Equal("астрахань", city)

	// not_in_db wins over wrong_letter: checks short-circuit in order
	_, reason = ValidateMove(ix, s, "Питер")
	req.Equal(ReasonNotInDB, reason)
}

func TestHasContinuation(t *testing.T) {
	req := require.New(t)
	ix := testIndex()
	used := map[string]struct{}{}

	// zero letter = no constraint
	req.True(HasContinuation(ix, 0, used))

	req.True(HasContinuation(ix, 'а', used))
	used["астрахань"] = struct{}{}
	req.False(HasContinuation(ix, 'а', used))

	// no bucket for this letter at all
	req.False(HasContinuation(ix, 'я', used))
}

func TestApplyMoveAdvancesTurn(t *testing.T) {
	req := require.New(t)
	ix := testIndex()
	s := activeSession()

	out := s.ApplyMove(ix, "a", "Москва")
	req.Equal(StateMoveAccepted, out.State)
	req.Equal("москва", out.City)
	req.Equal("А", out.NeedLetter)
	req.Equal("b", out.NextID)
	req.Equal("Боб", out.NextName)
	req.Equal(1, out.UsedCount)
	req.Equal("b", s.CurrentPlayer())
}

func TestApplyMoveRejectionLeavesStateUntouched(t *testing.T) {
	req := require.New(t)
	ix := testIndex()
	s := activeSession()

	req.Equal(StateMoveAccepted, s.ApplyMove(ix, "a", "Москва").State)

	// wrong letter: Омск does not start with А
	out := s.ApplyMove(ix, "b", "Омск")
	req.Equal(StateMoveRejected, out.State)
	req.Equal(ReasonWrongLetter, out.Reason)
	req.Equal("b", s.CurrentPlayer())
	req.Len(s.Used, 1)

	// repeat of an already named city
	out = s.ApplyMove(ix, "b", "Москва")
	req.Equal(StateMoveRejected, out.State)
	req.Equal(ReasonAlreadyUsed, out.Reason)
	req.Equal("b", s.CurrentPlayer())
}

func TestApplyMoveNotYourTurn(t *testing.T) {
	req := require.New(t)
	ix := testIndex()
	s := activeSession()

	out := s.ApplyMove(ix, "b", "Москва")
	req.Equal(StateNotYourTurn, out.State)
	req.Equal("a", out.NextID)
	req.Empty(s.Used)
}

func TestApplyMoveDeclaresMoverWinner(t *testing.T) {
	req := require.New(t)
	// One city: after it is played there is nothing starting with "а".
	ix := cities.Build([]string{"Москва"})
	s := activeSession()

	out := s.ApplyMove(ix, "a", "Москва")
	req.Equal(StateGameWon, out.State)
	req.Equal("a", out.WinnerID)
	req.Equal("Алиса", out.WinnerName)
	req.Equal("b", out.LoserID)
	req.Equal(1, out.UsedCount)
}

func TestUsedOnlyGrows(t *testing.T) {
	req := require.New(t)
	ix := testIndex()
	s := activeSession()

	moves := []struct{ player, city string }{
		{"a", "Москва"},    // → А
		{"b", "Астрахань"}, // ь skipped → Н
		{"a", "Новгород"},  // → Д
	}
	prev := 0
	for _, m := range moves {
		out := s.ApplyMove(ix, m.player, m.city)
		req.Equal(StateMoveAccepted, out.State, "move %q", m.city)
		req.Greater(len(s.Used), prev)
		prev = len(s.Used)
	}
	req.Equal('д', s.NeedLetter)
}
