// internal/game/rules.go
//
// Turn rules for the cities game.
// Responsibilities:
//   - Compute the letter the next city must start with (tail-skip rule).
//   - Validate a proposed move against session state (fixed check order).
//   - Decide whether any legal continuation exists after a move.
//   - Apply an accepted move, advancing the session and detecting a win.
//
// Notes:
//   - All checks run on normalized names (cities.Normalize).
//   - The functions here are deterministic; ApplyMove is the only mutator.

package game

import (
	"strings"
	"unicode/utf8"

	"github.com/goroda-game/go-server/internal/cities"
)

// tailSkip holds letters that cannot start a city name by convention, so
// they are skipped when taking the last letter ("Казань" hands over "н").
var tailSkip = map[rune]struct{}{
	'ь': {},
	'ъ': {},
	'ы': {},
}

// LastLetter walks a normalized city name from its end and returns the
// first letter usable as the next starting letter. ok is false when the
// name is empty or consists solely of tail-skip letters.
func LastLetter(normalized string) (letter rune, ok bool) {
	runes := []rune(normalized)
	for i := len(runes) - 1; i >= 0; i-- {
		if _, skip := tailSkip[runes[i]]; skip {
			continue
		}
		return runes[i], true
	}
	return 0, false
}

// ValidateMove checks a proposed move without mutating anything.
// Returns the normalized name and the first failing reason:
// invalid_name → not_in_db → already_used → wrong_letter → ok.
func ValidateMove(ix *cities.Index, s *Session, raw string) (string, Reason) {
	city := cities.Normalize(raw)
	if _, ok := LastLetter(city); city == "" || !ok {
		return city, ReasonInvalidName
	}
	if !ix.Contains(city) {
		return city, ReasonNotInDB
	}
	if _, used := s.Used[city]; used {
		return city, ReasonAlreadyUsed
	}
	if s.NeedLetter != 0 {
		first, _ := utf8.DecodeRuneInString(city)
		if first != s.NeedLetter {
			return city, ReasonWrongLetter
		}
	}
	return city, ReasonOK
}

// HasContinuation reports whether at least one unused dictionary city
// starts with letter. The zero letter means "any city", which always has
// a continuation in a non-empty dictionary.
func HasContinuation(ix *cities.Index, letter rune, used map[string]struct{}) bool {
	if letter == 0 {
		return true
	}
	for city := range ix.Bucket(letter) {
		if _, taken := used[city]; !taken {
			return true
		}
	}
	return false
}

// ApplyMove processes one move by playerID in an active session.
//
// Rejections (wrong player, validation failure) leave the session untouched.
// An accepted move records the city, recomputes the required letter,
// advances the turn, and then checks for a continuation: when none exists
// the mover wins and the outcome carries the winner, signalling the caller
// to drop the session.
func (s *Session) ApplyMove(ix *cities.Index, playerID, raw string) Outcome {
	if playerID != s.CurrentPlayer() {
		cur := s.CurrentPlayer()
		return Outcome{State: StateNotYourTurn, NextID: cur, NextName: s.Names[cur]}
	}

	city, reason := ValidateMove(ix, s, raw)
	if reason != ReasonOK {
		return Outcome{State: StateMoveRejected, Reason: reason, NeedLetter: s.needLetterDisplay()}
	}

	s.Used[city] = struct{}{}
	last, _ := LastLetter(city) // present: guaranteed by ValidateMove
	s.NeedLetter = last
	s.nextTurn()

	if !HasContinuation(ix, s.NeedLetter, s.Used) {
		// The turn already advanced, so CurrentPlayer is the opponent.
		loser := s.CurrentPlayer()
		return Outcome{
			State:      StateGameWon,
			City:       city,
			NeedLetter: s.needLetterDisplay(),
			WinnerID:   playerID,
			WinnerName: s.Names[playerID],
			LoserID:    loser,
			LoserName:  s.Names[loser],
			UsedCount:  len(s.Used),
		}
	}

	next := s.CurrentPlayer()
	return Outcome{
		State:      StateMoveAccepted,
		City:       city,
		NeedLetter: s.needLetterDisplay(),
		NextID:     next,
		NextName:   s.Names[next],
		UsedCount:  len(s.Used),
	}
}

// needLetterDisplay renders the required letter for outcomes:
// uppercase single letter, or "" when any letter is allowed.
func (s *Session) needLetterDisplay() string {
	if s.NeedLetter == 0 {
		return ""
	}
	return strings.ToUpper(string(s.NeedLetter))
}
