// internal/registry/registry.go
//
// Session registry: one cities game per chat id, plus the per-chat guard
// that serializes mutations to it.
//
// Characteristics:
//   - Explicitly constructed, passed to handlers; no package-level state.
//   - Sessions and their guards are created lazily on the first start
//     request and removed together on win or reset.
//   - Operations on different chats never block each other; every operation
//     on one chat holds that chat's guard for its whole critical section
//     (deferred release covers all rejection paths). Status takes the guard
//     too: session maps are plain Go maps, and a read racing a move would be
//     a runtime fault, not just a stale snapshot.
//   - A win or reset drops the guard together with the session, so guard
//     acquisition re-checks that the locked mutex is still the chat's
//     current one and retries when it was replaced underneath.

package registry

import (
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/goroda-game/go-server/internal/cities"
	"github.com/goroda-game/go-server/internal/game"
)

// Registry maps chat ids to live game sessions.
type Registry struct {
	ix     *cities.Index
	mu     sync.Mutex // guards the two maps below
	games  map[string]*game.Session
	guards map[string]*sync.Mutex
}

// New constructs an empty registry over an immutable city index.
func New(ix *cities.Index) *Registry {
	return &Registry{
		ix:     ix,
		games:  make(map[string]*game.Session),
		guards: make(map[string]*sync.Mutex),
	}
}

// guard returns the chat's mutex, creating it if absent.
func (r *Registry) guard(chatID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[chatID]
	if !ok {
		g = &sync.Mutex{}
		r.guards[chatID] = g
	}
	return g
}

// lockChat acquires the chat's current guard and returns it locked.
// Between looking a guard up and locking it, a win or reset may have dropped
// it and a later operation may have minted a replacement; trusting the stale
// mutex would let two critical sections run side by side. So after locking,
// re-check that the guard is still the one registered for the chat and retry
// when it is not.
func (r *Registry) lockChat(chatID string) *sync.Mutex {
	for {
		g := r.guard(chatID)
		g.Lock()
		r.mu.Lock()
		cur, ok := r.guards[chatID]
		r.mu.Unlock()
		if ok && cur == g {
			return g
		}
		g.Unlock()
	}
}

// session fetches the chat's session pointer under the registry mutex.
func (r *Registry) session(chatID string) *game.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[chatID]
}

// drop removes a finished or reset session together with its guard.
func (r *Registry) drop(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, chatID)
	delete(r.guards, chatID)
}

// Start creates a lobby for chatID with playerID as player one.
// A second start for the same chat is rejected without touching state.
func (r *Registry) Start(chatID, playerID, name string) game.Outcome {
	g := r.lockChat(chatID)
	defer g.Unlock()

	if s := r.session(chatID); s != nil {
		return game.Outcome{State: game.StateAlreadyInLobby, Roster: roster(s)}
	}
	s := game.NewSession(playerID, name)
	r.mu.Lock()
	r.games[chatID] = s
	r.mu.Unlock()
	return game.Outcome{State: game.StateLobbyCreated, Roster: roster(s)}
}

// Join adds playerID as player two and activates the game.
func (r *Registry) Join(chatID, playerID, name string) game.Outcome {
	g := r.lockChat(chatID)
	defer g.Unlock()

	s := r.session(chatID)
	if s == nil {
		r.drop(chatID) // lockChat minted a guard for a chat with no game
		return game.Outcome{State: game.StateNoActiveGame}
	}
	switch {
	case s.HasPlayer(playerID):
		return game.Outcome{State: game.StateAlreadyInLobby, Roster: roster(s)}
	case s.Full():
		return game.Outcome{State: game.StateLobbyFull, Roster: roster(s)}
	}

	s.Join(playerID, name)
	first := s.CurrentPlayer()
	return game.Outcome{
		State:    game.StateJoined,
		Roster:   roster(s),
		NextID:   first,
		NextName: s.Names[first],
	}
}

// Move submits a city for playerID. A winning move removes the session.
func (r *Registry) Move(chatID, playerID, raw string) game.Outcome {
	g := r.lockChat(chatID)
	defer g.Unlock()

	s := r.session(chatID)
	if s == nil {
		r.drop(chatID)
		return game.Outcome{State: game.StateNoActiveGame}
	}
	if !s.Started {
		return game.Outcome{State: game.StateNoActiveGame}
	}
	if !s.HasPlayer(playerID) {
		cur := s.CurrentPlayer()
		return game.Outcome{State: game.StateNotYourTurn, NextID: cur, NextName: s.Names[cur]}
	}

	out := s.ApplyMove(r.ix, playerID, raw)
	if out.State == game.StateGameWon {
		r.drop(chatID)
	}
	return out
}

// Status returns a display snapshot. It holds the per-chat guard like every
// other operation: the snapshot may go stale the moment the guard is
// released, but it never reads session maps mid-mutation.
func (r *Registry) Status(chatID string) game.Outcome {
	g := r.lockChat(chatID)
	defer g.Unlock()

	s := r.session(chatID)
	if s == nil {
		r.drop(chatID)
		return game.Outcome{State: game.StateNoActiveGame}
	}
	cur := s.CurrentPlayer()
	need := ""
	if s.NeedLetter != 0 {
		need = strings.ToUpper(string(s.NeedLetter))
	}
	return game.Outcome{
		State:      game.StateStatus,
		Roster:     roster(s),
		NextID:     cur,
		NextName:   s.Names[cur],
		NeedLetter: need,
		UsedCount:  len(s.Used),
	}
}

// Reset discards the chat's session unconditionally.
func (r *Registry) Reset(chatID string) game.Outcome {
	g := r.lockChat(chatID)
	defer g.Unlock()
	r.drop(chatID)
	return game.Outcome{State: game.StateReset}
}

// roster projects display names in join order.
func roster(s *game.Session) []string {
	return lo.Map(s.Players, func(id string, _ int) string { return s.Names[id] })
}
