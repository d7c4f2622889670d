// internal/httpserver/server.go
//
// HTTP server wiring for the cities-game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/game/rules".
//   - Game endpoints (optional auth): /game/start, /game/join, /game/move,
//     /game/status, /game/reset — thin adapters over the session registry.
//   - Leaderboard from recorded match history.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me.
//   - Match persistence on a won game (best-effort, never blocks the reply).
//
// Notes:
//   - Every game operation returns one structured game.Outcome; the handlers
//     never invent their own result shapes.
//   - Optional auth decorates requests with user context when a valid token
//     is present; guests play under an anonymous cookie id.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/goroda-game/go-server/internal/cities"
	"github.com/goroda-game/go-server/internal/game"
	"github.com/goroda-game/go-server/internal/registry"
)

// rulesText is what the original bot printed for /help, minus the command list.
const rulesText = "Игроки по очереди называют города. Название следующего города должно " +
	"начинаться на последнюю букву предыдущего (кроме ь, ъ, ы). Повторять города нельзя. " +
	"Побеждает тот, кто назовёт последний город."

// Server bundles router, session registry, city index, and DB handle.
type Server struct {
	r   *chi.Mux
	reg *registry.Registry
	ix  *cities.Index
	db  *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(reg *registry.Registry, ix *cities.Index, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), reg: reg, ix: ix, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"goroda-go","endpoints":["/health","/game/rules","POST /game/start","POST /game/join","POST /game/move","GET /game/status","POST /game/reset","/leaderboard","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/game/rules", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"rules": rulesText})
	})

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/start", s.handleStart)
	s.r.With(s.withOptionalAuth()).Post("/game/join", s.handleJoin)
	s.r.With(s.withOptionalAuth()).Post("/game/move", s.handleMove)
	s.r.With(s.withOptionalAuth()).Post("/game/reset", s.handleReset)
	s.r.Get("/game/status", s.handleStatus)

	// All-time winners from recorded matches
	s.r.Get("/leaderboard", s.handleLeaderboard)

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: dictionary counts
	s.r.Get("/debug/cities", func(w http.ResponseWriter, r *http.Request) {
		names, letters := ix.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"names": names, "letters": letters})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GAME ---------------------------------------

// lobbyReq is the payload for /game/start and /game/join.
// Name is the display name used for guests; authenticated users play under
// their account username regardless.
type lobbyReq struct {
	ChatID string `json:"chatId"`
	Name   string `json:"name"`
}

// moveReq is the payload for /game/move.
type moveReq struct {
	ChatID string `json:"chatId"`
	City   string `json:"city"`
}

// resetReq is the payload for /game/reset.
type resetReq struct {
	ChatID string `json:"chatId"`
}

// handleStart creates a lobby for the chat with the caller as player one.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req lobbyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	id, name := s.identity(w, r, req.Name)
	_ = json.NewEncoder(w).Encode(s.reg.Start(req.ChatID, id, name))
}

// handleJoin adds the caller as player two.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req lobbyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	id, name := s.identity(w, r, req.Name)
	_ = json.NewEncoder(w).Encode(s.reg.Join(req.ChatID, id, name))
}

// handleMove submits a city. A winning move is recorded to the DB
// (best effort, non-fatal if it fails).
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	id, _ := s.identity(w, r, "")
	out := s.reg.Move(req.ChatID, id, req.City)
	if out.State == game.StateGameWon {
		s.recordWin(r.Context(), req.ChatID, out)
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleStatus returns a display snapshot for ?chatId=.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		http.Error(w, `{"error":"missing_chat_id"}`, http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(s.reg.Status(chatID))
}

// handleReset discards the chat's session unconditionally.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(s.reg.Reset(req.ChatID))
}

// ---------------------------- persistence ----------------------------------

// recordWin persists a finished match and bumps winner/loser stats when they
// are registered users. Failures are logged and swallowed; the game result
// already went out to the players.
func (s *Server) recordWin(ctx context.Context, chatID string, out game.Outcome) {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Msg("begin match tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO matches (id, chat_id, winner_id, winner_name, cities_named, finished_at)
	                                  VALUES (?,?,?,?,?,?)`,
		genID(), chatID, out.WinnerID, out.WinnerName, out.UsedCount, now); err != nil {
		// bail before touching stats: the deferred rollback keeps the
		// transaction all-or-nothing, no stats for an unrecorded match
		log.Warn().Err(err).Str("chatId", chatID).Msg("insert match row")
		return
	}
	if err := s.bumpStats(tx, out.WinnerID, true); err != nil && err != sql.ErrNoRows {
		log.Warn().Err(err).Str("user", out.WinnerID).Msg("bump winner stats")
	}
	if err := s.bumpStats(tx, out.LoserID, false); err != nil && err != sql.ErrNoRows {
		log.Warn().Err(err).Str("user", out.LoserID).Msg("bump loser stats")
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit match tx")
	}
}

// bumpStats increments games played; updates wins and streak based on result
// (within tx). Guests have no users row, which surfaces as sql.ErrNoRows.
func (s *Server) bumpStats(tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRow(`SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.Exec(`UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// handleLeaderboard lists the most-winning players across all recorded matches.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT winner_id, winner_name, COUNT(1) AS wins
		FROM matches
		GROUP BY winner_id
		ORDER BY wins DESC, MAX(finished_at) ASC
		LIMIT 20`)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type lbRow struct {
		PlayerID string `json:"playerId"`
		Name     string `json:"name"`
		Wins     int    `json:"wins"`
	}
	out := []lbRow{}
	for rows.Next() {
		var lr lbRow
		if err := rows.Scan(&lr.PlayerID, &lr.Name, &lr.Wins); err == nil {
			out = append(out, lr)
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}
