package handlers

import (
	"net/http"
	"strconv"

	"github.com/febuchner/settlers-of-catan/internal/auth"
	"github.com/sirupsen/logrus"
)

const maxResultsLimit = 100

// TableHandler serves the spectator view of the current session: GET /game
func TableHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		g := gs.Table.Current()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"game_id":   g.ID,
			"protected": gs.opts.Guard.Protected(),
			"state":     g.GetCurrentObfuscatedGameState(0),
		})
	}
}

// SnapshotHandler returns the caller's own view of the session named in
// their token: GET /game/snapshot
func SnapshotHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token := requestToken(r)
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		gameID, playerID, err := auth.AuthenticateJWT(token)
		if err != nil {
			logger.Debugf("snapshot auth failed: %v", err)
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
		g, ok := gs.Table.GetGame(gameID)
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, g.GetCurrentObfuscatedGameState(playerID))
	}
}

// ResultsHandler lists recently finished games: GET /game/results?limit=N
func ResultsHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if gs.opts.Results == nil {
			http.Error(w, "result storage is disabled", http.StatusServiceUnavailable)
			return
		}
		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxResultsLimit)
		}
		results, err := gs.opts.Results.RecentResults(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to load results")
			http.Error(w, "failed to load results", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
