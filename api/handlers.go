package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"card-session-server/auth"
	"card-session-server/storage"
)

// LiveStats is what the API reads from the session registry.
type LiveStats interface {
	Count() int
	Waiting() int
	Recent(n int) []storage.MatchRecord
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (jwt.MapClaims, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Live    LiveStats
	Results storage.ResultStore // nil when no database is configured
	Auth    TokenValidator      // nil when auth is disabled

	logger *slog.Logger
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(live LiveStats, results storage.ResultStore, v TokenValidator) *Handler {
	return &Handler{Live: live, Results: results, Auth: v, logger: slog.Default().With("tag", "api")}
}

// NewRouter installs middleware and mounts the API and the websocket endpoint.
func NewRouter(h *Handler, ws http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Get("/matches", h.Matches)
		r.Get("/results", h.RecentResults)
		r.Get("/results/mine", h.MyResults)
	})
	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}

// cors allows any origin to read the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MatchesResponse is the JSON structure for /api/matches.
type MatchesResponse struct {
	Live    int `json:"live"`
	Waiting int `json:"waiting"`
}

// Matches reports how many sessions are running and waiting.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MatchesResponse{Live: h.Live.Count(), Waiting: h.Live.Waiting()})
}

// RecentResults returns the latest finished matches, from the database when one is
// configured and from this process's memory otherwise.
func (h *Handler) RecentResults(w http.ResponseWriter, r *http.Request) {
	limit := storage.ClampLimit(queryInt(r, "limit"))
	if h.Results == nil {
		writeJSON(w, http.StatusOK, nonNil(h.Live.Recent(limit)))
		return
	}
	list, err := h.Results.RecentResults(r.Context(), limit)
	if err != nil {
		h.logger.Error("recent results", "err", err)
		http.Error(w, "failed to load results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// MyResults returns the finished matches of the authenticated user.
func (h *Handler) MyResults(w http.ResponseWriter, r *http.Request) {
	userID := h.extractUserID(r)
	if userID == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	list := []storage.MatchRecord{}
	if h.Results != nil {
		var err error
		list, err = h.Results.ResultsByUserID(r.Context(), userID, storage.ClampLimit(queryInt(r, "limit")))
		if err != nil {
			h.logger.Error("results by user", "user", userID, "err", err)
			http.Error(w, "failed to load results", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// extractUserID validates the bearer token and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	if h.Auth == nil {
		return ""
	}
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return ""
	}
	claims, err := h.Auth.Validate(token)
	if err != nil {
		return ""
	}
	return auth.UserIDFromClaims(claims)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func nonNil(list []storage.MatchRecord) []storage.MatchRecord {
	if list == nil {
		return []storage.MatchRecord{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "tag", "api", "err", err)
	}
}
