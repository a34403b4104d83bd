package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"card-session-server/auth"
	"card-session-server/config"
	"card-session-server/match"
	"card-session-server/matchmaking"
	"card-session-server/protocol"
)

const defaultName = "Player"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MatchRouter defines what the Hub needs from the session registry.
type MatchRouter interface {
	Join(p matchmaking.Player) (*match.Session, error)
	Requeue(ctx context.Context, p matchmaking.Player) (*match.Session, error)
	Leave(conn protocol.ConnectionID)
	Post(conn protocol.ConnectionID, a match.Action) error
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (jwt.MapClaims, error)
}

// Hub maintains the set of active clients and hands out connection ids.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Router     MatchRouter
	Config     *config.Config
	// Auth, when set, is required to accept a connection.
	Auth TokenValidator

	nextID  atomic.Uint64
	stopped chan struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, router MatchRouter) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Router:     router,
		Config:     cfg,
		stopped:    make(chan struct{}),
		logger:     slog.Default().With("tag", "ws"),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled, Run closes every client and returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("shutdown signal received, closing clients", "clients", len(h.Clients))
			for client := range h.Clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			h.logger.Info("client connected", "conn", client.ID, "total", len(h.Clients))

		case client := <-h.Unregister:
			if h.Clients[client] {
				h.drop(client)
				h.logger.Info("client disconnected", "conn", client.ID, "total", len(h.Clients))
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.Clients, client)
	close(client.Send)
	h.Router.Leave(client.ID)
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.stopped:
	}
}

// ServeWS authenticates the request, upgrades it and routes the new client
// into matchmaking.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	var userID string
	if h.Auth != nil {
		token, err := auth.TokenFromRequest(r)
		if err != nil {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}
		claims, err := h.Auth.Validate(token)
		if err != nil {
			h.logger.Info("token rejected", "err", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = auth.UserIDFromClaims(claims)
		name = auth.DisplayNameFromClaims(claims, name)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade error", "err", err)
		return
	}

	id := protocol.ConnectionID(h.nextID.Add(1))
	client := &Client{
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		ID:      id,
		Name:    cleanName(name, h.Config.MaxNameLength),
		UserID:  userID,
		limiter: rate.NewLimiter(rate.Limit(h.Config.IntentRatePerSec), h.Config.IntentBurst),
		logger:  h.logger.With("conn", id),
	}

	select {
	case h.Register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	if _, err := h.Router.Join(client.player()); err != nil {
		client.logger.Warn("join failed", "err", err)
	}

	go client.WritePump()
	go client.ReadPump()
}

// cleanName trims name to max runes, falling back to a default.
func cleanName(name string, max int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if max > 0 && utf8.RuneCountInString(name) > max {
		name = string([]rune(name)[:max])
	}
	return name
}
