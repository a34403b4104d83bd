package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"card-session-server/api"
	"card-session-server/cards"
	"card-session-server/config"
	"card-session-server/effects"
	"card-session-server/matchmaking"
	"card-session-server/protocol"
	"card-session-server/ws"
)

// setupTestServer creates a test HTTP server with the full session stack.
func setupTestServer(t *testing.T) (*httptest.Server, *matchmaking.Registry) {
	t.Helper()

	cfg := config.Defaults()
	cfg.AckTimeoutMS = 200
	catalog, err := cards.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	fx := effects.NewRegistry()
	effects.RegisterAll(fx)

	registry := matchmaking.NewRegistry(cfg, catalog, fx, nil)
	hub := ws.NewHub(cfg, registry)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(api.NewRouter(api.NewHandler(registry, nil, nil), http.HandlerFunc(hub.ServeWS)))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server, registry
}

// connectWS creates a WebSocket connection and waits until it is routed.
func connectWS(t *testing.T, server *httptest.Server, registry *matchmaking.Registry, id protocol.ConnectionID, name string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	waitFor(t, "connection routed", func() bool { return registry.Route(id) != nil })
	return conn
}

type inbound struct {
	Tag     protocol.EventTag `json:"tag"`
	EventID uint64            `json:"eventId"`
	Payload json.RawMessage   `json:"payload"`
}

// readUntil reads events until one with tag arrives.
func readUntil(t *testing.T, conn *websocket.Conn, tag protocol.EventTag) inbound {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", tag, err)
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
		}
		if msg.Tag == tag {
			return msg
		}
	}
}

func sendIntent(t *testing.T, conn *websocket.Conn, tag protocol.IntentTag, payload any) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"tag": tag, "payload": payload})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// startMatch connects two players and accepts the ready check for both.
func startMatch(t *testing.T, server *httptest.Server, registry *matchmaking.Registry) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	conn1 := connectWS(t, server, registry, 1, "Alice")
	conn2 := connectWS(t, server, registry, 2, "Bob")

	for _, c := range []*websocket.Conn{conn1, conn2} {
		msg := readUntil(t, c, protocol.EventAcceptPrompt)
		var prompt protocol.AcceptPromptPayload
		json.Unmarshal(msg.Payload, &prompt)
		sendIntent(t, c, protocol.IntentAcceptReadyCheck, protocol.AcceptReadyCheckIntent{MatchID: prompt.MatchID, Accept: true})
	}
	for _, c := range []*websocket.Conn{conn1, conn2} {
		msg := readUntil(t, c, protocol.EventGameStart)
		var start protocol.GameStartPayload
		json.Unmarshal(msg.Payload, &start)
		if len(start.Players) != 2 || start.Players[0] != 1 {
			t.Fatalf("unexpected players %v", start.Players)
		}
		msg = readUntil(t, c, protocol.EventTurnChanged)
		var turn protocol.TurnChangedPayload
		json.Unmarshal(msg.Payload, &turn)
		if turn.TurnOwner != 1 || turn.TurnNumber != 1 {
			t.Fatalf("expected connection 1 to open turn 1, got %+v", turn)
		}
	}
	return conn1, conn2
}

func TestIntegration_FullMatch(t *testing.T) {
	server, registry := setupTestServer(t)
	conn1, conn2 := startMatch(t, server, registry)

	sendIntent(t, conn1, protocol.IntentEndTurn, nil)
	for _, c := range []*websocket.Conn{conn1, conn2} {
		msg := readUntil(t, c, protocol.EventTurnChanged)
		var turn protocol.TurnChangedPayload
		json.Unmarshal(msg.Payload, &turn)
		if turn.TurnOwner != 2 || turn.TurnNumber != 2 {
			t.Errorf("expected connection 2 on turn 2, got %+v", turn)
		}
	}

	sendIntent(t, conn2, protocol.IntentConcede, nil)
	var ids []uint64
	for _, c := range []*websocket.Conn{conn1, conn2} {
		msg := readUntil(t, c, protocol.EventMatchEnded)
		var ended protocol.MatchEndedPayload
		json.Unmarshal(msg.Payload, &ended)
		if ended.Winner != 1 || ended.Loser != 2 || ended.Reason != "conceded" {
			t.Errorf("unexpected result %+v", ended)
		}
		ids = append(ids, msg.EventID)
	}
	sendIntent(t, conn1, protocol.IntentAcknowledge, protocol.AcknowledgeIntent{EventID: ids[0]})
	sendIntent(t, conn2, protocol.IntentAcknowledge, protocol.AcknowledgeIntent{EventID: ids[1]})

	waitFor(t, "session teardown", func() bool { return registry.Count() == 0 })
	recent := registry.Recent(5)
	if len(recent) != 1 || recent[0].Players[0].Name != "Alice" || recent[0].WinnerIndex != 0 {
		t.Errorf("unexpected recent results %+v", recent)
	}
}

func TestIntegration_DisconnectEndsMatch(t *testing.T) {
	server, registry := setupTestServer(t)
	conn1, conn2 := startMatch(t, server, registry)

	conn1.Close()
	msg := readUntil(t, conn2, protocol.EventMatchEnded)
	var ended protocol.MatchEndedPayload
	json.Unmarshal(msg.Payload, &ended)
	if ended.Winner != 2 || ended.Reason != "disconnect" {
		t.Errorf("expected connection 2 to win by disconnect, got %+v", ended)
	}
}

func TestIntegration_RequeueAfterMatch(t *testing.T) {
	server, registry := setupTestServer(t)
	conn1, conn2 := startMatch(t, server, registry)

	sendIntent(t, conn1, protocol.IntentConcede, nil)
	readUntil(t, conn1, protocol.EventMatchEnded)
	readUntil(t, conn2, protocol.EventMatchEnded)

	sendIntent(t, conn1, protocol.IntentRequeue, nil)
	sendIntent(t, conn2, protocol.IntentRequeue, nil)
	for _, c := range []*websocket.Conn{conn1, conn2} {
		readUntil(t, c, protocol.EventAcceptPrompt)
	}
	if registry.Count() != 1 {
		t.Errorf("expected one new session, got %d", registry.Count())
	}
}

func TestIntegration_MatchesEndpoint(t *testing.T) {
	server, registry := setupTestServer(t)
	connectWS(t, server, registry, 1, "Alice")

	resp, err := http.Get(server.URL + "/api/matches")
	if err != nil {
		t.Fatalf("get matches: %v", err)
	}
	defer resp.Body.Close()
	var body api.MatchesResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Live != 1 || body.Waiting != 1 {
		t.Errorf("expected one waiting session, got %+v", body)
	}
}
