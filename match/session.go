package match

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"card-session-server/cards"
	"card-session-server/config"
	"card-session-server/ledger"
	"card-session-server/protocol"
)

// State is the lifecycle phase of a session.
type State int

const (
	WaitingForPlayers State = iota
	ReadyCheck
	StartingGame
	InGame
	Ended
)

// String returns the protocol string for a State.
func (st State) String() string {
	switch st {
	case WaitingForPlayers:
		return "waiting_for_players"
	case ReadyCheck:
		return "ready_check"
	case StartingGame:
		return "starting_game"
	case InGame:
		return "in_game"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// ActionType enumerates the kinds of actions a session can process.
type ActionType int

const (
	ActionJoin ActionType = iota
	ActionLeave
	ActionAcceptReadyCheck
	ActionAcknowledge
	ActionEndTurn
	ActionPlayCard
	ActionDiscardCard
	ActionExileCard
	ActionAddToStack
	ActionChoiceResponse
	ActionConcede
	ActionEmote
	ActionPing
	ActionPassPriority
	ActionUseTrinket
	ActionReadyCheckTimeout // internal: ready-check window elapsed
	ActionChoiceTimeout     // internal: a choice went unanswered
	ActionAckTimeout        // internal: stop waiting for acknowledgements
)

var actionNames = [...]string{
	"join", "leave", "accept_ready_check", "acknowledge", "end_turn", "play_card",
	"discard_card", "exile_card", "add_to_stack", "choice_response", "concede", "emote",
	"ping", "pass_priority", "use_trinket", "ready_check_timeout", "choice_timeout", "ack_timeout",
}

func (t ActionType) String() string {
	if int(t) >= 0 && int(t) < len(actionNames) {
		return actionNames[t]
	}
	return "unknown"
}

// Action is one client intent or internal timer event fed into a session.
type Action struct {
	Type ActionType
	Conn protocol.ConnectionID

	// Join
	Name   string
	UserID string
	Send   chan []byte

	MatchID string // AcceptReadyCheck
	Accept  bool   // AcceptReadyCheck
	EventID uint64 // Acknowledge, AckTimeout

	CardID           string           // PlayCard, DiscardCard, ExileCard, AddToStack
	ActionID         string           // AddToStack
	Targets          protocol.Targets // PlayCard, AddToStack
	RevealToOpponent bool             // DiscardCard, ExileCard, AddToStack

	ChoiceID  int      // ChoiceResponse, ChoiceTimeout
	Selection []string // ChoiceResponse

	EmoteID         string // Emote
	ClientTimestamp int64  // Ping

	gen int // ReadyCheckTimeout
}

// Handler is a card effect. It returns false, having emitted nothing, when its
// own preconditions fail.
type Handler func(s *Session, ctx CardContext) bool

// CardContext is what a handler knows about the card it is resolving.
type CardContext struct {
	CardID          string
	Owner           protocol.ConnectionID
	Targets         []protocol.ConnectionID
	TargetCards     []string
	RewardRecipient protocol.ConnectionID
	// CombatHits is the number of hits it took to kill a Toad card; zero otherwise.
	CombatHits int
}

// EffectProvider abstracts the effect registry so this package does not
// import the handlers directly.
type EffectProvider interface {
	Handler(key string) (Handler, bool)
}

// PlayerResult is one side of a finished match.
type PlayerResult struct {
	Conn   protocol.ConnectionID
	Name   string
	UserID string
	Health int
}

// Result summarizes how a session ended.
type Result struct {
	MatchID  string
	Players  []PlayerResult
	Winner   protocol.ConnectionID // zero when canceled
	Reason   string
	Turns    int
	Canceled bool
	EndedAt  time.Time
}

// Hooks are lifecycle callbacks, all invoked from the session goroutine.
type Hooks struct {
	// OnReopen fires when a player leaves before the game starts and one remains.
	OnReopen func(s *Session)
	// OnEnded fires once, when the match ends or is canceled.
	OnEnded func(r Result)
	// OnTeardown fires after Run returns.
	OnTeardown func(s *Session)
}

// Options configures a session. Zero values select the real clock, timer
// goroutines, a time-seeded shuffle, the configured combat policy and the
// default logger.
type Options struct {
	Logger   *slog.Logger
	Now      func() time.Time
	Schedule func(d time.Duration, a Action)
	Rand     *rand.Rand
	Combat   CombatPolicy
	Hooks    Hooks
}

type peer struct {
	Conn   protocol.ConnectionID
	Name   string
	UserID string
	Send   chan []byte
}

// Session is one match between two connections. All state is owned by the
// goroutine running Run (or by the caller of Dispatch in tests).
type Session struct {
	ID      string
	Actions chan Action
	done    chan struct{}

	cfg      *config.Config
	catalog  *cards.Catalog
	effects  EffectProvider
	combat   CombatPolicy
	logger   *slog.Logger
	now      func() time.Time
	schedule func(d time.Duration, a Action)
	rng      *rand.Rand
	hooks    Hooks

	state      State
	peers      []*peer
	players    map[protocol.ConnectionID]*ledger.PlayerLedger
	roster     map[protocol.ConnectionID]peer
	turnOwner  protocol.ConnectionID
	turnNumber int

	readyDeadline time.Time
	readyGen      int
	accepted      map[protocol.ConnectionID]bool

	stack       []StackEntry
	nextStackID int
	draining    bool

	choices      map[int]*ChoiceRequest
	nextChoiceID int

	nextEventID uint64
	ackWaits    map[uint64]*ackWait

	finished bool
	ended    bool
}

// NewSession creates a session waiting for its first player.
func NewSession(id string, cfg *config.Config, catalog *cards.Catalog, effects EffectProvider, opts Options) *Session {
	s := &Session{
		ID:       id,
		Actions:  make(chan Action, 16),
		done:     make(chan struct{}),
		cfg:      cfg,
		catalog:  catalog,
		effects:  effects,
		combat:   opts.Combat,
		logger:   opts.Logger,
		now:      opts.Now,
		schedule: opts.Schedule,
		rng:      opts.Rand,
		hooks:    opts.Hooks,
		state:    WaitingForPlayers,
		players:  make(map[protocol.ConnectionID]*ledger.PlayerLedger),
		roster:   make(map[protocol.ConnectionID]peer),
		choices:  make(map[int]*ChoiceRequest),
		ackWaits: make(map[uint64]*ackWait),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("tag", "match", "match", id)
	if s.now == nil {
		s.now = time.Now
	}
	if s.schedule == nil {
		s.schedule = s.startTimer
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.combat == nil {
		s.combat = PolicyByName(cfg.CombatPolicy)
	}
	return s
}

// Run is the main session loop. It processes actions sequentially until the
// session is torn down. It should be run as a goroutine.
func (s *Session) Run() {
	defer func() {
		close(s.done)
		if s.hooks.OnTeardown != nil {
			s.hooks.OnTeardown(s)
		}
	}()
	for action := range s.Actions {
		s.Dispatch(action)
		if s.finished {
			return
		}
	}
}

// Post queues an action for Run. It returns false once the session is gone.
func (s *Session) Post(a Action) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.Actions <- a:
		return true
	case <-s.done:
		return false
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Finished reports whether the session has nothing left to do.
func (s *Session) Finished() bool { return s.finished }

// startTimer posts a after d unless the session is gone by then.
func (s *Session) startTimer(d time.Duration, a Action) {
	go func() {
		select {
		case <-time.After(d):
			s.Post(a)
		case <-s.done:
		}
	}()
}

// Dispatch applies one action. Run calls it for every queued action; tests
// may call it directly to drive a session synchronously.
func (s *Session) Dispatch(a Action) {
	if s.finished {
		return
	}
	var err error
	switch a.Type {
	case ActionJoin:
		err = s.handleJoin(a)
	case ActionLeave:
		s.handleLeave(a.Conn)
	case ActionAcceptReadyCheck:
		err = s.handleAcceptReadyCheck(a.Conn, a.MatchID, a.Accept)
	case ActionReadyCheckTimeout:
		s.handleReadyCheckTimeout(a.gen)
	case ActionAcknowledge:
		s.handleAcknowledge(a.Conn, a.EventID)
	case ActionAckTimeout:
		s.handleAckTimeout(a.EventID)
	case ActionEndTurn:
		err = s.handleEndTurn(a.Conn)
	case ActionPlayCard:
		err = s.handlePlayCard(a.Conn, a.CardID, a.Targets)
	case ActionDiscardCard:
		err = s.handleMoveFromHand(a.Conn, a.CardID, a.RevealToOpponent, ledger.Discard)
	case ActionExileCard:
		err = s.handleMoveFromHand(a.Conn, a.CardID, a.RevealToOpponent, ledger.Exile)
	case ActionAddToStack:
		err = s.handleAddToStack(a.Conn, a.CardID, a.ActionID, a.Targets, a.RevealToOpponent)
	case ActionUseTrinket:
		err = s.handleUseTrinket(a.Conn)
	case ActionPassPriority:
		err = s.handlePassPriority(a.Conn)
	case ActionChoiceResponse:
		err = s.handleChoiceResponse(a.Conn, a.ChoiceID, a.Selection)
	case ActionChoiceTimeout:
		s.handleChoiceTimeout(a.ChoiceID)
	case ActionConcede:
		err = s.handleConcede(a.Conn)
	case ActionEmote:
		err = s.handleEmote(a.Conn, a.EmoteID)
	case ActionPing:
		err = s.handlePing(a.Conn, a.ClientTimestamp)
	}
	if err != nil {
		s.logger.Debug("intent rejected", "conn", a.Conn, "action", a.Type, "err", err)
		return
	}
	if s.state == InGame {
		s.checkDefeat()
	}
}

// State returns the lifecycle phase.
func (s *Session) State() State { return s.state }

// TurnOwner returns the connection whose turn it is.
func (s *Session) TurnOwner() protocol.ConnectionID { return s.turnOwner }

// TurnNumber returns the current turn, starting at 1.
func (s *Session) TurnNumber() int { return s.turnNumber }

// StackLen returns the number of unresolved stack entries.
func (s *Session) StackLen() int { return len(s.stack) }

// PendingChoices returns the number of outstanding choice requests.
func (s *Session) PendingChoices() int { return len(s.choices) }

// PeerCount returns the number of connected players.
func (s *Session) PeerCount() int { return len(s.peers) }

// Connections returns the players' connection ids, lowest first.
func (s *Session) Connections() []protocol.ConnectionID {
	ids := make([]protocol.ConnectionID, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Session) peer(conn protocol.ConnectionID) *peer {
	for _, p := range s.peers {
		if p.Conn == conn {
			return p
		}
	}
	return nil
}

func (s *Session) removePeer(conn protocol.ConnectionID) {
	for i, p := range s.peers {
		if p.Conn == conn {
			s.peers = append(s.peers[:i], s.peers[i+1:]...)
			return
		}
	}
}
