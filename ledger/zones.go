package ledger

import (
	"fmt"
	"math/rand"
	"slices"
)

// Zone is one of the places a card can be.
type Zone int

const (
	ZoneNone Zone = iota
	Deck
	Hand
	Board
	Discard
	Exile
	MatchPlot
)

// String returns the protocol string for a Zone.
func (z Zone) String() string {
	switch z {
	case Deck:
		return "deck"
	case Hand:
		return "hand"
	case Board:
		return "board"
	case Discard:
		return "discard"
	case Exile:
		return "exile"
	case MatchPlot:
		return "match_plot"
	default:
		return "none"
	}
}

// AllZones lists every real zone in a fixed order.
var AllZones = []Zone{Deck, Hand, Board, Discard, Exile, MatchPlot}

// Zones holds a player's cards. Deck[0] is the top of the deck.
type Zones struct {
	Deck      []string `json:"deck"`
	Hand      []string `json:"hand"`
	Board     []string `json:"board"`
	Discard   []string `json:"discard"`
	Exile     []string `json:"exile"`
	MatchPlot []string `json:"matchPlot"`
}

func (z *Zones) slot(zone Zone) *[]string {
	switch zone {
	case Deck:
		return &z.Deck
	case Hand:
		return &z.Hand
	case Board:
		return &z.Board
	case Discard:
		return &z.Discard
	case Exile:
		return &z.Exile
	case MatchPlot:
		return &z.MatchPlot
	default:
		return nil
	}
}

// Cards returns a copy of the cards in zone.
func (l *PlayerLedger) Cards(zone Zone) []string {
	s := l.Zones.slot(zone)
	if s == nil {
		return nil
	}
	return slices.Clone(*s)
}

// Count returns the number of cards in zone.
func (l *PlayerLedger) Count(zone Zone) int {
	if s := l.Zones.slot(zone); s != nil {
		return len(*s)
	}
	return 0
}

// Locate returns the zone holding cardID.
func (l *PlayerLedger) Locate(cardID string) (Zone, bool) {
	for _, z := range AllZones {
		if slices.Contains(*l.Zones.slot(z), cardID) {
			return z, true
		}
	}
	return ZoneNone, false
}

// In reports whether cardID is in zone.
func (l *PlayerLedger) In(cardID string, zone Zone) bool {
	s := l.Zones.slot(zone)
	return s != nil && slices.Contains(*s, cardID)
}

// Move relocates cardID from one zone to another. Leaving the board drops the
// card's stat overlay.
func (l *PlayerLedger) Move(cardID string, from, to Zone) error {
	src, dst := l.Zones.slot(from), l.Zones.slot(to)
	if src == nil || dst == nil {
		return fmt.Errorf("move %s: invalid zone %s -> %s", cardID, from, to)
	}
	i := slices.Index(*src, cardID)
	if i < 0 {
		return fmt.Errorf("move %s: not in %s", cardID, from)
	}
	*src = slices.Delete(*src, i, i+1)
	*dst = append(*dst, cardID)
	if from == Board && to != Board {
		delete(l.Stats, cardID)
	}
	return nil
}

// MoveAny relocates cardID from wherever it is to zone.
func (l *PlayerLedger) MoveAny(cardID string, to Zone) (Zone, error) {
	from, ok := l.Locate(cardID)
	if !ok {
		return ZoneNone, fmt.Errorf("move %s: card not owned", cardID)
	}
	if from == to {
		return from, nil
	}
	return from, l.Move(cardID, from, to)
}

// Draw moves up to n cards from the top of the deck into the hand and
// returns them in draw order.
func (l *PlayerLedger) Draw(n int) []string {
	if n > len(l.Zones.Deck) {
		n = len(l.Zones.Deck)
	}
	if n <= 0 {
		return nil
	}
	drawn := slices.Clone(l.Zones.Deck[:n])
	l.Zones.Deck = slices.Delete(l.Zones.Deck, 0, n)
	l.Zones.Hand = append(l.Zones.Hand, drawn...)
	return drawn
}

// ShuffleDeck performs a Fisher–Yates shuffle of the deck.
func (l *PlayerLedger) ShuffleDeck(rng *rand.Rand) {
	d := l.Zones.Deck
	for i := len(d) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// CheckZones returns an error if any card identity sits in more than one zone
// or twice in the same zone.
func (l *PlayerLedger) CheckZones() error {
	seen := make(map[string]Zone)
	for _, z := range AllZones {
		for _, id := range *l.Zones.slot(z) {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("card %s in both %s and %s", id, prev, z)
			}
			seen[id] = z
		}
	}
	return nil
}
