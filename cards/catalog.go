package cards

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// CardType is the broad rules category of a card.
type CardType string

const (
	Activity   CardType = "activity"
	BreakEvent CardType = "break_event"
	ToadCard   CardType = "toad"
	Trinket    CardType = "trinket"
	Hero       CardType = "hero"
)

// SubType is the faction of a card.
type SubType string

const (
	Council   SubType = "council"
	Dweller   SubType = "dweller"
	Nomad     SubType = "nomad"
	Legendary SubType = "legendary"
	AllTypes  SubType = "all"
)

// Definition is the immutable template of a card.
type Definition struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    CardType `json:"type"`
	SubType SubType  `json:"subType"`
	Power   int      `json:"power"`
	Health  int      `json:"health"`
	Cost    int      `json:"cost"`
	Armor   int      `json:"armor"`
	// Effect is the handler key; empty means the card id.
	Effect string `json:"effect"`
	// ExileOnClear sends the card to exile instead of discard when the board is cleared.
	ExileOnClear bool   `json:"exileOnClear"`
	Text         string `json:"text"`
}

// EffectKey returns the registry key of the card's handler.
func (d Definition) EffectKey() string {
	if d.Effect != "" {
		return d.Effect
	}
	return d.ID
}

//go:embed cards.json
var embedded []byte

// Catalog is a read-only set of card definitions, safe for concurrent use.
type Catalog struct {
	defs  map[string]Definition
	order []string
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// LoadFile reads a catalog from a JSON file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read card catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from a JSON array of definitions.
func Parse(data []byte) (*Catalog, error) {
	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse card catalog: %w", err)
	}
	return New(defs)
}

// New builds a catalog, rejecting duplicate ids and unknown types.
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("card %q: missing id", d.Name)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("card %s: duplicate id", d.ID)
		}
		switch d.Type {
		case Activity, BreakEvent, ToadCard, Trinket, Hero:
		default:
			return nil, fmt.Errorf("card %s: unknown type %q", d.ID, d.Type)
		}
		if d.Type == ToadCard && d.Health <= 0 {
			return nil, fmt.Errorf("card %s: toad card needs positive health", d.ID)
		}
		c.defs[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (Definition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// IDs returns every card id in catalog order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.order) }

// Deck resolves a configured deck list: unknown ids are dropped, duplicates
// collapse to one copy, and an empty list means every card in the catalog.
func (c *Catalog) Deck(list []string) []string {
	if len(list) == 0 {
		return c.IDs()
	}
	seen := make(map[string]struct{}, len(list))
	deck := make([]string, 0, len(list))
	for _, id := range list {
		if _, ok := c.defs[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		deck = append(deck, id)
	}
	return deck
}
