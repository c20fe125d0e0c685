// Package catalog holds the immutable card definitions a game is played with.
// Ability text is parsed once when the catalog is built so the rules engine
// never touches raw text.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/silenos/silenos-server-go/internal/game/ability"
	"gopkg.in/yaml.v3"
)

// CardType is the printed type line of a card.
type CardType string

const (
	TypeAction    CardType = "ACTION"
	TypePermanent CardType = "PERMANENT"

	// typeActionLegacy is how older catalogs spell action cards.
	typeActionLegacy CardType = "ACCION"
)

// Card is a single card definition.
type Card struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Type     CardType `json:"type" yaml:"type"`
	Cost     int      `json:"cost" yaml:"cost"`
	Power    int      `json:"power" yaml:"power"`
	Text     string   `json:"text" yaml:"text"`
	ImageURL string   `json:"imageUrl,omitempty" yaml:"image,omitempty"`

	Abilities []ability.Ability `json:"-" yaml:"-"`
}

// IsAction reports whether the card resolves immediately instead of entering
// the field. Every other type is a permanent.
func (c *Card) IsAction() bool {
	t := CardType(strings.ToUpper(strings.TrimSpace(string(c.Type))))
	return t == TypeAction || t == typeActionLegacy
}

// Ability returns the first compiled ability of the given kind.
func (c *Card) Ability(kind ability.Kind) (ability.Ability, bool) {
	return ability.Find(c.Abilities, kind)
}

// HasAbility reports whether the card prints the given token.
func (c *Card) HasAbility(a ability.Ability) bool {
	for _, own := range c.Abilities {
		if own.Same(a) {
			return true
		}
	}
	return false
}

// Catalog is an immutable id -> card index.
type Catalog struct {
	cards map[string]*Card
	order []string
}

// New validates the definitions and compiles their abilities.
func New(cards []Card) (*Catalog, error) {
	c := &Catalog{
		cards: make(map[string]*Card, len(cards)),
		order: make([]string, 0, len(cards)),
	}

	for i := range cards {
		card := cards[i]
		card.ID = strings.TrimSpace(card.ID)
		if card.ID == "" {
			return nil, fmt.Errorf("card %d: id is required", i)
		}
		if _, exists := c.cards[card.ID]; exists {
			return nil, fmt.Errorf("card %s: duplicate id", card.ID)
		}
		if card.Cost < 0 {
			return nil, fmt.Errorf("card %s: negative cost %d", card.ID, card.Cost)
		}
		if card.Power < 0 {
			return nil, fmt.Errorf("card %s: negative power %d", card.ID, card.Power)
		}
		if card.Type == "" {
			card.Type = TypePermanent
		}
		card.Abilities = ability.ParseAll(card.Text)

		c.cards[card.ID] = &card
		c.order = append(c.order, card.ID)
	}

	return c, nil
}

// Lookup returns the card with the given id.
func (c *Catalog) Lookup(id string) (*Card, bool) {
	if c == nil {
		return nil, false
	}
	card, ok := c.cards[id]
	return card, ok
}

// Has reports whether a card id exists.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// All returns every card in definition order.
func (c *Catalog) All() []*Card {
	if c == nil {
		return nil
	}
	out := make([]*Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// IDs returns the sorted card ids.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}

type fileFormat struct {
	Cards []Card `json:"cards" yaml:"cards"`
}

// LoadFile reads a catalog from a YAML (.yaml, .yml) or JSON (.json) file
// with a top-level "cards" list.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var file fileFormat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}

	if len(file.Cards) == 0 {
		return nil, fmt.Errorf("catalog %s: cards list is empty", path)
	}

	cat, err := New(file.Cards)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}
