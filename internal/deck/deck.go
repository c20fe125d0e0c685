// Package deck implements the deck builder rules: how many cards a deck
// holds, how many copies of a card it may contain, and that every card
// exists in the catalog.
package deck

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrDeckSize      = errors.New("deck has the wrong number of cards")
	ErrTooManyCopies = errors.New("deck has too many copies of a card")
	ErrUnknownCard   = errors.New("deck contains a card not in the catalog")
	ErrDeckFull      = errors.New("deck is full")
	ErrNotInDeck     = errors.New("card is not in the deck")
)

// Rules are the deck construction limits.
type Rules struct {
	Size      int `mapstructure:"size" json:"size" yaml:"size"`
	MaxCopies int `mapstructure:"max_copies" json:"maxCopies" yaml:"max_copies"`
}

// DefaultRules returns the standard limits: exactly 40 cards, at most two
// copies of each.
func DefaultRules() Rules {
	return Rules{Size: 40, MaxCopies: 2}
}

// Catalog reports whether a card id exists.
type Catalog interface {
	Has(id string) bool
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(id string) bool

func (f CatalogFunc) Has(id string) bool { return f(id) }

// Validate checks a full deck and reports every problem found.
func Validate(cards []string, cat Catalog, rules Rules) error {
	return validate(cards, cat, rules, true)
}

// ValidateDraft checks a deck still being built: it may be short, but never
// over the size limit.
func ValidateDraft(cards []string, cat Catalog, rules Rules) error {
	return validate(cards, cat, rules, false)
}

func validate(cards []string, cat Catalog, rules Rules, complete bool) error {
	var errs []error

	switch {
	case complete && len(cards) != rules.Size:
		errs = append(errs, fmt.Errorf("%w: has %d, want %d", ErrDeckSize, len(cards), rules.Size))
	case !complete && len(cards) > rules.Size:
		errs = append(errs, fmt.Errorf("%w: has %d, at most %d", ErrDeckSize, len(cards), rules.Size))
	}

	counts := countCards(cards)
	for _, id := range sortedKeys(counts) {
		if rules.MaxCopies > 0 && counts[id] > rules.MaxCopies {
			errs = append(errs, fmt.Errorf("%w: %d copies of %s, at most %d", ErrTooManyCopies, counts[id], id, rules.MaxCopies))
		}
		if cat != nil && !cat.Has(id) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownCard, id))
		}
	}

	return errors.Join(errs...)
}

// Deck is a deck under construction.
type Deck struct {
	Name  string   `json:"name" yaml:"name"`
	Cards []string `json:"cards" yaml:"cards"`
}

// Add appends a card, refusing when the deck is full or already holds the
// maximum number of copies.
func (d *Deck) Add(id string, rules Rules) error {
	if len(d.Cards) >= rules.Size {
		return fmt.Errorf("%w: %d cards", ErrDeckFull, rules.Size)
	}
	if rules.MaxCopies > 0 && d.Count(id) >= rules.MaxCopies {
		return fmt.Errorf("%w: already %d copies of %s", ErrTooManyCopies, rules.MaxCopies, id)
	}
	d.Cards = append(d.Cards, id)
	return nil
}

// Remove drops the last copy of a card.
func (d *Deck) Remove(id string) error {
	for i := len(d.Cards) - 1; i >= 0; i-- {
		if d.Cards[i] == id {
			d.Cards = slices.Delete(d.Cards, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotInDeck, id)
}

// Count returns the copies of a card in the deck.
func (d *Deck) Count(id string) int {
	n := 0
	for _, c := range d.Cards {
		if c == id {
			n++
		}
	}
	return n
}

// Counts returns copies per card id.
func (d *Deck) Counts() map[string]int {
	return countCards(d.Cards)
}

// Complete reports whether the deck has exactly the required size.
func (d *Deck) Complete(rules Rules) bool {
	return len(d.Cards) == rules.Size
}

// LoadFile reads a deck from YAML. Cards may be listed one by one or as
// id/count pairs:
//
//	name: aggro
//	cards: [soldier, soldier, guard]
//	counts:
//	  coin: 2
func LoadFile(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck %s: %w", path, err)
	}

	var file struct {
		Name   string         `yaml:"name"`
		Cards  []string       `yaml:"cards"`
		Counts map[string]int `yaml:"counts"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse deck %s: %w", path, err)
	}

	d := &Deck{Name: file.Name, Cards: file.Cards}
	for _, id := range sortedKeys(file.Counts) {
		n := file.Counts[id]
		if n < 0 {
			return nil, fmt.Errorf("deck %s: negative count for %s", path, id)
		}
		for range n {
			d.Cards = append(d.Cards, id)
		}
	}
	return d, nil
}

func countCards(cards []string) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[c]++
	}
	return counts
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
