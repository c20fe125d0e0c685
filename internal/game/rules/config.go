package rules

import (
	"errors"
	"fmt"
)

// Config holds the numeric constants of the game.
type Config struct {
	StartingUnits int `mapstructure:"starting_units" json:"startingUnits" yaml:"starting_units"`
	HandSize      int `mapstructure:"hand_size" json:"handSize" yaml:"hand_size"`
	WinScore      int `mapstructure:"win_score" json:"winScore" yaml:"win_score"`
	TurnIncome    int `mapstructure:"turn_income" json:"turnIncome" yaml:"turn_income"`
	DeckSize      int `mapstructure:"deck_size" json:"deckSize" yaml:"deck_size"`

	// RequirePrintedAbility rejects ACTIVATE_ABILITY text the instance's
	// card does not print. Off in the standard rules.
	RequirePrintedAbility bool `mapstructure:"require_printed_ability" json:"requirePrintedAbility" yaml:"require_printed_ability"`
}

// DefaultConfig returns the standard rules: one starting unit, five card
// hands, first to 13 points, one unit of income per turn, 40 card decks.
// Any well-formed ability text may be activated on any instance.
func DefaultConfig() Config {
	return Config{
		StartingUnits: 1,
		HandSize:      5,
		WinScore:      13,
		TurnIncome:    1,
		DeckSize:      40,
	}
}

// Validate rejects configurations no game could be played under.
func (c Config) Validate() error {
	var errs []error
	if c.StartingUnits < 0 {
		errs = append(errs, fmt.Errorf("starting units must not be negative, got %d", c.StartingUnits))
	}
	if c.HandSize < 0 {
		errs = append(errs, fmt.Errorf("hand size must not be negative, got %d", c.HandSize))
	}
	if c.WinScore <= 0 {
		errs = append(errs, fmt.Errorf("win score must be positive, got %d", c.WinScore))
	}
	if c.TurnIncome < 0 {
		errs = append(errs, fmt.Errorf("turn income must not be negative, got %d", c.TurnIncome))
	}
	if c.DeckSize < c.HandSize {
		errs = append(errs, fmt.Errorf("deck size %d is smaller than hand size %d", c.DeckSize, c.HandSize))
	}
	return errors.Join(errs...)
}
