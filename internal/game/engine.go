// Package game implements the Silenos rules engine: a pure transition from
// (state, actor, action, catalog) to a new state.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Catalog resolves card ids to definitions. *catalog.Catalog satisfies it.
type Catalog interface {
	Lookup(id string) (*catalog.Card, bool)
}

// ErrInvalidSetup is returned by Initialize for unusable player setups.
var ErrInvalidSetup = errors.New("invalid game setup")

// PlayerSetup describes one player joining a new game.
type PlayerSetup struct {
	UID         string
	DisplayName string
	Deck        []string
}

// Engine applies the rules. It holds no per-game state and is safe for
// concurrent use.
type Engine struct {
	cfg    rules.Config
	logger *zap.Logger
}

// NewEngine creates an engine for the given rules.
func NewEngine(cfg rules.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the rules the engine plays by.
func (e *Engine) Config() rules.Config {
	return e.cfg
}

type initOptions struct {
	rng *rand.Rand
}

// InitOption customises Initialize.
type InitOption func(*initOptions)

// WithSeed makes the shuffle deterministic.
func WithSeed(seed uint64) InitOption {
	return func(o *initOptions) {
		o.rng = seededRand(seed)
	}
}

// WithRand shuffles with the given source.
func WithRand(r *rand.Rand) InitOption {
	return func(o *initOptions) {
		o.rng = r
	}
}

// Initialize creates the opening state: both decks shuffled independently,
// opening hands dealt from the top, starting units granted and player1 to act.
func (e *Engine) Initialize(p1, p2 PlayerSetup, opts ...InitOption) (*GameState, error) {
	if err := e.validateSetup(p1, p2); err != nil {
		return nil, err
	}

	var o initOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		r, err := cryptoSeededRand()
		if err != nil {
			return nil, fmt.Errorf("failed to seed shuffle: %w", err)
		}
		o.rng = r
	}

	state := &GameState{
		Turn:       p1.UID,
		TurnNumber: 1,
		Log:        []string{"La partida ha comenzado."},
	}

	for _, seat := range []struct {
		slot  Slot
		setup PlayerSetup
	}{{SlotPlayer1, p1}, {SlotPlayer2, p2}} {
		name := seat.setup.DisplayName
		if name == "" {
			name = seat.setup.UID
		}
		state.Players.Set(seat.slot, PlayerState{
			UID:         seat.setup.UID,
			DisplayName: name,
			Score:       0,
			Units:       e.cfg.StartingUnits,
		})

		deck := cloneSlice(seat.setup.Deck)
		Shuffle(o.rng, deck)
		state.Decks.Set(seat.slot, deck)
		state.Hands.Set(seat.slot, make([]string, 0, e.cfg.HandSize))
		state.Fields.Set(seat.slot, []CardInstance{})
		for range e.cfg.HandSize {
			state.drawTop(seat.slot)
		}
	}

	e.logger.Debug("game initialized",
		zap.String("player1", p1.UID),
		zap.String("player2", p2.UID),
		zap.Int("deck_size", len(p1.Deck)),
	)

	return state, nil
}

func (e *Engine) validateSetup(p1, p2 PlayerSetup) error {
	if p1.UID == "" || p2.UID == "" {
		return fmt.Errorf("%w: both players need a uid", ErrInvalidSetup)
	}
	if p1.UID == p2.UID {
		return fmt.Errorf("%w: a player cannot play against themselves", ErrInvalidSetup)
	}
	for _, p := range []PlayerSetup{p1, p2} {
		if len(p.Deck) < e.cfg.HandSize {
			return fmt.Errorf("%w: deck of %s has %d cards, fewer than a hand of %d",
				ErrInvalidSetup, p.UID, len(p.Deck), e.cfg.HandSize)
		}
		if e.cfg.DeckSize > 0 && len(p.Deck) != e.cfg.DeckSize {
			return fmt.Errorf("%w: deck of %s has %d cards, want %d",
				ErrInvalidSetup, p.UID, len(p.Deck), e.cfg.DeckSize)
		}
	}
	return nil
}

// move is the working context of a single PerformAction call. state is a
// shallow copy of the input, updated copy on write.
type move struct {
	engine  *Engine
	state   *GameState
	slot    Slot
	catalog Catalog
	events  []rules.Event
}

func (m *move) emit(evt rules.Event) {
	m.events = append(m.events, evt)
}

func (m *move) card(id string) (*catalog.Card, bool) {
	if m.catalog == nil {
		return nil, false
	}
	return m.catalog.Lookup(id)
}

func (m *move) isActive() bool {
	return m.state.Turn == m.state.player(m.slot).UID
}

// PerformAction applies one action for the player with actorUID. The input
// state is never modified; a rejected action returns it unchanged together
// with the reason. A uid seated in neither slot is rejected with
// unknown_player rather than acting as player 2.
func (e *Engine) PerformAction(state *GameState, actorUID string, action Action, cat Catalog) Result {
	if state == nil {
		return rejected(nil, rules.ReasonUnknownPlayer)
	}
	if state.Finished() {
		return rejected(state, rules.ReasonGameOver)
	}

	slot, ok := state.SlotOf(actorUID)
	if !ok {
		e.logger.Debug("action from unseated player", zap.String("uid", actorUID))
		return rejected(state, rules.ReasonUnknownPlayer)
	}

	next := *state
	m := &move{engine: e, state: &next, slot: slot, catalog: cat}

	var reason rules.Reason
	switch action.Type {
	case ActionPlayCard:
		reason = m.playCard(action.CardID)
	case ActionActivateAbility:
		reason = m.activateAbility(action.InstanceID, action.Ability)
	case ActionSkipDefense:
		reason = m.skipDefense()
	case ActionEndTurn:
		reason = m.endTurn()
	default:
		e.logger.Warn("unknown action type",
			zap.String("type", string(action.Type)),
			zap.String("uid", actorUID),
		)
		return rejected(state, rules.ReasonUnknownAction)
	}

	if reason != rules.ReasonAccepted {
		e.logger.Debug("action rejected",
			zap.String("type", string(action.Type)),
			zap.String("uid", actorUID),
			zap.String("reason", reason.String()),
		)
		return rejected(state, reason)
	}

	m.checkWinner()
	return accepted(m.state, m.events)
}

// checkWinner sets the winner once a score reaches the threshold. The acting
// player is checked before the opponent.
func (m *move) checkWinner() {
	for _, slot := range []Slot{m.slot, m.slot.Opponent()} {
		p := m.state.player(slot)
		if p.Score >= m.engine.cfg.WinScore {
			m.state.Winner = p.DisplayName
			m.state.WinnerSlot = slot
			m.state.logf("%s gana la partida con %d puntos.", p.DisplayName, p.Score)
			m.emit(rules.NewEventWithAmount(rules.EventGameWon, string(slot), "", "", p.Score))
			return
		}
	}
}
