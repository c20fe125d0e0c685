// Package simulate plays whole games between two scripted players. It is
// used to smoke-test card catalogs and rule changes from the command line.
package simulate

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/ability"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// DefaultMaxActions stops games that never reach the win score.
const DefaultMaxActions = 2000

var (
	ErrCatalogTooSmall = errors.New("catalog cannot fill a deck")
	ErrStuck           = errors.New("no legal action for the player to move")
)

// Options tunes a simulation.
type Options struct {
	Seed       uint64
	MaxActions int
	Logger     *zap.Logger
}

// Result is a finished (or abandoned) simulation.
type Result struct {
	State   *game.GameState
	Actions int
	Turns   int
	Events  map[rules.EventType]int
	// Finished is false when MaxActions ran out first.
	Finished bool
}

// RandomDeck fills a legal deck from the catalog, using each card up to the
// copy limit.
func RandomDeck(cat *catalog.Catalog, r deck.Rules, rng *rand.Rand) ([]string, error) {
	ids := cat.IDs()
	if len(ids)*r.MaxCopies < r.Size {
		return nil, fmt.Errorf("%w: %d cards with %d copies each, need %d", ErrCatalogTooSmall, len(ids), r.MaxCopies, r.Size)
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	cards := make([]string, 0, r.Size)
	for _, id := range ids {
		for range r.MaxCopies {
			if len(cards) == r.Size {
				return cards, nil
			}
			cards = append(cards, id)
		}
	}
	return cards, nil
}

// Run deals the two players in and plays until someone wins.
func Run(engine *game.Engine, cat *catalog.Catalog, p1, p2 game.PlayerSetup, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxActions := opts.MaxActions
	if maxActions <= 0 {
		maxActions = DefaultMaxActions
	}

	state, err := engine.Initialize(p1, p2, game.WithSeed(opts.Seed))
	if err != nil {
		return nil, err
	}

	res := &Result{Events: make(map[rules.EventType]int)}
	for res.Actions < maxActions && !state.Finished() {
		uid := ToMove(state)
		action := Choose(engine, state, uid, cat)

		out := engine.PerformAction(state, uid, action, cat)
		if !out.Accepted {
			logger.Debug("scripted action rejected",
				zap.String("uid", uid),
				zap.String("type", string(action.Type)),
				zap.String("reason", out.Reason.String()),
			)
			out = engine.PerformAction(state, uid, fallback(state), cat)
			if !out.Accepted {
				return nil, fmt.Errorf("%w: %s (%s)", ErrStuck, uid, out.Reason)
			}
		}

		state = out.State
		res.Actions++
		for _, e := range out.Events {
			res.Events[e.Type]++
		}
	}

	res.State = state
	res.Turns = state.TurnNumber
	res.Finished = state.Finished()
	logger.Debug("simulation finished",
		zap.Int("actions", res.Actions),
		zap.Int("turns", res.Turns),
		zap.String("winner", state.WinnerUID()),
	)
	return res, nil
}

// ToMove returns the uid expected to act: the defender while an attack is
// pending, the turn player otherwise.
func ToMove(state *game.GameState) string {
	if pa := state.PendingAttack; pa != nil {
		return state.Players.Of(pa.AttackerSlot.Opponent()).UID
	}
	return state.Turn
}

// Choose picks a greedy action from the player's view: defend when possible,
// then play the first playable card, then use the first legal ability,
// otherwise end the turn.
func Choose(engine *game.Engine, state *game.GameState, uid string, cat game.Catalog) game.Action {
	view, ok := engine.View(state, uid, cat)
	if !ok {
		return game.EndTurn()
	}

	if view.BeingAttacked {
		for _, fc := range view.Me.Field {
			for _, ch := range fc.Choices {
				if ch.Legal && ch.Kind == ability.KindDefend.String() {
					return game.ActivateAbility(fc.InstanceID, ch.Ability)
				}
			}
		}
		return game.SkipDefense()
	}

	for _, hc := range view.Me.Hand {
		if hc.Playable {
			return game.PlayCard(hc.CardID)
		}
	}
	for _, fc := range view.Me.Field {
		for _, ch := range fc.Choices {
			if ch.Legal {
				return game.ActivateAbility(fc.InstanceID, ch.Ability)
			}
		}
	}
	return game.EndTurn()
}

func fallback(state *game.GameState) game.Action {
	if state.PendingAttack != nil {
		return game.SkipDefense()
	}
	return game.EndTurn()
}
