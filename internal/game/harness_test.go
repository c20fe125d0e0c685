package game

import (
	"testing"

	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	alice = "uid-alice"
	bob   = "uid-bob"
)

// testCards is the catalog used across the engine tests.
var testCards = []catalog.Card{
	{ID: "soldier", Name: "Soldado", Type: catalog.TypePermanent, Cost: 1, Power: 3, Text: "ATACAR 2(1)"},
	{ID: "guard", Name: "Guardia", Type: catalog.TypePermanent, Cost: 1, Power: 3, Text: "DEFENDER(1) ATACAR 2(1)"},
	{ID: "wall", Name: "Muro", Type: catalog.TypePermanent, Cost: 0, Power: 5, Text: "DEFENDER(1)"},
	{ID: "sentry", Name: "Centinela", Type: catalog.TypePermanent, Cost: 0, Power: 1, Text: "DEFENDER(1)"},
	{ID: "giant", Name: "Gigante", Type: catalog.TypePermanent, Cost: 3, Power: 4, Text: "ATACAR(2)"},
	{ID: "miner", Name: "Minero", Type: catalog.TypePermanent, Cost: 2, Power: 2, Text: "ACUMULAR(0)"},
	{ID: "banker", Name: "Banquero", Type: catalog.TypePermanent, Cost: 2, Power: 2, Text: "GANAR(1)"},
	{ID: "flyer", Name: "Volador", Type: catalog.TypePermanent, Cost: 1, Power: 1, Text: "VOLAR(1)"},
	{ID: "rock", Name: "Roca", Type: catalog.TypePermanent, Cost: 1, Power: 3, Text: ""},
	{ID: "coin", Name: "Moneda", Type: catalog.TypeAction, Cost: 0, Power: 2, Text: "ACUMULAR(0)"},
	{ID: "tribute", Name: "Tributo", Type: catalog.TypeAction, Cost: 1, Power: 3, Text: "GANAR(0) ACUMULAR(0)"},
	{ID: "strike", Name: "Golpe", Type: "ACCION", Cost: 0, Power: 4, Text: "ATACAR 2(0)"},
}

type harness struct {
	t      *testing.T
	engine *Engine
	cat    *catalog.Catalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, rules.DefaultConfig())
}

func newHarnessWith(t *testing.T, cfg rules.Config) *harness {
	t.Helper()
	cat, err := catalog.New(testCards)
	require.NoError(t, err)
	return &harness{
		t:      t,
		engine: NewEngine(cfg, zaptest.NewLogger(t)),
		cat:    cat,
	}
}

// deck returns a legal-size deck cycling through ids.
func (h *harness) deck(ids ...string) []string {
	size := h.engine.Config().DeckSize
	out := make([]string, size)
	for i := range out {
		out[i] = ids[i%len(ids)]
	}
	return out
}

// newGame starts a seeded game where both players hold decks built from ids.
func (h *harness) newGame(seed uint64, ids ...string) *GameState {
	h.t.Helper()
	state, err := h.engine.Initialize(
		PlayerSetup{UID: alice, DisplayName: "Alice", Deck: h.deck(ids...)},
		PlayerSetup{UID: bob, DisplayName: "Bob", Deck: h.deck(ids...)},
		WithSeed(seed),
	)
	require.NoError(h.t, err)
	return state
}

// seat describes one side of a hand-crafted state.
type seat struct {
	units int
	score int
	hand  []string
	deck  []string
	field []CardInstance
}

// table builds a state in the middle of a game with alice to act.
func (h *harness) table(p1, p2 seat) *GameState {
	state := &GameState{
		Turn:         alice,
		TurnNumber:   3,
		Log:          []string{"La partida ha comenzado."},
		NextInstance: 100,
	}
	state.Players.Set(SlotPlayer1, PlayerState{UID: alice, DisplayName: "Alice", Units: p1.units, Score: p1.score})
	state.Players.Set(SlotPlayer2, PlayerState{UID: bob, DisplayName: "Bob", Units: p2.units, Score: p2.score})
	for _, s := range []struct {
		slot Slot
		seat seat
	}{{SlotPlayer1, p1}, {SlotPlayer2, p2}} {
		state.Hands.Set(s.slot, orEmpty(s.seat.hand))
		state.Decks.Set(s.slot, orEmpty(s.seat.deck))
		state.Fields.Set(s.slot, orEmpty(s.seat.field))
	}
	return state
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func instance(cardID, instanceID string, tapped bool) CardInstance {
	return CardInstance{CardID: cardID, InstanceID: instanceID, Tapped: tapped}
}

func (h *harness) perform(state *GameState, uid string, action Action) Result {
	return h.engine.PerformAction(state, uid, action, h.cat)
}

// accept performs the action, requires it to be accepted and checks the
// input state was left intact.
func (h *harness) accept(state *GameState, uid string, action Action) *GameState {
	h.t.Helper()
	before := state.Clone()
	res := h.perform(state, uid, action)
	require.True(h.t, res.Accepted, "action %+v by %s rejected: %s", action, uid, res.Reason)
	require.Equal(h.t, rules.ReasonAccepted, res.Reason)
	require.Equal(h.t, before, state.Clone(), "input state was mutated")
	return res.State
}

// reject performs the action and requires it to fail with reason, returning
// the state deep-equal and pointer-identical to the input.
func (h *harness) reject(state *GameState, uid string, action Action, reason rules.Reason) {
	h.t.Helper()
	before := state.Clone()
	res := h.perform(state, uid, action)
	require.False(h.t, res.Accepted, "action %+v by %s unexpectedly accepted", action, uid)
	require.Equal(h.t, reason, res.Reason)
	require.Same(h.t, state, res.State)
	require.Empty(h.t, res.Events)
	require.Equal(h.t, before, state.Clone())
}

func eventTypes(events []rules.Event) []rules.EventType {
	out := make([]rules.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
