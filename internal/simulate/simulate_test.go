package simulate

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func attackers(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	cards := []catalog.Card{{ID: "guard", Name: "Guardia", Cost: 1, Power: 2, Text: "DEFENDER(1)"}}
	for i := 0; i < n; i++ {
		cards = append(cards, catalog.Card{
			ID:    fmt.Sprintf("raider-%02d", i),
			Name:  "Asaltante",
			Cost:  1,
			Power: 3,
			Text:  "ATACAR 2(1)",
		})
	}
	cat, err := catalog.New(cards)
	require.NoError(t, err)
	return cat
}

func TestRandomDeckIsLegal(t *testing.T) {
	cat := attackers(t, 24)
	rng := rand.New(rand.NewPCG(1, 2))

	cards, err := RandomDeck(cat, deck.DefaultRules(), rng)
	require.NoError(t, err)
	assert.NoError(t, deck.Validate(cards, cat, deck.DefaultRules()))
}

func TestRandomDeckNeedsEnoughCards(t *testing.T) {
	_, err := RandomDeck(attackers(t, 5), deck.DefaultRules(), rand.New(rand.NewPCG(1, 2)))
	assert.ErrorIs(t, err, ErrCatalogTooSmall)
}

func setups(t *testing.T, cat *catalog.Catalog, seed uint64) (game.PlayerSetup, game.PlayerSetup) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	d1, err := RandomDeck(cat, deck.DefaultRules(), rng)
	require.NoError(t, err)
	d2, err := RandomDeck(cat, deck.DefaultRules(), rng)
	require.NoError(t, err)
	return game.PlayerSetup{UID: "bot-1", DisplayName: "Uno", Deck: d1},
		game.PlayerSetup{UID: "bot-2", DisplayName: "Dos", Deck: d2}
}

func TestRunPlaysToAWinner(t *testing.T) {
	cat := attackers(t, 24)
	engine := game.NewEngine(rules.DefaultConfig(), zaptest.NewLogger(t))
	p1, p2 := setups(t, cat, 9)

	res, err := Run(engine, cat, p1, p2, Options{Seed: 9, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.True(t, res.Finished)
	assert.Contains(t, []string{"bot-1", "bot-2"}, res.State.WinnerUID())
	assert.Contains(t, []string{"Uno", "Dos"}, res.State.Winner)
	assert.Equal(t, 1, res.Events[rules.EventGameWon])
	assert.Positive(t, res.Events[rules.EventAttackDeclared])

	again, err := Run(engine, cat, p1, p2, Options{Seed: 9})
	require.NoError(t, err)
	assert.Equal(t, res.Actions, again.Actions, "same seed, same game")
	assert.Equal(t, res.State.Winner, again.State.Winner)
}

func TestRunStopsAtMaxActions(t *testing.T) {
	cat := attackers(t, 24)
	engine := game.NewEngine(rules.DefaultConfig(), nil)
	p1, p2 := setups(t, cat, 4)

	res, err := Run(engine, cat, p1, p2, Options{Seed: 4, MaxActions: 3})
	require.NoError(t, err)
	assert.False(t, res.Finished)
	assert.Equal(t, 3, res.Actions)
}

func underAttack(defenderUnits int) *game.GameState {
	state := &game.GameState{
		Turn:          "bot-1",
		TurnNumber:    4,
		Log:           []string{},
		NextInstance:  10,
		PendingAttack: &game.PendingAttack{AttackerSlot: game.SlotPlayer1, AttackerInstanceID: "a1", Level: 2},
	}
	state.Players.Set(game.SlotPlayer1, game.PlayerState{UID: "bot-1", DisplayName: "Uno"})
	state.Players.Set(game.SlotPlayer2, game.PlayerState{UID: "bot-2", DisplayName: "Dos", Units: defenderUnits})
	state.Hands = game.PerSlot[[]string]{Player1: []string{}, Player2: []string{}}
	state.Decks = game.PerSlot[[]string]{Player1: []string{}, Player2: []string{}}
	state.Fields = game.PerSlot[[]game.CardInstance]{
		Player1: []game.CardInstance{{CardID: "raider-00", InstanceID: "a1", Tapped: true}},
		Player2: []game.CardInstance{{CardID: "guard", InstanceID: "b1"}},
	}
	return state
}

func TestChooseDefendsWhenItCan(t *testing.T) {
	cat := attackers(t, 1)
	engine := game.NewEngine(rules.DefaultConfig(), nil)

	state := underAttack(1)
	require.Equal(t, "bot-2", ToMove(state))
	assert.Equal(t, game.ActivateAbility("b1", "DEFENDER(1)"), Choose(engine, state, "bot-2", cat))

	assert.Equal(t, game.SkipDefense(), Choose(engine, underAttack(0), "bot-2", cat))
}

func TestChooseEndsTurnWithNothingToDo(t *testing.T) {
	cat := attackers(t, 1)
	engine := game.NewEngine(rules.DefaultConfig(), nil)

	state := underAttack(0)
	state.PendingAttack = nil
	assert.Equal(t, "bot-1", ToMove(state))
	assert.Equal(t, game.EndTurn(), Choose(engine, state, "bot-1", cat))
}
