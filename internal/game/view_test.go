package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceNames(fc FieldCard) []string {
	out := make([]string, len(fc.Choices))
	for i, c := range fc.Choices {
		out[i] = c.Ability
	}
	return out
}

func TestViewHidesOpponentHand(t *testing.T) {
	h := newHarness(t)
	state := h.newGame(5, "soldier", "coin")

	view, ok := h.engine.View(state, alice, h.cat)
	require.True(t, ok)

	assert.Equal(t, SlotPlayer1, view.You)
	assert.True(t, view.IsMyTurn)
	assert.Len(t, view.Me.Hand, 5)
	assert.Equal(t, 35, view.Me.DeckCount)
	assert.Nil(t, view.Opponent.Hand)
	assert.Equal(t, 5, view.Opponent.HandCount)
	assert.Equal(t, 35, view.Opponent.DeckCount)

	bobView, ok := h.engine.View(state, bob, h.cat)
	require.True(t, ok)
	assert.False(t, bobView.IsMyTurn)
	for _, c := range bobView.Me.Hand {
		assert.False(t, c.Playable, "%s playable out of turn", c.CardID)
	}

	_, ok = h.engine.View(state, "uid-mallory", h.cat)
	assert.False(t, ok)
}

func TestViewPlayable(t *testing.T) {
	h := newHarness(t)
	state := h.table(seat{units: 1, hand: []string{"soldier", "giant", "ghost"}}, seat{})

	view, ok := h.engine.View(state, alice, h.cat)
	require.True(t, ok)
	assert.Equal(t, []HandCard{
		{CardID: "soldier", Playable: true},
		{CardID: "giant", Playable: false},
		{CardID: "ghost", Playable: false},
	}, view.Me.Hand)
}

func TestViewChoicesOnOwnTurn(t *testing.T) {
	h := newHarness(t)
	state := h.table(
		seat{units: 1, field: []CardInstance{
			instance("guard", "a1", false),
			instance("soldier", "a2", true),
			instance("giant", "a3", false),
		}},
		seat{field: []CardInstance{instance("guard", "b1", false)}},
	)

	view, _ := h.engine.View(state, alice, h.cat)
	require.Len(t, view.Me.Field, 3)

	assert.Equal(t, []string{"ATACAR 2(1)"}, choiceNames(view.Me.Field[0]), "DEFENDER is hidden when not attacked")
	assert.True(t, view.Me.Field[0].Choices[0].Legal)
	assert.Empty(t, view.Me.Field[1].Choices, "tapped instances offer nothing")
	require.Len(t, view.Me.Field[2].Choices, 1)
	assert.False(t, view.Me.Field[2].Choices[0].Legal, "giant cannot pay ATACAR(2)")
	assert.Empty(t, view.Opponent.Field[0].Choices)
}

func TestViewWhileBeingAttacked(t *testing.T) {
	h := newHarness(t)
	state := h.table(
		seat{units: 1, field: []CardInstance{instance("soldier", "a1", false)}},
		seat{units: 1, field: []CardInstance{instance("guard", "b1", false), instance("wall", "b2", false)}},
	)
	attacked := h.accept(state, alice, ActivateAbility("a1", "ATACAR 2(1)"))

	bobView, _ := h.engine.View(attacked, bob, h.cat)
	assert.True(t, bobView.BeingAttacked)
	assert.False(t, bobView.Attacking)
	require.NotNil(t, bobView.PendingAttack)
	assert.Equal(t, []string{"DEFENDER(1)"}, choiceNames(bobView.Me.Field[0]))
	assert.Equal(t, []string{"DEFENDER(1)"}, choiceNames(bobView.Me.Field[1]))
	assert.True(t, bobView.Me.Field[0].Choices[0].Legal)

	aliceView, _ := h.engine.View(attacked, alice, h.cat)
	assert.True(t, aliceView.Attacking)
	assert.False(t, aliceView.BeingAttacked)
}

func TestViewAfterWin(t *testing.T) {
	h := newHarness(t)
	state := h.table(seat{units: 1, score: 12, hand: []string{"tribute", "coin"}}, seat{})
	won := h.accept(state, alice, PlayCard("tribute"))

	view, _ := h.engine.View(won, alice, h.cat)
	assert.True(t, view.YouWon)
	assert.Equal(t, "Alice", view.Winner)
	require.Len(t, view.Me.Hand, 1)
	assert.False(t, view.Me.Hand[0].Playable)

	bobView, _ := h.engine.View(won, bob, h.cat)
	assert.False(t, bobView.YouWon)
}
