package game

import (
	"slices"

	"github.com/silenos/silenos-server-go/internal/game/ability"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
)

func (m *move) playCard(cardID string) rules.Reason {
	if !m.isActive() {
		return rules.ReasonNotYourTurn
	}

	hand := m.state.Hands.Of(m.slot)
	idx := slices.Index(hand, cardID)
	if idx < 0 {
		return rules.ReasonCardNotInHand
	}

	card, ok := m.card(cardID)
	if !ok {
		return rules.ReasonUnknownCard
	}

	player := m.state.player(m.slot)
	if player.Units < card.Cost {
		return rules.ReasonInsufficientUnits
	}

	m.state.updatePlayer(m.slot, func(p *PlayerState) { p.Units -= card.Cost })
	m.state.Hands.Set(m.slot, without(hand, idx))
	m.emit(rules.NewEventWithAmount(rules.EventCardPlayed, string(m.slot), card.ID, "", card.Cost))

	if card.IsAction() {
		m.resolveActionCard(card)
		return rules.ReasonAccepted
	}

	inst := CardInstance{
		CardID:     card.ID,
		InstanceID: m.state.newInstanceID(),
		Tapped:     true,
	}
	m.state.addInstance(m.slot, inst)
	m.state.logf("%s juega %s.", player.DisplayName, card.Name)
	m.emit(rules.NewEvent(rules.EventPermanentEntered, string(m.slot), card.ID, inst.InstanceID))
	return rules.ReasonAccepted
}

// resolveActionCard applies the first ability token printed on an action
// card. Only ACUMULAR and GANAR have an effect; the card is then discarded.
func (m *move) resolveActionCard(card *catalog.Card) {
	name := m.state.player(m.slot).DisplayName
	m.state.logf("%s usa %s.", name, card.Name)

	if len(card.Abilities) > 0 {
		switch first := card.Abilities[0]; first.Kind {
		case ability.KindAccumulate:
			m.gainUnits(card.ID, card.Power)
		case ability.KindGain:
			m.gainPoints(card.ID, card.Power)
		}
	}

	m.emit(rules.NewEvent(rules.EventActionResolved, string(m.slot), card.ID, ""))
}

func (m *move) gainUnits(sourceID string, amount int) {
	m.state.updatePlayer(m.slot, func(p *PlayerState) { p.Units += amount })
	m.state.logf("%s gana %d unidades.", m.state.player(m.slot).DisplayName, amount)
	m.emit(rules.NewEventWithAmount(rules.EventUnitsGained, string(m.slot), sourceID, "", amount))
}

func (m *move) gainPoints(sourceID string, amount int) {
	m.awardPoints(m.slot, sourceID, amount)
}

func (m *move) awardPoints(slot Slot, sourceID string, amount int) {
	m.state.updatePlayer(slot, func(p *PlayerState) { p.Score += amount })
	m.state.logf("%s gana %d puntos.", m.state.player(slot).DisplayName, amount)
	m.emit(rules.NewEventWithAmount(rules.EventPointsGained, string(slot), sourceID, "", amount))
}
