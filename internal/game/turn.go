package game

import (
	"github.com/silenos/silenos-server-go/internal/game/rules"
)

func (m *move) endTurn() rules.Reason {
	if !m.isActive() {
		return rules.ReasonNotYourTurn
	}

	next := m.slot.Opponent()
	for _, step := range rules.EndTurnSequence() {
		switch step {
		case rules.StepResolveAttack:
			if pending := m.state.PendingAttack; pending != nil && pending.AttackerSlot == m.slot {
				m.settlePending()
			}
		case rules.StepPassTurn:
			m.state.Turn = m.state.player(next).UID
			m.state.TurnNumber++
			m.emit(rules.NewEvent(rules.EventTurnEnded, string(m.slot), "", ""))
			m.state.logf("Turno de %s.", m.state.player(next).DisplayName)
			m.emit(rules.NewEventWithAmount(rules.EventTurnStarted, string(next), "", "", m.state.TurnNumber))
		case rules.StepUntap:
			m.untapAll(next)
		case rules.StepDraw:
			if cardID, ok := m.state.drawTop(next); ok {
				m.emit(rules.NewEvent(rules.EventCardDrawn, string(next), cardID, ""))
			}
		case rules.StepIncome:
			income := m.engine.cfg.TurnIncome
			m.state.updatePlayer(next, func(p *PlayerState) { p.Units += income })
			m.emit(rules.NewEventWithAmount(rules.EventUnitsGained, string(next), "", "", income))
		}
	}
	return rules.ReasonAccepted
}

func (m *move) untapAll(slot Slot) {
	field := m.state.Fields.Of(slot)
	untapped := make([]CardInstance, len(field))
	for i, inst := range field {
		inst.Tapped = false
		untapped[i] = inst
	}
	m.state.Fields.Set(slot, untapped)
}
