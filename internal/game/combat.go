package game

import (
	"github.com/silenos/silenos-server-go/internal/game/rules"
)

// CombatOutcome says which side of a block is destroyed.
type CombatOutcome int

const (
	OutcomeDefenderDestroyed CombatOutcome = iota
	OutcomeAttackerDestroyed
	OutcomeBothDestroyed
)

// ResolveCombat compares attacker and defender power. The higher power
// destroys the lower; equal power destroys both.
func ResolveCombat(attackerPower, defenderPower int) CombatOutcome {
	switch {
	case attackerPower > defenderPower:
		return OutcomeDefenderDestroyed
	case defenderPower > attackerPower:
		return OutcomeAttackerDestroyed
	default:
		return OutcomeBothDestroyed
	}
}

// defend resolves the pending attack against the (already tapped) defending
// instance. The pending attack is cleared in every case and a block never
// scores.
func (m *move) defend(defender CardInstance, defenderPower int) {
	pending := m.state.PendingAttack
	m.state.PendingAttack = nil

	attackerSlot := pending.AttackerSlot
	attackerIdx, ok := m.state.FindInstance(attackerSlot, pending.AttackerInstanceID)
	if !ok {
		m.state.logf("El atacante ya no está en juego.")
		m.emit(rules.NewEvent(rules.EventAttackBlocked, string(m.slot), defender.InstanceID, pending.AttackerInstanceID).
			WithMeta("attacker", "missing"))
		return
	}

	attacker := m.state.Fields.Of(attackerSlot)[attackerIdx]
	attackerPower := 0
	if card, ok := m.card(attacker.CardID); ok {
		attackerPower = card.Power
	}

	m.state.logf("%s bloquea el ataque.", m.state.player(m.slot).DisplayName)
	m.emit(rules.NewEvent(rules.EventAttackBlocked, string(m.slot), defender.InstanceID, attacker.InstanceID))

	outcome := ResolveCombat(attackerPower, defenderPower)
	if outcome == OutcomeAttackerDestroyed || outcome == OutcomeBothDestroyed {
		m.destroy(attackerSlot, attacker.InstanceID)
	}
	if outcome == OutcomeDefenderDestroyed || outcome == OutcomeBothDestroyed {
		m.destroy(m.slot, defender.InstanceID)
	}
}

func (m *move) destroy(slot Slot, instanceID string) {
	idx, ok := m.state.FindInstance(slot, instanceID)
	if !ok {
		return
	}
	inst := m.state.Fields.Of(slot)[idx]
	m.state.removeInstance(slot, idx)
	m.state.logf("%s pierde %s.", m.state.player(slot).DisplayName, inst.CardID)
	m.emit(rules.NewEvent(rules.EventInstanceDestroyed, string(slot), inst.CardID, inst.InstanceID))
}

// settlePending credits an unblocked pending attack to its attacker when the
// attacking instance is still on the field, then clears it.
func (m *move) settlePending() {
	pending := m.state.PendingAttack
	if pending == nil {
		return
	}
	m.state.PendingAttack = nil

	if _, ok := m.state.FindInstance(pending.AttackerSlot, pending.AttackerInstanceID); !ok {
		m.emit(rules.NewEvent(rules.EventAttackResolved, string(pending.AttackerSlot), pending.AttackerInstanceID, "").
			WithMeta("attacker", "missing"))
		return
	}

	m.emit(rules.NewEventWithAmount(rules.EventAttackResolved, string(pending.AttackerSlot), pending.AttackerInstanceID, "", pending.Level).
		WithMeta("blocked", "false"))
	m.awardPoints(pending.AttackerSlot, pending.AttackerInstanceID, pending.Level)
}

func (m *move) skipDefense() rules.Reason {
	pending := m.state.PendingAttack
	if pending == nil {
		return rules.ReasonNoPendingAttack
	}
	if pending.AttackerSlot == m.slot {
		return rules.ReasonNotDefender
	}

	m.state.logf("%s no defiende.", m.state.player(m.slot).DisplayName)
	m.emit(rules.NewEvent(rules.EventDefenseSkipped, string(m.slot), "", pending.AttackerInstanceID))
	m.settlePending()
	return rules.ReasonAccepted
}
