package game

import (
	"github.com/silenos/silenos-server-go/internal/game/ability"
	"github.com/silenos/silenos-server-go/internal/game/rules"
)

// activateAbility checks preconditions in a fixed order: the instance, its
// tap state, the submitted text, the card, the ability kind, then the cost.
// The submitted text need not be printed on the card unless the rules
// require it.
func (m *move) activateAbility(instanceID, text string) rules.Reason {
	idx, ok := m.state.FindInstance(m.slot, instanceID)
	if !ok {
		return rules.ReasonInstanceNotFound
	}
	inst := m.state.Fields.Of(m.slot)[idx]
	if inst.Tapped {
		return rules.ReasonInstanceTapped
	}

	ab, err := ability.Parse(text)
	if err != nil {
		return rules.ReasonMalformedAbility
	}

	card, ok := m.card(inst.CardID)
	if !ok {
		return rules.ReasonUnknownCard
	}
	if m.engine.cfg.RequirePrintedAbility && !card.HasAbility(ab) {
		return rules.ReasonAbilityNotOnCard
	}

	switch ab.Kind {
	case ability.KindAccumulate, ability.KindGain:
		if !m.isActive() {
			return rules.ReasonNotYourTurn
		}
	case ability.KindAttack:
		if !m.isActive() {
			return rules.ReasonNotYourTurn
		}
		if m.state.PendingAttack != nil {
			return rules.ReasonAttackPending
		}
	case ability.KindDefend:
		pending := m.state.PendingAttack
		if pending == nil {
			return rules.ReasonNoPendingAttack
		}
		if pending.AttackerSlot == m.slot {
			return rules.ReasonNotDefender
		}
	default:
		return rules.ReasonUnsupportedAbility
	}

	if m.state.player(m.slot).Units < ab.Cost {
		return rules.ReasonInsufficientUnits
	}

	m.state.updatePlayer(m.slot, func(p *PlayerState) { p.Units -= ab.Cost })
	inst.Tapped = true
	m.state.setInstance(m.slot, idx, inst)
	m.emit(rules.NewEventWithAmount(rules.EventAbilityActivated, string(m.slot), inst.InstanceID, "", ab.Cost).
		WithMeta("ability", ab.String()))

	switch ab.Kind {
	case ability.KindAccumulate:
		m.gainUnits(inst.InstanceID, card.Power)
	case ability.KindGain:
		m.gainPoints(inst.InstanceID, card.Power)
	case ability.KindAttack:
		level := card.Power
		if ab.HasLevel {
			level = ab.Level
		}
		m.declareAttack(inst, card.Name, level)
	case ability.KindDefend:
		m.defend(inst, card.Power)
	}
	return rules.ReasonAccepted
}

// hasUsableDefender reports whether slot holds an untapped instance with a
// DEFENDER ability it can currently pay for.
func (m *move) hasUsableDefender(slot Slot) bool {
	units := m.state.player(slot).Units
	for _, inst := range m.state.Fields.Of(slot) {
		if inst.Tapped {
			continue
		}
		card, ok := m.card(inst.CardID)
		if !ok {
			continue
		}
		if def, ok := card.Ability(ability.KindDefend); ok && def.Cost <= units {
			return true
		}
	}
	return false
}

func (m *move) declareAttack(attacker CardInstance, cardName string, level int) {
	name := m.state.player(m.slot).DisplayName
	m.state.logf("%s ataca con %s (nivel %d).", name, cardName, level)
	m.emit(rules.NewEventWithAmount(rules.EventAttackDeclared, string(m.slot), attacker.InstanceID, "", level))

	if m.hasUsableDefender(m.slot.Opponent()) {
		m.state.PendingAttack = &PendingAttack{
			AttackerSlot:       m.slot,
			AttackerInstanceID: attacker.InstanceID,
			Level:              level,
		}
		m.emit(rules.NewEventWithAmount(rules.EventAttackPending, string(m.slot), attacker.InstanceID, "", level).
			WithMeta("defender", string(m.slot.Opponent())))
		return
	}

	m.emit(rules.NewEventWithAmount(rules.EventAttackResolved, string(m.slot), attacker.InstanceID, "", level).
		WithMeta("blocked", "false"))
	m.awardPoints(m.slot, attacker.InstanceID, level)
}
