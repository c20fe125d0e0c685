package game

import (
	"github.com/silenos/silenos-server-go/internal/game/ability"
)

// PlayerView is what one player may see of a game: their own hand, both
// fields, deck and hand counts, and the moves currently open to them.
type PlayerView struct {
	You           Slot           `json:"you"`
	Turn          string         `json:"turn"`
	TurnNumber    int            `json:"turnNumber"`
	IsMyTurn      bool           `json:"isMyTurn"`
	BeingAttacked bool           `json:"isBeingAttacked"`
	Attacking     bool           `json:"isAttacking"`
	PendingAttack *PendingAttack `json:"pendingAttack,omitempty"`
	Winner        string         `json:"winner,omitempty"`
	YouWon        bool           `json:"youWon"`
	Me            SeatView       `json:"me"`
	Opponent      SeatView       `json:"opponent"`
	Log           []string       `json:"log"`
}

// SeatView is one side of the table.
type SeatView struct {
	Slot        Slot        `json:"slot"`
	UID         string      `json:"uid"`
	DisplayName string      `json:"displayName"`
	Score       int         `json:"puntos"`
	Units       int         `json:"unidades"`
	DeckCount   int         `json:"deckCount"`
	HandCount   int         `json:"handCount"`
	Hand        []HandCard  `json:"hand,omitempty"`
	Field       []FieldCard `json:"field"`
}

// HandCard is a card in the viewer's hand.
type HandCard struct {
	CardID   string `json:"cardId"`
	Playable bool   `json:"playable"`
}

// FieldCard is an instance on a field with the abilities its owner may
// choose from right now.
type FieldCard struct {
	CardInstance
	Choices []Choice `json:"choices,omitempty"`
}

// Choice is an ability offered to the viewer. Legal is false when the
// engine would currently reject it, for example because it cannot be paid.
type Choice struct {
	Ability string `json:"action"`
	Kind    string `json:"kind"`
	Cost    int    `json:"cost"`
	Legal   bool   `json:"legal"`
}

// View projects a state for the player with uid. It returns false when uid
// is not seated in the game.
func (e *Engine) View(state *GameState, uid string, cat Catalog) (*PlayerView, bool) {
	if state == nil {
		return nil, false
	}
	me, ok := state.SlotOf(uid)
	if !ok {
		return nil, false
	}

	view := &PlayerView{
		You:        me,
		Turn:       state.Turn,
		TurnNumber: state.TurnNumber,
		IsMyTurn:   state.Turn == uid,
		Winner:     state.Winner,
		YouWon:     state.Finished() && state.WinnerSlot == me,
		Log:        cloneSlice(state.Log),
		Me:         seatView(state, me),
		Opponent:   seatView(state, me.Opponent()),
	}
	if pa := state.PendingAttack; pa != nil {
		cp := *pa
		view.PendingAttack = &cp
		view.Attacking = pa.AttackerSlot == me
		view.BeingAttacked = pa.AttackerSlot != me
	}

	if state.Finished() {
		for _, cardID := range state.Hands.Of(me) {
			view.Me.Hand = append(view.Me.Hand, HandCard{CardID: cardID})
		}
		return view, true
	}

	playable := make(map[string]bool)
	for _, cardID := range state.Hands.Of(me) {
		ok, seen := playable[cardID]
		if !seen {
			ok = e.PerformAction(state, uid, PlayCard(cardID), cat).Accepted
			playable[cardID] = ok
		}
		view.Me.Hand = append(view.Me.Hand, HandCard{CardID: cardID, Playable: ok})
	}

	for i, inst := range state.Fields.Of(me) {
		view.Me.Field[i].Choices = e.choices(state, uid, inst, view, cat)
	}

	return view, true
}

// choices lists the abilities shown for an instance: DEFENDER abilities while
// being attacked, every other ability during the viewer's own turn.
func (e *Engine) choices(state *GameState, uid string, inst CardInstance, view *PlayerView, cat Catalog) []Choice {
	if inst.Tapped || cat == nil {
		return nil
	}
	card, ok := cat.Lookup(inst.CardID)
	if !ok {
		return nil
	}

	var out []Choice
	for _, ab := range card.Abilities {
		defend := ab.Kind == ability.KindDefend
		if defend && !view.BeingAttacked {
			continue
		}
		if !defend && (!view.IsMyTurn || view.BeingAttacked) {
			continue
		}
		res := e.PerformAction(state, uid, ActivateAbility(inst.InstanceID, ab.String()), cat)
		out = append(out, Choice{
			Ability: ab.String(),
			Kind:    ab.Kind.String(),
			Cost:    ab.Cost,
			Legal:   res.Accepted,
		})
	}
	return out
}

func seatView(state *GameState, slot Slot) SeatView {
	p := state.player(slot)
	field := state.Fields.Of(slot)
	sv := SeatView{
		Slot:        slot,
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Score:       p.Score,
		Units:       p.Units,
		DeckCount:   len(state.Decks.Of(slot)),
		HandCount:   len(state.Hands.Of(slot)),
		Field:       make([]FieldCard, len(field)),
	}
	for i, inst := range field {
		sv.Field[i] = FieldCard{CardInstance: inst}
	}
	return sv
}
