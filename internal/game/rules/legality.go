package rules

import "fmt"

// Reason explains why an action was accepted or rejected.
type Reason string

const (
	ReasonAccepted           Reason = "accepted"
	ReasonGameOver           Reason = "game_over"
	ReasonUnknownPlayer      Reason = "unknown_player"
	ReasonUnknownAction      Reason = "unknown_action"
	ReasonNotYourTurn        Reason = "not_your_turn"
	ReasonCardNotInHand      Reason = "card_not_in_hand"
	ReasonUnknownCard        Reason = "unknown_card"
	ReasonInsufficientUnits  Reason = "insufficient_units"
	ReasonInstanceNotFound   Reason = "instance_not_found"
	ReasonInstanceTapped     Reason = "instance_tapped"
	ReasonMalformedAbility   Reason = "malformed_ability"
	ReasonAbilityNotOnCard   Reason = "ability_not_on_card"
	ReasonUnsupportedAbility Reason = "unsupported_ability"
	ReasonAttackPending      Reason = "attack_pending"
	ReasonNoPendingAttack    Reason = "no_pending_attack"
	ReasonNotDefender        Reason = "not_defender"
)

var reasonText = map[Reason]string{
	ReasonAccepted:           "action accepted",
	ReasonGameOver:           "the game is already over",
	ReasonUnknownPlayer:      "player is not seated in this game",
	ReasonUnknownAction:      "unknown action type",
	ReasonNotYourTurn:        "it is not your turn",
	ReasonCardNotInHand:      "card is not in hand",
	ReasonUnknownCard:        "card is not in the catalog",
	ReasonInsufficientUnits:  "not enough units",
	ReasonInstanceNotFound:   "instance is not on your field",
	ReasonInstanceTapped:     "instance is tapped",
	ReasonMalformedAbility:   "ability text is malformed",
	ReasonAbilityNotOnCard:   "card does not have that ability",
	ReasonUnsupportedAbility: "ability cannot be activated",
	ReasonAttackPending:      "an attack is already pending",
	ReasonNoPendingAttack:    "no attack is pending",
	ReasonNotDefender:        "only the defending player may do that",
}

func (r Reason) String() string {
	return string(r)
}

// Describe returns a human readable explanation.
func (r Reason) Describe() string {
	if text, ok := reasonText[r]; ok {
		return text
	}
	return fmt.Sprintf("rejected (%s)", string(r))
}
