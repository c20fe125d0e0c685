package game

import "github.com/silenos/silenos-server-go/internal/game/rules"

// ActionType discriminates the action variants.
type ActionType string

const (
	ActionPlayCard        ActionType = "PLAY_CARD"
	ActionActivateAbility ActionType = "ACTIVATE_ABILITY"
	ActionSkipDefense     ActionType = "SKIP_DEFENSE"
	ActionEndTurn         ActionType = "END_TURN"
)

// Action is one player interaction.
type Action struct {
	Type       ActionType `json:"type"`
	CardID     string     `json:"cardId,omitempty"`
	InstanceID string     `json:"instanceId,omitempty"`
	Ability    string     `json:"action,omitempty"`
}

// PlayCard builds a PLAY_CARD action.
func PlayCard(cardID string) Action {
	return Action{Type: ActionPlayCard, CardID: cardID}
}

// ActivateAbility builds an ACTIVATE_ABILITY action for the raw ability text.
func ActivateAbility(instanceID, ability string) Action {
	return Action{Type: ActionActivateAbility, InstanceID: instanceID, Ability: ability}
}

// SkipDefense builds a SKIP_DEFENSE action.
func SkipDefense() Action {
	return Action{Type: ActionSkipDefense}
}

// EndTurn builds an END_TURN action.
func EndTurn() Action {
	return Action{Type: ActionEndTurn}
}

// Result is the outcome of PerformAction. When Accepted is false, State is
// the input state and Events is empty.
type Result struct {
	State    *GameState
	Accepted bool
	Reason   rules.Reason
	Events   []rules.Event
}

func accepted(state *GameState, events []rules.Event) Result {
	return Result{State: state, Accepted: true, Reason: rules.ReasonAccepted, Events: events}
}

func rejected(state *GameState, reason rules.Reason) Result {
	return Result{State: state, Reason: reason}
}
