package rules

import "fmt"

// Step is one stage of the end of turn hand-over.
type Step int

const (
	StepResolveAttack Step = iota
	StepPassTurn
	StepUntap
	StepDraw
	StepIncome
)

var stepNames = map[Step]string{
	StepResolveAttack: "RESOLVE_ATTACK",
	StepPassTurn:      "PASS_TURN",
	StepUntap:         "UNTAP",
	StepDraw:          "DRAW",
	StepIncome:        "INCOME",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

// endTurnSequence is the order END_TURN applies its effects in. An
// unanswered attack by the outgoing player settles before the turn passes;
// everything after that happens to the incoming player.
var endTurnSequence = []Step{
	StepResolveAttack,
	StepPassTurn,
	StepUntap,
	StepDraw,
	StepIncome,
}

// EndTurnSequence returns a copy of the end of turn steps in order.
func EndTurnSequence() []Step {
	sequence := make([]Step, len(endTurnSequence))
	copy(sequence, endTurnSequence)
	return sequence
}
