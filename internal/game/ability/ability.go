package ability

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies what an ability does when it resolves.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccumulate
	KindGain
	KindAttack
	KindDefend
)

var kindNames = map[Kind]string{
	KindUnknown:    "UNKNOWN",
	KindAccumulate: "ACCUMULATE",
	KindGain:       "GAIN",
	KindAttack:     "ATTACK",
	KindDefend:     "DEFEND",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// Ability names as they appear on printed cards.
const (
	NameAccumulate = "ACUMULAR"
	NameGenerate   = "GENERAR"
	NameGain       = "GANAR"
	NameAttack     = "ATACAR"
	NameDefend     = "DEFENDER"
)

var kindsByName = map[string]Kind{
	NameAccumulate: KindAccumulate,
	NameGenerate:   KindAccumulate,
	NameGain:       KindGain,
	NameAttack:     KindAttack,
	NameDefend:     KindDefend,
}

// ErrMalformed is returned when a token does not follow NAME[ level](cost).
var ErrMalformed = errors.New("malformed ability token")

// MaxDigits is the most digits a level or cost may have.
const MaxDigits = 4

// tokenPattern matches NAME at the start of a word, an optional level and a
// parenthesised cost: "ATACAR 2(1)", "DEFENDER(2)", "GANAR (3)".
var tokenPattern = regexp.MustCompile(
	fmt.Sprintf(`\b([A-Z][A-Z_]*)(?:\s*(\d{1,%[1]d}))?\s*\((\d{1,%[1]d})\)`, MaxDigits))

// Ability is a single parsed ability token.
type Ability struct {
	Kind     Kind
	Name     string
	Level    int
	HasLevel bool
	Cost     int
	Raw      string
}

// Parse parses a single submitted ability token. Surrounding text is
// tolerated; the first well-formed token wins.
func Parse(token string) (Ability, error) {
	match := tokenPattern.FindStringSubmatch(token)
	if match == nil {
		return Ability{}, fmt.Errorf("%w: %q", ErrMalformed, token)
	}
	return fromMatch(match)
}

// ParseAll returns every well-formed token in card text, in order of
// appearance. Unrecognised names are kept with KindUnknown so callers can
// present exactly what is printed.
func ParseAll(text string) []Ability {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	abilities := make([]Ability, 0, len(matches))
	for _, match := range matches {
		a, err := fromMatch(match)
		if err != nil {
			continue
		}
		abilities = append(abilities, a)
	}
	return abilities
}

// First returns the first well-formed token in card text.
func First(text string) (Ability, bool) {
	a, err := Parse(text)
	if err != nil {
		return Ability{}, false
	}
	return a, true
}

func fromMatch(match []string) (Ability, error) {
	if len(match) < 4 {
		return Ability{}, ErrMalformed
	}

	name := strings.ToUpper(match[1])
	a := Ability{
		Kind: kindsByName[name],
		Name: name,
		Raw:  strings.TrimSpace(match[0]),
	}

	if match[2] != "" {
		level, err := strconv.Atoi(match[2])
		if err != nil {
			return Ability{}, fmt.Errorf("%w: level %q", ErrMalformed, match[2])
		}
		a.Level = level
		a.HasLevel = true
	}

	cost, err := strconv.Atoi(match[3])
	if err != nil {
		return Ability{}, fmt.Errorf("%w: cost %q", ErrMalformed, match[3])
	}
	a.Cost = cost

	return a, nil
}

// Same reports whether two tokens denote the same printed ability,
// ignoring whitespace differences in the raw text.
func (a Ability) Same(other Ability) bool {
	return a.Name == other.Name &&
		a.HasLevel == other.HasLevel &&
		a.Level == other.Level &&
		a.Cost == other.Cost
}

// String returns the canonical printed form, e.g. "ATACAR 2(1)".
func (a Ability) String() string {
	if a.HasLevel {
		return fmt.Sprintf("%s %d(%d)", a.Name, a.Level, a.Cost)
	}
	return fmt.Sprintf("%s(%d)", a.Name, a.Cost)
}

// Find returns the first ability of the given kind.
func Find(abilities []Ability, kind Kind) (Ability, bool) {
	for _, a := range abilities {
		if a.Kind == kind {
			return a, true
		}
	}
	return Ability{}, false
}
