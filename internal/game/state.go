package game

import (
	"fmt"
	"slices"
)

// Slot is a fixed seat at the table. Slots are bound to uids when the game is
// created and never change.
type Slot string

const (
	SlotPlayer1 Slot = "player1"
	SlotPlayer2 Slot = "player2"
)

// Slots lists both seats in turn order.
var Slots = [2]Slot{SlotPlayer1, SlotPlayer2}

// Opponent returns the other seat.
func (s Slot) Opponent() Slot {
	if s == SlotPlayer1 {
		return SlotPlayer2
	}
	return SlotPlayer1
}

// Valid reports whether s names one of the two seats.
func (s Slot) Valid() bool {
	return s == SlotPlayer1 || s == SlotPlayer2
}

func (s Slot) String() string {
	return string(s)
}

// PerSlot holds one value per seat.
type PerSlot[T any] struct {
	Player1 T `json:"player1"`
	Player2 T `json:"player2"`
}

// Of returns the value for a seat.
func (p PerSlot[T]) Of(s Slot) T {
	if s == SlotPlayer2 {
		return p.Player2
	}
	return p.Player1
}

// Set replaces the value for a seat.
func (p *PerSlot[T]) Set(s Slot, v T) {
	if s == SlotPlayer2 {
		p.Player2 = v
		return
	}
	p.Player1 = v
}

// PlayerState is one player's resources.
type PlayerState struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"puntos"`
	Units       int    `json:"unidades"`
}

// CardInstance is a permanent on a field.
type CardInstance struct {
	CardID     string `json:"id"`
	InstanceID string `json:"instanceId"`
	Tapped     bool   `json:"tapped"`
}

// PendingAttack is an attack waiting for a defend or skip decision.
type PendingAttack struct {
	AttackerSlot       Slot   `json:"attackerPlayerKey"`
	AttackerInstanceID string `json:"attackerInstanceId"`
	Level              int    `json:"attackLevel"`
}

// GameState is the complete state of a game. Callers store it opaquely and
// hand it back to the engine for every action.
//
// States are treated as immutable values once returned by the engine: the
// engine copies the root and replaces any slice it changes, so a new state
// may share untouched backing arrays with the state it was derived from.
type GameState struct {
	Turn          string                  `json:"turn"`
	TurnNumber    int                     `json:"turnNumber"`
	Winner        string                  `json:"winner,omitempty"`
	WinnerSlot    Slot                    `json:"winnerKey,omitempty"`
	PendingAttack *PendingAttack          `json:"pendingAttack"`
	Players       PerSlot[PlayerState]    `json:"players"`
	Decks         PerSlot[[]string]       `json:"decks"`
	Hands         PerSlot[[]string]       `json:"hands"`
	Fields        PerSlot[[]CardInstance] `json:"fields"`
	Log           []string                `json:"log"`
	NextInstance  int                     `json:"nextInstance"`
}

// SlotOf resolves a uid to its seat.
func (s *GameState) SlotOf(uid string) (Slot, bool) {
	if uid == "" {
		return "", false
	}
	switch uid {
	case s.Players.Player1.UID:
		return SlotPlayer1, true
	case s.Players.Player2.UID:
		return SlotPlayer2, true
	}
	return "", false
}

// ActiveSlot returns the seat whose turn it is.
func (s *GameState) ActiveSlot() Slot {
	if s.Turn == s.Players.Player2.UID {
		return SlotPlayer2
	}
	return SlotPlayer1
}

// Finished reports whether a winner has been decided.
func (s *GameState) Finished() bool {
	return s.Winner != ""
}

// WinnerUID returns the uid seated at WinnerSlot, or "" while the game is on.
// Winner itself holds the display name.
func (s *GameState) WinnerUID() string {
	if !s.Finished() {
		return ""
	}
	return s.player(s.WinnerSlot).UID
}

// FindInstance returns the index of an instance on a seat's field.
func (s *GameState) FindInstance(slot Slot, instanceID string) (int, bool) {
	for i, inst := range s.Fields.Of(slot) {
		if inst.InstanceID == instanceID {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy that shares no memory with s. Nil slices become
// empty slices.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	if s.PendingAttack != nil {
		pa := *s.PendingAttack
		c.PendingAttack = &pa
	}
	c.Decks = PerSlot[[]string]{Player1: cloneSlice(s.Decks.Player1), Player2: cloneSlice(s.Decks.Player2)}
	c.Hands = PerSlot[[]string]{Player1: cloneSlice(s.Hands.Player1), Player2: cloneSlice(s.Hands.Player2)}
	c.Fields = PerSlot[[]CardInstance]{Player1: cloneSlice(s.Fields.Player1), Player2: cloneSlice(s.Fields.Player2)}
	c.Log = cloneSlice(s.Log)
	return &c
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// The helpers below implement copy on write. Every change to a slice
// produces a fresh slice so states derived earlier stay intact.

func appended[T any](s []T, v ...T) []T {
	return append(slices.Clip(s), v...)
}

func without[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func replaced[T any](s []T, i int, v T) []T {
	out := cloneSlice(s)
	out[i] = v
	return out
}

func (s *GameState) logf(format string, args ...any) {
	s.Log = appended(s.Log, fmt.Sprintf(format, args...))
}

func (s *GameState) player(slot Slot) PlayerState {
	return s.Players.Of(slot)
}

func (s *GameState) updatePlayer(slot Slot, fn func(*PlayerState)) {
	p := s.Players.Of(slot)
	fn(&p)
	s.Players.Set(slot, p)
}

func (s *GameState) setInstance(slot Slot, idx int, inst CardInstance) {
	s.Fields.Set(slot, replaced(s.Fields.Of(slot), idx, inst))
}

func (s *GameState) removeInstance(slot Slot, idx int) {
	s.Fields.Set(slot, without(s.Fields.Of(slot), idx))
}

func (s *GameState) addInstance(slot Slot, inst CardInstance) {
	s.Fields.Set(slot, appended(s.Fields.Of(slot), inst))
}

func (s *GameState) newInstanceID() string {
	s.NextInstance++
	return fmt.Sprintf("inst_%d", s.NextInstance)
}

// drawTop pops the top card of a seat's deck into its hand.
func (s *GameState) drawTop(slot Slot) (string, bool) {
	deck := s.Decks.Of(slot)
	if len(deck) == 0 {
		return "", false
	}
	card := deck[len(deck)-1]
	s.Decks.Set(slot, slices.Clip(deck[:len(deck)-1]))
	s.Hands.Set(slot, appended(s.Hands.Of(slot), card))
	return card, true
}
