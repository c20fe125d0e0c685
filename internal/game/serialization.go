package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SerializationChecksum identifies a state's content.
type SerializationChecksum struct {
	Hash    string // SHA-256 of the canonical JSON encoding
	Version int
}

const checksumVersion = 1

// Checksum computes a deterministic checksum of the state. The state is
// normalised first so nil and empty slices hash the same, which keeps
// checksums stable across JSON and gob round trips.
func Checksum(state *GameState) (*SerializationChecksum, error) {
	data, err := json.Marshal(state.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	sum := sha256.Sum256(data)
	return &SerializationChecksum{
		Hash:    hex.EncodeToString(sum[:]),
		Version: checksumVersion,
	}, nil
}

// VerifyChecksum reports whether the state still matches a stored checksum.
func VerifyChecksum(state *GameState, expected *SerializationChecksum) (bool, error) {
	computed, err := Checksum(state)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// Marshal encodes a state as the JSON document stored by the persistence layer.
func Marshal(state *GameState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot marshal nil state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a stored JSON state.
func Unmarshal(data []byte) (*GameState, error) {
	var state GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if err := state.validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

// validate rejects decoded documents that break seat invariants.
func (s *GameState) validate() error {
	if s.Players.Player1.UID == "" || s.Players.Player2.UID == "" {
		return fmt.Errorf("invalid state: both seats need a uid")
	}
	if s.Players.Player1.UID == s.Players.Player2.UID {
		return fmt.Errorf("invalid state: seats share uid %s", s.Players.Player1.UID)
	}
	if _, ok := s.SlotOf(s.Turn); !ok {
		return fmt.Errorf("invalid state: turn belongs to unseated uid %q", s.Turn)
	}
	if s.PendingAttack != nil && !s.PendingAttack.AttackerSlot.Valid() {
		return fmt.Errorf("invalid state: pending attack has seat %q", s.PendingAttack.AttackerSlot)
	}
	return nil
}
