package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumIsDeterministic(t *testing.T) {
	h := newHarness(t)
	state := h.newGame(9, "soldier", "guard")

	a, err := Checksum(state)
	require.NoError(t, err)
	b, err := Checksum(state.Clone())
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash)
	assert.Len(t, a.Hash, 64)
	assert.Equal(t, 1, a.Version)

	next := h.accept(state, alice, PlayCard(state.Hands.Player1[0]))
	c, err := Checksum(next)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, c.Hash)

	ok, err := VerifyChecksum(state, a)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = VerifyChecksum(next, a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecksumTreatsNilAndEmptyAlike(t *testing.T) {
	h := newHarness(t)
	withEmpty := h.table(seat{}, seat{})
	withNil := withEmpty.Clone()
	withNil.Fields.Player1 = nil
	withNil.Hands.Player2 = nil

	a, err := Checksum(withEmpty)
	require.NoError(t, err)
	b, err := Checksum(withNil)
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestStateJSONShape(t *testing.T) {
	h := newHarness(t)
	state := h.table(
		seat{units: 2, score: 1, field: []CardInstance{instance("soldier", "inst_1", true)}},
		seat{},
	)
	state.PendingAttack = &PendingAttack{AttackerSlot: SlotPlayer1, AttackerInstanceID: "inst_1", Level: 2}

	data, err := Marshal(state)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, alice, doc["turn"])
	assert.NotContains(t, doc, "winner")

	players := doc["players"].(map[string]any)
	p1 := players["player1"].(map[string]any)
	assert.Equal(t, float64(1), p1["puntos"])
	assert.Equal(t, float64(2), p1["unidades"])

	pending := doc["pendingAttack"].(map[string]any)
	assert.Equal(t, "player1", pending["attackerPlayerKey"])
	assert.Equal(t, "inst_1", pending["attackerInstanceId"])
	assert.Equal(t, float64(2), pending["attackLevel"])

	field := doc["fields"].(map[string]any)["player1"].([]any)
	inst := field[0].(map[string]any)
	assert.Equal(t, "soldier", inst["id"])
	assert.Equal(t, true, inst["tapped"])

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, state, back)
}

func TestUnmarshalRejectsBrokenDocuments(t *testing.T) {
	tests := map[string]string{
		"not json":     `{`,
		"missing seat": `{"turn":"a","players":{"player1":{"uid":"a"},"player2":{"uid":""}}}`,
		"shared uid":   `{"turn":"a","players":{"player1":{"uid":"a"},"player2":{"uid":"a"}}}`,
		"bad turn":     `{"turn":"z","players":{"player1":{"uid":"a"},"player2":{"uid":"b"}}}`,
		"bad pending":  `{"turn":"a","players":{"player1":{"uid":"a"},"player2":{"uid":"b"}},"pendingAttack":{"attackerPlayerKey":"player3"}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(doc))
			assert.Error(t, err)
		})
	}
}
