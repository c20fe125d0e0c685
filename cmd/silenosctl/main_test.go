package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/silenos/silenos-server-go/internal/auth"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeCatalog writes a catalog of n attackers plus one inert permanent.
func writeCatalog(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("cards:\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "  - {id: raider-%02d, name: Asaltante, type: PERMANENT, cost: 1, power: 3, text: \"ATACAR 2(1)\"}\n", i)
	}
	b.WriteString("  - {id: rock, name: Roca, type: PERMANENT, cost: 0, power: 0, text: \"\"}\n")
	b.WriteString("  - {id: coin, name: Moneda, type: ACTION, cost: 0, power: 2, text: \"GANAR (0)\"}\n")

	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCatalogValidate(t *testing.T) {
	path := writeCatalog(t, 3)

	out, err := execute(t, "", "catalog", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "raider-00")
	assert.Contains(t, out, "ATACAR 2(1)")
	assert.Contains(t, out, "5 cards loaded")
	assert.Contains(t, out, "permanents without abilities: rock")
	assert.NotContains(t, out, "abilities: rock, coin")

	_, err = execute(t, "", "catalog", "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDeckCheck(t *testing.T) {
	cat := writeCatalog(t, 20)

	var legal strings.Builder
	legal.WriteString("name: raiders\ncounts:\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&legal, "  raider-%02d: 2\n", i)
	}
	out, err := execute(t, "", "deck", "check", "--catalog", cat, "--deck", writeFile(t, "legal.yaml", legal.String()))
	require.NoError(t, err)
	assert.Contains(t, out, `Deck "raiders" is legal: 40 cards, 20 distinct.`)

	bad := writeFile(t, "bad.yaml", "name: bad\ncounts:\n  raider-00: 3\n  ghost: 1\n")
	out, err = execute(t, "", "deck", "check", "--catalog", cat, "--deck", bad)
	require.Error(t, err)
	assert.Contains(t, out, "wrong number of cards")
	assert.Contains(t, out, "3 copies of raider-00")
	assert.Contains(t, out, "ghost")

	out, err = execute(t, "", "deck", "check", "--catalog", cat, "--deck", bad, "--size", "4", "--max-copies", "3")
	require.Error(t, err)
	assert.NotContains(t, out, "wrong number of cards")

	_, err = execute(t, "", "deck", "check", "--catalog", cat)
	assert.Error(t, err, "--deck is required")
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("SILENOS_AUTH_JWT_SECRET", "cli-secret")

	out, err := execute(t, "", "--config", "", "token", "issue", "--uid", "uid-alice", "--name", "Alice")
	require.NoError(t, err)

	v, err := auth.NewVerifier("cli-secret", "silenos", time.Hour)
	require.NoError(t, err)
	id, err := v.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UID: "uid-alice", DisplayName: "Alice"}, id)

	out, err = execute(t, "", "--config", "", "token", "issue", "--uid", "uid-bob", "--secret", "override")
	require.NoError(t, err)
	_, err = v.Verify(strings.TrimSpace(out))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = execute(t, "", "--config", "", "token", "issue")
	assert.Error(t, err)
}

func TestAdminHashPassword(t *testing.T) {
	out, err := execute(t, "", "admin", "hash-password", "s3cret")
	require.NoError(t, err)
	assert.True(t, auth.CheckAdminPassword(strings.TrimSpace(out), "s3cret"))

	out, err = execute(t, "from-stdin\n", "admin", "hash-password")
	require.NoError(t, err)
	assert.True(t, auth.CheckAdminPassword(strings.TrimSpace(out), "from-stdin"))

	_, err = execute(t, "", "admin", "hash-password")
	assert.Error(t, err)
}

func TestReplayShow(t *testing.T) {
	replay := game.NewReplay("g-42")
	for turn := 1; turn <= 3; turn++ {
		s := &game.GameState{Turn: "uid-alice", TurnNumber: turn, Log: []string{fmt.Sprintf("turno %d", turn)}}
		s.Players.Set(game.SlotPlayer1, game.PlayerState{UID: "uid-alice", Score: turn})
		s.Players.Set(game.SlotPlayer2, game.PlayerState{UID: "uid-bob"})
		replay.RecordState(s)
	}
	path, err := replay.SaveToFile(t.TempDir())
	require.NoError(t, err)

	out, err := execute(t, "", "replay", "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay of game g-42: 3 states")
	assert.Contains(t, out, "3-0")
	assert.Contains(t, out, "Checksum")
	assert.NotContains(t, out, "Winner")

	sum, err := game.Checksum(replay.StateAt(2))
	require.NoError(t, err)
	assert.Contains(t, out, sum.Hash[:12])

	out, err = execute(t, "", "replay", "show", path, "--step", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "turno 2")
	assert.Contains(t, out, "score 2-0")
	assert.Contains(t, out, "Previous score 1-0")

	out, err = execute(t, "", "replay", "show", path, "--step", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "Previous")

	_, err = execute(t, "", "replay", "show", path, "--step", "9")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	cat := writeCatalog(t, 24)

	out, err := execute(t, "", "simulate", "--catalog", cat, "--seed", "5", "--games", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "game 1: winner=bot-")
	assert.Contains(t, out, "game 2: winner=bot-")
	assert.Contains(t, out, "abandoned: 0")

	again, err := execute(t, "", "simulate", "--catalog", cat, "--seed", "5", "--games", "2")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = execute(t, "", "simulate", "--catalog", writeCatalog(t, 2))
	assert.Error(t, err)

	_, err = execute(t, "", "simulate", "--catalog", cat, "--games", "0")
	assert.Error(t, err)
}
