package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/silenos/silenos-server-go/internal/game/ability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompilesAbilities(t *testing.T) {
	cat, err := New([]Card{
		{ID: "a", Name: "Alpha", Type: TypePermanent, Cost: 1, Power: 3, Text: "ATACAR 2(1) DEFENDER(1)"},
		{ID: "b", Name: "Beta", Type: TypeAction, Cost: 0, Power: 2, Text: "GANAR(0)"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	alpha, ok := cat.Lookup("a")
	require.True(t, ok)
	require.Len(t, alpha.Abilities, 2)
	assert.Equal(t, ability.KindAttack, alpha.Abilities[0].Kind)
	assert.False(t, alpha.IsAction())

	def, ok := alpha.Ability(ability.KindDefend)
	require.True(t, ok)
	assert.Equal(t, 1, def.Cost)

	beta, ok := cat.Lookup("b")
	require.True(t, ok)
	assert.True(t, beta.IsAction())
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := map[string][]Card{
		"missing id":    {{Name: "x"}},
		"duplicate id":  {{ID: "a"}, {ID: "a"}},
		"negative cost": {{ID: "a", Cost: -1}},
		"negative power": {{ID: "a", Power: -2}},
	}
	for name, cards := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(cards)
			assert.Error(t, err)
		})
	}
}

func TestDefaultTypeIsPermanent(t *testing.T) {
	cat, err := New([]Card{{ID: "a"}})
	require.NoError(t, err)
	card, _ := cat.Lookup("a")
	assert.Equal(t, TypePermanent, card.Type)
	assert.False(t, card.IsAction())
}

func TestHasAbility(t *testing.T) {
	cat, err := New([]Card{{ID: "a", Text: "ATACAR 2(1)"}})
	require.NoError(t, err)
	card, _ := cat.Lookup("a")

	same, err := ability.Parse("ATACAR 2 (1)")
	require.NoError(t, err)
	other, err := ability.Parse("ATACAR 5(1)")
	require.NoError(t, err)

	assert.True(t, card.HasAbility(same))
	assert.False(t, card.HasAbility(other))
}

func TestLoadFileYAML(t *testing.T) {
	cat, err := LoadFile(filepath.Join("testdata", "cards.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"guardia", "mercader", "tributo"}, cat.IDs())

	tributo, ok := cat.Lookup("tributo")
	require.True(t, ok)
	assert.True(t, tributo.IsAction())
	assert.Equal(t, "https://example.invalid/tributo.png", tributo.ImageURL)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	body := `{"cards":[{"id":"x","name":"Equis","type":"PERMANENT","cost":1,"power":1,"text":"DEFENDER(1)"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	card, ok := cat.Lookup("x")
	require.True(t, ok)
	assert.Len(t, card.Abilities, 1)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("cards: []\n"), 0o600))
	_, err = LoadFile(empty)
	assert.Error(t, err)

	txt := filepath.Join(dir, "cards.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	_, err = LoadFile(txt)
	assert.Error(t, err)
}

func TestNilCatalog(t *testing.T) {
	var cat *Catalog
	_, ok := cat.Lookup("a")
	assert.False(t, ok)
	assert.Zero(t, cat.Len())
	assert.Nil(t, cat.All())
}
