package main

import (
	"strings"
	"testing"

	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCards(t *testing.T) {
	csv := `name,id,type,cost,power,text,image
Soldado,soldier,permanent,1,3,"ATACAR 2(1)",https://cdn.example/soldier.png
Moneda,coin,ACTION,0,2,GANAR (0),
Roca,rock,,,,,
`
	cards, err := readCards(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, cards, 3)

	assert.Equal(t, catalog.Card{
		ID: "soldier", Name: "Soldado", Type: catalog.TypePermanent,
		Cost: 1, Power: 3, Text: "ATACAR 2(1)", ImageURL: "https://cdn.example/soldier.png",
	}, cards[0])
	assert.Equal(t, catalog.TypeAction, cards[1].Type)
	assert.Zero(t, cards[2].Cost)

	cat, err := catalog.New(cards)
	require.NoError(t, err)
	rock, ok := cat.Lookup("rock")
	require.True(t, ok)
	assert.Equal(t, catalog.TypePermanent, rock.Type)
}

func TestReadCardsOptionalImage(t *testing.T) {
	cards, err := readCards(strings.NewReader("id,name,type,cost,power,text\nx,X,PERMANENT,1,1,\n"))
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Empty(t, cards[0].ImageURL)
}

func TestReadCardsErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"missing column": "id,name,type,cost,text\n",
		"bad cost":       "id,name,type,cost,power,text\nx,X,PERMANENT,many,1,\n",
		"bad power":      "id,name,type,cost,power,text\nx,X,PERMANENT,1,-,\n",
		"ragged row":     "id,name,type,cost,power,text\nx,X\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := readCards(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}
