package repository

import (
	"encoding/json"
	"fmt"

	"github.com/silenos/silenos-server-go/internal/game"
)

// gameRow is the column encoding shared by the SQL stores.
type gameRow struct {
	player1 []byte
	player2 []byte
	state   []byte
}

func encodeRow(rec *GameRecord) (gameRow, error) {
	var row gameRow
	var err error
	if row.player1, err = encodeSeat(rec.Player1); err != nil {
		return row, err
	}
	if row.player2, err = encodeSeat(rec.Player2); err != nil {
		return row, err
	}
	if rec.State != nil {
		if row.state, err = game.Marshal(rec.State); err != nil {
			return row, err
		}
	}
	return row, nil
}

func (row gameRow) decodeInto(rec *GameRecord) error {
	var err error
	if rec.Player1, err = decodeSeat(row.player1); err != nil {
		return fmt.Errorf("game %s player1: %w", rec.ID, err)
	}
	if rec.Player2, err = decodeSeat(row.player2); err != nil {
		return fmt.Errorf("game %s player2: %w", rec.ID, err)
	}
	if len(row.state) > 0 {
		if rec.State, err = game.Unmarshal(row.state); err != nil {
			return fmt.Errorf("game %s state: %w", rec.ID, err)
		}
	}
	return nil
}

func encodeSeat(s *Seat) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode seat: %w", err)
	}
	return data, nil
}

func decodeSeat(data []byte) (*Seat, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var s Seat
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode seat: %w", err)
	}
	return &s, nil
}
