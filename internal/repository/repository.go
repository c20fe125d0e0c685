// Package repository persists games and saved decks.
//
// Three stores implement Store: postgres (pgxpool), sqlite (modernc, no cgo)
// and an in-memory map. Updates are optimistic: a record carries the version
// it was read at and UpdateGame fails with ErrConflict if someone else wrote
// in between.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/silenos/silenos-server-go/internal/config"
	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("version conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// Status is the lifecycle stage of a game record.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusFinished:
		return true
	}
	return false
}

// Seat is a player sitting at a game.
type Seat struct {
	UID         string   `json:"uid"`
	DisplayName string   `json:"displayName"`
	Deck        []string `json:"deck,omitempty"`
}

// GameRecord is a stored game. State is nil until the second player joins.
type GameRecord struct {
	ID      string          `json:"id"`
	Status  Status          `json:"status"`
	Player1 *Seat           `json:"player1,omitempty"`
	Player2 *Seat           `json:"player2,omitempty"`
	State   *game.GameState `json:"state,omitempty"`
	Version int64           `json:"version"`
	// PendingSince is when the current pending attack was declared.
	PendingSince *time.Time `json:"pendingSince,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Seated reports whether uid holds either seat.
func (r *GameRecord) Seated(uid string) bool {
	return (r.Player1 != nil && r.Player1.UID == uid) || (r.Player2 != nil && r.Player2.UID == uid)
}

// Clone returns a deep copy.
func (r *GameRecord) Clone() *GameRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Player1 = r.Player1.clone()
	out.Player2 = r.Player2.clone()
	if r.State != nil {
		out.State = r.State.Clone()
	}
	if r.PendingSince != nil {
		t := *r.PendingSince
		out.PendingSince = &t
	}
	return &out
}

func (s *Seat) clone() *Seat {
	if s == nil {
		return nil
	}
	out := *s
	out.Deck = slices.Clone(s.Deck)
	return &out
}

// Store is the persistence boundary of the session service.
type Store interface {
	// CreateGame inserts a new record and sets its Version to 1.
	CreateGame(ctx context.Context, rec *GameRecord) error
	GetGame(ctx context.Context, id string) (*GameRecord, error)
	// UpdateGame writes rec if the stored version still equals rec.Version,
	// then bumps rec.Version. Otherwise it returns ErrConflict.
	UpdateGame(ctx context.Context, rec *GameRecord) error
	// ListGames returns games with the given status, or all games when
	// status is empty, oldest first.
	ListGames(ctx context.Context, status Status) ([]*GameRecord, error)
	// FindStalledGames returns active games whose pending attack was
	// declared at or before the given time.
	FindStalledGames(ctx context.Context, before time.Time) ([]*GameRecord, error)
	SaveDeck(ctx context.Context, uid string, d deck.Deck) error
	GetDeck(ctx context.Context, uid string) (*deck.Deck, error)
	Close() error
}

// CardSource is implemented by stores that also hold the card catalog.
type CardSource interface {
	ListCards(ctx context.Context) ([]catalog.Card, error)
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgres(ctx, cfg, logger)
	case config.DriverSQLite:
		return NewSQLite(ctx, cfg.DSN, logger)
	case config.DriverMemory, "":
		logger.Warn("using in-memory store; games are lost on restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func prepareCreate(rec *GameRecord, now time.Time) error {
	if rec.ID == "" {
		return errors.New("game id is required")
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("invalid game status %q", rec.Status)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Version = 1
	return nil
}

func sortRecords(recs []*GameRecord) {
	slices.SortStableFunc(recs, func(a, b *GameRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
