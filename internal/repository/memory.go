package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/silenos/silenos-server-go/internal/deck"
)

// Memory is a Store backed by maps. Records are copied on the way in and out
// so callers never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	games map[string]*GameRecord
	decks map[string]deck.Deck
	now   func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		games: make(map[string]*GameRecord),
		decks: make(map[string]deck.Deck),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) CreateGame(_ context.Context, rec *GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[rec.ID]; exists {
		return fmt.Errorf("game %s: %w", rec.ID, ErrAlreadyExists)
	}
	if err := prepareCreate(rec, m.now()); err != nil {
		return err
	}
	m.games[rec.ID] = rec.Clone()
	return nil
}

func (m *Memory) GetGame(_ context.Context, id string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return rec.Clone(), nil
}

func (m *Memory) UpdateGame(_ context.Context, rec *GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.games[rec.ID]
	if !ok {
		return fmt.Errorf("game %s: %w", rec.ID, ErrNotFound)
	}
	if stored.Version != rec.Version {
		return fmt.Errorf("game %s at version %d, stored %d: %w", rec.ID, rec.Version, stored.Version, ErrConflict)
	}

	rec.Version++
	rec.UpdatedAt = m.now()
	rec.CreatedAt = stored.CreatedAt
	m.games[rec.ID] = rec.Clone()
	return nil
}

func (m *Memory) ListGames(_ context.Context, status Status) ([]*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*GameRecord, 0, len(m.games))
	for _, rec := range m.games {
		if status == "" || rec.Status == status {
			out = append(out, rec.Clone())
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *Memory) FindStalledGames(_ context.Context, before time.Time) ([]*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*GameRecord
	for _, rec := range m.games {
		if rec.Status == StatusActive && rec.PendingSince != nil && !rec.PendingSince.After(before) {
			out = append(out, rec.Clone())
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *Memory) SaveDeck(_ context.Context, uid string, d deck.Deck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d.Cards = slices.Clone(d.Cards)
	m.decks[uid] = d
	return nil
}

func (m *Memory) GetDeck(_ context.Context, uid string) (*deck.Deck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decks[uid]
	if !ok {
		return nil, fmt.Errorf("deck for %s: %w", uid, ErrNotFound)
	}
	d.Cards = slices.Clone(d.Cards)
	return &d, nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
