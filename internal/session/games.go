package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/silenos/silenos-server-go/internal/auth"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"github.com/silenos/silenos-server-go/internal/repository"
	"go.uber.org/zap"
)

// maxWriteAttempts bounds retries when another writer bumps the version
// between our read and write.
const maxWriteAttempts = 3

// GameView is a game as one player sees it. Game is nil until both seats
// are taken.
type GameView struct {
	GameID  string            `json:"gameId"`
	Status  repository.Status `json:"status"`
	Version int64             `json:"version"`
	Host    *SeatSummary      `json:"host,omitempty"`
	Guest   *SeatSummary      `json:"guest,omitempty"`
	Game    *game.PlayerView  `json:"game,omitempty"`
}

// SeatSummary is a seat without its deck.
type SeatSummary struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

func summarize(seat *repository.Seat) *SeatSummary {
	if seat == nil {
		return nil
	}
	return &SeatSummary{UID: seat.UID, DisplayName: seat.DisplayName}
}

// Outcome is the result of SubmitAction.
type Outcome struct {
	Accepted bool          `json:"accepted"`
	Reason   rules.Reason  `json:"reason"`
	Message  string        `json:"message"`
	Events   []rules.Event `json:"events,omitempty"`
	View     *GameView     `json:"view"`
}

// CreateGame opens a game hosted by id with their saved deck.
func (s *Service) CreateGame(ctx context.Context, id auth.Identity) (*GameView, error) {
	cards, err := s.playableDeck(ctx, id.UID)
	if err != nil {
		return nil, err
	}

	rec := &repository.GameRecord{
		ID:      s.newID(),
		Status:  repository.StatusWaiting,
		Player1: &repository.Seat{UID: id.UID, DisplayName: id.DisplayName, Deck: cards},
	}
	if err := s.store.CreateGame(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	s.logger.Info("game created",
		zap.String("game_id", rec.ID),
		zap.String("host", id.UID),
	)
	return s.viewOf(rec, id.UID), nil
}

// JoinGame takes the second seat of a waiting game and deals it.
func (s *Service) JoinGame(ctx context.Context, gameID string, id auth.Identity) (*GameView, error) {
	cards, err := s.playableDeck(ctx, id.UID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(gameID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if rec.Status != repository.StatusWaiting || rec.Player1 == nil {
		return nil, ErrGameNotWaiting
	}
	if rec.Player1.UID == id.UID {
		return nil, ErrOwnGame
	}

	guest := &repository.Seat{UID: id.UID, DisplayName: id.DisplayName, Deck: cards}
	state, err := s.engine.Initialize(
		game.PlayerSetup{UID: rec.Player1.UID, DisplayName: rec.Player1.DisplayName, Deck: rec.Player1.Deck},
		game.PlayerSetup{UID: guest.UID, DisplayName: guest.DisplayName, Deck: guest.Deck},
		s.initOptions...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	rec.Player2 = guest
	rec.State = state
	rec.Status = repository.StatusActive
	if err := s.store.UpdateGame(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConcurrentWrite
		}
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	s.logger.Info("game started",
		zap.String("game_id", rec.ID),
		zap.String("player1", rec.Player1.UID),
		zap.String("player2", guest.UID),
	)

	s.record(rec)
	start := rules.NewEventWithAmount(rules.EventTurnStarted, game.SlotPlayer1.String(), "", "", state.TurnNumber)
	s.bus.PublishBatch(rules.Stamp([]rules.Event{start}, rec.ID, s.now()))

	return s.viewOf(rec, id.UID), nil
}

// View returns the game as uid sees it.
func (s *Service) View(ctx context.Context, gameID, uid string) (*GameView, error) {
	rec, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !rec.Seated(uid) {
		return nil, ErrNotSeated
	}
	return s.viewOf(rec, uid), nil
}

func (s *Service) viewOf(rec *repository.GameRecord, uid string) *GameView {
	v := &GameView{
		GameID:  rec.ID,
		Status:  rec.Status,
		Version: rec.Version,
		Host:    summarize(rec.Player1),
		Guest:   summarize(rec.Player2),
	}
	if rec.State != nil {
		if pv, ok := s.engine.View(rec.State, uid, s.Catalog()); ok {
			v.Game = pv
		}
	}
	return v
}

// SubmitAction applies one action for uid. A rule rejection is not an
// error: it comes back as an Outcome with Accepted false.
func (s *Service) SubmitAction(ctx context.Context, gameID, uid string, action game.Action) (*Outcome, error) {
	return s.submit(ctx, gameID, uid, action, nil)
}

// submit runs the action under the game lock. When guard rejects the
// freshly loaded record nothing is applied and errSkip is returned.
func (s *Service) submit(ctx context.Context, gameID, uid string, action game.Action, guard func(*repository.GameRecord) bool) (*Outcome, error) {
	lock := s.lockFor(gameID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 1; ; attempt++ {
		rec, err := s.getGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if !rec.Seated(uid) {
			return nil, ErrNotSeated
		}
		if rec.State == nil {
			return nil, ErrGameNotActive
		}
		if guard != nil && !guard(rec) {
			return nil, errSkip
		}

		res := s.engine.PerformAction(rec.State, uid, action, s.Catalog())
		if !res.Accepted {
			return &Outcome{Reason: res.Reason, Message: res.Reason.Describe(), View: s.viewOf(rec, uid)}, nil
		}

		now := s.now()
		s.apply(rec, res.State, now)

		err = s.store.UpdateGame(ctx, rec)
		if errors.Is(err, repository.ErrConflict) && attempt < maxWriteAttempts {
			s.logger.Warn("retrying action after concurrent write",
				zap.String("game_id", gameID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConcurrentWrite
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save game %s: %w", gameID, err)
		}

		events := rules.Stamp(res.Events, gameID, now)
		s.record(rec)
		s.bus.PublishBatch(events)

		return &Outcome{
			Accepted: true,
			Reason:   res.Reason,
			Message:  res.Reason.Describe(),
			Events:   events,
			View:     s.viewOf(rec, uid),
		}, nil
	}
}

var errSkip = errors.New("skipped")

// apply moves a record to the new state and keeps the derived columns in
// step with it.
func (s *Service) apply(rec *repository.GameRecord, next *game.GameState, now time.Time) {
	hadPending := rec.State.PendingAttack != nil
	rec.State = next

	switch {
	case next.PendingAttack == nil:
		rec.PendingSince = nil
	case !hadPending || rec.PendingSince == nil:
		t := now
		rec.PendingSince = &t
	}

	if next.Finished() {
		rec.Status = repository.StatusFinished
		rec.PendingSince = nil
	}
}

// record appends the record's state to its replay and writes the replay out
// once the game is over.
func (s *Service) record(rec *repository.GameRecord) {
	if s.replays == nil || rec.State == nil {
		return
	}
	s.replays.RecordState(rec.ID, rec.State)
	if rec.Status != repository.StatusFinished {
		return
	}
	if _, err := s.replays.SaveReplay(rec.ID); err != nil {
		s.logger.Error("failed to save replay", zap.String("game_id", rec.ID), zap.Error(err))
	}
}
