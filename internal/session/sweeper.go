package session

import (
	"context"
	"errors"
	"time"

	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/repository"
	"go.uber.org/zap"
)

// ResolveStalledAttacks skips the defense for every attack that has waited
// longer than the defense timeout, as if the defender had declined to block.
// It returns how many attacks were resolved.
func (s *Service) ResolveStalledAttacks(ctx context.Context, now time.Time) (int, error) {
	if s.defenseTimeout <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-s.defenseTimeout)

	stalled, err := s.store.FindStalledGames(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, rec := range stalled {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		pa := rec.State.PendingAttack
		if pa == nil {
			continue
		}
		defender := rec.State.Players.Of(pa.AttackerSlot.Opponent()).UID

		// The attack may have been answered, or replaced by a newer one,
		// since the query ran.
		stillStale := func(fresh *repository.GameRecord) bool {
			return fresh.State.PendingAttack != nil &&
				fresh.PendingSince != nil &&
				!fresh.PendingSince.After(cutoff)
		}

		out, err := s.submit(ctx, rec.ID, defender, game.SkipDefense(), stillStale)
		switch {
		case errors.Is(err, errSkip):
			continue
		case err != nil:
			s.logger.Error("failed to resolve stalled attack", zap.String("game_id", rec.ID), zap.Error(err))
			continue
		case !out.Accepted:
			s.logger.Warn("stalled attack not resolved",
				zap.String("game_id", rec.ID),
				zap.String("reason", out.Reason.String()),
			)
			continue
		}

		s.logger.Info("defense timed out",
			zap.String("game_id", rec.ID),
			zap.String("defender", defender),
			zap.Duration("timeout", s.defenseTimeout),
		)
		resolved++
	}
	return resolved, nil
}

// RunSweeper resolves stalled attacks every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.defenseTimeout <= 0 || interval <= 0 {
		s.logger.Info("defense timeout sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.ResolveStalledAttacks(ctx, s.now()); err != nil && ctx.Err() == nil {
				s.logger.Error("defense timeout sweep failed", zap.Error(err))
			} else if n > 0 {
				s.logger.Debug("defense timeout sweep", zap.Int("resolved", n))
			}
		}
	}
}
