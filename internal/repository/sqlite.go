package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/silenos/silenos-server-go/internal/deck"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"
)

// SQLite is a Store in a single SQLite file. Times are stored as unix
// nanoseconds so range queries compare integers.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS games (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	player1       TEXT,
	player2       TEXT,
	state         TEXT,
	version       INTEGER NOT NULL,
	pending_since INTEGER,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_games_pending ON games(status, pending_since);

CREATE TABLE IF NOT EXISTS decks (
	uid        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	cards      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// NewSQLite opens or creates the database at path and migrates it.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: cannot open database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: cannot connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return &SQLite{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func nullableNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func (s *SQLite) CreateGame(ctx context.Context, rec *GameRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE id = ?)`, rec.ID).Scan(&exists); err != nil {
		return fmt.Errorf("sqlite: cannot check game %s: %w", rec.ID, err)
	}
	if exists {
		return fmt.Errorf("game %s: %w", rec.ID, ErrAlreadyExists)
	}

	if err := prepareCreate(rec, s.now()); err != nil {
		return err
	}
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (id, status, player1, player2, state, version, pending_since, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Status),
		nullableText(row.player1), nullableText(row.player2), nullableText(row.state),
		rec.Version, nullableNanos(rec.PendingSince),
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: cannot create game %s: %w", rec.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: cannot commit game %s: %w", rec.ID, err)
	}
	return nil
}

const sqliteSelectGame = `SELECT id, status, player1, player2, state, version, pending_since, created_at, updated_at FROM games`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteGame(scanner rowScanner) (*GameRecord, error) {
	var (
		rec                  GameRecord
		status               string
		row                  gameRow
		pending              sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := scanner.Scan(&rec.ID, &status, &row.player1, &row.player2, &row.state,
		&rec.Version, &pending, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rec.Status = Status(status)
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	if pending.Valid {
		t := fromNanos(pending.Int64)
		rec.PendingSince = &t
	}
	if err := row.decodeInto(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLite) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	rec, err := scanSQLiteGame(s.db.QueryRowContext(ctx, sqliteSelectGame+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: cannot load game %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLite) UpdateGame(ctx context.Context, rec *GameRecord) error {
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}
	updatedAt := s.now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE games
		 SET status = ?, player1 = ?, player2 = ?, state = ?, pending_since = ?,
		     version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(rec.Status),
		nullableText(row.player1), nullableText(row.player2), nullableText(row.state),
		nullableNanos(rec.PendingSince), updatedAt.UnixNano(),
		rec.ID, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("sqlite: cannot update game %s: %w", rec.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: cannot update game %s: %w", rec.ID, err)
	}
	if n == 0 {
		if _, err := s.GetGame(ctx, rec.ID); err != nil {
			return err
		}
		return fmt.Errorf("game %s at version %d: %w", rec.ID, rec.Version, ErrConflict)
	}

	rec.Version++
	rec.UpdatedAt = updatedAt
	return nil
}

func (s *SQLite) queryGames(ctx context.Context, query string, args ...any) ([]*GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: cannot query games: %w", err)
	}
	defer rows.Close()

	var out []*GameRecord
	for rows.Next() {
		rec, err := scanSQLiteGame(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: cannot scan game: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: row iteration error: %w", err)
	}
	return out, nil
}

func (s *SQLite) ListGames(ctx context.Context, status Status) ([]*GameRecord, error) {
	if status == "" {
		return s.queryGames(ctx, sqliteSelectGame+` ORDER BY created_at, id`)
	}
	return s.queryGames(ctx, sqliteSelectGame+` WHERE status = ? ORDER BY created_at, id`, string(status))
}

func (s *SQLite) FindStalledGames(ctx context.Context, before time.Time) ([]*GameRecord, error) {
	return s.queryGames(ctx,
		sqliteSelectGame+` WHERE status = ? AND pending_since IS NOT NULL AND pending_since <= ? ORDER BY created_at, id`,
		string(StatusActive), before.UnixNano(),
	)
}

func (s *SQLite) SaveDeck(ctx context.Context, uid string, d deck.Deck) error {
	cards, err := json.Marshal(d.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decks (uid, name, cards, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET name = excluded.name, cards = excluded.cards, updated_at = excluded.updated_at`,
		uid, d.Name, string(cards), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: cannot save deck for %s: %w", uid, err)
	}
	return nil
}

func (s *SQLite) GetDeck(ctx context.Context, uid string) (*deck.Deck, error) {
	var (
		d     deck.Deck
		cards string
	)
	err := s.db.QueryRowContext(ctx, `SELECT name, cards FROM decks WHERE uid = ?`, uid).Scan(&d.Name, &cards)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck for %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: cannot load deck for %s: %w", uid, err)
	}
	if err := json.Unmarshal([]byte(cards), &d.Cards); err != nil {
		return nil, fmt.Errorf("failed to decode deck for %s: %w", uid, err)
	}
	return &d, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ Store = (*SQLite)(nil)
