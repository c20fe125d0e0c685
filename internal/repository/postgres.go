package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/silenos/silenos-server-go/internal/config"
	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"go.uber.org/zap"
)

// Postgres is a Store on a pgx connection pool. Game state and seats are
// JSONB columns; the cards table doubles as a catalog source.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	player1       JSONB,
	player2       JSONB,
	state         JSONB,
	version       BIGINT NOT NULL,
	pending_since TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_games_pending ON games(status, pending_since) WHERE pending_since IS NOT NULL;

CREATE TABLE IF NOT EXISTS decks (
	uid        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	cards      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cards (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	card_type  TEXT NOT NULL,
	cost       INTEGER NOT NULL DEFAULT 0,
	power      INTEGER NOT NULL DEFAULT 0,
	rules_text TEXT NOT NULL DEFAULT '',
	image_url  TEXT NOT NULL DEFAULT ''
);
`

// NewPostgres connects the pool, pings it and migrates the schema.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: cannot create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: cannot ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migration failed: %w", err)
	}

	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
		zap.Int32("max_conns", stats.MaxConns()),
	)
	return &Postgres{pool: pool, logger: logger}, nil
}

// Stats exposes the pool statistics.
func (p *Postgres) Stats() *pgxpool.Stat {
	return p.pool.Stat()
}

func jsonbArg(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func (p *Postgres) CreateGame(ctx context.Context, rec *GameRecord) error {
	if err := prepareCreate(rec, time.Now().UTC()); err != nil {
		return err
	}
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		`INSERT INTO games (id, status, player1, player2, state, version, pending_since, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, string(rec.Status),
		jsonbArg(row.player1), jsonbArg(row.player2), jsonbArg(row.state),
		rec.Version, rec.PendingSince, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: cannot create game %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s: %w", rec.ID, ErrAlreadyExists)
	}
	return nil
}

const postgresSelectGame = `SELECT id, status, player1, player2, state, version, pending_since, created_at, updated_at FROM games`

func scanPostgresGame(scanner pgx.Row) (*GameRecord, error) {
	var (
		rec    GameRecord
		status string
		row    gameRow
	)
	if err := scanner.Scan(&rec.ID, &status, &row.player1, &row.player2, &row.state,
		&rec.Version, &rec.PendingSince, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	if err := row.decodeInto(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Postgres) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	rec, err := scanPostgresGame(p.pool.QueryRow(ctx, postgresSelectGame+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: cannot load game %s: %w", id, err)
	}
	return rec, nil
}

func (p *Postgres) UpdateGame(ctx context.Context, rec *GameRecord) error {
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}

	var updatedAt time.Time
	err = p.pool.QueryRow(ctx,
		`UPDATE games
		 SET status = $1, player1 = $2::jsonb, player2 = $3::jsonb, state = $4::jsonb,
		     pending_since = $5, version = version + 1, updated_at = now()
		 WHERE id = $6 AND version = $7
		 RETURNING updated_at`,
		string(rec.Status),
		jsonbArg(row.player1), jsonbArg(row.player2), jsonbArg(row.state),
		rec.PendingSince, rec.ID, rec.Version,
	).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := p.GetGame(ctx, rec.ID); err != nil {
			return err
		}
		return fmt.Errorf("game %s at version %d: %w", rec.ID, rec.Version, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("postgres: cannot update game %s: %w", rec.ID, err)
	}

	rec.Version++
	rec.UpdatedAt = updatedAt
	return nil
}

func (p *Postgres) queryGames(ctx context.Context, query string, args ...any) ([]*GameRecord, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: cannot query games: %w", err)
	}
	defer rows.Close()

	var out []*GameRecord
	for rows.Next() {
		rec, err := scanPostgresGame(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: cannot scan game: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: row iteration error: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListGames(ctx context.Context, status Status) ([]*GameRecord, error) {
	if status == "" {
		return p.queryGames(ctx, postgresSelectGame+` ORDER BY created_at, id`)
	}
	return p.queryGames(ctx, postgresSelectGame+` WHERE status = $1 ORDER BY created_at, id`, string(status))
}

func (p *Postgres) FindStalledGames(ctx context.Context, before time.Time) ([]*GameRecord, error) {
	return p.queryGames(ctx,
		postgresSelectGame+` WHERE status = $1 AND pending_since IS NOT NULL AND pending_since <= $2 ORDER BY created_at, id`,
		string(StatusActive), before,
	)
}

func (p *Postgres) SaveDeck(ctx context.Context, uid string, d deck.Deck) error {
	cards, err := json.Marshal(d.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO decks (uid, name, cards, updated_at) VALUES ($1, $2, $3::jsonb, now())
		 ON CONFLICT (uid) DO UPDATE SET name = EXCLUDED.name, cards = EXCLUDED.cards, updated_at = now()`,
		uid, d.Name, string(cards),
	)
	if err != nil {
		return fmt.Errorf("postgres: cannot save deck for %s: %w", uid, err)
	}
	return nil
}

func (p *Postgres) GetDeck(ctx context.Context, uid string) (*deck.Deck, error) {
	var (
		d     deck.Deck
		cards []byte
	)
	err := p.pool.QueryRow(ctx, `SELECT name, cards FROM decks WHERE uid = $1`, uid).Scan(&d.Name, &cards)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deck for %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: cannot load deck for %s: %w", uid, err)
	}
	if err := json.Unmarshal(cards, &d.Cards); err != nil {
		return nil, fmt.Errorf("failed to decode deck for %s: %w", uid, err)
	}
	return &d, nil
}

// ListCards reads the cards table in id order.
func (p *Postgres) ListCards(ctx context.Context) ([]catalog.Card, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, card_type, cost, power, rules_text, image_url FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: cannot query cards: %w", err)
	}
	defer rows.Close()

	var cards []catalog.Card
	for rows.Next() {
		var (
			c        catalog.Card
			cardType string
		)
		if err := rows.Scan(&c.ID, &c.Name, &cardType, &c.Cost, &c.Power, &c.Text, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("postgres: cannot scan card: %w", err)
		}
		c.Type = catalog.CardType(cardType)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: row iteration error: %w", err)
	}
	return cards, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

var (
	_ Store      = (*Postgres)(nil)
	_ CardSource = (*Postgres)(nil)
)
