// Package session runs games for connected players. It owns the
// read-modify-write cycle around the rules engine: load the stored game,
// apply one action, persist the result and announce the events.
package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"github.com/silenos/silenos-server-go/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotWaiting  = errors.New("game is not waiting for a player")
	ErrGameNotActive   = errors.New("game has not started")
	ErrOwnGame         = errors.New("cannot join your own game")
	ErrNotSeated       = errors.New("player not in game")
	ErrNoDeck          = errors.New("player has no saved deck")
	ErrInvalidDeck     = errors.New("deck is not legal")
	ErrNoCatalog       = errors.New("card catalog is not loaded")
	ErrConcurrentWrite = errors.New("game was modified concurrently")
)

// CatalogLoader produces a fresh catalog, e.g. from a file or the cards table.
type CatalogLoader func(ctx context.Context) (*catalog.Catalog, error)

// Options configures a Service.
type Options struct {
	Store       repository.Store
	Engine      *game.Engine
	DeckRules   deck.Rules
	LoadCatalog CatalogLoader
	// Replays records every accepted state and saves the replay when the
	// game ends. Nil disables recording.
	Replays *game.ReplayRecorder
	// DefenseTimeout is how long a defender may stall before the attack is
	// resolved for them. Zero disables it.
	DefenseTimeout time.Duration
	// InitOptions are passed to every Engine.Initialize call.
	InitOptions []game.InitOption
	Logger      *zap.Logger
}

const lockStripes = 64

// Service is safe for concurrent use.
type Service struct {
	store          repository.Store
	engine         *game.Engine
	deckRules      deck.Rules
	loadCatalog    CatalogLoader
	replays        *game.ReplayRecorder
	defenseTimeout time.Duration
	initOptions    []game.InitOption
	logger         *zap.Logger

	catalog atomic.Pointer[catalog.Catalog]
	reload  singleflight.Group
	locks   [lockStripes]sync.Mutex
	bus     *rules.EventBus

	now   func() time.Time
	newID func() string
}

// New builds the service and loads the catalog once.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("session: engine is required")
	}
	if opts.LoadCatalog == nil {
		return nil, errors.New("session: catalog loader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		store:          opts.Store,
		engine:         opts.Engine,
		deckRules:      opts.DeckRules,
		loadCatalog:    opts.LoadCatalog,
		replays:        opts.Replays,
		defenseTimeout: opts.DefenseTimeout,
		initOptions:    opts.InitOptions,
		logger:         logger,
		bus:            rules.NewEventBus(),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
	s.bus.SubscribeTyped(s.logGameWon, rules.EventGameWon)
	if _, err := s.ReloadCatalog(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) logGameWon(e rules.Event) {
	s.logger.Info("game won",
		zap.String("game_id", e.GameID),
		zap.String("seat", e.Player),
		zap.Int("score", e.Amount),
	)
}

// Catalog returns the current card catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog.Load()
}

// ReloadCatalog reloads the catalog. Concurrent calls share one load.
func (s *Service) ReloadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	v, err, shared := s.reload.Do("catalog", func() (interface{}, error) {
		cat, err := s.loadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		if cat.Len() == 0 {
			return nil, ErrNoCatalog
		}
		s.catalog.Store(cat)
		return cat, nil
	})
	if err != nil {
		s.logger.Error("catalog reload failed", zap.Error(err))
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	cat := v.(*catalog.Catalog)
	if !shared {
		s.logger.Info("catalog loaded", zap.Int("cards", cat.Len()))
	}
	return cat, nil
}

// lockFor serializes writers per game. Unrelated games may share a stripe.
func (s *Service) lockFor(gameID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return &s.locks[h.Sum32()%lockStripes]
}

// SaveDeck stores a player's deck. Incomplete decks are fine; oversized
// ones, extra copies and unknown cards are not.
func (s *Service) SaveDeck(ctx context.Context, uid string, d deck.Deck) error {
	if err := deck.ValidateDraft(d.Cards, s.Catalog(), s.deckRules); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDeck, err)
	}
	if d.Cards == nil {
		d.Cards = []string{}
	}
	return s.store.SaveDeck(ctx, uid, d)
}

// GetDeck returns a player's saved deck, or an empty one.
func (s *Service) GetDeck(ctx context.Context, uid string) (*deck.Deck, error) {
	d, err := s.store.GetDeck(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return &deck.Deck{Cards: []string{}}, nil
	}
	return d, err
}

// playableDeck loads a saved deck and checks it is legal to start with.
func (s *Service) playableDeck(ctx context.Context, uid string) ([]string, error) {
	d, err := s.store.GetDeck(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoDeck
	}
	if err != nil {
		return nil, err
	}
	if err := deck.Validate(d.Cards, s.Catalog(), s.deckRules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDeck, err)
	}
	return d.Cards, nil
}

// ListGames lists stored games, optionally filtered by status.
func (s *Service) ListGames(ctx context.Context, status repository.Status) ([]*repository.GameRecord, error) {
	return s.store.ListGames(ctx, status)
}

// Subscribe calls fn with every event of one game, in order. fn runs while
// the game is locked and must not block or call back into the service.
func (s *Service) Subscribe(gameID string, fn func(rules.Event)) int {
	if fn == nil {
		return -1
	}
	return s.bus.Subscribe(func(e rules.Event) {
		if e.GameID == gameID {
			fn(e)
		}
	})
}

// Unsubscribe removes a subscription.
func (s *Service) Unsubscribe(handle int) {
	s.bus.Unsubscribe(handle)
}

func (s *Service) getGame(ctx context.Context, gameID string) (*repository.GameRecord, error) {
	rec, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	return rec, err
}
