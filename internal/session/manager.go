package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-board/internal/domain"
	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/notation"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTTL       = 24 * time.Hour
	defaultMaxActive = 200
	activeIndexKey   = "board:index:active"
)

// Archive receives finished games.
type Archive interface {
	SaveResult(ctx context.Context, g *domain.FinishedGame) error
}

// Manager stores games in Redis and serializes operations on each game with WATCH.
type Manager struct {
	rdb       *redis.Client
	ttl       time.Duration
	maxActive int
	archive   Archive
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithMaxActive(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxActive = n
		}
	}
}

// WithArchive wires a repository for persisting checkmate results.
func WithArchive(a Archive) Option {
	return func(m *Manager) { m.archive = a }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager connects to redisURL (redis:// or rediss://) and pings it.
func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session manager")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts...), nil
}

func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{
		rdb:       rdb,
		ttl:       defaultTTL,
		maxActive: defaultMaxActive,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// Create starts a game in the standard position.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	return m.create(ctx, game.New(game.WithLogger(m.logger)))
}

// CreateFrom starts a game from a custom position.
func (m *Manager) CreateFrom(ctx context.Context, pieces []rules.Piece, turn rules.Color) (*Session, error) {
	g, err := game.NewFromPieces(pieces, turn, game.WithLogger(m.logger))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return m.create(ctx, g)
}

func (m *Manager) create(ctx context.Context, g *game.Game) (*Session, error) {
	if err := m.ensureCapacity(ctx); err != nil {
		return nil, err
	}
	now := m.now()
	s := &Session{ID: uuid.NewString(), State: g.Snapshot(), CreatedAt: now, UpdatedAt: now}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	ok, err := m.rdb.SetNX(ctx, gameKey(s.ID), raw, m.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session id collision: %s", s.ID)
	}
	if err := m.rdb.SAdd(ctx, activeIndexKey, s.ID).Err(); err != nil {
		return nil, err
	}
	m.publish(ctx, Event{GameID: s.ID, Kind: EventCreated, Status: g.Indicator(), Turn: g.Turn(), At: now})
	m.logger.Info("board_game_create", zap.String("game_id", s.ID), zap.Int("pieces", len(s.State.Pieces)))
	return s, nil
}

// Load returns the stored session.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidArgs
	}
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Select selects a piece by id and returns its legal destinations.
func (m *Manager) Select(ctx context.Context, id string, pieceID int) (*Session, []rules.Square, error) {
	var moves []rules.Square
	s, _, err := m.apply(ctx, id, EventSelected, func(g *game.Game) Event {
		before, _ := g.Selection()
		moves = g.SelectPiece(pieceID)
		after, selected := g.Selection()
		return Event{Status: game.None, Applied: selected && after.ID != before.ID}
	})
	return s, moves, err
}

// SelectAt selects the piece standing on sq.
func (m *Manager) SelectAt(ctx context.Context, id string, sq rules.Square) (*Session, []rules.Square, error) {
	var moves []rules.Square
	s, _, err := m.apply(ctx, id, EventSelected, func(g *game.Game) Event {
		before, _ := g.Selection()
		moves = g.SelectAt(sq)
		after, selected := g.Selection()
		return Event{Status: game.None, Applied: selected && after.ID != before.ID}
	})
	return s, moves, err
}

// Move attempts to move the selected piece to sq.
func (m *Manager) Move(ctx context.Context, id string, sq rules.Square) (*Session, game.MoveResult, error) {
	var res game.MoveResult
	s, _, err := m.apply(ctx, id, EventMoved, func(g *game.Game) Event {
		res = g.AttemptMove(sq)
		return Event{Status: res.Status, Applied: res.Applied, Move: res.Move}
	})
	if err != nil {
		return nil, game.MoveResult{}, err
	}
	if res.Applied {
		m.logger.Info("board_move",
			zap.String("game_id", s.ID),
			zap.String("move", res.Move.UCI()),
			zap.String("status", string(res.Status.Kind)),
			zap.String("turn", string(s.State.Turn)),
		)
	}
	if res.Status.Kind == game.StatusCheckmate {
		_ = m.persistIfFinal(ctx, s)
	}
	return s, res, nil
}

// Deselect clears the selection.
func (m *Manager) Deselect(ctx context.Context, id string) (*Session, game.Status, error) {
	var st game.Status
	s, _, err := m.apply(ctx, id, EventDeselected, func(g *game.Game) Event {
		st = g.Deselect()
		return Event{Status: st, Applied: st == game.Deselected}
	})
	return s, st, err
}

// Reset returns the game to the starting position and puts it back in the active index.
func (m *Manager) Reset(ctx context.Context, id string) (*Session, error) {
	s, _, err := m.apply(ctx, id, EventReset, func(g *game.Game) Event {
		g.Reset()
		return Event{Status: g.Indicator(), Applied: true}
	})
	if err != nil {
		return nil, err
	}
	if err := m.rdb.SAdd(ctx, activeIndexKey, s.ID).Err(); err != nil {
		return nil, err
	}
	m.logger.Info("board_game_reset", zap.String("game_id", s.ID))
	return s, nil
}

// Delete removes a game.
func (m *Manager) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidArgs
	}
	n, err := m.rdb.Del(ctx, gameKey(id)).Result()
	if err != nil {
		return err
	}
	_ = m.rdb.SRem(ctx, activeIndexKey, id).Err()
	if n == 0 {
		return ErrNotFound
	}
	m.publish(ctx, Event{GameID: id, Kind: EventDeleted, Status: game.None, At: m.now()})
	m.logger.Info("board_game_delete", zap.String("game_id", id))
	return nil
}

// ListActive returns the ids of games that are stored and not over.
func (m *Manager) ListActive(ctx context.Context) ([]string, error) {
	if err := m.pruneActive(ctx); err != nil {
		return nil, err
	}
	ids, err := m.rdb.SMembers(ctx, activeIndexKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Subscribe streams events for one game until ctx is done or the returned close func is called.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan Event, func() error, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, ErrInvalidArgs
	}
	ps := m.rdb.Subscribe(ctx, eventsKey(id))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					m.logger.Warn("board_event_decode_error", zap.String("game_id", id), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, ps.Close, nil
}

// apply loads a game, runs fn on it and stores the result in one optimistic transaction.
func (m *Manager) apply(ctx context.Context, id string, kind EventKind, fn func(g *game.Game) Event) (*Session, Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, Event{}, ErrInvalidArgs
	}
	key := gameKey(id)

	var (
		out *Session
		ev  Event
	)
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur Session
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		g, err := game.Restore(cur.State, game.WithLogger(m.logger))
		if err != nil {
			return err
		}

		ev = fn(g)
		ev.GameID = id
		ev.Kind = kind
		ev.Turn = g.Turn()
		ev.GameOver = g.IsGameOver()
		ev.At = m.now()

		cur.State = g.Snapshot()
		cur.UpdatedAt = ev.At
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newRaw, m.ttl)
			if g.IsGameOver() {
				pipe.SRem(ctx, activeIndexKey, id)
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = &cur
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			m.logger.Warn("board_concurrent_update", zap.String("game_id", id), zap.String("op", string(kind)))
			return nil, Event{}, ErrConflict
		}
		return nil, Event{}, err
	}
	m.publish(ctx, ev)
	return out, ev, nil
}

func (m *Manager) publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := m.rdb.Publish(ctx, eventsKey(ev.GameID), raw).Err(); err != nil {
		m.logger.Warn("board_event_publish_error", zap.String("game_id", ev.GameID), zap.Error(err))
	}
}

func (m *Manager) ensureCapacity(ctx context.Context) error {
	n, err := m.rdb.SCard(ctx, activeIndexKey).Result()
	if err != nil {
		return err
	}
	if int(n) < m.maxActive {
		return nil
	}
	if err := m.pruneActive(ctx); err != nil {
		return err
	}
	n, err = m.rdb.SCard(ctx, activeIndexKey).Result()
	if err != nil {
		return err
	}
	if int(n) >= m.maxActive {
		return ErrTooManyGames
	}
	return nil
}

// pruneActive drops index entries whose game key has expired.
func (m *Manager) pruneActive(ctx context.Context) error {
	ids, err := m.rdb.SMembers(ctx, activeIndexKey).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		n, err := m.rdb.Exists(ctx, gameKey(id)).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			_ = m.rdb.SRem(ctx, activeIndexKey, id).Err()
		}
	}
	return nil
}

// persistIfFinal hands a finished game to the archive if one is attached.
func (m *Manager) persistIfFinal(ctx context.Context, s *Session) error {
	if m.archive == nil || s == nil || !s.State.GameOver {
		return nil
	}
	rec := finishedGame(s)
	if err := m.archive.SaveResult(ctx, rec); err != nil {
		m.logger.Error("board_result_persist_error", zap.String("game_id", s.ID), zap.Error(err))
		return err
	}
	m.logger.Info("board_result_persist", zap.String("game_id", s.ID), zap.String("winner", rec.Winner))
	return nil
}

func finishedGame(s *Session) *domain.FinishedGame {
	moves := make([]string, 0, len(s.State.History))
	for _, mv := range s.State.History {
		moves = append(moves, mv.UCI())
	}
	d := s.UpdatedAt.Sub(s.CreatedAt)
	if d < 0 {
		d = 0
	}
	return &domain.FinishedGame{
		GameID:    s.ID,
		Winner:    string(s.State.Winner),
		Method:    "checkmate",
		MovesUCI:  moves,
		FEN:       notation.FEN(s.State.Pieces, s.State.Turn),
		Plies:     len(moves),
		StartedAt: s.CreatedAt,
		EndedAt:   s.UpdatedAt,
		Duration:  d,
	}
}

func gameKey(id string) string   { return "board:game:" + strings.TrimSpace(id) }
func eventsKey(id string) string { return "board:events:" + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
