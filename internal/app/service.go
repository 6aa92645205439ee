package app

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "sync"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-gomoku/internal/domain"
    "github.com/jaminalder/codex-gomoku/internal/engine"
)

// Errors exposed by the service layer.
var (
    ErrNotFound    = errors.New("game not found")
    ErrNotYourTurn = errors.New("not your turn")
    ErrNotAPlayer  = errors.New("not a player")
    ErrInvalidMove = errors.New("invalid move")
    ErrGameOver    = errors.New("game over")
    ErrBadOptions  = errors.New("bad game options")
)

// Limits on game options. Board memory grows with width*height and search
// time grows steeply with depth.
const (
    MaxDimension = 30
    MaxDepth     = 3
)

// Options configure a new game between a human and the engine.
type Options struct {
    Width, Height int
    EngineSide    domain.Player
    Depth         int
    // Owner is the only player allowed to move; others may watch. Empty
    // means anyone may move.
    Owner string
}

// DefaultOptions match the classic 16x16 board with the engine opening as
// Black and searching two plies.
func DefaultOptions() Options {
    return Options{Width: 16, Height: 16, EngineSide: domain.Black, Depth: 2}
}

// ParseSide converts "black" or "white" to a player.
func ParseSide(s string) (domain.Player, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "black", "b", "x":
        return domain.Black, nil
    case "white", "w", "o":
        return domain.White, nil
    }
    return domain.Black, fmt.Errorf("%w: unknown side %q", ErrBadOptions, s)
}

// GameState is a snapshot of one game, safe to read without locks.
type GameState struct {
    ID         string
    Board      domain.Snapshot
    EngineSide domain.Player
    Depth      int
    Owner      string
    Winner     domain.Player
    Over       bool
    Draw       bool
    // EngineDelta is the differential the engine expected after its last
    // reply.
    EngineDelta int
    Created     time.Time
    Updated     time.Time
}

// HumanSide returns the side the human plays.
func (gs GameState) HumanSide() domain.Player { return gs.EngineSide.Other() }

// game is the live state behind a GameState. mu guards every field but the
// immutable id, and is held for the whole of an engine search.
type game struct {
    mu          sync.Mutex
    id          string
    board       *domain.Board
    searcher    *engine.Searcher
    engineSide  domain.Player
    depth       int
    owner       string
    winner      domain.Player
    over, draw  bool
    engineDelta int
    created     time.Time
    updated     time.Time
}

func (g *game) snapshot() GameState {
    return GameState{
        ID:          g.id,
        Board:       g.board.Snapshot(),
        EngineSide:  g.engineSide,
        Depth:       g.depth,
        Owner:       g.owner,
        Winner:      g.winner,
        Over:        g.over,
        Draw:        g.draw,
        EngineDelta: g.engineDelta,
        Created:     g.created,
        Updated:     g.updated,
    }
}

// settle records a win or draw after a move.
func (g *game) settle() {
    if p, ok := engine.Winner(g.board); ok {
        g.winner, g.over = p, true
        return
    }
    if g.board.Full() {
        g.over, g.draw = true, true
    }
}

// engineReply lets the engine move. The caller holds g.mu, which gives the
// search exclusive use of the board.
func (g *game) engineReply() {
    if g.over || g.board.ToMove() != g.engineSide {
        return
    }
    start := time.Now()
    m, delta, ok := g.searcher.Minimax(g.board, g.depth)
    if !ok || !g.board.Apply(m) {
        // No candidate near existing stones; take any empty square.
        m, ok = firstEmpty(g.board)
        if !ok || !g.board.Apply(m) {
            return
        }
        log.Warn().Str("game", g.id).Stringer("move", m).Msg("engine-fallback-move")
    }
    g.engineDelta = delta
    log.Debug().Str("game", g.id).Stringer("move", m).Int("delta", delta).
        Int("nodes", g.searcher.Nodes()).Dur("took", time.Since(start)).Msg("engine-moved")
    g.settle()
}

func firstEmpty(b *domain.Board) (domain.Move, bool) {
    w, h := b.Dims()
    for y := 0; y < h; y++ {
        for x := 0; x < w; x++ {
            if _, ok := b.Occupant(x, y); !ok {
                return domain.Move{Player: b.ToMove(), X: x, Y: y}, true
            }
        }
    }
    return domain.Move{}, false
}

type subscriber struct {
    ch        chan []byte
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers. mu guards the maps, the renderer
// and the defaults; it is never held while a game's board is in use. Lock
// order is game.mu before Service.mu.
type Service struct {
    mu       sync.Mutex
    games    map[string]*game
    subs     map[string]map[*subscriber]struct{}
    render   func(GameState) []byte
    defaults Options
    weights  engine.Weights
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService() *Service { return NewServiceWithRenderer(func(gs GameState) []byte { return nil }) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte) *Service {
    if renderer == nil {
        renderer = func(gs GameState) []byte { return nil }
    }
    return &Service{
        games:    make(map[string]*game),
        subs:     make(map[string]map[*subscriber]struct{}),
        render:   renderer,
        defaults: DefaultOptions(),
        weights:  engine.DefaultWeights(),
    }
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(gs GameState) []byte { return nil }
        return
    }
    s.render = renderer
}

// SetDefaults replaces the options used for zero fields in CreateGame.
func (s *Service) SetDefaults(o Options) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.defaults = o
}

// Defaults returns the options used for zero fields in CreateGame.
func (s *Service) Defaults() Options {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.defaults
}

// CreateGame creates and registers a new game. Zero width, height or depth
// take the service defaults. If the engine has the first move it plays it
// before returning.
func (s *Service) CreateGame(o Options) (*GameState, error) {
    d := s.Defaults()
    if o.Width == 0 {
        o.Width = d.Width
    }
    if o.Height == 0 {
        o.Height = d.Height
    }
    if o.Depth == 0 {
        o.Depth = d.Depth
    }
    if o.Width < 1 || o.Height < 1 || o.Width > MaxDimension || o.Height > MaxDimension {
        return nil, fmt.Errorf("%w: board %dx%d, want 1..%d per side", ErrBadOptions, o.Width, o.Height, MaxDimension)
    }
    if o.Depth < 0 || o.Depth > MaxDepth {
        return nil, fmt.Errorf("%w: depth %d, want 0..%d", ErrBadOptions, o.Depth, MaxDepth)
    }
    id := newGameID()
    now := time.Now()
    g := &game{
        id:         id,
        board:      domain.NewBoard(o.Width, o.Height, domain.Black),
        searcher:   engine.NewSearcher(s.weights, log.With().Str("game", id).Logger()),
        engineSide: o.EngineSide,
        depth:      o.Depth,
        owner:      o.Owner,
        created:    now,
        updated:    now,
    }
    // g is not yet shared, so the opening search runs without locks.
    g.engineReply()
    s.mu.Lock()
    s.games[id] = g
    s.mu.Unlock()
    log.Info().Str("game", id).Int("width", o.Width).Int("height", o.Height).
        Stringer("engine", o.EngineSide).Int("depth", o.Depth).Msg("game-created")
    gs := g.snapshot()
    return &gs, nil
}

// lookup finds a game under the service lock only.
func (s *Service) lookup(id string) (*game, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.games[id]
    return g, ok
}

// Get returns a copy of the game state if present. It waits only for a
// search running in that same game.
func (s *Service) Get(id string) (*GameState, bool) {
    g, ok := s.lookup(id)
    if !ok {
        return nil, false
    }
    g.mu.Lock()
    defer g.mu.Unlock()
    gs := g.snapshot()
    return &gs, true
}

// seated reports whether playerID may move in g.
func (g *game) seated(playerID string) bool {
    return g.owner == "" || g.owner == playerID
}

// Play applies the human move at (x, y), lets the engine reply, and
// broadcasts the new state.
func (s *Service) Play(id, playerID string, x, y int) (*GameState, error) {
    return s.mutate(id, func(g *game) error {
        if !g.seated(playerID) {
            return ErrNotAPlayer
        }
        if g.over {
            return ErrGameOver
        }
        if g.board.ToMove() == g.engineSide {
            return ErrNotYourTurn
        }
        m := domain.Move{Player: g.board.ToMove(), X: x, Y: y}
        if !g.board.Apply(m) {
            return fmt.Errorf("%w: %v", ErrInvalidMove, m)
        }
        g.settle()
        g.engineReply()
        return nil
    })
}

// Undo takes back the human's last move together with the engine's reply.
func (s *Service) Undo(id, playerID string) (*GameState, error) {
    return s.mutate(id, func(g *game) error {
        if !g.seated(playerID) {
            return ErrNotAPlayer
        }
        human := g.engineSide.Other()
        for g.board.MoveCount() > 0 {
            last, _ := g.board.LastMove()
            g.board.UndoLast()
            if last.Player == human {
                break
            }
        }
        g.winner, g.over, g.draw = domain.Black, false, false
        g.engineReply()
        return nil
    })
}

// Hint returns the engine's choice for the human side, without playing it.
func (s *Service) Hint(id, playerID string) (domain.Move, int, error) {
    g, ok := s.lookup(id)
    if !ok {
        return domain.Move{}, 0, ErrNotFound
    }
    g.mu.Lock()
    defer g.mu.Unlock()
    if !g.seated(playerID) {
        return domain.Move{}, 0, ErrNotAPlayer
    }
    if g.over {
        return domain.Move{}, 0, ErrGameOver
    }
    if g.board.ToMove() == g.engineSide {
        return domain.Move{}, 0, ErrNotYourTurn
    }
    m, delta, ok := g.searcher.BestMove(g.board)
    if !ok {
        return domain.Move{}, 0, fmt.Errorf("%w: no candidate moves", ErrInvalidMove)
    }
    return m, delta, nil
}

// mutate runs fn under the game's own lock, then fans out the new state.
// Other games stay available while fn searches. The game lock is kept
// through fan-out so broadcasts leave in mutation order; sends never block,
// and fan-out holds the service lock so it cannot race an unsubscribe
// closing the channel.
func (s *Service) mutate(id string, fn func(*game) error) (*GameState, error) {
    g, ok := s.lookup(id)
    if !ok {
        return nil, ErrNotFound
    }
    g.mu.Lock()
    defer g.mu.Unlock()
    if err := fn(g); err != nil {
        return nil, err
    }
    g.updated = time.Now()
    cp := g.snapshot()

    if cp.Over {
        log.Info().Str("game", id).Bool("draw", cp.Draw).Stringer("winner", cp.Winner).Msg("game-over")
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    // Fan-out; drop slow subscribers by closing and forgetting them
    payload := s.render(cp)
    dropped := 0
    for sub := range s.subs[id] {
        select {
        case sub.ch <- payload:
        default:
            sub.close()
            delete(s.subs[id], sub)
            dropped++
        }
    }
    if dropped > 0 {
        log.Debug().Str("game", id).Int("dropped", dropped).Msg("dropped-slow-subscribers")
    }
    return &cp, nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func. The channel is closed on unsubscribe, when ctx ends, or
// when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok {
        return nil, nil, ErrNotFound
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            defer s.mu.Unlock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub, nil
}
