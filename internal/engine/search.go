package engine

import (
    "math"

    "github.com/rs/zerolog"

    "github.com/jaminalder/codex-gomoku/internal/domain"
)

// Searcher picks moves by one-ply greedy evaluation or fixed-depth minimax.
// It mutates the board it is given and restores it before returning, so the
// caller must not touch that board during a call.
type Searcher struct {
    weights Weights
    logger  zerolog.Logger
    nodes   int
}

// NewSearcher returns a searcher scoring with w.
func NewSearcher(w Weights, logger zerolog.Logger) *Searcher {
    return &Searcher{weights: w, logger: logger}
}

// Weights returns the scoring table in use.
func (s *Searcher) Weights() Weights { return s.weights }

// Nodes returns how many positions the last search scored.
func (s *Searcher) Nodes() int { return s.nodes }

// Candidates returns the restricted move set for the side to move: moves
// next to or inside either player's significant sequences.
func (s *Searcher) Candidates(b *domain.Board) []domain.Move {
    return CollectReplies(FindSequences(b, domain.Black), FindSequences(b, domain.White), b.ToMove())
}

// BestMove scores every candidate one ply deep and returns the one that
// most favours the side to move, with the resulting differential. ok is
// false when there is no candidate.
func (s *Searcher) BestMove(b *domain.Board) (m domain.Move, delta int, ok bool) {
    s.nodes = 0
    m, delta, ok = s.bestMove(b)
    s.logger.Debug().Stringer("move", m).Int("delta", delta).Bool("ok", ok).
        Int("nodes", s.nodes).Msg("best-move")
    return m, delta, ok
}

// Minimax searches depth plies of candidates without pruning, then scores
// the leaves with BestMove. Black maximizes the differential, white
// minimizes it.
func (s *Searcher) Minimax(b *domain.Board, depth int) (m domain.Move, delta int, ok bool) {
    s.nodes = 0
    m, delta, ok = s.minimax(b, depth)
    s.logger.Debug().Int("depth", depth).Stringer("move", m).Int("delta", delta).Bool("ok", ok).
        Int("nodes", s.nodes).Msg("minimax")
    return m, delta, ok
}

func (s *Searcher) bestMove(b *domain.Board) (domain.Move, int, bool) {
    if b.MoveCount() == 0 {
        return openingMove(b), 1, true
    }
    mover := b.ToMove()
    candidates := s.Candidates(b)
    if len(candidates) == 0 {
        return domain.Move{}, s.weights.Differential(b), false
    }
    best, bestDelta, found := domain.Move{}, worst(mover), false
    for _, c := range candidates {
        b.Explore(c, func() {
            s.nodes++
            d := s.weights.Differential(b)
            if !found || improves(mover, d, bestDelta) {
                best, bestDelta, found = c, d, true
            }
        })
    }
    return best, bestDelta, found
}

func (s *Searcher) minimax(b *domain.Board, depth int) (domain.Move, int, bool) {
    if depth <= 0 || b.MoveCount() == 0 {
        return s.bestMove(b)
    }
    mover := b.ToMove()
    candidates := s.Candidates(b)
    if len(candidates) == 0 {
        return domain.Move{}, s.weights.Differential(b), false
    }
    best, bestDelta, found := domain.Move{}, worst(mover), false
    for _, c := range candidates {
        b.Explore(c, func() {
            _, d, _ := s.minimax(b, depth-1)
            if !found || improves(mover, d, bestDelta) {
                best, bestDelta, found = c, d, true
            }
        })
    }
    return best, bestDelta, found
}

// openingMove is the fixed first move near the centre of an empty board.
func openingMove(b *domain.Board) domain.Move {
    w, h := b.Dims()
    return domain.Move{Player: b.ToMove(), X: max(w/2-1, 0), Y: max(h/2-1, 0)}
}

func worst(mover domain.Player) int {
    if mover == domain.Black {
        return math.MinInt
    }
    return math.MaxInt
}

func improves(mover domain.Player, d, best int) bool {
    if mover == domain.Black {
        return d > best
    }
    return d < best
}
