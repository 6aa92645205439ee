package engine

import (
    "testing"

    "github.com/matryer/is"
    "github.com/rs/zerolog"

    "github.com/jaminalder/codex-gomoku/internal/domain"
)

func newTestSearcher() *Searcher {
    return NewSearcher(DefaultWeights(), zerolog.Nop())
}

func TestOpeningMoveOnEmptyBoard(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    b := domain.NewBoard(16, 16, domain.Black)

    m, delta, ok := s.BestMove(b)
    is.True(ok)
    is.Equal(m, domain.Move{Player: domain.Black, X: 7, Y: 7})
    is.True(delta > 0)
    is.True(b.IsValid(m))

    m, _, ok = s.Minimax(b, 2)
    is.True(ok)
    is.Equal(m, domain.Move{Player: domain.Black, X: 7, Y: 7})
}

func TestBestMoveCompletesFive(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    b := setUpBoard(t, 16, 16, [][2]int{
        {3, 7}, {0, 15}, {4, 7}, {3, 15}, {5, 7}, {6, 15}, {6, 7}, {9, 15},
    })
    before := b.String()

    m, delta, ok := s.BestMove(b)
    is.True(ok)
    is.Equal(b.String(), before)
    is.True(delta >= DefaultWeights().Five/2)
    is.True(s.Nodes() > 0)

    is.True(b.Apply(m))
    winner, won := Winner(b)
    is.True(won)
    is.Equal(winner, domain.Black)
}

func TestBestMoveBlocksFour(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    // Black four capped by White on the west end; White to move.
    b := setUpBoard(t, 16, 16, [][2]int{
        {3, 7}, {2, 7}, {4, 7}, {0, 15}, {5, 7}, {3, 15}, {6, 7},
    })
    is.Equal(b.ToMove(), domain.White)

    m, _, ok := s.BestMove(b)
    is.True(ok)
    is.Equal(m, domain.Move{Player: domain.White, X: 7, Y: 7})
}

func TestMinimaxCompletesFiveAndRestoresBoard(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    b := setUpBoard(t, 16, 16, [][2]int{
        {3, 7}, {0, 15}, {4, 7}, {3, 15}, {5, 7}, {6, 15}, {6, 7}, {9, 15},
    })
    before := b.String()
    history := b.History()

    m, _, ok := s.Minimax(b, 1)
    is.True(ok)
    is.Equal(b.String(), before)
    is.Equal(b.History(), history)
    is.Equal(b.ToMove(), domain.Black)

    is.True(b.Apply(m))
    winner, won := Winner(b)
    is.True(won)
    is.Equal(winner, domain.Black)
}

func TestMinimaxDepthTwoLeavesBoardUntouched(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    b := setUpBoard(t, 12, 12, [][2]int{
        {5, 5}, {6, 6}, {5, 6}, {4, 4}, {6, 5},
    })
    before := b.String()
    blackPieces := len(b.Pieces(domain.Black))

    m, _, ok := s.Minimax(b, 2)
    is.True(ok)
    is.Equal(b.String(), before)
    is.Equal(len(b.Pieces(domain.Black)), blackPieces)
    is.Equal(m.Player, domain.White)
    is.True(b.IsValid(m))
}

func TestMinimaxDepthZeroMatchesBestMove(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    b := setUpBoard(t, 12, 12, [][2]int{{5, 5}, {6, 6}, {5, 6}})

    m1, d1, ok1 := s.BestMove(b)
    m2, d2, ok2 := s.Minimax(b, 0)
    is.Equal(ok1, ok2)
    is.Equal(m1, m2)
    is.Equal(d1, d2)
}

func TestNoCandidates(t *testing.T) {
    is := is.New(t)
    s := newTestSearcher()
    // On a 2x2 board no run can ever reach five, so nothing is significant.
    b := domain.NewBoard(2, 2, domain.Black)
    is.True(b.Play(0, 0))

    is.Equal(len(s.Candidates(b)), 0)
    _, _, ok := s.BestMove(b)
    is.True(!ok)
    _, _, ok = s.Minimax(b, 2)
    is.True(!ok)
}
