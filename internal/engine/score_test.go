package engine

import (
    "testing"

    "github.com/matryer/is"

    "github.com/jaminalder/codex-gomoku/internal/domain"
)

// twoOpenThrees gives Black an open horizontal three and an open vertical
// three far apart, with White to move.
func twoOpenThrees(t *testing.T) *domain.Board {
    return setUpBoard(t, 16, 16, [][2]int{
        {3, 3}, {0, 15}, {4, 3}, {3, 15}, {5, 3}, {6, 15},
        {10, 8}, {9, 15}, {10, 9}, {12, 15}, {10, 10},
    })
}

func TestDoubleThreatBonus(t *testing.T) {
    is := is.New(t)
    b := twoOpenThrees(t)
    is.Equal(b.ToMove(), domain.White)
    w := DefaultWeights()

    seqs := FindSequences(b, domain.Black)
    threes := 0
    for _, s := range seqs {
        if s.Len() == 3 {
            is.Equal(s.Blocked(), 0)
            threes++
        }
    }
    is.Equal(threes, 2)

    base, attacks := w.tally(seqs, domain.Black, b.ToMove())
    is.Equal(attacks, 2)
    is.True(base < w.DoubleThreatCeiling)

    score := w.Score(seqs, domain.Black, b.ToMove())
    is.Equal(score, base+w.DoubleThreat)

    black, _ := w.Evaluate(b)
    is.Equal(black, score)
}

func TestThreeOnMoveOutweighsBonus(t *testing.T) {
    is := is.New(t)
    b := twoOpenThrees(t)
    w := DefaultWeights()
    seqs := FindSequences(b, domain.Black)

    // With Black to move each open three earns ThreeToMove, which lifts the
    // total over the ceiling so no double-threat bonus is added.
    base, attacks := w.tally(seqs, domain.Black, domain.Black)
    is.Equal(attacks, 2)
    is.True(base >= w.DoubleThreatCeiling)
    is.Equal(w.Score(seqs, domain.Black, domain.Black), base)
}

func TestScoreTable(t *testing.T) {
    is := is.New(t)
    w := DefaultWeights()

    // Lone stone in open space: one sequence per axis.
    b := setUpBoard(t, 16, 16, [][2]int{{7, 7}})
    black, white := w.Evaluate(b)
    is.Equal(black, 4*w.Single)
    is.Equal(white, 0)

    // Open four for Black, White to move.
    b = setUpBoard(t, 16, 16, [][2]int{
        {4, 7}, {0, 15}, {5, 7}, {3, 15}, {6, 7}, {6, 15}, {7, 7},
    })
    seqs := FindSequences(b, domain.Black)
    var four *Sequence
    for _, s := range seqs {
        if s.Len() == 4 {
            four = s
        }
    }
    is.True(four != nil)
    is.Equal(four.Blocked(), 0)
    is.True(four.IsConsecutive())
    notToMove := w.Score([]*Sequence{four}, domain.Black, domain.White)
    is.Equal(notToMove, w.Four+w.OpenFour)
    toMove := w.Score([]*Sequence{four}, domain.Black, domain.Black)
    is.Equal(toMove, w.Four+w.FourToMove)
}

func TestDifferentialSign(t *testing.T) {
    is := is.New(t)
    w := DefaultWeights()
    b := twoOpenThrees(t)
    is.True(w.Differential(b) > 0)

    black, white := w.Evaluate(b)
    is.Equal(w.Differential(b), black-white)
}
