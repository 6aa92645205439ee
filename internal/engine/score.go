package engine

import "github.com/jaminalder/codex-gomoku/internal/domain"

// Score returns the heuristic value of seqs for player, given the side to
// move.
func (w Weights) Score(seqs []*Sequence, player, toMove domain.Player) int {
    score, attacks := w.tally(seqs, player, toMove)
    if attacks >= 2 && score < w.DoubleThreatCeiling {
        score += w.DoubleThreat
    }
    return score
}

// tally sums the per-sequence scores and counts threats (open threes and
// fours), before any double-threat bonus.
func (w Weights) tally(seqs []*Sequence, player, toMove domain.Player) (score, attacks int) {
    onMove := player == toMove
    for _, s := range seqs {
        switch n := s.Len(); {
        case n == 1:
            score += w.Single
        case n == 2:
            if s.IsConsecutive() {
                score += w.Pair
            } else {
                score += w.SplitPair
            }
        case n == 3:
            if s.Blocked() == 0 {
                score += w.OpenThree
                attacks++
                if onMove {
                    score += w.ThreeToMove
                }
            }
        case n == 4:
            score += w.Four
            attacks++
            if onMove {
                score += w.FourToMove
            } else if s.Blocked() == 0 && s.IsConsecutive() {
                score += w.OpenFour
            }
        default:
            if s.IsConsecutive() {
                score += w.Five
            }
        }
    }
    return score, attacks
}

// EvaluatePlayer scores the position for p and returns the sequences the
// score was built from.
func (w Weights) EvaluatePlayer(b *domain.Board, p domain.Player) (int, []*Sequence) {
    seqs := FindSequences(b, p)
    return w.Score(seqs, p, b.ToMove()), seqs
}

// Evaluate scores the position for both players independently.
func (w Weights) Evaluate(b *domain.Board) (black, white int) {
    black, _ = w.EvaluatePlayer(b, domain.Black)
    white, _ = w.EvaluatePlayer(b, domain.White)
    return black, white
}

// Differential is black's score minus white's. Positive favours black.
func (w Weights) Differential(b *domain.Board) int {
    black, white := w.Evaluate(b)
    return black - white
}

// Evaluate scores b with DefaultWeights.
func Evaluate(b *domain.Board) (black, white int) {
    return DefaultWeights().Evaluate(b)
}

// Winner returns the player holding an unbroken run of five or more.
func Winner(b *domain.Board) (domain.Player, bool) {
    for _, p := range []domain.Player{domain.Black, domain.White} {
        for _, s := range FindSequences(b, p) {
            if s.Len() >= WinLength && s.IsConsecutive() {
                return p, true
            }
        }
    }
    return domain.Black, false
}
