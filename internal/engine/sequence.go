package engine

import (
    "encoding/binary"
    "slices"
    "strings"

    "github.com/cespare/xxhash"
    "github.com/samber/lo"

    "github.com/jaminalder/codex-gomoku/internal/domain"
)

// Sequence is a run of one player's stones along a single axis, ordered
// first to last in the axis direction. Gaps between stones are allowed.
type Sequence struct {
    pieces []*domain.Piece
    dir    domain.Direction
    stones []coord // sorted, identifies the sequence
}

type coord struct{ x, y int }

func newSequence(pieces []*domain.Piece, dir domain.Direction) *Sequence {
    s := &Sequence{pieces: pieces, dir: dir}
    s.stones = make([]coord, len(pieces))
    for i, pc := range pieces {
        s.stones[i] = coord{pc.Square.X, pc.Square.Y}
    }
    slices.SortFunc(s.stones, func(a, b coord) int {
        if a.x != b.x {
            return a.x - b.x
        }
        return a.y - b.y
    })
    return s
}

// Len returns the number of stones in the sequence.
func (s *Sequence) Len() int { return len(s.pieces) }

// Direction returns the axis direction the pieces are ordered along.
func (s *Sequence) Direction() domain.Direction { return s.dir }

// Pieces returns the stones, first to last.
func (s *Sequence) Pieces() []*domain.Piece { return s.pieces }

func (s *Sequence) first() *domain.Square { return s.pieces[0].Square }
func (s *Sequence) last() *domain.Square  { return s.pieces[len(s.pieces)-1].Square }

// Equal reports whether s and o are the same stones on the same axis,
// regardless of which stone the scan started from.
func (s *Sequence) Equal(o *Sequence) bool {
    return s.dir == o.dir && slices.Equal(s.stones, o.stones)
}

// digest is a lookup key only; Equal decides identity.
func (s *Sequence) digest() uint64 {
    buf := make([]byte, 0, 8+16*len(s.stones))
    buf = binary.LittleEndian.AppendUint64(buf, uint64(s.dir))
    for _, c := range s.stones {
        buf = binary.LittleEndian.AppendUint64(buf, uint64(c.x))
        buf = binary.LittleEndian.AppendUint64(buf, uint64(c.y))
    }
    return xxhash.Sum64(buf)
}

// IsConsecutive reports whether no empty square lies between the first and
// last stone.
func (s *Sequence) IsConsecutive() bool {
    last := s.last()
    for sq := s.first(); sq != nil && sq != last; sq = sq.Neighbor(s.dir) {
        if sq.Empty() {
            return false
        }
    }
    return true
}

// Blocked counts the ends of the sequence (0, 1 or 2) whose next square is
// off the board or holds any stone.
func (s *Sequence) Blocked() int {
    blocked := 0
    for _, sq := range []*domain.Square{s.last().Neighbor(s.dir), s.first().Neighbor(s.dir.Opposite())} {
        if sq == nil || !sq.Empty() {
            blocked++
        }
    }
    return blocked
}

// AdjacentMoves returns the moves for p that extend or fill the sequence:
// up to two empty squares past each end and every gap between the first
// and last stone.
func (s *Sequence) AdjacentMoves(p domain.Player) []domain.Move {
    var moves []domain.Move
    add := func(sq *domain.Square) {
        moves = append(moves, domain.Move{Player: p, X: sq.X, Y: sq.Y})
    }
    ends := [2]struct {
        sq  *domain.Square
        dir domain.Direction
    }{{s.last(), s.dir}, {s.first(), s.dir.Opposite()}}
    for _, end := range ends {
        next := end.sq.Neighbor(end.dir)
        if next == nil || !next.Empty() {
            continue
        }
        add(next)
        if beyond := next.Neighbor(end.dir); beyond != nil && beyond.Empty() {
            add(beyond)
        }
    }
    last := s.last()
    for sq := s.first(); sq != nil && sq != last; sq = sq.Neighbor(s.dir) {
        if sq.Empty() {
            add(sq)
        }
    }
    return moves
}

func (s *Sequence) String() string {
    parts := lo.Map(s.pieces, func(pc *domain.Piece, _ int) string { return pc.String() })
    return s.dir.String() + "[" + strings.Join(parts, " ") + "]"
}

// sequenceSet keeps sequences unique by identity, in discovery order.
type sequenceSet struct {
    buckets map[uint64][]*Sequence
    list    []*Sequence
}

func newSequenceSet() *sequenceSet {
    return &sequenceSet{buckets: make(map[uint64][]*Sequence)}
}

func (set *sequenceSet) add(s *Sequence) bool {
    key := s.digest()
    for _, o := range set.buckets[key] {
        if o.Equal(s) {
            return false
        }
    }
    set.buckets[key] = append(set.buckets[key], s)
    set.list = append(set.list, s)
    return true
}

// FindSequences scans every stone of p along the four axes and returns the
// significant runs, each reported once.
func FindSequences(b *domain.Board, p domain.Player) []*Sequence {
    set := newSequenceSet()
    for _, pc := range b.Pieces(p) {
        for _, axis := range domain.Axes {
            if s := scanAxis(pc, axis); s != nil {
                set.add(s)
            }
        }
    }
    return set.list
}

// scanAxis returns the significant run through origin along axis, or nil.
func scanAxis(origin *domain.Piece, axis domain.Direction) *Sequence {
    pieces, count, span := measure(origin, axis)
    if !significant(count, span) {
        return nil
    }
    switch count {
    case 3:
        if falseThree(pieces) {
            return nil
        }
    case WinLength:
        if !unbroken(pieces) {
            return nil
        }
    }
    return newSequence(pieces, axis)
}

// measure walks up to Lookahead squares from origin in axis and then in its
// opposite, collecting the owner's stones. count is the number of stones
// found and span the room they have; a run boxed in by the opponent loses
// span.
func measure(origin *domain.Piece, axis domain.Direction) (pieces []*domain.Piece, count, span int) {
    owner := origin.Player
    pieces = []*domain.Piece{origin}
    count, span = 1, 1

    for _, d := range [2]domain.Direction{axis, axis.Opposite()} {
        cur := origin.Square
        for step := 0; step < Lookahead; step++ {
            next := cur.Neighbor(d)
            if next == nil {
                break
            }
            np := next.Piece()
            if np == nil {
                span++
                // Past a gap, a second empty square adds nothing to a run
                // of three or more.
                if cur.Empty() && count > 2 {
                    break
                }
                cur = next
                continue
            }
            if np.Player != owner {
                if cur.Empty() {
                    span--
                } else {
                    span -= step + 1
                }
                break
            }
            span++
            count++
            cur = next
            if d == axis {
                pieces = append(pieces, np)
            } else {
                pieces = append([]*domain.Piece{np}, pieces...)
            }
        }
    }
    return pieces, count, span
}

// falseThree reports three stones too spread out to make a real three:
// two gaps of one square each, or any gap of two squares.
func falseThree(pieces []*domain.Piece) bool {
    a, b, c := pieces[0].Square, pieces[1].Square, pieces[2].Square
    dx1, dx2 := abs(a.X-b.X), abs(b.X-c.X)
    dy1, dy2 := abs(a.Y-b.Y), abs(b.Y-c.Y)
    spread := func(d1, d2 int) bool {
        return (d1 == 2 && d2 == 2) || d1 == 3 || d2 == 3
    }
    return spread(dx1, dx2) || spread(dy1, dy2)
}

// unbroken reports whether each stone touches the next one.
func unbroken(pieces []*domain.Piece) bool {
    for i := 0; i+1 < len(pieces); i++ {
        a, b := pieces[i].Square, pieces[i+1].Square
        if abs(a.X-b.X) > 1 || abs(a.Y-b.Y) > 1 {
            return false
        }
    }
    return true
}

// CollectReplies merges the adjacent moves of both players' sequences into
// a duplicate-free candidate list for p, in discovery order.
func CollectReplies(black, white []*Sequence, p domain.Player) []domain.Move {
    var moves []domain.Move
    for _, seqs := range [2][]*Sequence{black, white} {
        for _, s := range seqs {
            moves = append(moves, s.AdjacentMoves(p)...)
        }
    }
    return lo.Uniq(moves)
}

func abs(v int) int {
    if v < 0 {
        return -v
    }
    return v
}
