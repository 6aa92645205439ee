package domain

import (
    "fmt"
    "strings"
)

// Player identifies one side of a game.
type Player uint8

const (
    Black Player = iota
    White
)

// Other returns the opponent of p.
func (p Player) Other() Player {
    if p == Black {
        return White
    }
    return Black
}

func (p Player) String() string {
    if p == Black {
        return "Black"
    }
    return "White"
}

// Square is one grid cell. Its coordinates and neighbor links never change
// after the board is built; only the occupying piece does.
type Square struct {
    X, Y      int
    piece     *Piece
    neighbors [NumDirections]*Square
}

// Piece returns the stone on the square, or nil when it is empty.
func (s *Square) Piece() *Piece { return s.piece }

// Empty reports whether no stone occupies the square.
func (s *Square) Empty() bool { return s.piece == nil }

// Neighbor returns the adjacent square in direction d, or nil at an edge.
func (s *Square) Neighbor(d Direction) *Square { return s.neighbors[d] }

func (s *Square) String() string { return fmt.Sprintf("(%d,%d)", s.X, s.Y) }

// Piece is a stone owned by a player, placed on a square.
type Piece struct {
    Player Player
    Square *Square
}

func (p *Piece) String() string {
    return fmt.Sprintf("%c%s", p.Player.String()[0], p.Square)
}

// Move is a player placing a stone at (X, Y). Two moves are the same move
// when all three fields match.
type Move struct {
    Player Player
    X, Y   int
}

func (m Move) String() string {
    return fmt.Sprintf("%c(%d,%d)", m.Player.String()[0], m.X, m.Y)
}

// Board holds the grid, both players' live stones, the side to move and the
// history of applied moves. All mutation goes through Apply and UndoLast.
type Board struct {
    dimX, dimY int
    squares    [][]*Square
    pieces     [2][]*Piece
    toMove     Player
    history    []Move
}

// NewBoard returns an empty dimX by dimY board with first to move.
func NewBoard(dimX, dimY int, first Player) *Board {
    b := &Board{dimX: dimX, dimY: dimY, toMove: first}
    b.squares = make([][]*Square, dimX)
    for x := 0; x < dimX; x++ {
        b.squares[x] = make([]*Square, dimY)
        for y := 0; y < dimY; y++ {
            b.squares[x][y] = &Square{X: x, Y: y}
        }
    }
    for x := 0; x < dimX; x++ {
        for y := 0; y < dimY; y++ {
            sq := b.squares[x][y]
            for _, d := range Directions {
                nx, ny := x+d.ShiftX(), y+d.ShiftY()
                if b.InBounds(nx, ny) {
                    sq.neighbors[d] = b.squares[nx][ny]
                }
            }
        }
    }
    return b
}

// Dims returns the board width and height.
func (b *Board) Dims() (int, int) { return b.dimX, b.dimY }

// ToMove returns the player whose turn it is.
func (b *Board) ToMove() Player { return b.toMove }

// InBounds reports whether (x, y) lies on the board.
func (b *Board) InBounds(x, y int) bool {
    return x >= 0 && x < b.dimX && y >= 0 && y < b.dimY
}

// Square returns the square at (x, y). Coordinates must be in bounds.
func (b *Board) Square(x, y int) *Square { return b.squares[x][y] }

// Occupant returns the owner of the stone at (x, y). ok is false for empty
// or off-board coordinates.
func (b *Board) Occupant(x, y int) (p Player, ok bool) {
    if !b.InBounds(x, y) {
        return Black, false
    }
    pc := b.squares[x][y].piece
    if pc == nil {
        return Black, false
    }
    return pc.Player, true
}

// Pieces returns the live stone list of p in placement order. Callers must
// not modify it.
func (b *Board) Pieces(p Player) []*Piece { return b.pieces[p] }

// MoveCount returns the number of stones on the board.
func (b *Board) MoveCount() int { return len(b.history) }

// Full reports whether every square is occupied.
func (b *Board) Full() bool { return len(b.history) == b.dimX*b.dimY }

// History returns a copy of the applied moves, oldest first.
func (b *Board) History() []Move {
    return append([]Move(nil), b.history...)
}

// LastMove returns the most recent move, if any.
func (b *Board) LastMove() (Move, bool) {
    if len(b.history) == 0 {
        return Move{}, false
    }
    return b.history[len(b.history)-1], true
}

// IsValid reports whether m can be applied: it is m.Player's turn, the
// coordinates are on the board and the target square is empty.
func (b *Board) IsValid(m Move) bool {
    return m.Player == b.toMove &&
        b.InBounds(m.X, m.Y) &&
        b.squares[m.X][m.Y].piece == nil
}

// Apply places the stone for m and passes the turn. Invalid moves are
// rejected without touching the board.
func (b *Board) Apply(m Move) bool {
    if !b.IsValid(m) {
        return false
    }
    sq := b.squares[m.X][m.Y]
    sq.piece = &Piece{Player: m.Player, Square: sq}
    b.pieces[m.Player] = append(b.pieces[m.Player], sq.piece)
    b.history = append(b.history, m)
    b.toMove = b.toMove.Other()
    return true
}

// Play applies a move for the side to move at (x, y).
func (b *Board) Play(x, y int) bool {
    return b.Apply(Move{Player: b.toMove, X: x, Y: y})
}

// UndoLast reverts the most recent move. It does nothing on an empty
// history.
func (b *Board) UndoLast() {
    n := len(b.history)
    if n == 0 {
        return
    }
    m := b.history[n-1]
    b.history = b.history[:n-1]
    b.squares[m.X][m.Y].piece = nil
    // The undone stone is always the newest in its owner's list.
    pcs := b.pieces[m.Player]
    pcs[len(pcs)-1] = nil
    b.pieces[m.Player] = pcs[:len(pcs)-1]
    b.toMove = b.toMove.Other()
}

// Explore applies m, runs fn, then undoes m on every exit path, including a
// panic inside fn. It returns false without calling fn if m is invalid.
func (b *Board) Explore(m Move, fn func()) bool {
    if !b.Apply(m) {
        return false
    }
    defer b.UndoLast()
    fn()
    return true
}

// Cell is the content of one square in a Snapshot.
type Cell uint8

const (
    Empty Cell = iota
    BlackStone
    WhiteStone
)

// CellOf returns the cell value for a stone of p.
func CellOf(p Player) Cell {
    if p == Black {
        return BlackStone
    }
    return WhiteStone
}

// Snapshot is a detached copy of a board, safe to hand to renderers.
type Snapshot struct {
    Width, Height int
    Cells         [][]Cell // indexed [y][x]
    ToMove        Player
    History       []Move
}

// Snapshot copies the current position.
func (b *Board) Snapshot() Snapshot {
    s := Snapshot{Width: b.dimX, Height: b.dimY, ToMove: b.toMove, History: b.History()}
    s.Cells = make([][]Cell, b.dimY)
    for y := 0; y < b.dimY; y++ {
        s.Cells[y] = make([]Cell, b.dimX)
        for x := 0; x < b.dimX; x++ {
            if pc := b.squares[x][y].piece; pc != nil {
                s.Cells[y][x] = CellOf(pc.Player)
            }
        }
    }
    return s
}

// Last returns the most recent move of the snapshot, if any.
func (s Snapshot) Last() (Move, bool) {
    if len(s.History) == 0 {
        return Move{}, false
    }
    return s.History[len(s.History)-1], true
}

// String draws the board with x across and y down. Black is X, white is O.
func (b *Board) String() string {
    var sb strings.Builder
    sb.WriteString("   ")
    for x := 0; x < b.dimX; x++ {
        fmt.Fprintf(&sb, "%3d", x)
    }
    sb.WriteByte('\n')
    for y := 0; y < b.dimY; y++ {
        fmt.Fprintf(&sb, "%3d", y)
        for x := 0; x < b.dimX; x++ {
            switch p, ok := b.Occupant(x, y); {
            case !ok:
                sb.WriteString("  .")
            case p == Black:
                sb.WriteString("  X")
            default:
                sb.WriteString("  O")
            }
        }
        sb.WriteByte('\n')
    }
    fmt.Fprintf(&sb, "%s to move", b.toMove)
    return sb.String()
}
