package checkers

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	Rows       = 8
	Cols       = 8
	NumSquares = Rows * Cols
)

// Square is row*Cols+col, row 0 = rank 1, col 0 = file a.
type Square int8

const NoSquare Square = -1

func indexOf(row, col int) int { return row*Cols + col }
func rowOf(sq int) int         { return sq / Cols }
func colOf(sq int) int         { return sq % Cols }

func onBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// SquareAt returns NoSquare for coordinates off the board.
func SquareAt(row, col int) Square {
	if !onBoard(row, col) {
		return NoSquare
	}
	return Square(indexOf(row, col))
}

func (s Square) Valid() bool { return s >= 0 && int(s) < NumSquares }

// Coords returns the zero-based (row, col) pair.
func (s Square) Coords() (row, col int) {
	return rowOf(int(s)), colOf(int(s))
}

func (s Square) Row() int { return rowOf(int(s)) }
func (s Square) Col() int { return colOf(int(s)) }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	r, c := s.Coords()
	return fmt.Sprintf("%c%d", 'a'+c, r+1)
}

func ParseSquare(name string) (Square, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) != 2 {
		return NoSquare, errors.Wrapf(ErrInvalidSquare, "%q", name)
	}
	col := int(name[0]) - 'a'
	row := int(name[1]) - '1'
	if !onBoard(row, col) {
		return NoSquare, errors.Wrapf(ErrInvalidSquare, "%q", name)
	}
	return SquareAt(row, col), nil
}

// MustSquare is for literals in tables and tests.
func MustSquare(name string) Square {
	sq, err := ParseSquare(name)
	if err != nil {
		panic(err)
	}
	return sq
}

func (s Square) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Wrapf(ErrInvalidSquare, "index %d", s)
	}
	return []byte(s.String()), nil
}

func (s *Square) UnmarshalText(b []byte) error {
	sq, err := ParseSquare(string(b))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}

// IsDark: on the standard complex a1 is dark, i.e. (row+col) even.
func IsDark(row, col int, c ColorComplex) bool {
	if c == FlippedComplex {
		return (row+col)%2 == 1
	}
	return (row+col)%2 == 0
}

func (s Square) IsDark(c ColorComplex) bool {
	r, col := s.Coords()
	return IsDark(r, col, c)
}

// forward is the row step of a man: red moves up the board, black down.
func forward(side Side) int {
	if side == Red {
		return +1
	}
	if side == Black {
		return -1
	}
	return 0
}

// FarRow is where a man of the given side is crowned.
func FarRow(side Side) int {
	if side == Red {
		return Rows - 1
	}
	return 0
}

// BackRow is the side's own starting row.
func BackRow(side Side) int {
	if side == Red {
		return 0
	}
	return Rows - 1
}

// rank 8 first, same letters as the text codec
const initialBoardString = `.b.b.b.b
b.b.b.b.
.b.b.b.b
........
........
r.r.r.r.
.r.r.r.r
r.r.r.r.`

func parseInitialBoard() Board {
	var b Board
	lines := strings.Split(initialBoardString, "\n")
	if len(lines) != Rows {
		panic("initialBoardString must have 8 ranks")
	}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) != Cols {
			panic("initialBoardString rank must have 8 files")
		}
		row := Rows - 1 - i
		for c, ch := range line {
			if ch == '.' {
				continue
			}
			pc, ok := letterToPiece[ch]
			if !ok {
				panic("unknown piece letter: " + string(ch))
			}
			b.Squares[indexOf(row, c)] = pc
		}
	}
	return b
}

// NewInitialPosition: 12 men per side on the dark squares of their first
// three ranks, standard complex.
func NewInitialPosition() *Position {
	return &Position{Board: parseInitialBoard()}
}

func (p *Position) At(sq Square) Piece {
	if !sq.Valid() {
		return 0
	}
	return p.Board.Squares[sq]
}

// Set is for setup-mode edits; the engine itself never calls it.
func (p *Position) Set(sq Square, pc Piece) {
	if sq.Valid() {
		p.Board.Squares[sq] = pc
	}
}

func (p *Position) Clone() *Position {
	np := *p
	return &np
}

type PieceCount struct {
	RedMen, RedKings     int
	BlackMen, BlackKings int
}

func (c PieceCount) Red() int   { return c.RedMen + c.RedKings }
func (c PieceCount) Black() int { return c.BlackMen + c.BlackKings }
func (c PieceCount) Total() int { return c.Red() + c.Black() }

func (p *Position) Count() PieceCount {
	var c PieceCount
	for _, pc := range p.Board.Squares {
		switch pc {
		case RedMan:
			c.RedMen++
		case RedKing:
			c.RedKings++
		case BlackMan:
			c.BlackMen++
		case BlackKing:
			c.BlackKings++
		}
	}
	return c
}

// Mirror rotates the board 180 degrees and swaps colours. Parity of
// row+col is unchanged, so the position stays on the same complex.
func (p *Position) Mirror() *Position {
	var np Position
	for sq, pc := range p.Board.Squares {
		if pc == 0 {
			continue
		}
		np.Board.Squares[NumSquares-1-sq] = -pc
	}
	return &np
}

// RemapColorComplex moves a position laid out for complex `from` onto the
// opposite complex: every piece shifts one file right (h wraps to a) and is
// kept only if it lands on a dark square of the new complex.
func (p *Position) RemapColorComplex(from ColorComplex) *Position {
	to := from.Opposite()
	var np Position
	for sq, pc := range p.Board.Squares {
		if pc == 0 {
			continue
		}
		r, c := rowOf(sq), (colOf(sq)+1)%Cols
		if !IsDark(r, c, to) {
			continue
		}
		np.Board.Squares[indexOf(r, c)] = pc
	}
	return &np
}
