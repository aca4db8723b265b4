package checkers

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var letterToPiece = map[rune]Piece{
	'r': RedMan,
	'R': RedKing,
	'b': BlackMan,
	'B': BlackKing,
}

func pieceToChar(p Piece) byte {
	switch p {
	case RedMan:
		return 'r'
	case RedKing:
		return 'R'
	case BlackMan:
		return 'b'
	case BlackKing:
		return 'B'
	}
	return '.'
}

// Encode: 8 ranks from rank 8 down, "/" separated, digits for runs of empty
// squares, then a space and the side to move ("r" or "b").
func (p *Position) Encode(side Side) string {
	var sb strings.Builder
	for i := 0; i < Rows; i++ {
		if i > 0 {
			sb.WriteByte('/')
		}
		row := Rows - 1 - i
		empty := 0
		for c := 0; c < Cols; c++ {
			pc := p.Board.Squares[indexOf(row, c)]
			if pc == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pieceToChar(pc))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	sb.WriteByte(' ')
	if side == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('r')
	}
	return sb.String()
}

var ErrInvalidFEN = errors.New("invalid position string")

func DecodePosition(s string) (*Position, Side, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil, NoSide, errors.Wrap(ErrInvalidFEN, "want board and side")
	}
	ranks := strings.Split(parts[0], "/")
	if len(ranks) != Rows {
		return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "%d ranks", len(ranks))
	}
	var b Board
	for i, rank := range ranks {
		row := Rows - 1 - i
		c := 0
		for _, ch := range rank {
			if c >= Cols {
				return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "rank %d too long", row+1)
			}
			if ch >= '1' && ch <= '8' {
				c += int(ch - '0')
				continue
			}
			if ch == '.' {
				c++
				continue
			}
			pc, ok := letterToPiece[ch]
			if !ok {
				return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "piece letter %q", ch)
			}
			b.Squares[indexOf(row, c)] = pc
			c++
		}
		if c != Cols {
			return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "rank %d has %d files", row+1, c)
		}
	}
	side, err := ParseSide(parts[1])
	if err != nil {
		return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "side %q", parts[1])
	}
	return &Position{Board: b}, side, nil
}

// MarshalJSON writes the sparse {"a1":"red",...} form.
func (p Position) MarshalJSON() ([]byte, error) {
	m := make(map[string]string)
	for sq, pc := range p.Board.Squares {
		if pc == 0 {
			continue
		}
		m[Square(sq).String()] = pc.String()
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the sparse form; null values mean empty. Colour
// complex checks are left to Validate.
func (p *Position) UnmarshalJSON(data []byte) error {
	var m map[string]*string
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(ErrInvalidPosition, err.Error())
	}
	var b Board
	for name, v := range m {
		sq, err := ParseSquare(name)
		if err != nil {
			return err
		}
		if v == nil || *v == "" {
			continue
		}
		pc, err := ParsePiece(*v)
		if err != nil {
			return errors.Wrapf(err, "at %s", name)
		}
		b.Squares[sq] = pc
	}
	p.Board = b
	return nil
}
