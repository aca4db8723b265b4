package checkers

import (
	"strings"

	"github.com/pkg/errors"
)

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Opponent returns the other side; NoSide stays NoSide.
func (s Side) Opponent() Side {
	switch s {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return NoSide
	}
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, nil
	case "black", "b":
		return Black, nil
	}
	return NoSide, errors.Wrapf(ErrInvalidSide, "%q", s)
}

func (s Side) MarshalText() ([]byte, error) {
	if s != Red && s != Black {
		return nil, errors.Wrapf(ErrInvalidSide, "%d", s)
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type PieceType int8

const (
	PieceNone PieceType = iota
	PieceMan
	PieceKing
)

// Piece: 0 = empty, >0 red, <0 black, abs = PieceType.
type Piece int8

const (
	RedMan    Piece = Piece(PieceMan)
	RedKing   Piece = Piece(PieceKing)
	BlackMan  Piece = -Piece(PieceMan)
	BlackKing Piece = -Piece(PieceKing)
)

func makePiece(side Side, pt PieceType) Piece {
	if pt == PieceNone || side == NoSide {
		return 0
	}
	if side == Red {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	if p == 0 {
		return NoSide
	}
	if p > 0 {
		return Red
	}
	return Black
}

func (p Piece) IsKing() bool { return p.Type() == PieceKing }

// Crowned returns the king of the same colour.
func (p Piece) Crowned() Piece { return makePiece(p.Side(), PieceKing) }

var pieceNames = map[Piece]string{
	RedMan:    "red",
	RedKing:   "red-king",
	BlackMan:  "black",
	BlackKing: "black-king",
}

func (p Piece) String() string {
	if n, ok := pieceNames[p]; ok {
		return n
	}
	return "empty"
}

func ParsePiece(s string) (Piece, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for pc, n := range pieceNames {
		if n == name {
			return pc, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidPiece, "%q", s)
}

// ColorComplex selects which square parity is playable. The zero value is
// the standard complex where a1 is dark.
type ColorComplex bool

const (
	StandardComplex ColorComplex = false
	FlippedComplex  ColorComplex = true
)

func (c ColorComplex) Opposite() ColorComplex { return !c }

// Rules is threaded unchanged through generation and search.
type Rules struct {
	ForceTake          bool         `json:"forceTake"`
	ForceMultipleTakes bool         `json:"forceMultipleTakes"`
	Complex            ColorComplex `json:"colorComplex"`
}

// DefaultRules: both force flags on, standard complex.
func DefaultRules() Rules {
	return Rules{ForceTake: true, ForceMultipleTakes: true}
}

// WithComplex returns a copy of r playing on complex c.
func (r Rules) WithComplex(c ColorComplex) Rules {
	r.Complex = c
	return r
}

type Move struct {
	From      Square   `json:"from"`
	To        Square   `json:"to"`
	Captures  []Square `json:"captures,omitempty"`
	Promotion bool     `json:"promotion"`
}

func (m Move) IsCapture() bool { return len(m.Captures) > 0 }

// Notation renders the move the way the move history shows it: c3-d4, or
// a3-e7xb4xd6 for a jump chain.
func (m Move) Notation() string {
	var sb strings.Builder
	sb.WriteString(m.From.String())
	sb.WriteByte('-')
	sb.WriteString(m.To.String())
	for _, c := range m.Captures {
		sb.WriteByte('x')
		sb.WriteString(c.String())
	}
	if m.Promotion {
		sb.WriteString("=K")
	}
	return sb.String()
}

// Same reports whether two moves describe the same chain.
func (m Move) Same(o Move) bool {
	if m.From != o.From || m.To != o.To || len(m.Captures) != len(o.Captures) {
		return false
	}
	for i := range m.Captures {
		if m.Captures[i] != o.Captures[i] {
			return false
		}
	}
	return true
}

type Board struct {
	Squares [NumSquares]Piece
}

// Position is an 8x8 board. It is a plain value: copying it copies the
// whole board, which is what ApplyMove relies on.
type Position struct {
	Board Board
}
