package checkers

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrInvalidSquare   = errors.New("invalid square")
	ErrInvalidPiece    = errors.New("invalid piece")
	ErrInvalidSide     = errors.New("invalid side")
	ErrLightSquare     = errors.New("piece on a light square")
	ErrInvalidPosition = errors.New("invalid position")
)

// Validate checks that every occupied square is dark under c and holds a
// known piece. All offending squares are reported, not just the first.
func (p *Position) Validate(c ColorComplex) error {
	var errs *multierror.Error
	for sq, pc := range p.Board.Squares {
		if pc == 0 {
			continue
		}
		s := Square(sq)
		if _, ok := pieceNames[pc]; !ok {
			errs = multierror.Append(errs, errors.Wrapf(ErrInvalidPiece, "%s holds %d", s, pc))
			continue
		}
		if !s.IsDark(c) {
			errs = multierror.Append(errs, errors.Wrapf(ErrLightSquare, "%s %s", pc, s))
		}
	}
	if errs == nil {
		return nil
	}
	errs.ErrorFormat = listFormat
	return errs
}

func listFormat(es []error) string {
	if len(es) == 1 {
		return es[0].Error()
	}
	s := fmt.Sprintf("%d problems:", len(es))
	for _, e := range es {
		s += " " + e.Error() + ";"
	}
	return s[:len(s)-1]
}
