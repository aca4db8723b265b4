package checkers

var (
	colDirs      = [...]int{-1, +1}
	kingRowDirs  = []int{-1, +1}
	redManDirs   = []int{+1}
	blackManDirs = []int{-1}
)

// rowDirs: men only step forward, kings both ways. Ascending order.
func rowDirs(pc Piece) []int {
	if pc.IsKing() {
		return kingRowDirs
	}
	if pc.Side() == Red {
		return redManDirs
	}
	return blackManDirs
}

func promotes(pc Piece, row int) bool {
	return !pc.IsKing() && row == FarRow(pc.Side())
}

// GeneratePseudoMovesForSide lists every simple move and every maximal jump
// chain for side, before any force-take filtering. Order is fixed: file a..h,
// then rank 1..8 within a file, then row direction, then column direction,
// simple step before jumps in the same direction.
func (p *Position) GeneratePseudoMovesForSide(side Side, c ColorComplex) []Move {
	var moves []Move
	for col := 0; col < Cols; col++ {
		for row := 0; row < Rows; row++ {
			sq := indexOf(row, col)
			pc := p.Board.Squares[sq]
			if pc == 0 || pc.Side() != side {
				continue
			}
			genPieceMoves(p, Square(sq), pc, c, &moves)
		}
	}
	return moves
}

// GenerateLegalMoves applies the force-take policy of rules on top of the
// pseudo moves.
func (p *Position) GenerateLegalMoves(side Side, rules Rules) []Move {
	return applyForceTake(p.GeneratePseudoMovesForSide(side, rules.Complex), rules)
}

// HasCapture reports whether side has at least one jump available.
func (p *Position) HasCapture(side Side, c ColorComplex) bool {
	for sq, pc := range p.Board.Squares {
		if pc == 0 || pc.Side() != side {
			continue
		}
		row, col := rowOf(sq), colOf(sq)
		for _, dr := range rowDirs(pc) {
			for _, dc := range colDirs {
				if _, _, ok := jumpTarget(&p.Board, row, col, dr, dc, pc, c); ok {
					return true
				}
			}
		}
	}
	return false
}

func genPieceMoves(p *Position, from Square, pc Piece, c ColorComplex, moves *[]Move) {
	row, col := from.Coords()
	for _, dr := range rowDirs(pc) {
		for _, dc := range colDirs {
			r, cc := row+dr, col+dc
			if onBoard(r, cc) && IsDark(r, cc, c) && p.Board.Squares[indexOf(r, cc)] == 0 {
				*moves = append(*moves, Move{
					From:      from,
					To:        SquareAt(r, cc),
					Promotion: promotes(pc, r),
				})
			}

			over, land, ok := jumpTarget(&p.Board, row, col, dr, dc, pc, c)
			if !ok {
				continue
			}
			// scratch board: the real position is never touched
			b := p.Board
			b.Squares[from] = 0
			b.Squares[over] = 0
			b.Squares[land] = pc
			extendChain(b, pc, Move{From: from, To: land, Captures: []Square{over}}, c, moves)
		}
	}
}

// extendChain keeps jumping with pc from chain.To on b, which already shows
// the chain so far (piece relocated, captured pieces removed). Only chains
// with no further jump are emitted.
func extendChain(b Board, pc Piece, chain Move, c ColorComplex, moves *[]Move) {
	row, col := chain.To.Coords()
	extended := false
	for _, dr := range rowDirs(pc) {
		for _, dc := range colDirs {
			over, land, ok := jumpTarget(&b, row, col, dr, dc, pc, c)
			if !ok {
				continue
			}
			extended = true

			nb := b
			nb.Squares[chain.To] = 0
			nb.Squares[over] = 0
			nb.Squares[land] = pc

			caps := make([]Square, len(chain.Captures), len(chain.Captures)+1)
			copy(caps, chain.Captures)
			caps = append(caps, over)
			extendChain(nb, pc, Move{From: chain.From, To: land, Captures: caps}, c, moves)
		}
	}
	if !extended {
		chain.Promotion = promotes(pc, chain.To.Row())
		*moves = append(*moves, chain)
	}
}

// jumpTarget checks a single jump from (row,col) in direction (dr,dc): an
// opponent piece next to us and an empty dark square behind it.
func jumpTarget(b *Board, row, col, dr, dc int, pc Piece, c ColorComplex) (over, land Square, ok bool) {
	mr, mc := row+dr, col+dc
	lr, lc := row+2*dr, col+2*dc
	if !onBoard(lr, lc) || !IsDark(lr, lc, c) {
		return NoSquare, NoSquare, false
	}
	mid := b.Squares[indexOf(mr, mc)]
	if mid == 0 || mid.Side() == pc.Side() {
		return NoSquare, NoSquare, false
	}
	if b.Squares[indexOf(lr, lc)] != 0 {
		return NoSquare, NoSquare, false
	}
	return SquareAt(mr, mc), SquareAt(lr, lc), true
}

// applyForceTake: with ForceTake any capture makes quiet moves illegal; with
// ForceMultipleTakes as well, only the longest chains survive (ties kept).
func applyForceTake(moves []Move, rules Rules) []Move {
	if !rules.ForceTake {
		return moves
	}
	maxCaps := 0
	for _, m := range moves {
		if len(m.Captures) > maxCaps {
			maxCaps = len(m.Captures)
		}
	}
	if maxCaps == 0 {
		return moves
	}
	out := make([]Move, 0, len(moves))
	for _, m := range moves {
		if !m.IsCapture() {
			continue
		}
		if rules.ForceMultipleTakes && len(m.Captures) != maxCaps {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ApplyMove returns the position after m; p is left untouched. A man that
// ends on its far rank is crowned. ok is false when m does not fit p.
func (p *Position) ApplyMove(m Move) (*Position, bool) {
	if !m.From.Valid() || !m.To.Valid() {
		return nil, false
	}
	pc := p.Board.Squares[m.From]
	if pc == 0 {
		return nil, false
	}
	// a king's jump loop may end where it started
	if m.To != m.From && p.Board.Squares[m.To] != 0 {
		return nil, false
	}
	for _, c := range m.Captures {
		if !c.Valid() {
			return nil, false
		}
		cp := p.Board.Squares[c]
		if cp == 0 || cp.Side() == pc.Side() {
			return nil, false
		}
	}

	np := *p
	np.Board.Squares[m.From] = 0
	for _, c := range m.Captures {
		np.Board.Squares[c] = 0
	}
	if promotes(pc, m.To.Row()) {
		pc = pc.Crowned()
	}
	np.Board.Squares[m.To] = pc
	return &np, true
}
