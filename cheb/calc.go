package cheb

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/alice-offline/chebfield/utils"
)

// Calc is a truncated 3D Chebyshev series for one scalar output.
//
// Only significant coefficients are kept. The footprint is jagged: row r
// (first index, x axis) keeps colsAtRow[r] columns (second index, y axis)
// and each retained (row, column) pair keeps nCoefs[e] coefficients along
// the third axis, starting at coefBeg[e] in coefs, where e = colBeg[r]+column.
// All tables are flat and indexed with integer offsets.
//
// A Calc is immutable once built and can be evaluated concurrently.
type Calc struct {
	nRows     int
	nCols     int
	colsAtRow []int
	colBeg    []int
	nCoefs    []int
	coefBeg   []int
	coefs     []float64
}

// NewCalc returns a Calc built on the given tables after checking their
// consistency. The slices are used as backing storage and must not be
// modified afterwards.
//
//   - colsAtRow: number of significant columns of each row.
//   - colBeg: offset of each row into nCoefs and coefBeg.
//   - nCoefs: number of significant coefficients of each (row, column).
//   - coefBeg: offset of each (row, column) into coefs.
//   - coefs: the retained coefficients.
func NewCalc(colsAtRow, colBeg, nCoefs, coefBeg []int, coefs []float64) (*Calc, error) {
	c := &Calc{
		nRows:     len(colsAtRow),
		nCols:     utils.MaxSlice(colsAtRow),
		colsAtRow: colsAtRow,
		colBeg:    colBeg,
		nCoefs:    nCoefs,
		coefBeg:   coefBeg,
		coefs:     coefs,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewConstantCalc returns the Calc of the constant function v.
func NewConstantCalc(v float64) *Calc {
	return &Calc{
		nRows:     1,
		nCols:     1,
		colsAtRow: []int{1},
		colBeg:    []int{0},
		nCoefs:    []int{1},
		coefBeg:   []int{0},
		coefs:     []float64{v},
	}
}

// validate checks the invariants of the boundary tables.
func (c *Calc) validate() error {

	if c.nRows < 0 || c.nCols < 0 {
		return fmt.Errorf("%w: negative dimensions rows=%d cols=%d", ErrMalformed, c.nRows, c.nCols)
	}

	if len(c.colsAtRow) != c.nRows || len(c.colBeg) != c.nRows {
		return fmt.Errorf("%w: row tables have lengths %d and %d, want %d", ErrMalformed, len(c.colsAtRow), len(c.colBeg), c.nRows)
	}

	if len(c.nCoefs) != len(c.coefBeg) {
		return fmt.Errorf("%w: boundary tables have lengths %d and %d", ErrMalformed, len(c.nCoefs), len(c.coefBeg))
	}

	nElems := len(c.nCoefs)

	for r := 0; r < c.nRows; r++ {
		nc, beg := c.colsAtRow[r], c.colBeg[r]
		if nc < 0 || nc > c.nCols {
			return fmt.Errorf("%w: colCountPerRow[%d]=%d not in [0, %d]", ErrMalformed, r, nc, c.nCols)
		}
		if beg < 0 || beg+nc > nElems {
			return fmt.Errorf("%w: colStartPerRow[%d]=%d with %d columns exceeds %d boundary elements", ErrMalformed, r, beg, nc, nElems)
		}
	}

	if maxCols := utils.MaxSlice(c.colsAtRow); c.nCols != maxCols {
		return fmt.Errorf("%w: nCols=%d, rows have at most %d columns", ErrMalformed, c.nCols, maxCols)
	}

	var total int
	for e := 0; e < nElems; e++ {
		n, beg := c.nCoefs[e], c.coefBeg[e]
		if n < 0 {
			return fmt.Errorf("%w: boundaryNCoefs[%d]=%d is negative", ErrMalformed, e, n)
		}
		if beg < 0 || beg+n > len(c.coefs) {
			return fmt.Errorf("%w: boundaryStart[%d]=%d with %d coefficients exceeds %d coefficients", ErrMalformed, e, beg, n, len(c.coefs))
		}
		total += n
	}

	if total != len(c.coefs) {
		return fmt.Errorf("%w: boundary tables account for %d coefficients, have %d", ErrMalformed, total, len(c.coefs))
	}

	return nil
}

// Rows returns the number of significant rows.
func (c *Calc) Rows() int {
	return c.nRows
}

// Cols returns the largest number of significant columns over all rows.
func (c *Calc) Cols() int {
	return c.nCols
}

// ColsAtRow returns the number of significant columns of row r.
func (c *Calc) ColsAtRow(r int) int {
	return c.colsAtRow[r]
}

// NCoefsAt returns the number of significant coefficients of (row, col).
func (c *Calc) NCoefsAt(row, col int) int {
	return c.nCoefs[c.colBeg[row]+col]
}

// NCoefs returns the total number of retained coefficients.
func (c *Calc) NCoefs() int {
	return len(c.coefs)
}

// NBoundaryElems returns the number of retained (row, column) pairs.
func (c *Calc) NBoundaryElems() int {
	return len(c.nCoefs)
}

// Coefficient returns the coefficient of T_i(x)T_j(y)T_k(z), or 0 if it was
// truncated.
func (c *Calc) Coefficient(i, j, k int) float64 {
	if i < 0 || i >= c.nRows || j < 0 || j >= c.colsAtRow[i] || k < 0 {
		return 0
	}
	e := c.colBeg[i] + j
	if k >= c.nCoefs[e] {
		return 0
	}
	return c.coefs[c.coefBeg[e]+k]
}

// Coefficients returns a copy of the retained coefficients, in storage order.
func (c *Calc) Coefficients() []float64 {
	return append([]float64(nil), c.coefs...)
}

// MaxAbsCoef returns the largest absolute value of the retained coefficients.
func (c *Calc) MaxAbsCoef() float64 {
	return utils.MaxAbsSlice(c.coefs)
}

// CopyNew returns a deep copy of the object.
func (c *Calc) CopyNew() *Calc {
	return &Calc{
		nRows:     c.nRows,
		nCols:     c.nCols,
		colsAtRow: append([]int(nil), c.colsAtRow...),
		colBeg:    append([]int(nil), c.colBeg...),
		nCoefs:    append([]int(nil), c.nCoefs...),
		coefBeg:   append([]int(nil), c.coefBeg...),
		coefs:     append([]float64(nil), c.coefs...),
	}
}

// Equal returns true if both objects hold the same tables. Nil and empty
// tables are equal.
func (c *Calc) Equal(other *Calc) bool {
	return c.nRows == other.nRows &&
		c.nCols == other.nCols &&
		slices.Equal(c.colsAtRow, other.colsAtRow) &&
		slices.Equal(c.colBeg, other.colBeg) &&
		slices.Equal(c.nCoefs, other.nCoefs) &&
		slices.Equal(c.coefBeg, other.coefBeg) &&
		slices.Equal(c.coefs, other.coefs)
}

// Eval evaluates the series at p, given in the canonical cube [-1, 1]^3.
// Points outside the cube are not rejected: the series is extrapolated.
func (c *Calc) Eval(p [3]float64) float64 {
	return c.eval(p, [3]int{})
}

// EvalDeriv evaluates the derivative of the series along axis dim at p,
// in canonical coordinates.
func (c *Calc) EvalDeriv(dim int, p [3]float64) float64 {
	var order [3]int
	order[dim]++
	return c.eval(p, order)
}

// EvalDeriv2 evaluates the second derivative of the series along axes
// dim1 and dim2 at p, in canonical coordinates. dim1 == dim2 gives the
// second derivative along a single axis.
func (c *Calc) EvalDeriv2(dim1, dim2 int, p [3]float64) float64 {
	var order [3]int
	order[dim1]++
	order[dim2]++
	return c.eval(p, order)
}

// eval runs the three nested 1D recurrences: along z for every retained
// (row, column), along y for every row, then along x. order gives the
// derivative order applied on each axis.
func (c *Calc) eval(p [3]float64, order [3]int) float64 {

	if c.nRows == 0 {
		return 0
	}

	var rowStack, colStack [maxStackTerms]float64

	rows, rowHandle := borrow(rowStack[:], c.nRows)
	cols, colHandle := borrow(colStack[:], c.nCols)

	for r := 0; r < c.nRows; r++ {
		nc := c.colsAtRow[r]
		beg := c.colBeg[r]
		for col := 0; col < nc; col++ {
			e := beg + col
			cb := c.coefBeg[e]
			cols[col] = clenshawOrder(order[2], p[2], c.coefs[cb:cb+c.nCoefs[e]])
		}
		rows[r] = clenshawOrder(order[1], p[1], cols[:nc])
	}

	v := clenshawOrder(order[0], p[0], rows)

	release(colHandle)
	release(rowHandle)

	return v
}
