package cheb

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alice-offline/chebfield/utils"
	"github.com/alice-offline/chebfield/utils/bignum"
)

// MaxNodes is the largest number of interpolation nodes per axis.
const MaxNodes = 64

// Func is a vector-valued function of three variables. It writes its
// outputs in out, which has the output dimension of the fit.
// Fit calls it from several goroutines.
type Func func(p [3]float64, out []float64)

// FitParameters is a struct storing the parameters of a Chebyshev fit.
//
//   - Name: informational name attached to the result.
//   - OutputDim: number of outputs of the function.
//   - BoundMin, BoundMax: the validity box.
//   - NPoints: number of Chebyshev nodes along each axis, in [1, MaxNodes].
//     A series along an axis has at most NPoints terms.
//   - Precision: requested absolute precision. The truncated tails of the
//     series sum, in absolute value, to less than Precision for each output.
//   - Workers: maximum number of goroutines sampling the function,
//     GOMAXPROCS if zero.
type FitParameters struct {
	Name      string
	OutputDim int
	BoundMin  [3]float64
	BoundMax  [3]float64
	NPoints   [3]int
	Precision float64
	Workers   int
}

func (p FitParameters) validate() error {
	if p.OutputDim < 1 {
		return fmt.Errorf("invalid OutputDim %d: must be at least 1", p.OutputDim)
	}
	for d := 0; d < 3; d++ {
		if p.NPoints[d] < 1 || p.NPoints[d] > MaxNodes {
			return fmt.Errorf("invalid NPoints[%d]=%d: must be in [1, %d]", d, p.NPoints[d], MaxNodes)
		}
		if !(p.BoundMin[d] < p.BoundMax[d]) || math.IsInf(p.BoundMax[d]-p.BoundMin[d], 0) {
			return fmt.Errorf("invalid bounds [%g, %g] along axis %d", p.BoundMin[d], p.BoundMax[d], d)
		}
	}
	if !(p.Precision >= 0) {
		return fmt.Errorf("invalid Precision %g: must be non-negative", p.Precision)
	}
	return nil
}

// Fit samples f on a grid of Chebyshev nodes, projects the samples on the
// tensor Chebyshev basis and truncates the result to the coefficients
// needed to reach params.Precision.
func Fit(ctx context.Context, f Func, params FitParameters) (*Fit3D, error) {

	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("cannot Fit: %w", err)
	}

	nx, ny, nz := params.NPoints[0], params.NPoints[1], params.NPoints[2]
	dimOut := params.OutputDim

	var nodes [3][]float64
	var tables [3][]float64
	for d := 0; d < 3; d++ {
		n := params.NPoints[d]
		roots := bignum.ChebyshevRoots(n, bignum.DefaultPrecision)
		half := (params.BoundMax[d] - params.BoundMin[d]) / 2
		mid := (params.BoundMax[d] + params.BoundMin[d]) / 2
		nodes[d] = make([]float64, n)
		for i, r := range roots {
			nodes[d][i] = mid + half*r
		}
		tables[d] = bignum.ChebyshevTable(n, bignum.DefaultPrecision)
	}

	// values[((i*ny+j)*nz+k)*dimOut+o]
	values := make([]float64, nx*ny*nz*dimOut)

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < nx; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := make([]float64, dimOut)
			for j := 0; j < ny; j++ {
				for k := 0; k < nz; k++ {
					f([3]float64{nodes[0][i], nodes[1][j], nodes[2][k]}, out)
					copy(values[((i*ny+j)*nz+k)*dimOut:], out)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cannot Fit: %w", err)
	}

	calcs := make([]Calc, dimOut)
	coeffs := make([]float64, nx*ny*nz)
	for o := 0; o < dimOut; o++ {
		for e := range coeffs {
			coeffs[e] = values[e*dimOut+o]
		}
		project(coeffs, params.NPoints, tables)
		calcs[o] = *truncate(coeffs, params.NPoints, params.Precision)
	}

	return NewFit3D(params.Name, params.BoundMin, params.BoundMax, params.Precision, calcs)
}

// project replaces, in place, the samples a[(i*ny+j)*nz+k] taken on the
// Chebyshev roots by the coefficients of the interpolating tensor series,
// transforming one axis at a time (z, then y, then x).
func project(a []float64, n [3]int, tables [3][]float64) {

	strides := [3]int{n[1] * n[2], n[2], 1}

	line := make([]float64, MaxNodes)
	tmp := make([]float64, MaxNodes)

	for axis := 2; axis >= 0; axis-- {

		m := n[axis]
		stride := strides[axis]

		// every line along axis starts where the index along axis is 0
		for base := range a {

			if (base/stride)%m != 0 {
				continue
			}

			for s := 0; s < m; s++ {
				line[s] = a[base+s*stride]
			}

			chebyshevTransform(line[:m], tables[axis], tmp[:m])

			for s := 0; s < m; s++ {
				a[base+s*stride] = tmp[s]
			}
		}
	}
}

// chebyshevTransform computes the coefficients c of the degree len(y)-1
// series interpolating the values y taken on the roots of T_len(y):
// c[0] = 1/n sum y_i, c[k] = 2/n sum y_i T_k(x_i).
func chebyshevTransform(y, table, c []float64) {
	n := len(y)
	for k := 0; k < n; k++ {
		var sum float64
		row := table[k*n : (k+1)*n]
		for i := range y {
			sum += y[i] * row[i]
		}
		if k == 0 {
			c[k] = sum / float64(n)
		} else {
			c[k] = 2 * sum / float64(n)
		}
	}
}

// truncate builds the Calc retaining, for each (row, column) line along z,
// the shortest prefix whose dropped tail sums in absolute value to at most
// prec/(nx*ny). Empty trailing columns and rows are then removed. The
// result keeps at least one coefficient.
func truncate(a []float64, n [3]int, prec float64) *Calc {

	nx, ny, nz := n[0], n[1], n[2]

	budget := prec / float64(nx*ny)

	lineLen := make([]int, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			line := a[(i*ny+j)*nz : (i*ny+j+1)*nz]
			var tail float64
			m := nz
			for ; m > 0; m-- {
				tail += math.Abs(line[m-1])
				if tail > budget {
					break
				}
			}
			lineLen[i*ny+j] = m
		}
	}

	colsAtRow := make([]int, nx)
	nRows := 0
	for i := 0; i < nx; i++ {
		for j := ny - 1; j >= 0; j-- {
			if lineLen[i*ny+j] > 0 {
				colsAtRow[i] = j + 1
				break
			}
		}
		if colsAtRow[i] > 0 {
			nRows = i + 1
		}
	}

	if nRows == 0 {
		return NewConstantCalc(a[0])
	}

	colsAtRow = colsAtRow[:nRows]
	colBeg := make([]int, nRows)
	var nElems, nCoefs int
	for i := 0; i < nRows; i++ {
		colBeg[i] = nElems
		nElems += colsAtRow[i]
		for j := 0; j < colsAtRow[i]; j++ {
			nCoefs += lineLen[i*ny+j]
		}
	}

	nCoefsAt := make([]int, nElems)
	coefBeg := make([]int, nElems)
	coefs := make([]float64, 0, nCoefs)
	for i := 0; i < nRows; i++ {
		for j := 0; j < colsAtRow[i]; j++ {
			e := colBeg[i] + j
			m := lineLen[i*ny+j]
			nCoefsAt[e] = m
			coefBeg[e] = len(coefs)
			coefs = append(coefs, a[(i*ny+j)*nz:(i*ny+j)*nz+m]...)
		}
	}

	return &Calc{
		nRows:     nRows,
		nCols:     utils.MaxSlice(colsAtRow),
		colsAtRow: colsAtRow,
		colBeg:    colBeg,
		nCoefs:    nCoefsAt,
		coefBeg:   coefBeg,
		coefs:     coefs,
	}
}
