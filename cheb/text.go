package cheb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// WriteText writes f in the line-oriented text format:
//
//	START <name>
//	<outputDimension>
//	<precision>
//	<boundsMin[0]> <boundsMin[1]> <boundsMin[2]>
//	<boundsMax[0]> <boundsMax[1]> <boundsMax[2]>
//	START CALC
//	... one Calc record per output dimension ...
//	END CALC
//	END <name>
//
// Lines starting with '#' are comments. Floats are written with the
// shortest representation that reads back to the same value, so that
// WriteText followed by ReadText is lossless.
func (f *Fit3D) WriteText(w io.Writer) (err error) {

	bw := bufio.NewWriter(w)

	name := textName(f.name)

	fmt.Fprintf(bw, "# Chebyshev parameterization for function %s\n", name)
	fmt.Fprintf(bw, "START %s\n", name)
	fmt.Fprintf(bw, "# Dimensionality of the output\n%d\n", len(f.calcs))
	fmt.Fprintf(bw, "# Precision\n%s\n", formatFloat(f.prec))
	fmt.Fprintf(bw, "# Lower boundaries of interpolation region\n%s\n", formatFloats(f.bMin[:]))
	fmt.Fprintf(bw, "# Upper boundaries of interpolation region\n%s\n", formatFloats(f.bMax[:]))
	fmt.Fprintf(bw, "# Parameterization for each output dimension\n")

	for i := range f.calcs {
		f.calcs[i].writeText(bw)
	}

	fmt.Fprintf(bw, "END %s\n", name)

	return bw.Flush()
}

func (c *Calc) writeText(w io.Writer) {
	fmt.Fprintf(w, "START CALC\n")
	fmt.Fprintf(w, "# Number of coefficients\n%d\n", len(c.coefs))
	fmt.Fprintf(w, "# Number of rows, of columns, of boundary elements\n%d %d %d\n", c.nRows, c.nCols, len(c.nCoefs))
	fmt.Fprintf(w, "# Number of columns for each row\n%s\n", formatInts(c.colsAtRow))
	fmt.Fprintf(w, "# Start of each row in the boundary tables\n%s\n", formatInts(c.colBeg))
	fmt.Fprintf(w, "# Number of coefficients for each boundary element\n%s\n", formatInts(c.nCoefs))
	fmt.Fprintf(w, "# Start of each boundary element in the coefficients\n%s\n", formatInts(c.coefBeg))
	fmt.Fprintf(w, "# Coefficients\n")
	for _, v := range c.coefs {
		fmt.Fprintf(w, "%s\n", formatFloat(v))
	}
	fmt.Fprintf(w, "END CALC\n")
}

// ReadText reads a parameterization written by WriteText. The boundary
// policy of f is left unchanged. Errors report the line at which decoding
// failed and wrap ErrMalformed.
func (f *Fit3D) ReadText(r io.Reader) (err error) {

	t := newTokenizer(r)

	if err = t.expect("START"); err != nil {
		return
	}

	var name string
	if name, err = t.next(); err != nil {
		return
	}

	var dimOut int
	if dimOut, err = t.int("outputDimension"); err != nil {
		return
	}
	if dimOut < 1 || dimOut > maxOutputDim {
		return t.errorf("outputDimension=%d not in [1, %d]", dimOut, maxOutputDim)
	}

	var prec float64
	if prec, err = t.float("precision"); err != nil {
		return
	}

	var bMin, bMax [3]float64
	if err = t.floats("boundsMin", bMin[:]); err != nil {
		return
	}
	if err = t.floats("boundsMax", bMax[:]); err != nil {
		return
	}

	calcs := make([]Calc, dimOut)
	for i := range calcs {
		if err = calcs[i].readText(t); err != nil {
			return fmt.Errorf("calc[%d]: %w", i, err)
		}
	}

	if err = t.expect("END"); err != nil {
		return
	}

	var end string
	if end, err = t.next(); err != nil {
		return
	}
	if end != name {
		return t.errorf("END %s closes START %s", end, name)
	}

	g := Fit3D{name: name, prec: prec, policy: f.policy, calcs: calcs}
	if err = g.setBounds(bMin, bMax); err != nil {
		return
	}

	*f = g

	return nil
}

func (c *Calc) readText(t *tokenizer) (err error) {

	if err = t.expect("START"); err != nil {
		return
	}
	if err = t.expect("CALC"); err != nil {
		return
	}

	var header [4]int
	names := [4]string{"nCoefsTotal", "nRows", "nCols", "nBoundaryElems"}
	for i := range header {
		if header[i], err = t.int(names[i]); err != nil {
			return
		}
		if header[i] < 0 || header[i] > maxRecordLen {
			return t.errorf("%s=%d not in [0, %d]", names[i], header[i], maxRecordLen)
		}
	}

	nCoefs, nRows, nCols, nElems := header[0], header[1], header[2], header[3]

	c.nRows = nRows
	c.nCols = nCols
	c.colsAtRow = make([]int, nRows)
	c.colBeg = make([]int, nRows)
	c.nCoefs = make([]int, nElems)
	c.coefBeg = make([]int, nElems)
	c.coefs = make([]float64, nCoefs)

	tables := [4][]int{c.colsAtRow, c.colBeg, c.nCoefs, c.coefBeg}
	tableNames := [4]string{"colCountPerRow", "colStartPerRow", "boundaryNCoefs", "boundaryStart"}
	for i := range tables {
		if err = t.ints(tableNames[i], tables[i]); err != nil {
			return
		}
	}

	if err = t.floats("coefficients", c.coefs); err != nil {
		return
	}

	if err = t.expect("END"); err != nil {
		return
	}
	if err = t.expect("CALC"); err != nil {
		return
	}

	return c.validate()
}

// tokenizer splits a text record into whitespace separated tokens,
// skipping comments.
type tokenizer struct {
	sc     *bufio.Scanner
	fields []string
	line   int
}

func newTokenizer(r io.Reader) *tokenizer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &tokenizer{sc: sc}
}

func (t *tokenizer) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, t.line, fmt.Sprintf(format, args...))
}

func (t *tokenizer) next() (string, error) {
	for len(t.fields) == 0 {
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", fmt.Errorf("line %d: %w", t.line, err)
			}
			return "", t.errorf("%v", io.ErrUnexpectedEOF)
		}
		t.line++
		line := t.sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		t.fields = strings.Fields(line)
	}
	tok := t.fields[0]
	t.fields = t.fields[1:]
	return tok, nil
}

func (t *tokenizer) expect(want string) error {
	tok, err := t.next()
	if err != nil {
		return err
	}
	if tok != want {
		return t.errorf("expected %q, got %q", want, tok)
	}
	return nil
}

func (t *tokenizer) int(name string) (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, t.errorf("%s: %v", name, err)
	}
	return v, nil
}

func (t *tokenizer) ints(name string, v []int) (err error) {
	for i := range v {
		if v[i], err = t.int(fmt.Sprintf("%s[%d]", name, i)); err != nil {
			return
		}
	}
	return
}

func (t *tokenizer) float(name string) (float64, error) {
	tok, err := t.next()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, t.errorf("%s: %v", name, err)
	}
	return v, nil
}

func (t *tokenizer) floats(name string, v []float64) (err error) {
	for i := range v {
		if v[i], err = t.float(fmt.Sprintf("%s[%d]", name, i)); err != nil {
			return
		}
	}
	return
}

// textName returns name as a single token, "unnamed" if it is empty.
func textName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '#' {
			return '_'
		}
		return r
	}, name)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloats(v []float64) string {
	s := make([]string, len(v))
	for i := range v {
		s[i] = formatFloat(v[i])
	}
	return strings.Join(s, " ")
}

func formatInts(v []int) string {
	s := make([]string, len(v))
	for i := range v {
		s[i] = strconv.Itoa(v[i])
	}
	return strings.Join(s, " ")
}
