package laplacian

import (
	"bytes"
	"encoding/gob"
	"sort"

	"gonum.org/v1/gonum/mat"
)

type triplet struct {
	i, j int
	v    float64
}

// Builder accumulates matrix entries in coordinate form. Entries added
// twice at the same position are summed when the builder is compressed.
type Builder struct {
	rows, cols int
	entries    []triplet
}

// NewBuilder returns a builder for an r×c matrix.
func NewBuilder(r, c int) *Builder {
	if r < 0 || c < 0 {
		panic(mat.ErrNegativeDimension)
	}
	return &Builder{rows: r, cols: c}
}

// Add records v at (i, j). Zero values are not stored.
func (b *Builder) Add(i, j int, v float64) {
	if i < 0 || i >= b.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= b.cols {
		panic(mat.ErrColAccess)
	}
	if v == 0 {
		return
	}
	b.entries = append(b.entries, triplet{i, j, v})
}

// Compress converts the accumulated entries to compressed sparse column
// form.
func (b *Builder) Compress() *CSC {
	entries := make([]triplet, len(b.entries))
	copy(entries, b.entries)
	sort.Slice(entries, func(a, c int) bool {
		if entries[a].j != entries[c].j {
			return entries[a].j < entries[c].j
		}
		return entries[a].i < entries[c].i
	})

	m := &CSC{
		rows:   b.rows,
		cols:   b.cols,
		colPtr: make([]int, b.cols+1),
	}
	for k := 0; k < len(entries); {
		e := entries[k]
		v := e.v
		for k++; k < len(entries) && entries[k].i == e.i && entries[k].j == e.j; k++ {
			v += entries[k].v
		}
		if v == 0 {
			continue
		}
		m.rowIdx = append(m.rowIdx, e.i)
		m.values = append(m.values, v)
		m.colPtr[e.j+1]++
	}
	for j := 0; j < b.cols; j++ {
		m.colPtr[j+1] += m.colPtr[j]
	}
	return m
}

// CSC is an immutable sparse matrix in compressed sparse column format.
// It satisfies mat.Matrix so it can be handed to gonum routines directly.
type CSC struct {
	rows, cols int
	colPtr     []int
	rowIdx     []int
	values     []float64
}

var (
	_ mat.Matrix      = (*CSC)(nil)
	_ mat.NonZeroDoer = (*CSC)(nil)
)

// Dims returns the number of rows and columns.
func (m *CSC) Dims() (r, c int) { return m.rows, m.cols }

// At returns the element at row i, column j.
func (m *CSC) At(i, j int) float64 {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= m.cols {
		panic(mat.ErrColAccess)
	}
	lo, hi := m.colPtr[j], m.colPtr[j+1]
	k := lo + sort.SearchInts(m.rowIdx[lo:hi], i)
	if k < hi && m.rowIdx[k] == i {
		return m.values[k]
	}
	return 0
}

// T returns the transpose view of the matrix.
func (m *CSC) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ is the number of stored nonzero entries.
func (m *CSC) NNZ() int { return len(m.values) }

// DoNonZero calls fn for each stored entry, column by column.
func (m *CSC) DoNonZero(fn func(i, j int, v float64)) {
	for j := 0; j < m.cols; j++ {
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			fn(m.rowIdx[k], j, m.values[k])
		}
	}
}

// RowSums returns the sum of every row.
func (m *CSC) RowSums() []float64 {
	sums := make([]float64, m.rows)
	m.DoNonZero(func(i, _ int, v float64) { sums[i] += v })
	return sums
}

// ToDense expands the matrix. A matrix with a zero dimension expands to an
// empty mat.Dense.
func (m *CSC) ToDense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	m.DoNonZero(d.Set)
	return d
}

type cscWire struct {
	Rows, Cols int
	ColPtr     []int
	RowIdx     []int
	Values     []float64
}

// GobEncode implements gob.GobEncoder.
func (m *CSC) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(cscWire{m.rows, m.cols, m.colPtr, m.rowIdx, m.values})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (m *CSC) GobDecode(data []byte) error {
	var w cscWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	m.rows, m.cols = w.Rows, w.Cols
	m.colPtr, m.rowIdx, m.values = w.ColPtr, w.RowIdx, w.Values
	if m.colPtr == nil {
		m.colPtr = make([]int, m.cols+1)
	}
	return nil
}
