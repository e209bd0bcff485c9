package expr

import "fmt"

// Matrix is a dense row-major matrix of expressions. It exists so that
// conversion-factor matrices can be handed to symbolic solvers when
// stoichiometric unknowns are to be resolved via conservation.
type Matrix struct {
	rows, cols int
	data       []Expr
}

// NewMatrix builds a matrix from rows of equal length.
func NewMatrix(rows [][]Expr) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	cols := len(rows[0])
	m := &Matrix{rows: len(rows), cols: cols, data: make([]Expr, 0, len(rows)*cols)}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d entries, want %d", i, len(row), cols)
		}
		m.data = append(m.data, row...)
	}
	return m, nil
}

// NewNumericMatrix builds a matrix of constants from float rows.
func NewNumericMatrix(rows [][]float64) (*Matrix, error) {
	exprRows := make([][]Expr, len(rows))
	for i, row := range rows {
		exprRows[i] = make([]Expr, len(row))
		for j, v := range row {
			exprRows[i][j] = Num(v)
		}
	}
	return NewMatrix(exprRows)
}

// Dims returns the row and column counts.
func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) Expr {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("expr: matrix index (%d,%d) out of range %dx%d", i, j, m.rows, m.cols))
	}
	return m.data[i*m.cols+j]
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []Expr {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("expr: matrix row %d out of range %d", i, m.rows))
	}
	row := make([]Expr, m.cols)
	copy(row, m.data[i*m.cols:(i+1)*m.cols])
	return row
}
