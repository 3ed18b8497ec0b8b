package infra_embeddings

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrBadShape          = errors.New("bad matrix shape")
)

// Matrix is the flat embedding table, one row per movie, loaded once at
// startup and read-only afterwards. Row norms are precomputed so cosine
// scoring is a single pass of dot products.
type Matrix struct {
	data  []float32
	norms []float32
	rows  int
	dim   int
}

func NewMatrix(data []float32, rows, dim int) (*Matrix, error) {
	if rows < 0 || dim <= 0 || len(data) != rows*dim {
		return nil, fmt.Errorf("%w: %d elements for (%d, %d)", ErrBadShape, len(data), rows, dim)
	}

	m := &Matrix{data: data, rows: rows, dim: dim}
	m.norms = make([]float32, rows)
	for i := 0; i < rows; i++ {
		m.norms[i] = norm(m.Row(i))
	}

	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Dim() int  { return m.dim }

func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim]
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float32) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

// CosineSimilarities scores the query against every row.
func (m *Matrix) CosineSimilarities(query []float32) ([]float64, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), m.dim)
	}

	qnorm := norm(query)
	out := make([]float64, m.rows)
	if qnorm == 0 {
		return out, nil
	}

	for i := 0; i < m.rows; i++ {
		if m.norms[i] == 0 {
			continue
		}
		out[i] = float64(dot(m.Row(i), query) / (m.norms[i] * qnorm))
	}

	return out, nil
}

// Centroid computes the weighted average of the given rows. Weights are
// normalised internally; a nil weight slice means uniform weighting.
func (m *Matrix) Centroid(indices []int, weights []float64) ([]float32, error) {
	if len(indices) == 0 {
		return nil, ErrBadShape
	}
	if weights != nil && len(weights) != len(indices) {
		return nil, fmt.Errorf("%w: %d weights for %d rows", ErrBadShape, len(weights), len(indices))
	}

	var total float64
	if weights == nil {
		total = float64(len(indices))
	} else {
		for _, w := range weights {
			total += w
		}
		if total == 0 {
			total = float64(len(indices))
			weights = nil
		}
	}

	out := make([]float32, m.dim)
	for k, idx := range indices {
		w := 1.0
		if weights != nil {
			w = weights[k]
		}
		row := m.Row(idx)
		for j := range out {
			out[j] += float32(w / total * float64(row[j]))
		}
	}

	return out, nil
}
