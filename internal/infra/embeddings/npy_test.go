package infra_embeddings

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	m, err := NewMatrix(data, 2, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, m))

	// numpy requires the header block to be 64-byte aligned.
	headerEnd := bytes.IndexByte(buf.Bytes(), '\n') + 1
	assert.Equal(t, 0, headerEnd%64)

	loaded, err := ReadNPY(&buf)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.Rows())
	assert.Equal(t, 3, loaded.Dim())
	assert.Equal(t, []float32{4, 5, 6}, loaded.Row(1))
}

func TestReadFloat64(t *testing.T) {
	header := "{'descr': '<f8', 'fortran_order': False, 'shape': (1, 2), }"
	padded := len(header) + 1
	if rem := (10 + padded) % 64; rem != 0 {
		padded += 64 - rem
	}

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	var lenRaw [2]byte
	binary.LittleEndian.PutUint16(lenRaw[:], uint16(padded))
	buf.Write(lenRaw[:])
	buf.WriteString(header)
	for buf.Len() < 10+padded-1 {
		buf.WriteByte(' ')
	}
	buf.WriteByte('\n')

	for _, v := range []float64{0.5, -1.25} {
		var raw [8]byte
		binary.LittleEndian.PutUint64(raw[:], math.Float64bits(v))
		buf.Write(raw[:])
	}

	m, err := ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1.25}, m.Row(0))
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := ReadNPY(bytes.NewReader([]byte("not an npy file at all")))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestMatrixCosineSimilarities(t *testing.T) {
	data := []float32{
		1, 0,
		0, 1,
		-1, 0,
	}
	m, err := NewMatrix(data, 3, 2)
	require.NoError(t, err)

	sims, err := m.CosineSimilarities([]float32{2, 0})
	require.NoError(t, err)
	require.Len(t, sims, 3)

	assert.InDelta(t, 1.0, sims[0], 1e-6)
	assert.InDelta(t, 0.0, sims[1], 1e-6)
	assert.InDelta(t, -1.0, sims[2], 1e-6)
}

func TestMatrixCentroid(t *testing.T) {
	data := []float32{
		1, 0,
		0, 1,
	}
	m, err := NewMatrix(data, 2, 2)
	require.NoError(t, err)

	centroid, err := m.Centroid([]int{0, 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, float64(centroid[0]), 1e-6)
	assert.InDelta(t, 0.5, float64(centroid[1]), 1e-6)

	// Weighting one row fully collapses the centroid onto it.
	weighted, err := m.Centroid([]int{0, 1}, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, float64(weighted[0]), 1e-6)
	assert.InDelta(t, 0.0, float64(weighted[1]), 1e-6)
}

func TestNewMatrixRejectsShapeMismatch(t *testing.T) {
	_, err := NewMatrix([]float32{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}
