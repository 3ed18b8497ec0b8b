package infra_embeddings

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
)

// Reads and writes the NumPy .npy container the embedding matrix ships in.
// Only the shapes this service produces are supported: a C-ordered 2-D
// float32/float64 array in little-endian byte order.

var (
	ErrBadMagic    = errors.New("not an npy file")
	ErrBadHeader   = errors.New("malformed npy header")
	ErrUnsupported = errors.New("unsupported npy layout")
)

var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

var (
	shapeRe   = regexp.MustCompile(`'shape':\s*\(\s*(\d+)\s*,\s*(\d+)\s*,?\s*\)`)
	descrRe   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	fortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
)

// LoadNPY reads the whole matrix into memory. Embeddings are immutable at
// serving time, so the returned matrix is safe for concurrent reads.
func LoadNPY(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embeddings file: %w", err)
	}
	defer f.Close()

	return ReadNPY(bufio.NewReader(f))
}

func ReadNPY(r io.Reader) (*Matrix, error) {
	magic := make([]byte, 6)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read npy magic: %w", err)
	}
	for i, b := range npyMagic {
		if magic[i] != b {
			return nil, ErrBadMagic
		}
	}

	version := make([]byte, 2)
	if _, err := io.ReadFull(r, version); err != nil {
		return nil, fmt.Errorf("failed to read npy version: %w", err)
	}

	var headerLen int
	switch version[0] {
	case 1:
		raw := make([]byte, 2)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read npy header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(raw))
	case 2, 3:
		raw := make([]byte, 4)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read npy header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(raw))
	default:
		return nil, fmt.Errorf("%w: version %d", ErrUnsupported, version[0])
	}

	headerRaw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerRaw); err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}
	header := string(headerRaw)

	if m := fortranRe.FindStringSubmatch(header); m == nil || m[1] != "False" {
		return nil, fmt.Errorf("%w: fortran order", ErrUnsupported)
	}

	descrMatch := descrRe.FindStringSubmatch(header)
	if descrMatch == nil {
		return nil, ErrBadHeader
	}
	descr := descrMatch[1]

	shapeMatch := shapeRe.FindStringSubmatch(header)
	if shapeMatch == nil {
		return nil, fmt.Errorf("%w: expected 2-D shape", ErrBadHeader)
	}
	rows, err := strconv.Atoi(shapeMatch[1])
	if err != nil {
		return nil, ErrBadHeader
	}
	dim, err := strconv.Atoi(shapeMatch[2])
	if err != nil {
		return nil, ErrBadHeader
	}

	data := make([]float32, rows*dim)
	switch descr {
	case "<f4":
		buf := make([]byte, 4*dim)
		for row := 0; row < rows; row++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("failed to read npy data: %w", err)
			}
			for j := 0; j < dim; j++ {
				data[row*dim+j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
			}
		}
	case "<f8":
		buf := make([]byte, 8*dim)
		for row := 0; row < rows; row++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("failed to read npy data: %w", err)
			}
			for j := 0; j < dim; j++ {
				data[row*dim+j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[8*j:])))
			}
		}
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, descr)
	}

	return NewMatrix(data, rows, dim)
}

// WriteNPY writes the matrix as a version 1 float32 npy file. Used by the
// offline embedding tool.
func WriteNPY(w io.Writer, m *Matrix) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.rows, m.dim)
	// Total header size (magic + version + length + dict) must be a
	// multiple of 64, newline-terminated.
	padded := len(header) + 1
	if rem := (10 + padded) % 64; rem != 0 {
		padded += 64 - rem
	}

	buf := make([]byte, 0, 10+padded)
	buf = append(buf, npyMagic...)
	buf = append(buf, 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(padded))
	buf = append(buf, header...)
	for len(buf) < 10+padded-1 {
		buf = append(buf, ' ')
	}
	buf = append(buf, '\n')

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write npy header: %w", err)
	}

	row := make([]byte, 4*m.dim)
	for i := 0; i < m.rows; i++ {
		for j, v := range m.Row(i) {
			binary.LittleEndian.PutUint32(row[4*j:], math.Float32bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write npy data: %w", err)
		}
	}

	return nil
}
