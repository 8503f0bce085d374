// Package dataset reads and writes the matrices and label lists the CLI
// exchanges with external preprocessing and reporting tools.
//
// Matrices are headerless CSV, one sample per row. Files with a .zst suffix
// are transparently (de)compressed with zstd. All shape validation happens
// at load time so the core packages only ever see rectangular input.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap/matrix"
	"github.com/refbio/refmap/transfer"
)

// openReader opens path for reading, transparently decompressing .zst files.
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("dataset: open zstd reader: %w", err)
	}

	return &zstdReadCloser{zr: zr, f: f}, nil
}

type zstdReadCloser struct {
	zr *zstd.Decoder
	f  *os.File
}

func (r *zstdReadCloser) Read(p []byte) (int, error) { return r.zr.Read(p) }

func (r *zstdReadCloser) Close() error {
	r.zr.Close()
	return r.f.Close()
}

// openWriter creates path for writing, transparently compressing .zst files.
func openWriter(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("dataset: open zstd writer: %w", err)
	}

	return &zstdWriteCloser{zw: zw, f: f}, nil
}

type zstdWriteCloser struct {
	zw *zstd.Encoder
	f  *os.File
}

func (w *zstdWriteCloser) Write(p []byte) (int, error) { return w.zw.Write(p) }

func (w *zstdWriteCloser) Close() error {
	if err := w.zw.Close(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadMatrix reads a headerless CSV matrix, one sample per row.
func ReadMatrix(path string) (*mat.Dense, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.ReuseRecord = true

	var rows [][]float64
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", path, err)
		}

		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s row %d col %d: %w", path, len(rows)+1, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	m, err := matrix.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	return m, nil
}

// WriteMatrix writes a matrix as headerless CSV, one sample per row.
func WriteMatrix(path string, m mat.Matrix) error {
	wc, err := openWriter(path)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(wc)
	r, c := m.Dims()
	record := make([]string, c)

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			_ = wc.Close()
			return fmt.Errorf("dataset: write %s: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = wc.Close()
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}

	return wc.Close()
}

// ReadLabels reads one label per line, skipping blank lines.
func ReadLabels(path string) ([]string, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var labels []string
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	return labels, nil
}

// ReadVector reads one float per line, skipping blank lines. Used for
// per-feature means and per-component scale factors.
func ReadVector(path string) ([]float64, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var values []float64
	scanner := bufio.NewScanner(rc)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s line %d: %w", path, line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	return values, nil
}

// WriteResults writes transfer results as CSV with a sample,label,confidence
// header, one row per query sample in input order.
func WriteResults(path string, results []transfer.Result) error {
	wc, err := openWriter(path)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(wc)
	if err := cw.Write([]string{"sample", "label", "confidence"}); err != nil {
		_ = wc.Close()
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}

	for i, r := range results {
		record := []string{
			strconv.Itoa(i),
			r.Label,
			strconv.FormatFloat(r.Confidence, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			_ = wc.Close()
			return fmt.Errorf("dataset: write %s: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = wc.Close()
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}

	return wc.Close()
}
