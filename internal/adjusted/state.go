package adjusted

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Statefile layout: one flat JSON object with key "PC" for the pier
// correction and keys "M<row><col>" (1-based digits) for each matrix cell.
// The matrix dimension is not stored; it is inferred from the largest
// row/col digit present, which caps the scheme at 9×9.

// LoadResult is the tagged outcome of LoadState. Defaulted is set when the
// identity baseline was used instead of a stored record; Reason carries the
// read error when that is why, and is nil for a deliberately unset path or
// an empty file.
type LoadResult struct {
	Calibration Calibration
	Defaulted   bool
	Reason      error
}

// LoadState reads the calibration record at path. An unset path, an
// unreadable file, or an empty record all fall back to the identity
// baseline sized for channels inputs; this is not an error. A record that
// parses but is incomplete for its inferred dimension is an error, so a
// half-written statefile can never yield a silently wrong matrix.
func LoadState(path string, channels int) (LoadResult, error) {
	def := LoadResult{Calibration: Identity(channels), Defaulted: true}
	if path == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		def.Reason = err
		return def, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return def, nil
	}

	var record map[string]float64
	if err := json.Unmarshal(raw, &record); err != nil {
		return LoadResult{}, fmt.Errorf("adjusted: parse statefile %s: %w", path, err)
	}
	if len(record) == 0 {
		return def, nil
	}

	pc, ok := record["PC"]
	if !ok {
		return LoadResult{}, fmt.Errorf(`adjusted: statefile %s missing "PC"`, path)
	}
	n, err := inferDimension(record)
	if err != nil {
		return LoadResult{}, fmt.Errorf("adjusted: statefile %s: %w", path, err)
	}

	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			key := cellKey(i, j)
			v, ok := record[key]
			if !ok {
				return LoadResult{}, fmt.Errorf("adjusted: statefile %s missing cell %s for inferred dimension %d", path, key, n)
			}
			m.Set(i, j, v)
		}
	}
	return LoadResult{Calibration: Calibration{Matrix: m, PierCorrection: pc}}, nil
}

// SaveState writes the full calibration record to path, overwriting any
// previous contents. An unset path is a no-op.
func SaveState(path string, cal Calibration) error {
	if path == "" {
		return nil
	}
	n := cal.Dim()
	if n > 9 {
		return fmt.Errorf("adjusted: matrix dimension %d exceeds statefile key scheme (max 9)", n)
	}
	record := make(map[string]float64, n*n+1)
	record["PC"] = cal.PierCorrection
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			record[cellKey(i, j)] = cal.Matrix.At(i, j)
		}
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func cellKey(i, j int) string {
	return fmt.Sprintf("M%d%d", i+1, j+1)
}

// inferDimension scans the record keys and returns the largest row/col
// digit across the "M<r><c>" cells. Keys other than PC and well-formed
// cells are rejected.
func inferDimension(record map[string]float64) (int, error) {
	n := 0
	for k := range record {
		if k == "PC" {
			continue
		}
		if len(k) != 3 || k[0] != 'M' || !isDigit(k[1]) || !isDigit(k[2]) {
			return 0, fmt.Errorf("unrecognized state key %q", k)
		}
		if r := int(k[1] - '0'); r > n {
			n = r
		}
		if c := int(k[2] - '0'); c > n {
			n = c
		}
	}
	if n == 0 {
		return 0, errors.New("no matrix cells in state record")
	}
	return n, nil
}

func isDigit(b byte) bool { return b >= '1' && b <= '9' }
