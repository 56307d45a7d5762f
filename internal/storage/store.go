package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/gompertz/internal/growth"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is everything about a stored fit except its per-point series.
type RunMetadata struct {
	ID         string                 `json:"id"`
	Specimen   string                 `json:"specimen"`
	Model      string                 `json:"model"`
	Timestamp  time.Time              `json:"timestamp"`
	Params     growth.ParameterVector `json:"params"`
	Covariance []float64              `json:"covariance,omitempty"`
	Iterations int                    `json:"iterations"`
	Converged  bool                   `json:"converged"`
	GradNorms  []float64              `json:"grad_norms,omitempty"`
	Stats      growth.Stats           `json:"stats"`
	Settings   map[string]string      `json:"settings,omitempty"`
}

// Series is the per-point part of a stored fit.
type Series struct {
	X         []float64
	Observed  []float64
	Fitted    []float64
	BandLower []float64
	BandUpper []float64
	CurveX    []float64
	CurveY    []float64
}

// Save writes metadata.json, series.csv and, when the fit has a dense curve,
// curve.csv under a new run directory and returns the run id.
func (s *Store) Save(specimen string, res *growth.FitResult, settings map[string]string) (string, error) {
	runID := fmt.Sprintf("%s_%s_%s", specimen, res.Model, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Specimen:   specimen,
		Model:      res.Model,
		Timestamp:  time.Now(),
		Params:     res.Params,
		Covariance: res.Covariance,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		GradNorms:  res.GradNorms,
		Stats:      res.Stats,
		Settings:   settings,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	header := []string{"x", "observed", "fitted"}
	cols := [][]float64{res.X, res.Observed, res.Fitted}
	if len(res.BandLower) == len(res.X) && len(res.BandUpper) == len(res.X) {
		header = append(header, "band_lower", "band_upper")
		cols = append(cols, res.BandLower, res.BandUpper)
	}
	if err := writeCSV(filepath.Join(runDir, "series.csv"), header, cols); err != nil {
		return "", err
	}

	if len(res.CurveX) > 0 {
		if err := writeCSV(filepath.Join(runDir, "curve.csv"), []string{"x", "y"}, [][]float64{res.CurveX, res.CurveY}); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, cols [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range cols[0] {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first. Unreadable run directories are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSeries reads the per-point data of a run.
func (s *Store) LoadSeries(runID string) (*Series, error) {
	cols, header, err := readCSV(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	out := &Series{}
	for i, name := range header {
		switch name {
		case "x":
			out.X = cols[i]
		case "observed":
			out.Observed = cols[i]
		case "fitted":
			out.Fitted = cols[i]
		case "band_lower":
			out.BandLower = cols[i]
		case "band_upper":
			out.BandUpper = cols[i]
		}
	}

	curve, _, err := readCSV(filepath.Join(s.baseDir, runID, "curve.csv"))
	switch {
	case err == nil && len(curve) == 2:
		out.CurveX, out.CurveY = curve[0], curve[1]
	case err != nil && !os.IsNotExist(err):
		return nil, err
	}
	return out, nil
}

func readCSV(path string) ([][]float64, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	cols := make([][]float64, len(header))
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		for j := range header {
			if j >= len(record) {
				return nil, nil, fmt.Errorf("%s:%d: %d fields, want %d", path, line, len(record), len(header))
			}
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, header, nil
}

// ExportJSON writes the complete fit result as indented JSON.
func ExportJSON(w io.Writer, specimen string, res *growth.FitResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Specimen string            `json:"specimen"`
		Result   *growth.FitResult `json:"result"`
	}{specimen, res})
}

// Result reassembles a fit result from a stored run.
func Result(meta *RunMetadata, s *Series) *growth.FitResult {
	res := &growth.FitResult{
		Model:      meta.Model,
		Params:     meta.Params,
		Covariance: meta.Covariance,
		Iterations: meta.Iterations,
		Converged:  meta.Converged,
		GradNorms:  meta.GradNorms,
		Stats:      meta.Stats,
	}
	if s != nil {
		res.X, res.Observed, res.Fitted = s.X, s.Observed, s.Fitted
		res.BandLower, res.BandUpper = s.BandLower, s.BandUpper
		res.CurveX, res.CurveY = s.CurveX, s.CurveY
	}
	return res
}
