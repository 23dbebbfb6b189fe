package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/odefilter"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrEmptySolution = errors.New("storage: solution has no grid points")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Problem    string             `json:"problem"`
	Method     string             `json:"method"`
	Timestamp  time.Time          `json:"timestamp"`
	Order      int                `json:"order"`
	Dt         float64            `json:"dt"`
	Diffusion  float64            `json:"diffusion"`
	T0         float64            `json:"t0"`
	TMax       float64            `json:"tmax"`
	Y0         []float64          `json:"y0"`
	Dim        int                `json:"dim"`
	Iterations int                `json:"iterations"`
	Residuals  []float64          `json:"residuals,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Describe fills the solution-derived fields of m.
func (m *RunMetadata) Describe(sol *odefilter.Solution) {
	m.Method = sol.Method
	m.Iterations = sol.Iterations
	m.Residuals = append([]float64(nil), sol.Residuals...)
	if len(sol.Values) > 0 {
		m.Dim = len(sol.Values[0])
	}
	if len(sol.Times) > 0 {
		m.T0 = sol.Times[0]
		m.TMax = sol.Times[len(sol.Times)-1]
	}
}

// Save writes metadata.json and states.csv under a fresh run directory and
// returns the run ID.
func (s *Store) Save(meta RunMetadata, sol *odefilter.Solution) (string, error) {
	if len(sol.Times) == 0 {
		return "", ErrEmptySolution
	}
	if len(sol.Values) != len(sol.Times) || len(sol.StdDev) != len(sol.Times) {
		return "", fmt.Errorf("%w: %d times, %d values, %d std devs",
			dynamo.ErrDimensionMismatch, len(sol.Times), len(sol.Values), len(sol.StdDev))
	}

	meta.Describe(sol)
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%s_%d", meta.Problem, methodTag(meta.Method), meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, sol); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes one row per grid point: time, the posterior means y0..,
// then the standard deviations std0...
func WriteCSV(out io.Writer, sol *odefilter.Solution) error {
	w := csv.NewWriter(out)

	dim := len(sol.Values[0])
	header := []string{"time"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("std%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 1+2*dim)
	for n, t := range sol.Times {
		row[0] = formatFloat(t)
		for i := 0; i < dim; i++ {
			row[1+i] = formatFloat(sol.Values[n][i])
			row[1+dim+i] = formatFloat(sol.StdDev[n][i])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads back the means, standard deviations and times of a run.
func (s *Store) LoadStates(runID string) (values, stds [][]float64, times []float64, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, [][]float64{}, []float64{}, nil
	}

	dim := (len(records[0]) - 1) / 2
	times = make([]float64, 0, len(records)-1)
	values = make([][]float64, 0, len(records)-1)
	stds = make([][]float64, 0, len(records)-1)

	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("storage: %s row %d column %d: %w", statesFile, i+1, j, err)
			}
			row[j] = v
		}
		times = append(times, row[0])
		values = append(values, row[1:1+dim])
		stds = append(stds, row[1+dim:])
	}
	return values, stds, times, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// methodTag strips the convergence suffix, "ieks(auto,tol=1e-06)" -> "ieks".
func methodTag(method string) string {
	if i := strings.IndexByte(method, '('); i >= 0 {
		method = method[:i]
	}
	if method == "" {
		return "run"
	}
	return method
}
