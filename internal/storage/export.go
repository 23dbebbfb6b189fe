package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/odefilter/internal/odefilter"
)

type ExportData struct {
	Problem     string             `json:"problem"`
	Method      string             `json:"method"`
	Iterations  int                `json:"iterations"`
	Steps       int                `json:"steps"`
	Times       []float64          `json:"times"`
	Values      [][]float64        `json:"values"`
	Derivatives [][]float64        `json:"derivatives"`
	StdDev      [][]float64        `json:"std"`
	Residuals   []float64          `json:"residuals,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

func NewExportData(problem string, sol *odefilter.Solution, metrics map[string]float64) ExportData {
	data := ExportData{
		Problem:     problem,
		Method:      sol.Method,
		Iterations:  sol.Iterations,
		Steps:       len(sol.Times),
		Times:       sol.Times,
		Values:      make([][]float64, len(sol.Values)),
		Derivatives: make([][]float64, len(sol.Derivatives)),
		StdDev:      make([][]float64, len(sol.StdDev)),
		Residuals:   sol.Residuals,
		Metrics:     metrics,
	}
	for i, v := range sol.Values {
		data.Values[i] = v
	}
	for i, d := range sol.Derivatives {
		data.Derivatives[i] = d
	}
	for i, s := range sol.StdDev {
		data.StdDev[i] = s
	}
	return data
}

func ExportJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSONFile(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, data)
}
