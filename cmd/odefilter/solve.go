package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odefilter/internal/config"
	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/odefilter"
	"github.com/san-kum/odefilter/internal/reference"
	"github.com/san-kum/odefilter/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}
	_, ivp, err := cfg.IVP()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Println(header.Render(fmt.Sprintf("solving %s with %s", cfg.Problem, opts.Method)))
	start := time.Now()
	sol, err := odefilter.SolveContext(ctx, ivp, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	metrics := map[string]float64{
		"solve_ms": float64(elapsed.Microseconds()) / 1000,
		"max_std":  maxAbs(sol.StdDev),
	}
	if dev, err := referenceDeviation(ctx, cfg, ivp, sol); err != nil {
		logger.Warn("reference solve failed", zap.Error(err))
	} else {
		metrics["ref_max"] = dev.Max
		metrics["ref_rms"] = dev.RMS
		metrics["ref_final"] = dev.Final
	}

	if drift, ok := reference.InvariantDrift(ivp.System, sol.Values); ok {
		metrics["invariant_drift"] = drift
	}

	last := len(sol.Times) - 1
	fmt.Println(field("grid points", "%d", len(sol.Times)))
	fmt.Println(field("iterations", "%d", sol.Iterations))
	fmt.Println(field("completed in", "%v", elapsed))
	fmt.Println(field("final value", "%v", []float64(sol.Values[last])))
	fmt.Println(field("final std", "%.3e", []float64(sol.StdDev[last])))
	if v, ok := metrics["ref_max"]; ok {
		fmt.Println(field("max deviation from rk45", "%.3e", v))
	}
	if v, ok := metrics["invariant_drift"]; ok {
		fmt.Println(field("invariant drift", "%.3e", v))
	}

	if showPlot {
		fmt.Println()
		fmt.Println(plotBand(sol.Values, sol.StdDev, 0, fmt.Sprintf("%s y0 with 2 sigma band", cfg.Problem)))
	}

	if jsonOut != "" {
		if err := storage.ExportJSONFile(jsonOut, storage.NewExportData(cfg.Problem, sol, metrics)); err != nil {
			return err
		}
		fmt.Println(field("json", "%s", jsonOut))
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Problem:   cfg.Problem,
		Order:     cfg.Order,
		Dt:        cfg.Dt,
		Diffusion: cfg.Diffusion,
		Y0:        ivp.Y0,
		Metrics:   metrics,
	}, sol)
	if err != nil {
		return err
	}
	fmt.Println(field("run id", "%s", runID))
	return nil
}

// referenceDeviation solves ivp with RK45 on the same grid and measures the
// posterior mean against it.
func referenceDeviation(ctx context.Context, cfg *config.Config, ivp *dynamo.IVP, sol *odefilter.Solution) (reference.Deviation, error) {
	ref, err := referenceSolve(ctx, cfg, ivp, sol.Times)
	if err != nil {
		return reference.Deviation{}, err
	}
	return reference.Compare(sol.Values, ref)
}

func referenceSolve(ctx context.Context, cfg *config.Config, ivp *dynamo.IVP, times []float64) ([]dynamo.State, error) {
	rk := reference.NewRK45()
	rk.RTol = cfg.Reference.RTol
	rk.ATol = cfg.Reference.ATol
	return rk.Solve(ctx, ivp, times)
}

func plotBand(values, stds []dynamo.State, idx int, caption string) string {
	mean := make([]float64, len(values))
	lo := make([]float64, len(values))
	hi := make([]float64, len(values))
	for i := range values {
		mean[i] = values[i][idx]
		lo[i] = mean[i] - 2*stds[i][idx]
		hi[i] = mean[i] + 2*stds[i][idx]
	}
	return asciigraph.PlotMany([][]float64{lo, mean, hi},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green, asciigraph.Gray),
		asciigraph.Caption(caption),
	)
}

func maxAbs(states []dynamo.State) float64 {
	m := 0.0
	for _, s := range states {
		for _, v := range s {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}
