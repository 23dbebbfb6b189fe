package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/odefilter"
	"github.com/san-kum/odefilter/internal/reference"
	"github.com/spf13/cobra"
)

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
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

	fmt.Println(header.Render(fmt.Sprintf("comparing methods on %s (order=%d, dt=%g, t=[%g, %g])",
		cfg.Problem, cfg.Order, cfg.Dt, ivp.T0, ivp.TMax)))

	times, err := dynamo.Grid(ivp.T0, ivp.TMax, cfg.Dt)
	if err != nil {
		return err
	}
	want, err := referenceSolve(ctx, cfg, ivp, times)
	if err != nil {
		return fmt.Errorf("reference: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tITERS\tMAX_ERR\tRMS_ERR\tFINAL_ERR\tMAX_STD\tTIME_MS")

	for _, tag := range []string{"ekf", "eks", "ieks"} {
		run := cfg.Clone()
		run.Method = tag
		opts, err := run.Options(logger)
		if err != nil {
			return err
		}

		start := time.Now()
		sol, err := odefilter.SolveContext(ctx, ivp, opts)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", opts.Method, err)
			continue
		}

		dev, err := reference.Compare(sol.Values, want)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%.3e\t%.3e\t%.2f\n",
			opts.Method, sol.Iterations, dev.Max, dev.RMS, dev.Final, maxAbs(sol.StdDev),
			float64(elapsed.Microseconds())/1000)
	}
	return w.Flush()
}
