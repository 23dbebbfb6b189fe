package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/odefilter"
	"github.com/spf13/cobra"
)

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if members < 1 {
		return fmt.Errorf("members must be at least 1, got %d", members)
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

	y0s := perturb(ivp.Y0, members, spread)
	ens := &odefilter.Ensemble{
		System:  ivp.System,
		T0:      ivp.T0,
		TMax:    ivp.TMax,
		Options: opts,
		Workers: workers,
	}

	fmt.Println(header.Render(fmt.Sprintf("ensemble of %d on %s with %s", members, cfg.Problem, opts.Method)))
	start := time.Now()
	sols, err := ens.Run(ctx, y0s)
	if err != nil {
		return err
	}
	fmt.Println(field("completed in", "%v", time.Since(start)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tY0\tFINAL\tFINAL_STD\tITERS")
	for i, sol := range sols {
		last := len(sol.Times) - 1
		fmt.Fprintf(w, "%d\t%.4g\t%.6g\t%.3e\t%d\n", i, []float64(y0s[i]),
			[]float64(sol.Values[last]), []float64(sol.StdDev[last]), sol.Iterations)
	}
	return w.Flush()
}

// perturb scales y0 by factors spread evenly over [1-spread, 1+spread].
func perturb(y0 dynamo.State, n int, spread float64) []dynamo.State {
	out := make([]dynamo.State, n)
	for i := range out {
		scale := 1.0
		if n > 1 {
			scale = 1 - spread + 2*spread*float64(i)/float64(n-1)
		}
		s := y0.Clone()
		for j := range s {
			s[j] *= scale
		}
		out[i] = s
	}
	return out
}
