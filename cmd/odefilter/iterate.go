package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/odefilter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// The library runs auto convergence uncapped; interactively we stop here.
const maxAutoIterations = 1000

// runIterate drives the refinement loop from outside the solver, so the
// residual of every iterate is visible and the start can be swapped for a
// reference solution.
func runIterate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("method") && cfg.Method != "ieks" {
		cfg.Method = "ieks"
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}
	it, ok := opts.Method.(odefilter.IteratedSmoothing)
	if !ok {
		return fmt.Errorf("iterate needs ieks, got %s", opts.Method)
	}
	_, ivp, err := cfg.IVP()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	iter, err := odefilter.NewIterator(ivp, opts.Order, opts.Dt, opts.Diffusion, opts.Parallel,
		odefilter.WithInit(opts.Init, opts.InitVariance),
		odefilter.WithLinearization(opts.Linearization),
		odefilter.WithObservationNoise(opts.ObservationNoise),
		odefilter.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	curr := iter.Initial()
	if warmStart {
		ref, err := referenceSolve(ctx, cfg, ivp, iter.Times())
		if err != nil {
			return fmt.Errorf("warm start: %w", err)
		}
		if curr, err = iter.WarmStart(ref); err != nil {
			return fmt.Errorf("warm start: %w", err)
		}
	}

	fmt.Println(header.Render(fmt.Sprintf("iterating %s, %s", cfg.Problem, it)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITER\tMSE\tFINAL\tFINAL_STD")

	limit, tolerance := budget(it.Convergence)
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := iter.Refine(curr)
		if err != nil {
			return err
		}
		mse, err := next.MeanSquaredDiff(curr)
		if err != nil {
			return err
		}
		printIterate(w, i, mse, iter, next)
		logger.Debug("iterate", zap.Int("iteration", i), zap.Float64("mse", mse))
		curr = next

		if tolerance > 0 && mse <= tolerance {
			break
		}
		if limit > 0 && i >= limit {
			if tolerance > 0 {
				fmt.Fprintln(w, warn.Render(fmt.Sprintf("stopped at %d iterations without reaching %g", i, tolerance)))
			}
			break
		}
	}
	return w.Flush()
}

// budget maps a convergence policy to an iteration limit and a tolerance,
// either of which may be zero for "none".
func budget(c odefilter.Convergence) (int, float64) {
	switch c := c.(type) {
	case odefilter.FixedIterations:
		return c.N, 0
	case odefilter.AutoConvergence:
		tol := c.Tol
		if tol <= 0 {
			tol = odefilter.DefaultTolerance
		}
		limit := c.MaxIter
		if limit == 0 {
			limit = maxAutoIterations
		}
		return limit, tol
	default:
		return 1, 0
	}
}

func printIterate(w *tabwriter.Writer, i int, mse float64, iter *odefilter.Iterator, traj *gauss.Trajectory) {
	values := iter.Project(traj)
	stds := iter.StdDev(traj)
	last := len(values) - 1
	fmt.Fprintf(w, "%d\t%.3e\t%.6g\t%.3e\n", i, mse, []float64(values[last]), []float64(stds[last]))
}
