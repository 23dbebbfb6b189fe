package odefilter

import (
	"context"
	"fmt"

	"github.com/san-kum/odefilter/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble solves one system from many initial values concurrently. Every
// member builds its own model, grid and trajectories; only the system is
// shared, so its Derive must be safe for concurrent use.
type Ensemble struct {
	System  dynamo.System
	T0      float64
	TMax    float64
	Options Options
	// Workers bounds the number of concurrent solves; zero means no bound.
	Workers int
}

// Run returns one solution per initial value, in order. The first failure
// cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, y0s []dynamo.State) ([]*Solution, error) {
	out := make([]*Solution, len(y0s))

	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for i, y0 := range y0s {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ivp := &dynamo.IVP{System: e.System, T0: e.T0, TMax: e.TMax, Y0: y0.Clone()}
			sol, err := SolveContext(gctx, ivp, e.Options)
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			out[i] = sol
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
