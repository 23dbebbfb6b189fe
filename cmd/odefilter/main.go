package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/san-kum/odefilter/internal/config"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir string
	verbose bool
	logger  *zap.Logger

	configFile string
	preset     string

	method        string
	nIter         string
	tol           float64
	maxIter       int
	order         int
	dt            float64
	diffusion     float64
	t0            float64
	tmax          float64
	y0            []float64
	params        map[string]string
	initMode      string
	initVariance  float64
	linearization string
	parallel      bool
	obsNoise      float64

	noSave    bool
	jsonOut   string
	showPlot  bool
	warmStart bool
	members   int
	spread    float64
	workers   int
	component int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "odefilter",
		Short:        "probabilistic ODE solver based on Gauss-Markov filtering and smoothing",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg = zap.NewDevelopmentConfig()
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odefilter", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve a problem and store the posterior",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	addSolverFlags(solveCmd)
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	solveCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the first component with a two sigma band")
	solveCmd.Flags().StringVar(&jsonOut, "json", "", "also write the full solution as JSON to this path")

	iterateCmd := &cobra.Command{
		Use:   "iterate [problem]",
		Short: "drive iterated smoothing step by step and print the residual per iteration",
		Args:  cobra.ExactArgs(1),
		RunE:  runIterate,
	}
	addSolverFlags(iterateCmd)
	iterateCmd.Flags().BoolVar(&warmStart, "warm-start", false, "start from an RK45 solution instead of the constant initial guess")

	compareCmd := &cobra.Command{
		Use:   "compare [problem]",
		Short: "compare ekf, eks and ieks against an RK45 reference",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompare,
	}
	addSolverFlags(compareCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [problem]",
		Short: "solve from perturbed initial values concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addSolverFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&members, "members", 8, "number of initial values")
	ensembleCmd.Flags().Float64Var(&spread, "spread", 0.1, "relative perturbation of the initial value")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (0 = unbounded)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&component, "component", -1, "plot only this component")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		RunE:  listProblems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Println(header.Render("presets for " + args[0]))
			for _, p := range presets {
				cfg := config.GetPreset(args[0], p)
				fmt.Printf("  %-10s %s\n", p, muted.Render(describe(cfg)))
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, iterateCmd, compareCmd, ensembleCmd, listCmd, plotCmd, exportCmd, problemsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&method, "method", d.Method, "ekf, eks or ieks")
	f.StringVar(&nIter, "n-iter", d.NIter, "ieks iterations: auto or a positive integer")
	f.Float64Var(&tol, "tol", d.Tol, "ieks auto convergence tolerance")
	f.IntVar(&maxIter, "max-iter", d.MaxIter, "cap on auto iterations (0 = none)")
	f.IntVar(&order, "order", d.Order, "prior order q")
	f.Float64Var(&dt, "dt", d.Dt, "grid step")
	f.Float64Var(&diffusion, "diffusion", d.Diffusion, "prior diffusion")
	f.Float64Var(&t0, "t0", d.T0, "start time (with --tmax)")
	f.Float64Var(&tmax, "tmax", d.TMax, "end time (0 = problem default)")
	f.Float64SliceVar(&y0, "y0", nil, "initial value")
	f.StringToStringVar(&params, "param", nil, "problem parameter, name=value")
	f.StringVar(&initMode, "init", d.Init, "auto, taylor or uncertain")
	f.Float64Var(&initVariance, "init-variance", d.InitVariance, "uncertain init variance")
	f.StringVar(&linearization, "linearization", d.Linearization, "extended or cubature")
	f.BoolVar(&parallel, "parallel", d.Parallel, "linearise grid points concurrently")
	f.Float64Var(&obsNoise, "obs-noise", d.ObservationNoise, "observation noise standard deviation")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Problem = problem

	if preset != "" {
		cfg = config.GetPreset(problem, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problem))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if cfg.Problem == "" {
			cfg.Problem = problem
		}
		if cfg.Problem != problem {
			return nil, fmt.Errorf("config %s is for problem %q, not %q", configFile, cfg.Problem, problem)
		}
	}

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = method
	}
	if f.Changed("n-iter") {
		cfg.NIter = nIter
	}
	if f.Changed("tol") {
		cfg.Tol = tol
	}
	if f.Changed("max-iter") {
		cfg.MaxIter = maxIter
	}
	if f.Changed("order") {
		cfg.Order = order
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("diffusion") {
		cfg.Diffusion = diffusion
	}
	if f.Changed("t0") {
		cfg.T0 = t0
	}
	if f.Changed("tmax") {
		cfg.TMax = tmax
	}
	if f.Changed("y0") {
		cfg.Y0 = y0
	}
	if f.Changed("param") {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(params))
		}
		for name, raw := range params {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", name, err)
			}
			cfg.Params[name] = v
		}
	}
	if f.Changed("init") {
		cfg.Init = initMode
	}
	if f.Changed("init-variance") {
		cfg.InitVariance = initVariance
	}
	if f.Changed("linearization") {
		cfg.Linearization = linearization
	}
	if f.Changed("parallel") {
		cfg.Parallel = parallel
	}
	if f.Changed("obs-noise") {
		cfg.ObservationNoise = obsNoise
	}
	return cfg, nil
}

func describe(cfg *config.Config) string {
	s := fmt.Sprintf("%s order=%d dt=%g diffusion=%g", cfg.Method, cfg.Order, cfg.Dt, cfg.Diffusion)
	if cfg.Method == "ieks" {
		s += " n_iter=" + cfg.NIter
	}
	if cfg.TMax > 0 {
		s += fmt.Sprintf(" tmax=%g", cfg.TMax)
	}
	if len(cfg.Params) > 0 {
		names := make([]string, 0, len(cfg.Params))
		for name := range cfg.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s += fmt.Sprintf(" %s=%g", name, cfg.Params[name])
		}
	}
	return s
}

func listProblems(cmd *cobra.Command, args []string) error {
	fmt.Println(header.Render("problems"))
	for _, name := range problems.List() {
		p, err := problems.Get(name)
		if err != nil {
			return err
		}
		ta, tb := p.TSpan()
		fmt.Printf("  %-16s dim=%d  t=[%g, %g]  y0=%v\n", name, p.StateDim(), ta, tb, []float64(p.DefaultState()))
	}
	return nil
}
