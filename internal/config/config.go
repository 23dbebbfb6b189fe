package config

import (
	"fmt"
	"os"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/odefilter"
	"github.com/san-kum/odefilter/internal/problems"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProblem      = "logistic"
	DefaultMethod       = "ekf"
	DefaultNIter        = "auto"
	DefaultOrder        = 3
	DefaultDt           = 0.01
	DefaultDiffusion    = 0.1
	DefaultInitVariance = 1.0
	DefaultRTol         = 1e-8
	DefaultATol         = 1e-8
)

type Config struct {
	Problem string             `yaml:"problem"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Y0      []float64          `yaml:"y0,omitempty"`
	T0      float64            `yaml:"t0"`
	// TMax of zero selects the problem's default horizon.
	TMax float64 `yaml:"tmax"`

	Method  string  `yaml:"method"`
	NIter   string  `yaml:"n_iter"`
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`

	Order            int     `yaml:"order"`
	Dt               float64 `yaml:"dt"`
	Diffusion        float64 `yaml:"diffusion"`
	Init             string  `yaml:"init"`
	InitVariance     float64 `yaml:"init_variance"`
	Linearization    string  `yaml:"linearization"`
	Parallel         bool    `yaml:"parallel"`
	ObservationNoise float64 `yaml:"observation_noise"`

	Reference ReferenceConfig `yaml:"reference"`
}

// ReferenceConfig tunes the adaptive Runge–Kutta baseline.
type ReferenceConfig struct {
	RTol float64 `yaml:"rtol"`
	ATol float64 `yaml:"atol"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:       DefaultProblem,
		Method:        DefaultMethod,
		NIter:         DefaultNIter,
		Tol:           odefilter.DefaultTolerance,
		Order:         DefaultOrder,
		Dt:            DefaultDt,
		Diffusion:     DefaultDiffusion,
		Init:          "auto",
		InitVariance:  DefaultInitVariance,
		Linearization: "extended",
		Reference: ReferenceConfig{
			RTol: DefaultRTol,
			ATol: DefaultATol,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so callers may modify presets freely.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Y0 != nil {
		out.Y0 = append([]float64(nil), c.Y0...)
	}
	return &out
}

// ResolveMethod resolves the method tag and iteration settings.
func (c *Config) ResolveMethod() (odefilter.Method, error) {
	m, err := odefilter.ParseMethod(c.Method, c.NIter)
	if err != nil {
		return nil, err
	}
	if it, ok := m.(odefilter.IteratedSmoothing); ok {
		if auto, ok := it.Convergence.(odefilter.AutoConvergence); ok {
			if c.Tol > 0 {
				auto.Tol = c.Tol
			}
			auto.MaxIter = c.MaxIter
			m = odefilter.IteratedSmoothing{Convergence: auto}
		}
	}
	return m, nil
}

// Options converts the solver settings, reporting the first invalid one.
func (c *Config) Options(logger *zap.Logger) (odefilter.Options, error) {
	method, err := c.ResolveMethod()
	if err != nil {
		return odefilter.Options{}, fmt.Errorf("config: %w", err)
	}
	init, err := odefilter.ParseInitMode(c.Init)
	if err != nil {
		return odefilter.Options{}, fmt.Errorf("config: %w", err)
	}
	lin, err := odefilter.ParseLinearization(c.Linearization)
	if err != nil {
		return odefilter.Options{}, fmt.Errorf("config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return odefilter.Options{
		Order:            c.Order,
		Dt:               c.Dt,
		Diffusion:        c.Diffusion,
		Method:           method,
		Init:             init,
		InitVariance:     c.InitVariance,
		Linearization:    lin,
		Parallel:         c.Parallel,
		ObservationNoise: c.ObservationNoise,
		Logger:           logger,
	}, nil
}

// IVP instantiates the configured problem with parameter, initial value and
// horizon overrides applied.
func (c *Config) IVP() (problems.Problem, *dynamo.IVP, error) {
	p, err := problems.Get(c.Problem)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	for name, v := range c.Params {
		if err := p.SetParam(name, v); err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
	}

	ivp := problems.IVP(p)
	if len(c.Y0) > 0 {
		if len(c.Y0) != p.StateDim() {
			return nil, nil, fmt.Errorf("config: %w: y0 has %d entries, %s needs %d",
				dynamo.ErrDimensionMismatch, len(c.Y0), c.Problem, p.StateDim())
		}
		ivp.Y0 = dynamo.State(c.Y0).Clone()
	}
	if c.TMax > 0 {
		ivp.T0 = c.T0
		ivp.TMax = c.TMax
	}
	if err := ivp.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return p, ivp, nil
}
