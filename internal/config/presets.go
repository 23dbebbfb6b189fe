package config

var Presets = map[string]map[string]*Config{
	"logistic": {
		"ekf": {
			Problem: "logistic", Method: "ekf", Order: 3, Dt: 0.01, Diffusion: 0.1,
		},
		"eks": {
			Problem: "logistic", Method: "eks", Order: 3, Dt: 0.01, Diffusion: 0.1,
		},
		"ieks": {
			Problem: "logistic", Method: "ieks", NIter: "auto", Tol: 1e-6, Order: 3, Dt: 0.01, Diffusion: 0.1,
		},
		"coarse": {
			Problem: "logistic", Method: "ieks", NIter: "10", Order: 2, Dt: 0.1, Diffusion: 1,
		},
	},
	"lotkavolterra": {
		"default": {
			Problem: "lotkavolterra", Method: "eks", Order: 3, Dt: 0.01, Diffusion: 0.1,
		},
		"long": {
			Problem: "lotkavolterra", Method: "eks", Order: 4, Dt: 0.01, Diffusion: 0.1, TMax: 30,
		},
		"parallel": {
			Problem: "lotkavolterra", Method: "ieks", NIter: "auto", Tol: 1e-8, Order: 3, Dt: 0.01, Diffusion: 0.1, Parallel: true,
		},
	},
	"vanderpol": {
		"mild": {
			Problem: "vanderpol", Method: "eks", Order: 4, Dt: 0.01, Diffusion: 0.1,
			Params: map[string]float64{"mu": 1},
		},
		"stiff": {
			Problem: "vanderpol", Method: "ieks", NIter: "auto", Tol: 1e-6, MaxIter: 100, Order: 4, Dt: 0.001, Diffusion: 1,
		},
	},
	"fitzhughnagumo": {
		"default": {
			Problem: "fitzhughnagumo", Method: "ekf", Order: 3, Dt: 0.1, Diffusion: 0.1,
		},
		"cubature": {
			Problem: "fitzhughnagumo", Method: "ekf", Order: 3, Dt: 0.1, Diffusion: 0.1, Linearization: "cubature",
		},
	},
	"lorenz": {
		"short": {
			Problem: "lorenz", Method: "eks", Order: 5, Dt: 0.001, Diffusion: 1, TMax: 2,
		},
	},
}

// GetPreset returns a copy of the named preset with unset fields filled
// from DefaultConfig, or nil when it does not exist.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	p, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return withDefaults(p.Clone())
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	return names
}

func withDefaults(c *Config) *Config {
	d := DefaultConfig()
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.NIter == "" {
		c.NIter = d.NIter
	}
	if c.Tol == 0 {
		c.Tol = d.Tol
	}
	if c.Init == "" {
		c.Init = d.Init
	}
	if c.InitVariance == 0 {
		c.InitVariance = d.InitVariance
	}
	if c.Linearization == "" {
		c.Linearization = d.Linearization
	}
	if c.Reference == (ReferenceConfig{}) {
		c.Reference = d.Reference
	}
	return c
}
