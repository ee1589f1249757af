package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasmaystre/gpkern/kern"
	"github.com/lucasmaystre/gpkern/metric"
	"github.com/lucasmaystre/gpkern/prior"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrUnknownPrior      = errors.New("unknown prior type")
	ErrInvalidConfig     = errors.New("invalid kernel config")
)

// Config describes an exponential covariance function.
// Zero values mean "unspecified" and keep the kernel defaults.
type Config struct {
	NIn              int         `json:"nin" yaml:"nin" toml:"nin"`
	MagnSigma2       float64     `json:"magn_sigma2" yaml:"magn_sigma2" toml:"magn_sigma2"`
	LengthScale      []float64   `json:"length_scale" yaml:"length_scale" toml:"length_scale"`
	MagnSigma2Prior  *PriorSpec  `json:"magn_sigma2_prior" yaml:"magn_sigma2_prior" toml:"magn_sigma2_prior"`
	LengthScalePrior *PriorSpec  `json:"length_scale_prior" yaml:"length_scale_prior" toml:"length_scale_prior"`
	Metric           *MetricSpec `json:"metric" yaml:"metric" toml:"metric"`
	ConstSigma2      float64     `json:"const_sigma2" yaml:"const_sigma2" toml:"const_sigma2"`
}

// PriorSpec names a prior and its hyperparameters. Hyper places priors on
// the hyperparameters themselves, which makes them tunable.
type PriorSpec struct {
	Type  string                `json:"type" yaml:"type" toml:"type"`
	Mu    float64               `json:"mu" yaml:"mu" toml:"mu"`
	S     float64               `json:"s" yaml:"s" toml:"s"`
	Nu    float64               `json:"nu" yaml:"nu" toml:"nu"`
	Hyper map[string]*PriorSpec `json:"hyper" yaml:"hyper" toml:"hyper"`
}

// MetricSpec describes a Euclidean metric over groups of input columns.
type MetricSpec struct {
	Components  [][]int    `json:"components" yaml:"components" toml:"components"`
	LengthScale []float64  `json:"length_scale" yaml:"length_scale" toml:"length_scale"`
	Prior       *PriorSpec `json:"prior" yaml:"prior" toml:"prior"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Build constructs the kernel cfg describes.
func Build(cfg Config) (*kern.Exp, error) {
	if cfg.NIn <= 0 {
		return nil, fmt.Errorf("nin %d: %w", cfg.NIn, ErrInvalidConfig)
	}
	if cfg.Metric != nil && len(cfg.LengthScale) > 0 {
		return nil, fmt.Errorf("length_scale and metric both set: %w", ErrInvalidConfig)
	}

	var kv []any
	if cfg.MagnSigma2 != 0 {
		kv = append(kv, "magnSigma2", cfg.MagnSigma2)
	}
	if len(cfg.LengthScale) > 0 {
		kv = append(kv, "lengthScale", cfg.LengthScale)
	}
	if cfg.MagnSigma2Prior != nil {
		p, err := BuildPrior(cfg.MagnSigma2Prior)
		if err != nil {
			return nil, fmt.Errorf("magn_sigma2_prior: %w", err)
		}
		kv = append(kv, "magnSigma2_prior", p)
	}
	if cfg.LengthScalePrior != nil {
		p, err := BuildPrior(cfg.LengthScalePrior)
		if err != nil {
			return nil, fmt.Errorf("length_scale_prior: %w", err)
		}
		kv = append(kv, "lengthScale_prior", p)
	}
	if cfg.Metric != nil {
		m, err := buildMetric(cfg.NIn, cfg.Metric)
		if err != nil {
			return nil, fmt.Errorf("metric: %w", err)
		}
		kv = append(kv, "metric", m)
	}

	k := kern.NewExp(cfg.NIn)
	if err := k.Set(kv...); err != nil {
		return nil, err
	}
	return k, nil
}

// BuildCovariance builds the kernel cfg describes, plus a constant term
// when const_sigma2 is set.
func BuildCovariance(cfg Config) (kern.CovarianceFunction, error) {
	if cfg.ConstSigma2 < 0 {
		return nil, fmt.Errorf("const_sigma2 %g: %w", cfg.ConstSigma2, ErrInvalidConfig)
	}
	k, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.ConstSigma2 == 0 {
		return k, nil
	}
	return kern.NewSum(k, kern.NewConstant(cfg.ConstSigma2)), nil
}

func buildMetric(nin int, spec *MetricSpec) (*metric.Euclidean, error) {
	m, err := metric.NewEuclidean(nin, spec.Components, spec.LengthScale)
	if err != nil {
		return nil, err
	}
	if spec.Prior != nil {
		p, err := BuildPrior(spec.Prior)
		if err != nil {
			return nil, err
		}
		m.SetPrior(p)
	}
	return m, nil
}

// BuildPrior turns a PriorSpec into a prior. Unset scale and degrees of
// freedom default to 1 and 4.
func BuildPrior(spec *PriorSpec) (prior.Prior, error) {
	s, nu := spec.S, spec.Nu
	if s == 0 {
		s = 1
	}
	if nu == 0 {
		nu = 4
	}
	if s < 0 || nu < 0 {
		return nil, fmt.Errorf("s=%g nu=%g: %w", s, nu, ErrInvalidConfig)
	}

	var p prior.Prior
	switch strings.ToLower(spec.Type) {
	case "unif", "uniform":
		p = prior.NewUniform()
	case "logunif", "loguniform":
		p = prior.NewLogUniform()
	case "gaussian", "normal":
		p = prior.NewGaussian(spec.Mu, s)
	case "t", "student-t":
		p = prior.NewStudentT(spec.Mu, s, nu)
	case "sqrt-t", "sqrt-student-t":
		p = prior.NewSqrtStudentT(spec.Mu, s, nu)
	default:
		return nil, fmt.Errorf("%q: %w", spec.Type, ErrUnknownPrior)
	}

	for name, hs := range spec.Hyper {
		if hs == nil {
			return nil, fmt.Errorf("hyper %s: empty prior: %w", name, ErrInvalidConfig)
		}
		hp, err := BuildPrior(hs)
		if err != nil {
			return nil, fmt.Errorf("hyper %s: %w", name, err)
		}
		if err := prior.SetHyperPrior(p, name, hp); err != nil {
			return nil, err
		}
	}
	return p, nil
}
