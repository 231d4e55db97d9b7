package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/alice-offline/chebfield/cheb"
	"github.com/alice-offline/chebfield/magfield"
	"github.com/alice-offline/chebfield/magfield/model"
)

const (
	defaultPrecision = 1e-6
	defaultNodes     = 16
	defaultValidate  = 1000
)

// Config is the model file read by the build command.
//
//	name: alice
//	precision: 1.0e-5
//	nodes: [16, 16, 16]
//	regions:
//	  solenoid:
//	    model: {kind: solenoid, b: [0, 0, 0.5], radius: 3, half_length: 5}
//	    segments:
//	      - lo: -5
//	        hi: 5
//	        children:
//	          - lo: 0
//	            hi: 6.283185307179586
//	            children: [{lo: 0, hi: 3}]
//
// Precision and Nodes apply to every region unless the region overrides
// them. Segment boundaries are given in the coordinates of the region:
// z, then phi, then r for cylindrical regions and z, then y, then x for
// Cartesian ones.
type Config struct {
	Name      string                  `yaml:"name"`
	Precision float64                 `yaml:"precision"`
	Nodes     [3]int                  `yaml:"nodes,flow"`
	Workers   int                     `yaml:"workers"`
	Validate  int                     `yaml:"validate"`
	Compress  *bool                   `yaml:"compress"`
	Regions   map[string]RegionConfig `yaml:"regions"`
}

// RegionConfig describes how one region of the map is built. System is
// optional and must name the coordinate system of the region kind.
type RegionConfig struct {
	System    string                 `yaml:"system,omitempty"`
	Model     model.Spec             `yaml:"model"`
	Precision float64                `yaml:"precision,omitempty"`
	Nodes     [3]int                 `yaml:"nodes,omitempty,flow"`
	Segments  []magfield.SegmentSpec `yaml:"segments"`
}

// regionPlan is a validated RegionConfig, ready to be fitted.
type regionPlan struct {
	Kind   magfield.RegionKind
	Spec   magfield.RegionSpec
	Field  model.Field
	Params cheb.FitParameters
}

// LoadConfig reads a model file. ${VAR} references are expanded from the
// environment before parsing.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is given on the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig reads a model file from r and applies the defaults.
func ParseConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)

	cfg := new(Config)
	if err = dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty config")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "fieldmap"
	}
	if c.Precision == 0 {
		c.Precision = defaultPrecision
	}
	for i := range c.Nodes {
		if c.Nodes[i] == 0 {
			c.Nodes[i] = defaultNodes
		}
	}
	if c.Validate == 0 {
		c.Validate = defaultValidate
	}
	if c.Compress == nil {
		compress := true
		c.Compress = &compress
	}
}

// plans validates the regions of the configuration and returns them in
// map order.
func (c *Config) plans() ([]regionPlan, error) {

	if len(c.Regions) == 0 {
		return nil, fmt.Errorf("invalid config: no regions")
	}

	if c.Validate < 0 {
		return nil, fmt.Errorf("invalid config: validate=%d is negative", c.Validate)
	}

	plans := make([]regionPlan, 0, len(c.Regions))

	for name, rc := range c.Regions {

		kind, err := magfield.ParseRegionKind(name)
		if err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}

		if rc.System != "" {
			system, err := magfield.ParseCoordSystem(rc.System)
			if err != nil {
				return nil, fmt.Errorf("invalid config: region %q: %w", name, err)
			}
			if system != kind.System() {
				return nil, fmt.Errorf("invalid config: region %q is %s, not %s", name, kind.System(), system)
			}
		}

		field, err := model.New(rc.Model)
		if err != nil {
			return nil, fmt.Errorf("invalid config: region %q: %w", name, err)
		}

		if len(rc.Segments) == 0 {
			return nil, fmt.Errorf("invalid config: region %q: no segments", name)
		}

		params := cheb.FitParameters{
			Name:      fmt.Sprintf("%s_%s", c.Name, kind),
			OutputDim: 3,
			NPoints:   c.Nodes,
			Precision: c.Precision,
			Workers:   c.Workers,
		}

		if rc.Precision != 0 {
			params.Precision = rc.Precision
		}

		for i, n := range rc.Nodes {
			if n != 0 {
				params.NPoints[i] = n
			}
		}

		plans = append(plans, regionPlan{
			Kind:   kind,
			Spec:   magfield.RegionSpec{System: kind.System(), Segments: rc.Segments},
			Field:  field,
			Params: params,
		})
	}

	sort.Slice(plans, func(i, j int) bool { return plans[i].Kind < plans[j].Kind })

	return plans, nil
}
