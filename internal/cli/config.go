package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"gepkit/internal/genotype"
	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
)

// RunConfig is the YAML run file.
//
//	vocabulary:
//	  args: 2
//	  primitives: ["1", "100", "sqr", "+", "*"]
//	shape:
//	  root_length: 12
//	seed: 7
//	count: 3
//	cases:
//	  - args: [1, 2]
//	    want: 3
type RunConfig struct {
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Shape      kexpr.Shape      `yaml:"shape"`
	Seed       int64            `yaml:"seed"`
	Count      int              `yaml:"count"`
	ErrorCap   float64          `yaml:"error_cap"`
	Cases      []CaseConfig     `yaml:"cases"`
}

type VocabularyConfig struct {
	Args       int      `yaml:"args"`
	Primitives []string `yaml:"primitives"`
}

// CaseConfig is one evaluation input. Want is optional; fitness is only
// reported when every case has one.
type CaseConfig struct {
	Args []float64 `yaml:"args"`
	Want *float64  `yaml:"want"`
}

// LoadRunConfig reads and validates a run file. Unknown keys are rejected.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ops.WrapIO("read config", err)
	}
	return ParseRunConfig(data)
}

// ParseRunConfig decodes a run file. Omitted shape fields keep
// kexpr.DefaultShape values and an omitted count means 1.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	cfg := &RunConfig{Shape: kexpr.DefaultShape(), Count: 1}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ops.Errorf(ops.ErrConfiguration, "config is empty")
		}
		return nil, ops.Errorf(ops.ErrConfiguration, "config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *RunConfig) Validate() error {
	var errs []error
	if c.Vocabulary.Args < 0 {
		errs = append(errs, ops.Errorf(ops.ErrConfiguration, "vocabulary.args must not be negative"))
	}
	if len(c.Vocabulary.Primitives) == 0 && c.Vocabulary.Args == 0 {
		errs = append(errs, ops.Errorf(ops.ErrConfiguration, "vocabulary is empty"))
	}
	if err := c.Shape.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Count < 1 {
		errs = append(errs, ops.Errorf(ops.ErrConfiguration, "count must be at least 1 (got %d)", c.Count))
	}
	if c.ErrorCap < 0 {
		errs = append(errs, ops.Errorf(ops.ErrConfiguration, "error_cap must not be negative"))
	}
	for i, cs := range c.Cases {
		if len(cs.Args) != c.Vocabulary.Args {
			errs = append(errs, ops.Errorf(ops.ErrConfiguration, "cases[%d] has %d args, vocabulary declares %d", i, len(cs.Args), c.Vocabulary.Args))
		}
	}
	return errors.Join(errs...)
}

// BuildVocabulary resolves the primitive names through catalog.
func (c *RunConfig) BuildVocabulary(catalog *ops.Catalog) (*ops.Vocabulary, error) {
	if catalog == nil {
		catalog = ops.DefaultCatalog()
	}
	prims := make([]ops.Primitive, len(c.Vocabulary.Primitives))
	for i, name := range c.Vocabulary.Primitives {
		p, err := catalog.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("vocabulary.primitives[%d]: %w", i, err)
		}
		prims[i] = p
	}
	return ops.NewVocabulary(prims, c.Vocabulary.Args)
}

// FitnessCases returns the cases as fitness samples, or false when any case
// has no expected value.
func (c *RunConfig) FitnessCases() ([]genotype.Case, bool) {
	if len(c.Cases) == 0 {
		return nil, false
	}
	out := make([]genotype.Case, len(c.Cases))
	for i, cs := range c.Cases {
		if cs.Want == nil {
			return nil, false
		}
		out[i] = genotype.Case{Args: cs.Args, Want: *cs.Want}
	}
	return out, true
}
