// Package traincfg loads the HCL configuration describing a DCGAN training
// run: network shapes, optimizer settings, dataset location and the image
// sampling callback.
package traincfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Optimizer targets.
const (
	TargetGenerator     = "generator"
	TargetDiscriminator = "discriminator"
)

// root is the top-level file schema.
type root struct {
	Training *Training `hcl:"training,block"`
}

// Training is the single `training` block of a run configuration.
type Training struct {
	LatentDim int    `hcl:"latent_dim"`
	Epochs    int    `hcl:"epochs"`
	BatchSize int    `hcl:"batch_size"`
	Data      string `hcl:"data"`
	Seed      int64  `hcl:"seed,optional"`
	SaveModel string `hcl:"save_model,optional"`

	Generator     *Network     `hcl:"generator,block"`
	Discriminator *Network     `hcl:"discriminator,block"`
	Optimizers    []*Optimizer `hcl:"optimizer,block"`
	Images        *Images      `hcl:"images_callback,block"`
}

// Network describes one sub-model: the layer widths (input first, output
// last) and its activations.
type Network struct {
	Layers           []int  `hcl:"layers"`
	Activation       string `hcl:"activation,optional"`
	OutputActivation string `hcl:"output_activation,optional"`
}

// Optimizer carries the Adam settings for one target model.
type Optimizer struct {
	Target       string  `hcl:"target,label"`
	LearningRate float64 `hcl:"learning_rate"`
	Beta1        float64 `hcl:"beta_1,optional"`
	Beta2        float64 `hcl:"beta_2,optional"`
}

// Images configures the per-epoch image sampling callback.
type Images struct {
	NumImages int    `hcl:"num_images"`
	RunDir    string `hcl:"run_dir"`
	Width     int    `hcl:"width,optional"`
	Height    int    `hcl:"height,optional"`
}

// Load parses and validates a training run configuration. Expressions in
// the file can reference process environment variables through `env`, e.g.
// `data = "${env.HOME}/datasets/train-images-idx3-ubyte.gz"`.
func Load(path string) (*Training, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	var cfg root
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	if cfg.Training == nil {
		return nil, fmt.Errorf("%s: missing required training block", path)
	}
	if err := cfg.Training.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.Training, nil
}

// evalContext exposes the process environment to the configuration file.
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok && name != "" {
			env[name] = cty.StringVal(value)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}

func (t *Training) validate() error {
	if t.LatentDim <= 0 {
		return fmt.Errorf("latent_dim must be positive, got %d", t.LatentDim)
	}
	if t.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", t.Epochs)
	}
	if t.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", t.BatchSize)
	}
	if t.Data == "" {
		return fmt.Errorf("data must point to the training image file")
	}
	if t.Generator == nil {
		return fmt.Errorf("missing required generator block")
	}
	if t.Discriminator == nil {
		return fmt.Errorf("missing required discriminator block")
	}
	for _, n := range []*Network{t.Generator, t.Discriminator} {
		if len(n.Layers) < 2 {
			return fmt.Errorf("a network needs at least two layer sizes, got %v", n.Layers)
		}
	}

	seen := map[string]bool{}
	for _, opt := range t.Optimizers {
		switch opt.Target {
		case TargetGenerator, TargetDiscriminator:
		default:
			return fmt.Errorf("optimizer target must be %q or %q, got %q",
				TargetGenerator, TargetDiscriminator, opt.Target)
		}
		if seen[opt.Target] {
			return fmt.Errorf("duplicate optimizer block for %q", opt.Target)
		}
		seen[opt.Target] = true
		if opt.LearningRate <= 0 {
			return fmt.Errorf("learning_rate for %q must be positive, got %g", opt.Target, opt.LearningRate)
		}
	}

	if t.Images != nil {
		if t.Images.NumImages <= 0 {
			return fmt.Errorf("num_images must be positive, got %d", t.Images.NumImages)
		}
		if t.Images.RunDir == "" {
			return fmt.Errorf("run_dir must not be empty")
		}
	}
	return nil
}

// OptimizerFor returns the optimizer settings for a target, or nil when the
// block is absent and the defaults apply.
func (t *Training) OptimizerFor(target string) *Optimizer {
	for _, opt := range t.Optimizers {
		if opt.Target == target {
			return opt
		}
	}
	return nil
}
