package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/gan"
	"github.com/chris-collard/fidle/internal/nn"
	"github.com/chris-collard/fidle/internal/traincfg"
)

// runTraining builds the DCGAN described by the HCL run configuration and
// trains it.
func (a *App) runTraining(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	cfg, err := traincfg.Load(a.config.TrainConfigPath)
	if err != nil {
		return err
	}

	ds, err := traincfg.LoadIDXImages(cfg.Data)
	if err != nil {
		return err
	}
	samples, features := ds.Images.Dims()
	logger.Info("Dataset loaded.", "path", cfg.Data, "samples", samples, "width", ds.Width, "height", ds.Height)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	generator, err := buildNetwork(cfg.Generator, nn.Tanh, rng)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	discriminator, err := buildNetwork(cfg.Discriminator, nn.Sigmoid, rng)
	if err != nil {
		return fmt.Errorf("discriminator: %w", err)
	}
	if discriminator.InputSize() != features {
		return fmt.Errorf("discriminator expects %d inputs, dataset has %d pixels",
			discriminator.InputSize(), features)
	}
	if discriminator.OutputSize() != 1 {
		return fmt.Errorf("discriminator must have a single output, has %d", discriminator.OutputSize())
	}

	model, err := gan.New(generator, discriminator, cfg.LatentDim, rng)
	if err != nil {
		return err
	}
	model.Compile(
		adamFor(cfg.OptimizerFor(traincfg.TargetGenerator)),
		adamFor(cfg.OptimizerFor(traincfg.TargetDiscriminator)),
		nn.BinaryCrossEntropy{},
	)
	logger.Info("DCGAN is ready :-)", "latent_dim", cfg.LatentDim)

	var callbacks []gan.Callback
	if cfg.Images != nil {
		width, height := cfg.Images.Width, cfg.Images.Height
		if width == 0 {
			width = ds.Width
		}
		if height == 0 {
			height = ds.Height
		}
		cb, err := gan.NewImagesCallback(model, cfg.Images.NumImages, width, height, cfg.Images.RunDir)
		if err != nil {
			return err
		}
		callbacks = append(callbacks, cb)
	}

	if err := model.Fit(ctx, ds.Images, cfg.Epochs, cfg.BatchSize, callbacks...); err != nil {
		return err
	}

	if cfg.SaveModel != "" {
		if err := model.Save(cfg.SaveModel); err != nil {
			return err
		}
		logger.Info("Model saved.", "stem", cfg.SaveModel)
	}
	return nil
}

// buildNetwork constructs a sub-model from its config block, defaulting to
// leaky-relu hidden layers and the given output activation.
func buildNetwork(cfg *traincfg.Network, defaultOutput nn.Activation, rng *rand.Rand) (*nn.Network, error) {
	hidden := nn.LeakyReLU
	if cfg.Activation != "" {
		act, err := nn.ParseActivation(cfg.Activation)
		if err != nil {
			return nil, err
		}
		hidden = act
	}
	output := defaultOutput
	if cfg.OutputActivation != "" {
		act, err := nn.ParseActivation(cfg.OutputActivation)
		if err != nil {
			return nil, err
		}
		output = act
	}
	return nn.Sequential(rng, cfg.Layers, hidden, output)
}

// adamFor maps an optimizer block to an Adam instance, using the defaults
// when the block is absent.
func adamFor(opt *traincfg.Optimizer) *nn.Adam {
	if opt == nil {
		return nn.NewAdam(0, 0, 0)
	}
	return nn.NewAdam(opt.LearningRate, opt.Beta1, opt.Beta2)
}
