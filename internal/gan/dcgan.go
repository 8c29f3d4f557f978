// Package gan composes a generator and a discriminator into a DCGAN and
// implements the adversarial training update. Everything numerically heavy
// lives in the nn package; this is the glue defining how the two models are
// trained against each other.
package gan

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/nn"
)

// Model is what the DCGAN requires of its two sub-models. *nn.Network
// satisfies it; the models themselves are supplied by the caller.
type Model interface {
	Forward(x *mat.Dense) *mat.Dense
	Backward(dOut *mat.Dense) *mat.Dense
	ZeroGrads()
	Params() []nn.Param
	InputSize() int
	OutputSize() int
	Save(path string) error
}

// labelNoise is the amplitude of the uniform noise added to the
// discriminator labels. Smoothed labels keep the discriminator from
// saturating early.
const labelNoise = 0.05

// Callback is invoked at the end of every epoch with the running losses.
type Callback interface {
	OnEpochEnd(epoch int, logs map[string]float64) error
}

// DCGAN pairs a generator and a discriminator for adversarial training.
type DCGAN struct {
	Generator     Model
	Discriminator Model
	LatentDim     int

	gOpt *nn.Adam
	dOpt *nn.Adam
	loss nn.Loss

	dLoss nn.Mean
	gLoss nn.Mean

	rng *rand.Rand
}

// New builds a DCGAN from a generator and a discriminator. The generator
// must accept latentDim inputs.
func New(generator, discriminator Model, latentDim int, rng *rand.Rand) (*DCGAN, error) {
	if generator.InputSize() != latentDim {
		return nil, fmt.Errorf("generator expects %d inputs, latent dim is %d",
			generator.InputSize(), latentDim)
	}
	if generator.OutputSize() != discriminator.InputSize() {
		return nil, fmt.Errorf("generator produces %d values, discriminator expects %d",
			generator.OutputSize(), discriminator.InputSize())
	}
	return &DCGAN{
		Generator:     generator,
		Discriminator: discriminator,
		LatentDim:     latentDim,
		rng:           rng,
	}, nil
}

// Compile sets the optimizers and the loss. Must be called before training.
func (m *DCGAN) Compile(generatorOpt, discriminatorOpt *nn.Adam, loss nn.Loss) {
	m.gOpt = generatorOpt
	m.dOpt = discriminatorOpt
	m.loss = loss
	m.dLoss.Reset()
	m.gLoss.Reset()
}

// Sample draws n latent vectors and returns the generator output for them.
func (m *DCGAN) Sample(n int) *mat.Dense {
	return m.Generator.Forward(m.normal(n, m.LatentDim))
}

// TrainStep runs one adversarial update on a batch of real samples and
// returns the running mean discriminator and generator losses.
//
// Phase one trains the discriminator on generated++real samples labelled
// 1/0 with a little uniform noise. Phase two trains the generator through
// the frozen discriminator against all-"real" labels.
func (m *DCGAN) TrainStep(real *mat.Dense) (float64, float64) {
	batch, _ := real.Dims()

	// ---- Discriminator phase
	fakes := m.Generator.Forward(m.normal(batch, m.LatentDim))
	combined := vstack(fakes, real)

	labels := mat.NewDense(2*batch, 1, nil)
	for i := 0; i < batch; i++ {
		labels.Set(i, 0, 1+labelNoise*m.rng.Float64())
	}
	for i := batch; i < 2*batch; i++ {
		labels.Set(i, 0, labelNoise*m.rng.Float64())
	}

	preds := m.Discriminator.Forward(combined)
	dLoss := m.loss.Cost(preds, labels)

	m.Discriminator.ZeroGrads()
	m.Discriminator.Backward(m.loss.Grad(preds, labels))
	m.dOpt.Step(m.Discriminator.Params())

	// ---- Generator phase. The discriminator weights must not move here:
	// its gradients are recomputed but never stepped.
	misleading := mat.NewDense(batch, 1, nil)

	fakes = m.Generator.Forward(m.normal(batch, m.LatentDim))
	preds = m.Discriminator.Forward(fakes)
	gLoss := m.loss.Cost(preds, misleading)

	m.Discriminator.ZeroGrads()
	dFakes := m.Discriminator.Backward(m.loss.Grad(preds, misleading))
	m.Generator.ZeroGrads()
	m.Generator.Backward(dFakes)
	m.gOpt.Step(m.Generator.Params())

	m.dLoss.Update(dLoss)
	m.gLoss.Update(gLoss)
	return m.dLoss.Result(), m.gLoss.Result()
}

// Fit trains the DCGAN on a dataset (one sample per row) for a number of
// epochs, shuffling between epochs and invoking the callbacks after each.
func (m *DCGAN) Fit(ctx context.Context, data *mat.Dense, epochs, batchSize int, callbacks ...Callback) error {
	if m.loss == nil {
		return fmt.Errorf("dcgan: Compile must be called before Fit")
	}
	logger := ctxlog.FromContext(ctx)

	n, features := data.Dims()
	if batchSize <= 0 || batchSize > n {
		return fmt.Errorf("dcgan: batch size %d invalid for %d samples", batchSize, n)
	}

	for epoch := 0; epoch < epochs; epoch++ {
		m.dLoss.Reset()
		m.gLoss.Reset()

		perm := m.rng.Perm(n)
		var dLoss, gLoss float64
		for start := 0; start+batchSize <= n; start += batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch := mat.NewDense(batchSize, features, nil)
			for i := 0; i < batchSize; i++ {
				batch.SetRow(i, data.RawRowView(perm[start+i]))
			}
			dLoss, gLoss = m.TrainStep(batch)
		}

		logs := map[string]float64{"d_loss": dLoss, "g_loss": gLoss}
		logger.Info("Epoch done.", "epoch", epoch, "d_loss", dLoss, "g_loss", gLoss)
		for _, cb := range callbacks {
			if err := cb.OnEpochEnd(epoch, logs); err != nil {
				return fmt.Errorf("dcgan: callback at epoch %d: %w", epoch, err)
			}
		}
	}
	return nil
}

// Save writes the model in two parts next to the given stem.
func (m *DCGAN) Save(stem string) error {
	if err := m.Generator.Save(stem + "-generator.gob"); err != nil {
		return err
	}
	return m.Discriminator.Save(stem + "-discriminator.gob")
}

// Reload replaces both sub-models from a two-part save. The result must be
// compiled again before training.
func (m *DCGAN) Reload(stem string) error {
	gen, err := nn.Load(stem + "-generator.gob")
	if err != nil {
		return err
	}
	disc, err := nn.Load(stem + "-discriminator.gob")
	if err != nil {
		return err
	}
	m.Generator = gen
	m.Discriminator = disc
	m.gOpt, m.dOpt, m.loss = nil, nil, nil
	return nil
}

// normal fills an n x dim matrix with standard normal draws.
func (m *DCGAN) normal(n, dim int) *mat.Dense {
	z := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			z.Set(i, j, m.rng.NormFloat64())
		}
	}
	return z
}

// vstack concatenates two batches row-wise.
func vstack(a, b *mat.Dense) *mat.Dense {
	ar, cols := a.Dims()
	br, _ := b.Dims()
	out := mat.NewDense(ar+br, cols, nil)
	for i := 0; i < ar; i++ {
		out.SetRow(i, a.RawRowView(i))
	}
	for i := 0; i < br; i++ {
		out.SetRow(ar+i, b.RawRowView(i))
	}
	return out
}
