package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected layer computing act(x·W + b) over a batch.
// Inputs and outputs are batch-major: one row per sample.
type Dense struct {
	In  int
	Out int
	Act Activation

	W *mat.Dense // In x Out
	B []float64  // Out

	GradW *mat.Dense
	GradB []float64

	// forward pass cache, consumed by Backward
	x *mat.Dense
	z *mat.Dense
	a *mat.Dense
}

// NewDense creates a dense layer with Glorot-uniform initialized weights.
func NewDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	limit := math.Sqrt(6.0 / float64(in+out))
	w := make([]float64, in*out)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	return &Dense{
		In:    in,
		Out:   out,
		Act:   act,
		W:     mat.NewDense(in, out, w),
		B:     make([]float64, out),
		GradW: mat.NewDense(in, out, nil),
		GradB: make([]float64, out),
	}
}

// Forward runs the layer on a batch (rows are samples) and caches the
// intermediate values for Backward.
func (l *Dense) Forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()

	z := mat.NewDense(rows, l.Out, nil)
	z.Mul(x, l.W)
	for i := 0; i < rows; i++ {
		for j := 0; j < l.Out; j++ {
			z.Set(i, j, z.At(i, j)+l.B[j])
		}
	}

	a := mat.NewDense(rows, l.Out, nil)
	a.Apply(func(_, _ int, v float64) float64 { return l.Act.apply(v) }, z)

	l.x, l.z, l.a = x, z, a
	return a
}

// Backward propagates the output gradient through the layer, accumulating
// parameter gradients, and returns the gradient with respect to the input.
// Forward must have been called first.
func (l *Dense) Backward(dOut *mat.Dense) *mat.Dense {
	rows, _ := dOut.Dims()

	dz := mat.NewDense(rows, l.Out, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < l.Out; j++ {
			dz.Set(i, j, dOut.At(i, j)*l.Act.deriv(l.z.At(i, j), l.a.At(i, j)))
		}
	}

	var dW mat.Dense
	dW.Mul(l.x.T(), dz)
	l.GradW.Add(l.GradW, &dW)

	for j := 0; j < l.Out; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += dz.At(i, j)
		}
		l.GradB[j] += sum
	}

	dx := mat.NewDense(rows, l.In, nil)
	dx.Mul(dz, l.W.T())
	return dx
}

// zeroGrads clears the accumulated parameter gradients.
func (l *Dense) zeroGrads() {
	l.GradW.Zero()
	for j := range l.GradB {
		l.GradB[j] = 0
	}
}
