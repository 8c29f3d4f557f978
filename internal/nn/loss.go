package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss scores predictions against targets and provides the gradient of the
// mean cost with respect to the predictions.
type Loss interface {
	Cost(pred, target *mat.Dense) float64
	Grad(pred, target *mat.Dense) *mat.Dense
}

// BinaryCrossEntropy expects predictions in (0, 1), typically from a sigmoid
// output layer. Predictions are clamped away from 0 and 1 before the logs.
type BinaryCrossEntropy struct{}

const bceEps = 1e-7

func clamp(p float64) float64 {
	return math.Min(math.Max(p, bceEps), 1-bceEps)
}

// Cost returns the mean binary cross-entropy over all elements.
func (BinaryCrossEntropy) Cost(pred, target *mat.Dense) float64 {
	rows, cols := pred.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := clamp(pred.At(i, j))
			y := target.At(i, j)
			sum += -(y*math.Log(p) + (1-y)*math.Log(1-p))
		}
	}
	return sum / float64(rows*cols)
}

// Grad returns d(mean cost)/d(pred). Composed with a sigmoid output layer
// this reduces to the usual stable (p - y) / n update.
func (BinaryCrossEntropy) Grad(pred, target *mat.Dense) *mat.Dense {
	rows, cols := pred.Dims()
	n := float64(rows * cols)
	grad := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := clamp(pred.At(i, j))
			y := target.At(i, j)
			grad.Set(i, j, (p-y)/(p*(1-p))/n)
		}
	}
	return grad
}

// Mean is a running mean metric, reset between epochs.
type Mean struct {
	sum float64
	n   int
}

// Update folds one value into the mean.
func (m *Mean) Update(v float64) {
	m.sum += v
	m.n++
}

// Result returns the current mean, 0 before any update.
func (m *Mean) Result() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Reset clears the metric.
func (m *Mean) Reset() { m.sum, m.n = 0, 0 }
