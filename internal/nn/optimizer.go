package nn

import "math"

// Adam is the Adam optimizer with bias-corrected moment estimates. One
// instance owns the moment state for one set of params; call Step with the
// same Params() slice every time.
type Adam struct {
	LR      float64
	Beta1   float64
	Beta2   float64
	Epsilon float64

	t int
	m [][]float64
	v [][]float64
}

// NewAdam returns an Adam optimizer. Zero arguments fall back to the usual
// defaults (lr 0.001, beta1 0.9, beta2 0.999, eps 1e-8).
func NewAdam(lr, beta1, beta2 float64) *Adam {
	if lr == 0 {
		lr = 0.001
	}
	if beta1 == 0 {
		beta1 = 0.9
	}
	if beta2 == 0 {
		beta2 = 0.999
	}
	return &Adam{LR: lr, Beta1: beta1, Beta2: beta2, Epsilon: 1e-8}
}

// Step applies one Adam update to every param from its accumulated gradient.
func (a *Adam) Step(params []Param) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			a.m[i] = make([]float64, len(p.Value))
			a.v[i] = make([]float64, len(p.Value))
		}
	}

	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for i, p := range params {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			mHat := m[j] / c1
			vHat := v[j] / c2
			p.Value[j] -= a.LR * mHat / (math.Sqrt(vHat) + a.Epsilon)
		}
	}
}
