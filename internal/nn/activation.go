package nn

import (
	"fmt"
	"math"
)

// Activation names the element-wise non-linearity of a layer.
type Activation string

// Supported activations.
const (
	Linear    Activation = "linear"
	ReLU      Activation = "relu"
	LeakyReLU Activation = "leaky_relu"
	Sigmoid   Activation = "sigmoid"
	Tanh      Activation = "tanh"
)

const leakySlope = 0.2

// ParseActivation validates an activation name from a config file.
func ParseActivation(name string) (Activation, error) {
	switch Activation(name) {
	case Linear, ReLU, LeakyReLU, Sigmoid, Tanh:
		return Activation(name), nil
	}
	return "", fmt.Errorf("unknown activation %q", name)
}

// apply computes the activation of a pre-activation value.
func (a Activation) apply(z float64) float64 {
	switch a {
	case ReLU:
		return math.Max(0, z)
	case LeakyReLU:
		if z < 0 {
			return leakySlope * z
		}
		return z
	case Sigmoid:
		return 1 / (1 + math.Exp(-z))
	case Tanh:
		return math.Tanh(z)
	default:
		return z
	}
}

// deriv computes the activation derivative with respect to the
// pre-activation, given both the pre-activation and the activated value.
func (a Activation) deriv(z, out float64) float64 {
	switch a {
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case LeakyReLU:
		if z > 0 {
			return 1
		}
		return leakySlope
	case Sigmoid:
		return out * (1 - out)
	case Tanh:
		return 1 - out*out
	default:
		return 1
	}
}
