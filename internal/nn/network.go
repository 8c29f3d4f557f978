// Package nn is a small dense-network training kit: layers, Adam, binary
// cross-entropy and the metric/serialization helpers the GAN harness needs.
// Batches are gonum matrices with one row per sample.
package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is one trainable tensor exposed to an optimizer: flat views of the
// values and their accumulated gradients, same length.
type Param struct {
	Value []float64
	Grad  []float64
}

// Network is a sequence of dense layers.
type Network struct {
	Layers []*Dense
}

// Sequential builds a dense network from layer sizes: sizes[0] inputs,
// sizes[len-1] outputs. Hidden layers use the hidden activation, the last
// layer the output activation.
func Sequential(rng *rand.Rand, sizes []int, hidden, output Activation) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("a network needs at least input and output sizes, got %d", len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("layer size %d must be positive, got %d", i, s)
		}
	}

	net := &Network{}
	for i := 0; i < len(sizes)-1; i++ {
		act := hidden
		if i == len(sizes)-2 {
			act = output
		}
		net.Layers = append(net.Layers, NewDense(sizes[i], sizes[i+1], act, rng))
	}
	return net, nil
}

// Forward runs the batch through every layer.
func (n *Network) Forward(x *mat.Dense) *mat.Dense {
	out := x
	for _, l := range n.Layers {
		out = l.Forward(out)
	}
	return out
}

// Backward propagates the output gradient back through every layer,
// accumulating parameter gradients, and returns the input gradient.
func (n *Network) Backward(dOut *mat.Dense) *mat.Dense {
	d := dOut
	for i := len(n.Layers) - 1; i >= 0; i-- {
		d = n.Layers[i].Backward(d)
	}
	return d
}

// ZeroGrads clears the accumulated gradients of all layers.
func (n *Network) ZeroGrads() {
	for _, l := range n.Layers {
		l.zeroGrads()
	}
}

// Params returns the trainable tensors of all layers in a stable order.
func (n *Network) Params() []Param {
	var params []Param
	for _, l := range n.Layers {
		params = append(params,
			Param{Value: l.W.RawMatrix().Data, Grad: l.GradW.RawMatrix().Data},
			Param{Value: l.B, Grad: l.GradB},
		)
	}
	return params
}

// InputSize returns the expected sample width.
func (n *Network) InputSize() int { return n.Layers[0].In }

// OutputSize returns the produced sample width.
func (n *Network) OutputSize() int { return n.Layers[len(n.Layers)-1].Out }
