package nn

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

func newDenseFrom(rows, cols int, data []float64) *mat.Dense {
	return mat.NewDense(rows, cols, append([]float64(nil), data...))
}

// layerState is the serialized form of one dense layer.
type layerState struct {
	In  int
	Out int
	Act Activation
	W   []float64
	B   []float64
}

// Save writes the network weights to a file, creating parent directories.
func (n *Network) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	states := make([]layerState, 0, len(n.Layers))
	for _, l := range n.Layers {
		w := l.W.RawMatrix().Data
		states = append(states, layerState{
			In:  l.In,
			Out: l.Out,
			Act: l.Act,
			W:   append([]float64(nil), w...),
			B:   append([]float64(nil), l.B...),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating model file %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(states); err != nil {
		return fmt.Errorf("encoding model %s: %w", path, err)
	}
	return nil
}

// Load reads a network saved with Save. The returned network carries fresh
// zeroed gradients; compile an optimizer before training it further.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model file %s: %w", path, err)
	}
	defer f.Close()

	var states []layerState
	if err := gob.NewDecoder(f).Decode(&states); err != nil {
		return nil, fmt.Errorf("decoding model %s: %w", path, err)
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("model %s has no layers", path)
	}

	net := &Network{}
	for _, s := range states {
		if len(s.W) != s.In*s.Out || len(s.B) != s.Out {
			return nil, fmt.Errorf("model %s: layer %dx%d has inconsistent weights", path, s.In, s.Out)
		}
		l := &Dense{
			In:    s.In,
			Out:   s.Out,
			Act:   s.Act,
			GradB: make([]float64, s.Out),
		}
		l.W = newDenseFrom(s.In, s.Out, s.W)
		l.B = append([]float64(nil), s.B...)
		l.GradW = newDenseFrom(s.In, s.Out, make([]float64, s.In*s.Out))
		net.Layers = append(net.Layers, l)
	}
	return net, nil
}
