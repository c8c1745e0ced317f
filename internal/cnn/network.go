package cnn

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
)

// ErrInputSize is returned when a prediction input does not match the
// network's input shape.
var ErrInputSize = errors.New("input size does not match network input shape")

// EmotionInput is the input shape of the emotion network: one 48x48 gray channel.
var EmotionInput = Shape{H: 48, W: 48, C: 1}

// EmotionLayers returns the emotion network architecture for the given
// number of classes: three conv+pool stages of 32, 64 and 64 filters, a
// 64-unit hidden layer with dropout, and a softmax output.
func EmotionLayers(classes int) []LayerSpec {
	return []LayerSpec{
		Conv2D(32, 3, ActivationReLU),
		MaxPool2D(2),
		Conv2D(64, 3, ActivationReLU),
		MaxPool2D(2),
		Conv2D(64, 3, ActivationReLU),
		MaxPool2D(2),
		Flatten(),
		Dense(64, ActivationReLU),
		Dropout(0.5),
		Dense(classes, ActivationSoftmax),
	}
}

// NewEmotionNetwork builds an untrained emotion network with randomly
// initialised weights.
func NewEmotionNetwork(labels []string, rng *rand.Rand) (*Network, error) {
	return Build(EmotionInput, labels, EmotionLayers(len(labels)), rng)
}

// Network is a built sequential network with one output unit per label.
type Network struct {
	input  Shape
	labels []string
	layers []layer
}

// Build assembles a network from layer specs. Specs without weights are
// initialised from rng. The final layer must produce exactly one value per
// label.
func Build(input Shape, labels []string, specs []LayerSpec, rng *rand.Rand) (*Network, error) {
	if !input.valid() {
		return nil, fmt.Errorf("invalid input shape %s", input)
	}
	if len(labels) == 0 {
		return nil, errors.New("no labels")
	}
	if len(specs) == 0 {
		return nil, errors.New("no layers")
	}

	n := &Network{
		input:  input,
		labels: slices.Clone(labels),
		layers: make([]layer, 0, len(specs)),
	}

	shape := input
	for i, s := range specs {
		l, err := buildLayer(s, shape, rng)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, s.Kind, err)
		}
		n.layers = append(n.layers, l)
		shape = l.outputShape()
	}

	if shape.Size() != len(labels) {
		return nil, fmt.Errorf("output size %d does not match %d labels", shape.Size(), len(labels))
	}

	return n, nil
}

// InputShape returns the shape Predict expects.
func (n *Network) InputShape() Shape {
	return n.input
}

// Labels returns the class labels in output order.
func (n *Network) Labels() []string {
	return slices.Clone(n.labels)
}

// Predict runs a forward pass over a single sample laid out in HWC order and
// returns one score per label.
func (n *Network) Predict(input []float32) ([]float32, error) {
	if len(input) != n.input.Size() {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInputSize, len(input), n.input.Size())
	}

	t := Tensor{Shape: n.input, Data: slices.Clone(input)}
	for _, l := range n.layers {
		t = l.forward(t)
	}
	return t.Data, nil
}

// LayerInfo summarises one layer for display.
type LayerInfo struct {
	Kind   string
	Output Shape
	Params int
}

// Summary returns per-layer output shapes and parameter counts.
func (n *Network) Summary() []LayerInfo {
	infos := make([]LayerInfo, len(n.layers))
	for i, l := range n.layers {
		infos[i] = LayerInfo{
			Kind:   l.spec().Kind,
			Output: l.outputShape(),
			Params: l.params(),
		}
	}
	return infos
}

// Params returns the total number of trainable parameters.
func (n *Network) Params() int {
	total := 0
	for _, l := range n.layers {
		total += l.params()
	}
	return total
}

func (n *Network) specs() []LayerSpec {
	specs := make([]LayerSpec, len(n.layers))
	for i, l := range n.layers {
		specs[i] = l.spec()
	}
	return specs
}
