package cnn

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"
)

// Layer kinds as stored in model files.
const (
	KindConv2D    = "conv2d"
	KindMaxPool2D = "maxpool2d"
	KindFlatten   = "flatten"
	KindDense     = "dense"
	KindDropout   = "dropout"
)

// Activation names.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSoftmax = "softmax"
)

// LayerSpec describes one layer: its hyper-parameters and, once built, its
// weights. It is the unit persisted in model files.
type LayerSpec struct {
	Kind       string    `msgpack:"kind"`
	Filters    int       `msgpack:"filters,omitempty"`
	Kernel     int       `msgpack:"kernel,omitempty"`
	Pool       int       `msgpack:"pool,omitempty"`
	Units      int       `msgpack:"units,omitempty"`
	Rate       float32   `msgpack:"rate,omitempty"`
	Activation string    `msgpack:"activation,omitempty"`
	Weights    []float32 `msgpack:"weights,omitempty"`
	Bias       []float32 `msgpack:"bias,omitempty"`
}

// Conv2D returns a spec for a valid-padded, stride-1 square convolution.
func Conv2D(filters, kernel int, activation string) LayerSpec {
	return LayerSpec{Kind: KindConv2D, Filters: filters, Kernel: kernel, Activation: activation}
}

// MaxPool2D returns a spec for non-overlapping square max pooling.
func MaxPool2D(size int) LayerSpec {
	return LayerSpec{Kind: KindMaxPool2D, Pool: size}
}

// Flatten returns a flatten spec.
func Flatten() LayerSpec {
	return LayerSpec{Kind: KindFlatten}
}

// Dense returns a fully connected layer spec.
func Dense(units int, activation string) LayerSpec {
	return LayerSpec{Kind: KindDense, Units: units, Activation: activation}
}

// Dropout returns a dropout spec. Dropout is the identity at inference.
func Dropout(rate float32) LayerSpec {
	return LayerSpec{Kind: KindDropout, Rate: rate}
}

type layer interface {
	outputShape() Shape
	forward(in Tensor) Tensor
	params() int
	spec() LayerSpec
}

// buildLayer validates spec against the input shape and returns a ready
// layer. Missing weights are initialised from rng; with a nil rng they are
// an error.
func buildLayer(s LayerSpec, in Shape, rng *rand.Rand) (layer, error) {
	switch s.Kind {
	case KindConv2D:
		return newConv(s, in, rng)
	case KindMaxPool2D:
		if s.Pool <= 0 {
			return nil, fmt.Errorf("pool size %d", s.Pool)
		}
		out := Shape{H: in.H / s.Pool, W: in.W / s.Pool, C: in.C}
		if !out.valid() {
			return nil, fmt.Errorf("pool %d collapses input %s", s.Pool, in)
		}
		return &maxPool{size: s.Pool, in: in, out: out}, nil
	case KindFlatten:
		return &flatten{out: Shape{H: 1, W: 1, C: in.Size()}}, nil
	case KindDense:
		return newDense(s, in, rng)
	case KindDropout:
		if s.Rate < 0 || s.Rate >= 1 {
			return nil, fmt.Errorf("dropout rate %v out of [0,1)", s.Rate)
		}
		return &dropout{rate: s.Rate, out: in}, nil
	default:
		return nil, fmt.Errorf("unknown layer kind %q", s.Kind)
	}
}

// ============================================================================
// Conv2D
// ============================================================================

type conv struct {
	filters    int
	kernel     int
	activation string
	in, out    Shape
	weights    []float32 // [filter][ky][kx][c]
	bias       []float32
}

func newConv(s LayerSpec, in Shape, rng *rand.Rand) (*conv, error) {
	if s.Filters <= 0 || s.Kernel <= 0 {
		return nil, fmt.Errorf("conv filters=%d kernel=%d", s.Filters, s.Kernel)
	}
	if err := checkActivation(s.Activation); err != nil {
		return nil, err
	}
	out := Shape{H: in.H - s.Kernel + 1, W: in.W - s.Kernel + 1, C: s.Filters}
	if !out.valid() {
		return nil, fmt.Errorf("kernel %d larger than input %s", s.Kernel, in)
	}

	fanIn := s.Kernel * s.Kernel * in.C
	weights, bias, err := layerWeights(s, fanIn, s.Filters, s.Kernel*s.Kernel*s.Filters, rng)
	if err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}

	return &conv{
		filters:    s.Filters,
		kernel:     s.Kernel,
		activation: s.Activation,
		in:         in,
		out:        out,
		weights:    weights,
		bias:       bias,
	}, nil
}

func (l *conv) outputShape() Shape { return l.out }

func (l *conv) params() int { return len(l.weights) + len(l.bias) }

func (l *conv) forward(in Tensor) Tensor {
	out := NewTensor(l.out)
	rowLen := l.kernel * l.in.C
	n := l.kernel * rowLen
	patch := make([]float32, n)

	for y := 0; y < l.out.H; y++ {
		for x := 0; x < l.out.W; x++ {
			// HWC keeps each kernel row contiguous
			for ky := 0; ky < l.kernel; ky++ {
				start := in.index(y+ky, x, 0)
				copy(patch[ky*rowLen:(ky+1)*rowLen], in.Data[start:start+rowLen])
			}
			base := out.index(y, x, 0)
			for f := 0; f < l.filters; f++ {
				out.Data[base+f] = vek32.Dot(patch, l.weights[f*n:(f+1)*n]) + l.bias[f]
			}
		}
	}

	activate(out.Data, l.activation, l.filters)
	return out
}

func (l *conv) spec() LayerSpec {
	return LayerSpec{
		Kind:       KindConv2D,
		Filters:    l.filters,
		Kernel:     l.kernel,
		Activation: l.activation,
		Weights:    l.weights,
		Bias:       l.bias,
	}
}

// ============================================================================
// MaxPool2D
// ============================================================================

type maxPool struct {
	size    int
	in, out Shape
}

func (l *maxPool) outputShape() Shape { return l.out }

func (l *maxPool) params() int { return 0 }

func (l *maxPool) forward(in Tensor) Tensor {
	out := NewTensor(l.out)
	for y := 0; y < l.out.H; y++ {
		for x := 0; x < l.out.W; x++ {
			for c := 0; c < l.out.C; c++ {
				best := math32.Inf(-1)
				for py := 0; py < l.size; py++ {
					for px := 0; px < l.size; px++ {
						v := in.Data[in.index(y*l.size+py, x*l.size+px, c)]
						if v > best {
							best = v
						}
					}
				}
				out.Data[out.index(y, x, c)] = best
			}
		}
	}
	return out
}

func (l *maxPool) spec() LayerSpec { return MaxPool2D(l.size) }

// ============================================================================
// Flatten and Dropout
// ============================================================================

type flatten struct {
	out Shape
}

func (l *flatten) outputShape() Shape { return l.out }

func (l *flatten) params() int { return 0 }

func (l *flatten) forward(in Tensor) Tensor {
	return Tensor{Shape: l.out, Data: in.Data}
}

func (l *flatten) spec() LayerSpec { return Flatten() }

type dropout struct {
	rate float32
	out  Shape
}

func (l *dropout) outputShape() Shape { return l.out }

func (l *dropout) params() int { return 0 }

func (l *dropout) forward(in Tensor) Tensor { return in }

func (l *dropout) spec() LayerSpec { return Dropout(l.rate) }

// ============================================================================
// Dense
// ============================================================================

type dense struct {
	units      int
	inputs     int
	activation string
	weights    []float32 // [unit][input]
	bias       []float32
}

func newDense(s LayerSpec, in Shape, rng *rand.Rand) (*dense, error) {
	if s.Units <= 0 {
		return nil, fmt.Errorf("dense units=%d", s.Units)
	}
	if in.H != 1 || in.W != 1 {
		return nil, fmt.Errorf("dense needs flat input, got %s", in)
	}
	if err := checkActivation(s.Activation); err != nil {
		return nil, err
	}

	weights, bias, err := layerWeights(s, in.C, s.Units, s.Units, rng)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}

	return &dense{
		units:      s.Units,
		inputs:     in.C,
		activation: s.Activation,
		weights:    weights,
		bias:       bias,
	}, nil
}

func (l *dense) outputShape() Shape { return Shape{H: 1, W: 1, C: l.units} }

func (l *dense) params() int { return len(l.weights) + len(l.bias) }

func (l *dense) forward(in Tensor) Tensor {
	out := NewTensor(l.outputShape())
	for u := 0; u < l.units; u++ {
		out.Data[u] = vek32.Dot(in.Data, l.weights[u*l.inputs:(u+1)*l.inputs]) + l.bias[u]
	}
	activate(out.Data, l.activation, l.units)
	return out
}

func (l *dense) spec() LayerSpec {
	return LayerSpec{
		Kind:       KindDense,
		Units:      l.units,
		Activation: l.activation,
		Weights:    l.weights,
		Bias:       l.bias,
	}
}

// ============================================================================
// Weights and activations
// ============================================================================

// layerWeights returns the spec's weights after checking their length, or
// Glorot-uniform weights and zero biases when the spec carries none.
func layerWeights(s LayerSpec, fanIn, units, fanOut int, rng *rand.Rand) ([]float32, []float32, error) {
	want := fanIn * units

	if s.Weights == nil && s.Bias == nil {
		if rng == nil {
			return nil, nil, fmt.Errorf("missing weights")
		}
		limit := math32.Sqrt(6 / float32(fanIn+fanOut))
		weights := make([]float32, want)
		for i := range weights {
			weights[i] = (rng.Float32()*2 - 1) * limit
		}
		return weights, make([]float32, units), nil
	}

	if len(s.Weights) != want {
		return nil, nil, fmt.Errorf("weights length %d, want %d", len(s.Weights), want)
	}
	if len(s.Bias) != units {
		return nil, nil, fmt.Errorf("bias length %d, want %d", len(s.Bias), units)
	}
	return s.Weights, s.Bias, nil
}

func checkActivation(name string) error {
	switch name {
	case "", ActivationLinear, ActivationReLU, ActivationSoftmax:
		return nil
	}
	return fmt.Errorf("unknown activation %q", name)
}

// activate applies the activation in place. Softmax runs over each group of
// width consecutive values (the channel axis).
func activate(data []float32, name string, width int) {
	switch name {
	case ActivationReLU:
		for i, v := range data {
			if v < 0 {
				data[i] = 0
			}
		}
	case ActivationSoftmax:
		for start := 0; start+width <= len(data); start += width {
			softmax(data[start : start+width])
		}
	}
}

func softmax(v []float32) {
	peak := math32.Inf(-1)
	for _, x := range v {
		if x > peak {
			peak = x
		}
	}
	var sum float32
	for i, x := range v {
		v[i] = math32.Exp(x - peak)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
