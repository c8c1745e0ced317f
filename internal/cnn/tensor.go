// Package cnn implements a small sequential convolutional network for
// inference on single-channel images.
//
// Tensors use height-width-channel (HWC) layout with float32 values. A
// Network is immutable once built; Predict allocates its own buffers and is
// safe for concurrent use.
package cnn

import "fmt"

// Shape is the height, width and channel count of a tensor.
type Shape struct {
	H int
	W int
	C int
}

// Size returns the number of elements a tensor of this shape holds.
func (s Shape) Size() int {
	return s.H * s.W * s.C
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.H, s.W, s.C)
}

func (s Shape) valid() bool {
	return s.H > 0 && s.W > 0 && s.C > 0
}

// Tensor is a dense HWC float32 buffer.
type Tensor struct {
	Shape Shape
	Data  []float32
}

// NewTensor allocates a zeroed tensor.
func NewTensor(s Shape) Tensor {
	return Tensor{Shape: s, Data: make([]float32, s.Size())}
}

// index returns the offset of element (y, x, c).
func (t Tensor) index(y, x, c int) int {
	return (y*t.Shape.W+x)*t.Shape.C + c
}
