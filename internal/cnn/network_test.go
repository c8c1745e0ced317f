package cnn

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var testLabels = []string{"Angry", "Happy", "Neutral", "Sad", "Surprised"}

func newTestNetwork(t *testing.T, seed int64) *Network {
	t.Helper()
	n, err := NewEmotionNetwork(testLabels, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return n
}

func rampInput(size int) []float32 {
	in := make([]float32, size)
	for i := range in {
		in[i] = float32(i%256) / 255
	}
	return in
}

func TestEmotionNetwork_Shapes(t *testing.T) {
	n := newTestNetwork(t, 1)

	want := []LayerInfo{
		{Kind: KindConv2D, Output: Shape{46, 46, 32}, Params: 3*3*1*32 + 32},
		{Kind: KindMaxPool2D, Output: Shape{23, 23, 32}},
		{Kind: KindConv2D, Output: Shape{21, 21, 64}, Params: 3*3*32*64 + 64},
		{Kind: KindMaxPool2D, Output: Shape{10, 10, 64}},
		{Kind: KindConv2D, Output: Shape{8, 8, 64}, Params: 3*3*64*64 + 64},
		{Kind: KindMaxPool2D, Output: Shape{4, 4, 64}},
		{Kind: KindFlatten, Output: Shape{1, 1, 1024}},
		{Kind: KindDense, Output: Shape{1, 1, 64}, Params: 1024*64 + 64},
		{Kind: KindDropout, Output: Shape{1, 1, 64}},
		{Kind: KindDense, Output: Shape{1, 1, 5}, Params: 64*5 + 5},
	}

	assert.Equal(t, want, n.Summary())
	assert.Equal(t, EmotionInput, n.InputShape())
	assert.Equal(t, testLabels, n.Labels())
}

func TestPredict_SoftmaxDistribution(t *testing.T) {
	n := newTestNetwork(t, 7)

	scores, err := n.Predict(rampInput(EmotionInput.Size()))
	require.NoError(t, err)
	require.Len(t, scores, len(testLabels))

	var sum float32
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, float32(0))
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestPredict_InputSize(t *testing.T) {
	n := newTestNetwork(t, 1)

	_, err := n.Predict(make([]float32, 10))
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestPredict_DoesNotMutateInput(t *testing.T) {
	n := newTestNetwork(t, 3)
	in := rampInput(EmotionInput.Size())
	orig := append([]float32(nil), in...)

	_, err := n.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, orig, in)
}

func TestBuild_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	small := Shape{H: 4, W: 4, C: 1}

	tests := []struct {
		name   string
		input  Shape
		labels []string
		specs  []LayerSpec
	}{
		{"no labels", small, nil, []LayerSpec{Flatten(), Dense(1, ActivationSoftmax)}},
		{"no layers", small, []string{"a"}, nil},
		{"kernel too large", small, []string{"a"}, []LayerSpec{Conv2D(1, 5, ActivationReLU)}},
		{"dense on spatial input", small, []string{"a"}, []LayerSpec{Dense(1, ActivationLinear)}},
		{"output mismatch", small, []string{"a", "b"}, []LayerSpec{Flatten(), Dense(3, ActivationSoftmax)}},
		{"unknown kind", small, []string{"a"}, []LayerSpec{{Kind: "lstm"}}},
		{"unknown activation", small, []string{"a"}, []LayerSpec{Flatten(), Dense(1, "tanh")}},
		{"bad dropout", small, []string{"a"}, []LayerSpec{Flatten(), Dropout(1), Dense(1, ActivationLinear)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.input, tt.labels, tt.specs, rng)
			assert.Error(t, err)
		})
	}
}

func TestBuild_MissingWeightsWithoutRNG(t *testing.T) {
	_, err := Build(Shape{H: 2, W: 2, C: 1}, []string{"a"}, []LayerSpec{Flatten(), Dense(1, ActivationLinear)}, nil)
	assert.ErrorContains(t, err, "missing weights")
}

func TestDense_KnownWeights(t *testing.T) {
	specs := []LayerSpec{
		Flatten(),
		{Kind: KindDense, Units: 2, Activation: ActivationLinear, Weights: []float32{1, 0, 0, 1, 1, 1}, Bias: []float32{0.5, -1}},
	}
	n, err := Build(Shape{H: 1, W: 1, C: 3}, []string{"a", "b"}, specs, nil)
	require.NoError(t, err)

	// weights row-major per unit: unit0 = [1 0 0], unit1 = [1 1 1]
	out, err := n.Predict([]float32{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float32{2.5, 8}, out)
}

func TestConvAndPool_KnownWeights(t *testing.T) {
	// 3x3 single-channel input, 2x2 kernel of ones -> 2x2 map, pooled to 1x1.
	specs := []LayerSpec{
		{Kind: KindConv2D, Filters: 1, Kernel: 2, Activation: ActivationReLU, Weights: []float32{1, 1, 1, 1}, Bias: []float32{0}},
		MaxPool2D(2),
		Flatten(),
	}
	n, err := Build(Shape{H: 3, W: 3, C: 1}, []string{"only"}, specs, nil)
	require.NoError(t, err)

	out, err := n.Predict([]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	require.NoError(t, err)
	// windows sum to 12, 16, 24, 28
	assert.Equal(t, []float32{28}, out)
}

func TestSoftmax_Stable(t *testing.T) {
	v := []float32{1000, 1000, 1000, 1000}
	softmax(v)
	for _, x := range v {
		assert.InDelta(t, 0.25, x, 1e-6)
	}
}

func TestSaveLoad_PreservesPredictions(t *testing.T) {
	n := newTestNetwork(t, 42)
	in := rampInput(EmotionInput.Size())

	want, err := n.Predict(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, n))

	loaded, err := Load(&buf)
	require.NoError(t, err)

	got, err := loaded.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, n.Params(), loaded.Params())
}

func TestLoad_RejectsForeignFormat(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"format": "keras", "version": 1})
	require.NoError(t, err)

	_, err = Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad_RejectsTruncatedWeights(t *testing.T) {
	n := newTestNetwork(t, 1)
	f := modelFile{
		Format:  fileFormat,
		Version: fileVersion,
		Input:   [3]int{48, 48, 1},
		Labels:  testLabels,
		Layers:  n.specs(),
	}
	f.Layers[0].Weights = f.Layers[0].Weights[:10]

	data, err := msgpack.Marshal(&f)
	require.NoError(t, err)

	_, err = Load(bytes.NewReader(data))
	assert.ErrorContains(t, err, "weights length")
}

func TestLoad_Garbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a model")))
	assert.Error(t, err)
}

func TestSaveFile_CreatesDirectories(t *testing.T) {
	n := newTestNetwork(t, 5)
	path := filepath.Join(t.TempDir(), "nested", "model.msgpack")

	require.NoError(t, SaveFile(path, n))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, n.Summary(), loaded.Summary())
}
