package emotion

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// fixedPredictor returns the same scores for every input.
type fixedPredictor struct {
	scores []float32
	err    error
	input  []float32
}

func (p *fixedPredictor) Predict(input []float32) ([]float32, error) {
	p.input = input
	return p.scores, p.err
}

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   Label
	}{
		{"angry", []float32{0.9, 0.05, 0.02, 0.02, 0.01}, Angry},
		{"happy", []float32{0.1, 0.6, 0.1, 0.1, 0.1}, Happy},
		{"surprised", []float32{0, 0, 0, 0, 1}, Surprised},
		{"tie picks first", []float32{0.1, 0.4, 0.1, 0.4, 0}, Happy},
		{"all equal picks first", []float32{0.2, 0.2, 0.2, 0.2, 0.2}, Angry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&fixedPredictor{scores: tt.scores})

			got, err := c.Classify(uniformGray(100, 100, 128), image.Rect(10, 10, 60, 60))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Label != tt.want {
				t.Errorf("Classify() = %s, want %s", got.Label, tt.want)
			}
			if !got.Label.Valid() {
				t.Errorf("Classify() returned unknown label %q", got.Label)
			}
		})
	}
}

func TestClassify_OutputSizeMismatch(t *testing.T) {
	c := NewClassifier(&fixedPredictor{scores: []float32{0.5, 0.5}})

	_, err := c.Classify(uniformGray(50, 50, 0), image.Rect(0, 0, 50, 50))
	if !errors.Is(err, ErrOutputSize) {
		t.Errorf("Classify() error = %v, want ErrOutputSize", err)
	}
}

func TestClassify_PredictorError(t *testing.T) {
	boom := errors.New("boom")
	c := NewClassifier(&fixedPredictor{err: boom})

	_, err := c.Classify(uniformGray(50, 50, 0), image.Rect(0, 0, 50, 50))
	if !errors.Is(err, boom) {
		t.Errorf("Classify() error = %v, want wrapped boom", err)
	}
}

func TestClassify_PassesPreprocessedInput(t *testing.T) {
	p := &fixedPredictor{scores: []float32{0, 1, 0, 0, 0}}
	c := NewClassifier(p)

	if _, err := c.Classify(uniformGray(200, 120, 255), image.Rect(20, 20, 120, 120)); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(p.input) != InputSize*InputSize {
		t.Fatalf("predictor got %d values, want %d", len(p.input), InputSize*InputSize)
	}
	for i, v := range p.input {
		if v != 1 {
			t.Fatalf("input[%d] = %v, want 1", i, v)
		}
	}
}

func TestPreprocess_Range(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 4)})
		}
	}

	input, err := Preprocess(img, img.Bounds())
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	for i, v := range input {
		if v < 0 || v > 1 {
			t.Fatalf("input[%d] = %v outside [0,1]", i, v)
		}
	}
	// Left edge is dark, right edge is bright.
	if input[0] >= input[InputSize-1] {
		t.Errorf("gradient lost: first=%v last=%v", input[0], input[InputSize-1])
	}
}

func TestPreprocess_ClampsRegion(t *testing.T) {
	img := uniformGray(40, 40, 51)

	input, err := Preprocess(img, image.Rect(20, 20, 400, 400))
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	if got := input[0]; got != 0.2 {
		t.Errorf("input[0] = %v, want 0.2", got)
	}
}

func TestPreprocess_EmptyRegion(t *testing.T) {
	img := uniformGray(40, 40, 0)

	_, err := Preprocess(img, image.Rect(100, 100, 150, 150))
	if !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("Preprocess() error = %v, want ErrEmptyRegion", err)
	}
}

func TestArgMax(t *testing.T) {
	tests := []struct {
		scores []float32
		want   int
	}{
		{nil, -1},
		{[]float32{3}, 0},
		{[]float32{1, 3, 2}, 1},
		{[]float32{-5, -1, -1}, 1},
		{[]float32{2, 2}, 0},
	}
	for _, tt := range tests {
		if got := ArgMax(tt.scores); got != tt.want {
			t.Errorf("ArgMax(%v) = %d, want %d", tt.scores, got, tt.want)
		}
	}
}

func TestLabelNames(t *testing.T) {
	want := []string{"Angry", "Happy", "Neutral", "Sad", "Surprised"}
	got := LabelNames()
	if len(got) != len(want) {
		t.Fatalf("LabelNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LabelNames()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
