// Package emotion classifies facial expressions in gray face crops and maps
// the resulting emotions to music moods.
package emotion

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Label is one of the fixed emotion classes.
type Label string

// Emotion labels, in model output order.
const (
	Angry     Label = "Angry"
	Happy     Label = "Happy"
	Neutral   Label = "Neutral"
	Sad       Label = "Sad"
	Surprised Label = "Surprised"
)

// Labels lists the emotion classes in model output order.
var Labels = []Label{Angry, Happy, Neutral, Sad, Surprised}

// LabelNames returns Labels as plain strings.
func LabelNames() []string {
	names := make([]string, len(Labels))
	for i, l := range Labels {
		names[i] = string(l)
	}
	return names
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// InputSize is the side length of the square crop fed to the model.
const InputSize = 48

var (
	// ErrEmptyRegion is returned when the face region lies outside the image.
	ErrEmptyRegion = errors.New("face region is empty")

	// ErrOutputSize is returned when the model emits a score vector whose
	// length differs from the label set.
	ErrOutputSize = errors.New("model output does not match label set")
)

// Predictor runs the model forward pass over one normalized 48x48 sample.
type Predictor interface {
	Predict(input []float32) ([]float32, error)
}

// Prediction is the classifier's answer for one face.
type Prediction struct {
	Label  Label
	Scores []float32
}

// Classifier turns face crops into emotion labels.
type Classifier struct {
	predictor Predictor
}

// NewClassifier creates a classifier backed by p.
func NewClassifier(p Predictor) *Classifier {
	return &Classifier{predictor: p}
}

// Classify crops gray to region, prepares the crop for the model and returns
// the label with the highest score. Equal top scores resolve to the lowest
// label index.
func (c *Classifier) Classify(gray *image.Gray, region image.Rectangle) (Prediction, error) {
	input, err := Preprocess(gray, region)
	if err != nil {
		return Prediction{}, err
	}

	scores, err := c.predictor.Predict(input)
	if err != nil {
		return Prediction{}, fmt.Errorf("running model: %w", err)
	}
	if len(scores) != len(Labels) {
		return Prediction{}, fmt.Errorf("%w: %d scores for %d labels", ErrOutputSize, len(scores), len(Labels))
	}

	return Prediction{
		Label:  Labels[ArgMax(scores)],
		Scores: scores,
	}, nil
}

// Preprocess crops gray to region (clamped to the image bounds), resizes the
// crop to 48x48 with bilinear interpolation and scales intensities to [0, 1].
// The result is a single-channel sample in row-major order.
func Preprocess(gray *image.Gray, region image.Rectangle) ([]float32, error) {
	r := region.Intersect(gray.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("%w: %v not within %v", ErrEmptyRegion, region, gray.Bounds())
	}

	crop := image.NewGray(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(crop, crop.Bounds(), gray, r, draw.Src, nil)

	input := make([]float32, InputSize*InputSize)
	for y := 0; y < InputSize; y++ {
		row := crop.Pix[y*crop.Stride : y*crop.Stride+InputSize]
		for x, v := range row {
			input[y*InputSize+x] = float32(v) / 255
		}
	}
	return input, nil
}

// ArgMax returns the index of the largest score, the first one on ties.
// It returns -1 for an empty slice.
func ArgMax(scores []float32) int {
	best := -1
	for i, s := range scores {
		if best == -1 || s > scores[best] {
			best = i
		}
	}
	return best
}
