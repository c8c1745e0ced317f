// Package vision detects face regions with an OpenCV Haar cascade.
package vision

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// DefaultCascadePath is the frontal face cascade shipped with OpenCV.
	DefaultCascadePath = "haarcascade_frontalface_default.xml"

	// DefaultScaleFactor is the image pyramid step between detection scales.
	DefaultScaleFactor = 1.3

	// DefaultMinNeighbors is how many overlapping hits a region needs to be kept.
	DefaultMinNeighbors = 5
)

// ErrCascadeLoad is returned when the cascade file cannot be loaded.
var ErrCascadeLoad = errors.New("failed to load face cascade classifier")

// CascadeDetector finds faces in gray images. Detection calls are
// serialized because the classifier reuses internal buffers.
type CascadeDetector struct {
	mu           sync.Mutex
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
}

// Option configures a CascadeDetector.
type Option func(*CascadeDetector)

// WithScaleFactor overrides the pyramid scale factor. Values <= 1 are ignored.
func WithScaleFactor(f float64) Option {
	return func(d *CascadeDetector) {
		if f > 1 {
			d.scaleFactor = f
		}
	}
}

// WithMinNeighbors overrides the neighbor threshold. Negative values are ignored.
func WithMinNeighbors(n int) Option {
	return func(d *CascadeDetector) {
		if n >= 0 {
			d.minNeighbors = n
		}
	}
}

// WithMinSize sets the smallest face size reported.
func WithMinSize(side int) Option {
	return func(d *CascadeDetector) {
		if side > 0 {
			d.minSize = image.Pt(side, side)
		}
	}
}

// NewCascadeDetector loads the cascade XML at path.
func NewCascadeDetector(path string, opts ...Option) (*CascadeDetector, error) {
	d := &CascadeDetector{
		scaleFactor:  DefaultScaleFactor,
		minNeighbors: DefaultMinNeighbors,
	}
	for _, opt := range opts {
		opt(d)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, path)
	}
	d.classifier = classifier

	log.Printf("Face detector initialized (scale=%.2f, minNeighbors=%d)", d.scaleFactor, d.minNeighbors)
	return d, nil
}

// Detect returns face regions in the order the cascade reports them.
// Coordinates are relative to gray's bounds.
func (d *CascadeDetector) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	if gray.Bounds().Empty() {
		return nil, nil
	}

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("converting image to mat: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(mat, d.scaleFactor, d.minNeighbors, 0, d.minSize, image.Point{})
	d.mu.Unlock()

	offset := gray.Bounds().Min
	for i := range rects {
		rects[i] = rects[i].Add(offset)
	}
	return rects, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
