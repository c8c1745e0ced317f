// Package capture runs the webcam frame pipeline: decode, find a face and
// classify its emotion.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/justestif/go-moodtunes/internal/emotion"
	"github.com/justestif/go-moodtunes/internal/imaging"
)

// Sentinel errors.
var (
	// ErrNoFace is returned when the frame contains no detectable face. It is
	// an expected outcome rather than a failure.
	ErrNoFace = errors.New("No face detected") //nolint:staticcheck // user-facing message

	// ErrInvalidImage wraps payload and decode failures.
	ErrInvalidImage = errors.New("invalid image")

	// ErrDetection wraps face detector failures.
	ErrDetection = errors.New("face detection failed")

	// ErrClassification wraps model failures.
	ErrClassification = errors.New("emotion classification failed")
)

// Error codes returned alongside messages so clients can branch without
// parsing text.
const (
	CodeNoFace         = "no_face"
	CodeInvalidImage   = "invalid_image"
	CodeDetection      = "detection_failed"
	CodeClassification = "classification_failed"
	CodeInternal       = "internal"
)

// Code maps an Analyze error to its error code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNoFace):
		return CodeNoFace
	case errors.Is(err, ErrInvalidImage):
		return CodeInvalidImage
	case errors.Is(err, ErrDetection):
		return CodeDetection
	case errors.Is(err, ErrClassification):
		return CodeClassification
	default:
		return CodeInternal
	}
}

// FaceDetector finds face regions in a gray frame.
type FaceDetector interface {
	Detect(gray *image.Gray) ([]image.Rectangle, error)
}

// EmotionClassifier labels a face region.
type EmotionClassifier interface {
	Classify(gray *image.Gray, region image.Rectangle) (emotion.Prediction, error)
}

// Result is the outcome of a successful analysis.
type Result struct {
	Emotion   emotion.Label
	Face      image.Rectangle
	FaceCount int
	Scores    []float32
}

// Service analyzes captured frames.
type Service struct {
	detector   FaceDetector
	classifier EmotionClassifier
	policy     FacePolicy
	maxPixels  int
}

// Option configures a Service.
type Option func(*Service)

// WithFacePolicy sets how one face is chosen among several.
func WithFacePolicy(p FacePolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithMaxPixels sets the largest accepted frame in pixels.
func WithMaxPixels(n int) Option {
	return func(s *Service) {
		s.maxPixels = n
	}
}

// NewService creates a capture service.
func NewService(detector FaceDetector, classifier EmotionClassifier, opts ...Option) *Service {
	s := &Service{
		detector:   detector,
		classifier: classifier,
		policy:     PolicyFirst,
		maxPixels:  imaging.DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze decodes a data-URL frame and classifies the emotion of the chosen
// face. It returns ErrNoFace when no face is found. Panics raised inside the
// pipeline are recovered and returned as errors.
func (s *Service) Analyze(ctx context.Context, dataURL string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("capture: recovered panic: %v", r)
			res, err = nil, fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, data, err := imaging.ParseDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	img, _, err := imaging.Decode(data, s.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	return s.AnalyzeImage(img)
}

// AnalyzeImage runs detection and classification on a decoded frame.
func (s *Service) AnalyzeImage(img image.Image) (*Result, error) {
	gray := imaging.Grayscale(img)

	faces, err := s.detector.Detect(gray)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	face, ok := s.policy.Select(faces)
	if !ok {
		return nil, ErrNoFace
	}

	pred, err := s.classifier.Classify(gray, face)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	return &Result{
		Emotion:   pred.Label,
		Face:      face,
		FaceCount: len(faces),
		Scores:    pred.Scores,
	}, nil
}
