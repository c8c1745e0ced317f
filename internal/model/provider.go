// Package model provides the emotion network used for inference: it loads a
// persisted network at startup and falls back to creating one.
package model

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"slices"
	"time"

	"github.com/justestif/go-moodtunes/internal/cnn"
)

// DefaultPath is the model file location when none is configured.
const DefaultPath = "emotion_model.msgpack"

// ErrIncompatible is returned when a persisted network does not match the
// expected input shape or label set.
var ErrIncompatible = errors.New("incompatible model")

// Origin tells where the provided network came from.
type Origin string

const (
	// OriginLoaded means the network was read from disk.
	OriginLoaded Origin = "loaded"
	// OriginCreated means a new untrained network was built and persisted.
	OriginCreated Origin = "created"
)

// LoadOrCreate loads the network at path. On any failure (missing file,
// corrupt data, incompatible shape) it builds a new untrained network with
// the emotion architecture, writes it to path and returns it. An error is
// returned only when the fallback itself fails.
func LoadOrCreate(path string, labels []string) (*cnn.Network, Origin, error) {
	net, err := Load(path, labels)
	if err == nil {
		log.Printf("Loaded emotion model from %s (%d parameters)", path, net.Params())
		return net, OriginLoaded, nil
	}

	log.Printf("Could not load emotion model from %s: %v", path, err)
	log.Printf("Creating untrained emotion model; predictions are not meaningful until trained weights are provided")

	net, err = Create(path, labels, time.Now().UnixNano())
	if err != nil {
		return nil, "", err
	}
	return net, OriginCreated, nil
}

// Load reads the network at path and checks it against the expected labels
// and the emotion input shape.
func Load(path string, labels []string) (*cnn.Network, error) {
	net, err := cnn.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(net, labels); err != nil {
		return nil, err
	}
	return net, nil
}

// Create builds an untrained emotion network seeded with seed and saves it
// to path.
func Create(path string, labels []string, seed int64) (*cnn.Network, error) {
	net, err := cnn.NewEmotionNetwork(labels, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("building emotion model: %w", err)
	}
	if err := cnn.SaveFile(path, net); err != nil {
		return nil, fmt.Errorf("saving emotion model: %w", err)
	}
	log.Printf("Saved new emotion model to %s (%d parameters)", path, net.Params())
	return net, nil
}

// Validate checks that net takes 48x48x1 input and outputs the given labels
// in order.
func Validate(net *cnn.Network, labels []string) error {
	if got := net.InputShape(); got != cnn.EmotionInput {
		return fmt.Errorf("%w: input shape %s, want %s", ErrIncompatible, got, cnn.EmotionInput)
	}
	if got := net.Labels(); !slices.Equal(got, labels) {
		return fmt.Errorf("%w: labels %v, want %v", ErrIncompatible, got, labels)
	}
	return nil
}
