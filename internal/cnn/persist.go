package cnn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	fileFormat  = "moodtunes-cnn"
	fileVersion = 1
)

// ErrUnknownFormat is returned when a model file is not a network file or
// uses an unsupported version.
var ErrUnknownFormat = errors.New("unknown model file format")

// modelFile is the on-disk representation: architecture plus weights.
type modelFile struct {
	Format  string      `msgpack:"format"`
	Version int         `msgpack:"version"`
	Input   [3]int      `msgpack:"input"`
	Labels  []string    `msgpack:"labels"`
	Layers  []LayerSpec `msgpack:"layers"`
}

// Save writes the network to w.
func Save(w io.Writer, n *Network) error {
	f := modelFile{
		Format:  fileFormat,
		Version: fileVersion,
		Input:   [3]int{n.input.H, n.input.W, n.input.C},
		Labels:  n.labels,
		Layers:  n.specs(),
	}
	if err := msgpack.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return nil
}

// Load reads a network written by Save. Every layer must carry weights of
// the length its declared shape implies.
func Load(r io.Reader) (*Network, error) {
	var f modelFile
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if f.Format != fileFormat || f.Version != fileVersion {
		return nil, fmt.Errorf("%w: %q version %d", ErrUnknownFormat, f.Format, f.Version)
	}

	input := Shape{H: f.Input[0], W: f.Input[1], C: f.Input[2]}
	n, err := Build(input, f.Labels, f.Layers, nil)
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	return n, nil
}

// LoadFile reads a network from path.
func LoadFile(path string) (*Network, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Load(file)
}

// SaveFile writes the network to path, creating parent directories. The file
// is written to a temporary name first and renamed into place.
func SaveFile(path string, n *Network) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, n); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming model file: %w", err)
	}
	return nil
}
