package capture

import (
	"fmt"
	"image"
)

// FacePolicy decides which detected face is classified.
type FacePolicy string

const (
	// PolicyFirst takes the first region in detector order, with no ranking.
	PolicyFirst FacePolicy = "first"
	// PolicyLargest takes the region with the greatest area; ties go to the
	// earlier region.
	PolicyLargest FacePolicy = "largest"
)

// ParseFacePolicy validates a policy name. Empty selects PolicyFirst.
func ParseFacePolicy(s string) (FacePolicy, error) {
	switch FacePolicy(s) {
	case "", PolicyFirst:
		return PolicyFirst, nil
	case PolicyLargest:
		return PolicyLargest, nil
	}
	return "", fmt.Errorf("unknown face policy %q (want %q or %q)", s, PolicyFirst, PolicyLargest)
}

// Select picks one region. It reports false when faces is empty.
func (p FacePolicy) Select(faces []image.Rectangle) (image.Rectangle, bool) {
	if len(faces) == 0 {
		return image.Rectangle{}, false
	}
	if p != PolicyLargest {
		return faces[0], true
	}

	best := faces[0]
	for _, f := range faces[1:] {
		if area(f) > area(best) {
			best = f
		}
	}
	return best, true
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
