package detector

import (
	"github.com/m-mizutani/goerr/v2"
	"gocv.io/x/gocv"

	"github.com/ayusman/neurosprint/internal/gesture"
)

// Classify maps raised fingers to a gesture. The thumb is ignored.
func Classify(h HandLandmarks) gesture.Gesture {
	f := h.FingersUp()
	switch {
	case f.Index && !f.Middle && !f.Ring && !f.Pinky:
		return gesture.Neutral
	case !f.Index && !f.Middle && !f.Ring && !f.Pinky:
		return gesture.Rock
	case f.Index && f.Middle && !f.Ring && !f.Pinky:
		return gesture.Scissors
	case f.Index && f.Middle && f.Ring && f.Pinky:
		return gesture.Paper
	}
	return gesture.Unknown
}

// Source classifies one frame into one gesture label.
type Source struct {
	detector Detector
}

// NewSource wraps a landmark detector.
func NewSource(d Detector) *Source {
	return &Source{detector: d}
}

// Classify detects hands in frame and labels the most confident one. A
// frame without a hand is Unknown.
func (s *Source) Classify(frame *gocv.Mat) (gesture.Gesture, error) {
	hands, err := s.detector.Detect(frame)
	if err != nil {
		return gesture.Unknown, goerr.Wrap(err, "detect hands")
	}
	if len(hands) == 0 {
		return gesture.Unknown, nil
	}

	best := hands[0]
	for _, h := range hands[1:] {
		if h.Score > best.Score {
			best = h
		}
	}
	return Classify(best), nil
}

// Close releases the underlying detector.
func (s *Source) Close() error {
	return s.detector.Close()
}
