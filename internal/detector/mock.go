package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/neurosprint/internal/gesture"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetGesture makes Detect return one hand posed as g. Unknown clears the
// hands, as if nothing were in frame.
func (m *MockDetector) SetGesture(g gesture.Gesture) {
	if g == gesture.Unknown {
		m.SetHands(nil)
		return
	}
	m.SetHands([]HandLandmarks{GestureLandmarks(g)})
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// GestureLandmarks returns a right hand posed as g in a mirrored frame.
// Neutral, rock, scissors and paper get their finger pattern; anything else
// gets index and pinky raised, which classifies as unknown.
func GestureLandmarks(g gesture.Gesture) HandLandmarks {
	switch g {
	case gesture.Neutral:
		return poseHand(Fingers{Index: true})
	case gesture.Rock:
		return poseHand(Fingers{})
	case gesture.Scissors:
		return poseHand(Fingers{Index: true, Middle: true})
	case gesture.Paper:
		return poseHand(Fingers{Thumb: true, Index: true, Middle: true, Ring: true, Pinky: true})
	}
	return poseHand(Fingers{Index: true, Pinky: true})
}

// poseHand lays out a hand with the wrist at the bottom of the frame.
// Raised fingers point up; curled ones fold their tip below the PIP joint.
func poseHand(f Fingers) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.70, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.63, Y: 0.66, Z: 0.03}
	if f.Thumb {
		h.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.60, Z: 0.03}
	} else {
		h.Points[ThumbTip] = Point3D{X: 0.57, Y: 0.68, Z: -0.02}
	}

	fingers := []struct {
		mcp, x float64
		up     bool
		base   int
	}{
		{0.68, 0.56, f.Index, IndexMCP},
		{0.66, 0.50, f.Middle, MiddleMCP},
		{0.68, 0.45, f.Ring, RingMCP},
		{0.70, 0.40, f.Pinky, PinkyMCP},
	}
	for _, fg := range fingers {
		h.Points[fg.base] = Point3D{X: fg.x, Y: fg.mcp}
		if fg.up {
			h.Points[fg.base+1] = Point3D{X: fg.x, Y: fg.mcp - 0.12}
			h.Points[fg.base+2] = Point3D{X: fg.x, Y: fg.mcp - 0.21}
			h.Points[fg.base+3] = Point3D{X: fg.x, Y: fg.mcp - 0.30}
		} else {
			h.Points[fg.base+1] = Point3D{X: fg.x, Y: fg.mcp - 0.03, Z: -0.05}
			h.Points[fg.base+2] = Point3D{X: fg.x - 0.02, Y: fg.mcp - 0.01, Z: -0.04}
			h.Points[fg.base+3] = Point3D{X: fg.x - 0.03, Y: fg.mcp + 0.02, Z: -0.02}
		}
	}
	return h
}
