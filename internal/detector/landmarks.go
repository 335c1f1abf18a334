// Package detector turns camera frames into hand landmarks and classifies
// them into trainer gestures.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in normalized image coordinates: x grows to the
// right, y grows downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Fingers records which fingers are raised.
type Fingers struct {
	Thumb, Index, Middle, Ring, Pinky bool
}

var fingerJoints = [4][2]int{
	{IndexTip, IndexPIP},
	{MiddleTip, MiddlePIP},
	{RingTip, RingPIP},
	{PinkyTip, PinkyPIP},
}

// FingersUp applies the finger-up rule to a mirrored frame: a finger is up
// when its tip is above its PIP joint, the thumb when its tip is right of
// its IP joint.
func (h HandLandmarks) FingersUp() Fingers {
	var up [4]bool
	for i, j := range fingerJoints {
		up[i] = h.Points[j[0]].Y < h.Points[j[1]].Y
	}
	return Fingers{
		Thumb:  h.Points[ThumbTip].X > h.Points[ThumbIP].X,
		Index:  up[0],
		Middle: up[1],
		Ring:   up[2],
		Pinky:  up[3],
	}
}
