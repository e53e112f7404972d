package pose

// Canonical landmark indices. The order follows the 33-point full-body
// convention used by the blazepose family.
const (
	Nose = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	NumLandmarks
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye_inner",
	"left_eye",
	"left_eye_outer",
	"right_eye_inner",
	"right_eye",
	"right_eye_outer",
	"left_ear",
	"right_ear",
	"mouth_left",
	"mouth_right",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_pinky",
	"right_pinky",
	"left_index",
	"right_index",
	"left_thumb",
	"right_thumb",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
	"left_heel",
	"right_heel",
	"left_foot_index",
	"right_foot_index",
}

func LandmarkName(i int) string {
	if i < 0 || i >= NumLandmarks {
		return "unknown"
	}
	return landmarkNames[i]
}

func LandmarkNames() []string {
	return landmarkNames[:]
}

// coco17ToCanonical maps the 17-point coco order onto canonical indices.
var coco17ToCanonical = map[int]int{
	0:  Nose,
	1:  LeftEye,
	2:  RightEye,
	3:  LeftEar,
	4:  RightEar,
	5:  LeftShoulder,
	6:  RightShoulder,
	7:  LeftElbow,
	8:  RightElbow,
	9:  LeftWrist,
	10: RightWrist,
	11: LeftHip,
	12: RightHip,
	13: LeftKnee,
	14: RightKnee,
	15: LeftAnkle,
	16: RightAnkle,
}

// coco18ToCanonical maps the 18-point openpose order. Index 1 is the neck,
// which has no canonical slot and is dropped.
var coco18ToCanonical = map[int]int{
	0:  Nose,
	2:  RightShoulder,
	3:  RightElbow,
	4:  RightWrist,
	5:  LeftShoulder,
	6:  LeftElbow,
	7:  LeftWrist,
	8:  RightHip,
	9:  RightKnee,
	10: RightAnkle,
	11: LeftHip,
	12: LeftKnee,
	13: LeftAnkle,
	14: RightEye,
	15: LeftEye,
	16: RightEar,
	17: LeftEar,
}
