package dto

import (
	"fmt"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/pose"
)

// FlattenResult encodes a detection result as a flat numeric map for
// cross-boundary transport: count, width, height, timestamp_ms, then per
// pose i pose_<i>_score and pose_<i>_bbox_{x,y,w,h}, and per keypoint j
// pose_<i>_kp_<j>_{x,y,z,v,d}. Model name and timing are envelope
// concerns and stay outside the map.
func FlattenResult(res *pose.Result) map[string]float64 {
	size := 4
	for _, p := range res.Poses {
		size += 5 + len(p.Landmarks)*5
	}
	values := make(map[string]float64, size)

	values["count"] = float64(len(res.Poses))
	values["width"] = float64(res.SourceWidth)
	values["height"] = float64(res.SourceHeight)
	values["timestamp_ms"] = float64(res.CapturedAt.UnixMilli())

	for i, p := range res.Poses {
		prefix := fmt.Sprintf("pose_%d_", i)
		values[prefix+"score"] = p.Score
		values[prefix+"bbox_x"] = p.Box.X
		values[prefix+"bbox_y"] = p.Box.Y
		values[prefix+"bbox_w"] = p.Box.Width
		values[prefix+"bbox_h"] = p.Box.Height

		for j, lm := range p.Landmarks {
			kp := fmt.Sprintf("%skp_%d_", prefix, j)
			values[kp+"x"] = lm.X
			values[kp+"y"] = lm.Y
			values[kp+"z"] = lm.Z
			values[kp+"v"] = lm.Visibility
			if lm.Detected {
				values[kp+"d"] = 1
			} else {
				values[kp+"d"] = 0
			}
		}
	}

	return values
}

// UnflattenResult rebuilds a result from its flat encoding. Keypoints are
// read in index order until the first missing index, so any landmark count
// round-trips. Timestamps carry millisecond precision only.
func UnflattenResult(values map[string]float64) (*pose.Result, error) {
	count, ok := values["count"]
	if !ok {
		return nil, fmt.Errorf("flat result missing key %q", "count")
	}
	n := int(count)
	if n < 0 {
		return nil, fmt.Errorf("flat result has negative count %d", n)
	}

	res := &pose.Result{
		Poses:        make([]pose.Pose, 0, n),
		SourceWidth:  int(values["width"]),
		SourceHeight: int(values["height"]),
		CapturedAt:   time.UnixMilli(int64(values["timestamp_ms"])),
	}

	for i := 0; i < n; i++ {
		prefix := fmt.Sprintf("pose_%d_", i)
		var p pose.Pose
		var err error
		if p.Score, err = flatValue(values, prefix+"score"); err != nil {
			return nil, err
		}
		if p.Box.X, err = flatValue(values, prefix+"bbox_x"); err != nil {
			return nil, err
		}
		if p.Box.Y, err = flatValue(values, prefix+"bbox_y"); err != nil {
			return nil, err
		}
		if p.Box.Width, err = flatValue(values, prefix+"bbox_w"); err != nil {
			return nil, err
		}
		if p.Box.Height, err = flatValue(values, prefix+"bbox_h"); err != nil {
			return nil, err
		}

		for j := 0; ; j++ {
			kp := fmt.Sprintf("%skp_%d_", prefix, j)
			x, ok := values[kp+"x"]
			if !ok {
				break
			}
			p.Landmarks = append(p.Landmarks, pose.Landmark{
				X:          x,
				Y:          values[kp+"y"],
				Z:          values[kp+"z"],
				Visibility: values[kp+"v"],
				Detected:   values[kp+"d"] != 0,
			})
		}

		res.Poses = append(res.Poses, p)
	}

	return res, nil
}

func flatValue(values map[string]float64, key string) (float64, error) {
	v, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("flat result missing key %q", key)
	}
	return v, nil
}
