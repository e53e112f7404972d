package pose

import "sort"

const boxPadding = 0.1

// Assemble scores a landmark set and computes its padded bounding box.
// Returns false when no landmark is detected; such a candidate carries no
// signal and is excluded from results.
func Assemble(landmarks []Landmark) (Pose, bool) {
	sum := 0.0
	n := 0
	minX, minY := 1.0, 1.0
	maxX, maxY := 0.0, 0.0
	for _, lm := range landmarks {
		if !lm.Detected {
			continue
		}
		n++
		sum += lm.Visibility
		if lm.X < minX {
			minX = lm.X
		}
		if lm.Y < minY {
			minY = lm.Y
		}
		if lm.X > maxX {
			maxX = lm.X
		}
		if lm.Y > maxY {
			maxY = lm.Y
		}
	}
	if n == 0 {
		return Pose{}, false
	}

	padX := (maxX - minX) * boxPadding
	padY := (maxY - minY) * boxPadding
	x0 := clamp01(minX - padX)
	y0 := clamp01(minY - padY)
	x1 := clamp01(maxX + padX)
	y1 := clamp01(maxY + padY)

	return Pose{
		Landmarks: landmarks,
		Score:     sum / float64(n),
		Box: BoundingBox{
			X:      x0,
			Y:      y0,
			Width:  x1 - x0,
			Height: y1 - y0,
		},
	}, true
}

// Rank filters poses below minConfidence, sorts the rest by score
// descending, and caps the list at maxPoses.
func Rank(poses []Pose, minConfidence float64, maxPoses int) []Pose {
	kept := make([]Pose, 0, len(poses))
	for _, p := range poses {
		if p.Score >= minConfidence {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if maxPoses > 0 && len(kept) > maxPoses {
		kept = kept[:maxPoses]
	}
	return kept
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
