package frame

// Mapping takes normalized model-space coordinates back to normalized
// coordinates in the original frame: it undoes the letterbox first, then
// the rotation. Built by Preprocess alongside the tensor.
type Mapping struct {
	ScaleX   float64
	ScaleY   float64
	OffsetX  float64
	OffsetY  float64
	Rotation Rotation

	SourceWidth  int
	SourceHeight int
}

func (m Mapping) Apply(nx, ny float64) (float64, float64) {
	x := nx*m.ScaleX - m.OffsetX
	y := ny*m.ScaleY - m.OffsetY

	switch m.Rotation {
	case Rotate90:
		x, y = y, 1-x
	case Rotate180:
		x, y = 1-x, 1-y
	case Rotate270:
		x, y = 1-y, x
	}

	return clamp01(x), clamp01(y)
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
