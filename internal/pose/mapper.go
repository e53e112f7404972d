package pose

import (
	"fmt"

	"github.com/motionlab-ai/pose-backend/internal/decode"
	"github.com/motionlab-ai/pose-backend/internal/profile"
)

// Derivation synthesizes a missing landmark from two others by
// extrapolating past baseB: target = baseB + (baseB - baseA) * factor.
type Derivation struct {
	Target int
	BaseA  int
	BaseB  int
	Factor float64
}

const derivedVisibilityScale = 0.8

// heels sit a short extension past the ankle along the knee-ankle line.
var heelDerivations = []Derivation{
	{Target: LeftHeel, BaseA: LeftKnee, BaseB: LeftAnkle, Factor: 0.15},
	{Target: RightHeel, BaseA: RightKnee, BaseB: RightAnkle, Factor: 0.15},
}

// Mapper converts model-order keypoints into the canonical landmark set.
type Mapper struct {
	table     map[int]int
	identity  bool
	derived   []Derivation
	threshold float64
}

// MapperFor builds the mapper for a profile's source topology, using its
// presence threshold for the detected flag.
func MapperFor(p profile.Profile) (*Mapper, error) {
	m := &Mapper{
		derived:   heelDerivations,
		threshold: float64(p.PresenceThreshold),
	}
	switch p.Topology {
	case profile.TopologyCanonical:
		m.identity = true
	case profile.TopologyCOCO17:
		m.table = coco17ToCanonical
	case profile.TopologyCOCO18:
		m.table = coco18ToCanonical
	default:
		return nil, fmt.Errorf("unknown topology %q", p.Topology)
	}
	return m, nil
}

// Map places each source keypoint into its canonical slot, drops unmapped
// ones, then fills derivable landmarks that the model did not produce.
// Always returns NumLandmarks entries.
func (m *Mapper) Map(raw []decode.RawKeypoint) []Landmark {
	out := make([]Landmark, NumLandmarks)

	for i, kp := range raw {
		var target int
		if m.identity {
			if i >= NumLandmarks {
				continue
			}
			target = i
		} else {
			t, ok := m.table[i]
			if !ok {
				continue
			}
			target = t
		}
		out[target] = Landmark{
			X:          kp.X,
			Y:          kp.Y,
			Z:          kp.Z,
			Visibility: kp.Confidence,
			Detected:   kp.Confidence >= m.threshold,
		}
	}

	for _, d := range m.derived {
		if out[d.Target].Detected {
			continue
		}
		a, b := out[d.BaseA], out[d.BaseB]
		if !a.Detected || !b.Detected {
			continue
		}
		vis := min(a.Visibility, b.Visibility) * derivedVisibilityScale
		out[d.Target] = Landmark{
			X:          b.X + (b.X-a.X)*d.Factor,
			Y:          b.Y + (b.Y-a.Y)*d.Factor,
			Z:          b.Z + (b.Z-a.Z)*d.Factor,
			Visibility: vis,
			Detected:   vis >= m.threshold,
		}
	}

	return out
}
