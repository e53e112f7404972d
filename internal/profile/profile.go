package profile

import "fmt"

type Encoding string

const (
	EncodingUint8        Encoding = "uint8"
	EncodingFloat01      Encoding = "float01"
	EncodingPM1          Encoding = "pm1"
	EncodingStandardized Encoding = "standardized"
)

type Layout string

const (
	LayoutNHWC Layout = "nhwc"
	LayoutNCHW Layout = "nchw"
)

type DecodeKind string

const (
	DecodeHeatmap    DecodeKind = "heatmap"
	DecodeRegression DecodeKind = "regression"
)

type RuntimeClass string

const (
	RuntimeLocal  RuntimeClass = "local"
	RuntimeRemote RuntimeClass = "remote"
)

type Tier string

const (
	TierSpeed    Tier = "speed"
	TierAccuracy Tier = "accuracy"
)

// Profile describes everything the pipeline needs to know about one model:
// how to build its input tensor, how to read its output, and where it runs.
type Profile struct {
	Name       string
	InputSize  int
	Encoding   Encoding
	Layout     Layout
	Mean       [3]float32
	Std        [3]float32
	Decode     DecodeKind
	Keypoints  int
	Components int
	Topology   string
	// GridLogits marks heatmap scores as logits needing a sigmoid.
	GridLogits bool
	// HalfPixel shifts heatmap cell coords to cell centers when normalizing.
	HalfPixel         bool
	PresenceThreshold float32
	Runtime           RuntimeClass
	ModelFile         string
	ConfigFile        string
	RemoteModel       string
}

func (p Profile) HasDepth() bool {
	return p.Decode == DecodeRegression && p.Components == 4
}

var catalog = map[string]Profile{
	"movenet-lightning": {
		Name:              "movenet-lightning",
		InputSize:         192,
		Encoding:          EncodingUint8,
		Layout:            LayoutNHWC,
		Decode:            DecodeRegression,
		Keypoints:         17,
		Components:        3,
		Topology:          TopologyCOCO17,
		PresenceThreshold: 0.3,
		Runtime:           RuntimeRemote,
		RemoteModel:       "movenet_singlepose_lightning",
	},
	"movenet-thunder": {
		Name:              "movenet-thunder",
		InputSize:         256,
		Encoding:          EncodingUint8,
		Layout:            LayoutNHWC,
		Decode:            DecodeRegression,
		Keypoints:         17,
		Components:        3,
		Topology:          TopologyCOCO17,
		PresenceThreshold: 0.3,
		Runtime:           RuntimeRemote,
		RemoteModel:       "movenet_singlepose_thunder",
	},
	"blazepose-full": {
		Name:              "blazepose-full",
		InputSize:         256,
		Encoding:          EncodingPM1,
		Layout:            LayoutNHWC,
		Decode:            DecodeRegression,
		Keypoints:         33,
		Components:        4,
		Topology:          TopologyCanonical,
		PresenceThreshold: 0.5,
		Runtime:           RuntimeRemote,
		RemoteModel:       "blazepose_full",
	},
	"openpose-light": {
		Name:              "openpose-light",
		InputSize:         256,
		Encoding:          EncodingFloat01,
		Layout:            LayoutNCHW,
		Decode:            DecodeHeatmap,
		Keypoints:         18,
		Topology:          TopologyCOCO18,
		GridLogits:        true,
		HalfPixel:         true,
		PresenceThreshold: 0.2,
		Runtime:           RuntimeLocal,
		ModelFile:         "pose_iter_160000.caffemodel",
		ConfigFile:        "pose_deploy_linevec_faster_4_stages.prototxt",
	},
	"openpose-full": {
		Name:              "openpose-full",
		InputSize:         368,
		Encoding:          EncodingStandardized,
		Layout:            LayoutNCHW,
		Mean:              [3]float32{0.485, 0.456, 0.406},
		Std:               [3]float32{0.229, 0.224, 0.225},
		Decode:            DecodeHeatmap,
		Keypoints:         18,
		Topology:          TopologyCOCO18,
		GridLogits:        true,
		HalfPixel:         true,
		PresenceThreshold: 0.2,
		Runtime:           RuntimeLocal,
		ModelFile:         "pose_iter_440000.caffemodel",
		ConfigFile:        "pose_deploy_linevec.prototxt",
	},
}

func ByName(name string) (Profile, error) {
	p, ok := catalog[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown model profile %q", name)
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, p := range All() {
		names = append(names, p.Name)
	}
	return names
}

// All returns the catalog in a stable order.
func All() []Profile {
	order := []string{
		"movenet-lightning",
		"movenet-thunder",
		"blazepose-full",
		"openpose-light",
		"openpose-full",
	}
	out := make([]Profile, 0, len(order))
	for _, name := range order {
		out = append(out, catalog[name])
	}
	return out
}

// Select picks the profile for a detector configuration. Depth estimation
// forces the blazepose family; otherwise the tier picks the fast or the
// accurate variant of whichever runtime class is requested.
func Select(tier Tier, depth bool, runtime RuntimeClass) Profile {
	if runtime == RuntimeLocal {
		if tier == TierAccuracy {
			return catalog["openpose-full"]
		}
		return catalog["openpose-light"]
	}
	if depth {
		return catalog["blazepose-full"]
	}
	if tier == TierAccuracy {
		return catalog["movenet-thunder"]
	}
	return catalog["movenet-lightning"]
}
