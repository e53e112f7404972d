package profile

// Source topology names. The pose package owns the index tables; profiles
// only name which one their output uses.
const (
	TopologyCanonical = "canonical33"
	TopologyCOCO17    = "coco17"
	TopologyCOCO18    = "coco18"
)
