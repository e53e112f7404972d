package backend

// Mode names a hardware acceleration class, not a vendor API. Neural covers
// NPU-style accelerators, graphics covers GPUs.
type Mode string

const (
	ModeNeural   Mode = "neural"
	ModeGraphics Mode = "graphics"
	ModeCPU      Mode = "cpu"
	ModeUnknown  Mode = "unknown"
)

// ParseMode normalizes a preference string. Anything unrecognized comes
// back as ModeUnknown, which Candidates treats as no preference.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeNeural, ModeGraphics, ModeCPU:
		return Mode(s)
	case "":
		return ModeUnknown
	default:
		return ModeUnknown
	}
}

// Candidates builds the fallback order for a preference: the preferred mode
// first, the remaining accelerated modes in neural, graphics order, and cpu
// always closing the list. Preferring cpu skips the accelerated modes
// entirely.
func Candidates(preferred Mode) []Mode {
	if preferred == ModeCPU {
		return []Mode{ModeCPU}
	}

	out := make([]Mode, 0, 3)
	if preferred == ModeNeural || preferred == ModeGraphics {
		out = append(out, preferred)
	}
	for _, m := range []Mode{ModeNeural, ModeGraphics} {
		if len(out) > 0 && out[0] == m {
			continue
		}
		out = append(out, m)
	}
	return append(out, ModeCPU)
}
