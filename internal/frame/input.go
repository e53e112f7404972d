package frame

import (
	"fmt"
	"image"

	"github.com/motionlab-ai/pose-backend/internal/shared"
)

type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

type PlaneFormat string

const (
	FormatRGBA   PlaneFormat = "rgba"
	FormatBGRA   PlaneFormat = "bgra"
	FormatYUV420 PlaneFormat = "yuv420"
	FormatNV21   PlaneFormat = "nv21"
)

// Plane is one buffer of a PlaneSet. PixelStride is the byte step between
// horizontally adjacent samples: 4 for rgba/bgra, 1 or 2 for yuv420 chroma.
// Y and nv21 chroma planes are byte-packed and ignore it.
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// PlaneSet is a raw camera buffer: one interleaved plane for RGBA/BGRA,
// Y+U+V for yuv420, Y+interleaved VU for nv21.
type PlaneSet struct {
	Format PlaneFormat
	Width  int
	Height int
	Planes []Plane
}

// Input carries one frame into the pipeline. Exactly one of Bytes, Path,
// Planes or Image must be set.
type Input struct {
	Bytes    []byte
	Path     string
	Planes   *PlaneSet
	Image    image.Image
	Rotation Rotation
}

func (in Input) sourceCount() int {
	n := 0
	if len(in.Bytes) > 0 {
		n++
	}
	if in.Path != "" {
		n++
	}
	if in.Planes != nil {
		n++
	}
	if in.Image != nil {
		n++
	}
	return n
}

func (ps *PlaneSet) validate() error {
	if ps.Width <= 0 || ps.Height <= 0 {
		return shared.InvalidFrame(fmt.Sprintf("bad dimensions %dx%d", ps.Width, ps.Height))
	}

	switch ps.Format {
	case FormatRGBA, FormatBGRA:
		if len(ps.Planes) != 1 {
			return shared.InvalidFrame(fmt.Sprintf("%s wants 1 plane, got %d", ps.Format, len(ps.Planes)))
		}
		p := ps.Planes[0]
		if p.Data == nil {
			return shared.InvalidFrame("nil pixel plane")
		}
		if p.PixelStride != 4 {
			return shared.InvalidFrame(fmt.Sprintf("%s wants pixel stride 4, got %d", ps.Format, p.PixelStride))
		}
		if p.RowStride < ps.Width*4 {
			return shared.InvalidFrame(fmt.Sprintf("row stride %d shorter than row %d", p.RowStride, ps.Width*4))
		}
		if need := p.RowStride*(ps.Height-1) + ps.Width*4; len(p.Data) < need {
			return shared.InvalidFrame(fmt.Sprintf("pixel plane %d bytes, need %d", len(p.Data), need))
		}

	case FormatYUV420:
		if ps.Width%2 != 0 || ps.Height%2 != 0 {
			return shared.InvalidFrame(fmt.Sprintf("yuv420 wants even dimensions, got %dx%d", ps.Width, ps.Height))
		}
		if len(ps.Planes) != 3 {
			return shared.InvalidFrame(fmt.Sprintf("yuv420 wants 3 planes, got %d", len(ps.Planes)))
		}
		if err := checkPlane(ps.Planes[0], ps.Width, ps.Height, 1, "y"); err != nil {
			return err
		}
		cw, ch := ps.Width/2, ps.Height/2
		if err := checkPlane(ps.Planes[1], cw, ch, ps.Planes[1].PixelStride, "u"); err != nil {
			return err
		}
		if err := checkPlane(ps.Planes[2], cw, ch, ps.Planes[2].PixelStride, "v"); err != nil {
			return err
		}

	case FormatNV21:
		if ps.Width%2 != 0 || ps.Height%2 != 0 {
			return shared.InvalidFrame(fmt.Sprintf("nv21 wants even dimensions, got %dx%d", ps.Width, ps.Height))
		}
		if len(ps.Planes) != 2 {
			return shared.InvalidFrame(fmt.Sprintf("nv21 wants 2 planes, got %d", len(ps.Planes)))
		}
		if err := checkPlane(ps.Planes[0], ps.Width, ps.Height, 1, "y"); err != nil {
			return err
		}
		// interleaved VU rows: width samples of 2 bytes per chroma row
		if err := checkPlane(ps.Planes[1], ps.Width, ps.Height/2, 1, "vu"); err != nil {
			return err
		}

	default:
		return shared.InvalidFrame(fmt.Sprintf("unknown plane format %q", ps.Format))
	}
	return nil
}

func checkPlane(p Plane, w, h, pixelStride int, name string) error {
	if p.Data == nil {
		return shared.InvalidFrame(fmt.Sprintf("nil %s plane", name))
	}
	if pixelStride < 1 {
		return shared.InvalidFrame(fmt.Sprintf("%s plane pixel stride %d", name, pixelStride))
	}
	rowBytes := (w-1)*pixelStride + 1
	if p.RowStride < rowBytes {
		return shared.InvalidFrame(fmt.Sprintf("%s plane row stride %d shorter than row %d", name, p.RowStride, rowBytes))
	}
	if need := p.RowStride*(h-1) + rowBytes; len(p.Data) < need {
		return shared.InvalidFrame(fmt.Sprintf("%s plane %d bytes, need %d", name, len(p.Data), need))
	}
	return nil
}
