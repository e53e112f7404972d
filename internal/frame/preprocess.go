package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

var padColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

type Result struct {
	Tensor  *tensor.Tensor
	Mapping Mapping
}

// Preprocess turns one input frame into the profile's model tensor plus the
// mapping that takes model coordinates back to the original frame.
func Preprocess(in Input, p profile.Profile) (*Result, error) {
	if !in.Rotation.Valid() {
		return nil, shared.InvalidFrame(fmt.Sprintf("rotation %d not a quarter turn", in.Rotation))
	}
	switch n := in.sourceCount(); n {
	case 1:
	case 0:
		return nil, shared.InvalidFrame("no frame source set")
	default:
		return nil, shared.InvalidFrame(fmt.Sprintf("%d frame sources set, want 1", n))
	}

	src, err := materialize(in)
	if err != nil {
		return nil, err
	}
	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()

	rotated := rotateRGBA(src, in.Rotation)
	rw := rotated.Bounds().Dx()
	rh := rotated.Bounds().Dy()

	t := p.InputSize
	scale := math.Min(float64(t)/float64(rw), float64(t)/float64(rh))
	newW := int(math.Round(float64(rw) * scale))
	newH := int(math.Round(float64(rh) * scale))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	padX := (t - newW) / 2
	padY := (t - newH) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, t, t))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: padColor}, image.Point{}, draw.Src)
	xdraw.ApproxBiLinear.Scale(canvas,
		image.Rect(padX, padY, padX+newW, padY+newH),
		rotated, rotated.Bounds(), xdraw.Src, nil)

	out := encode(canvas, p)

	sw := float64(rw) * scale
	sh := float64(rh) * scale
	return &Result{
		Tensor: out,
		Mapping: Mapping{
			ScaleX:       float64(t) / sw,
			ScaleY:       float64(t) / sh,
			OffsetX:      float64(padX) / sw,
			OffsetY:      float64(padY) / sh,
			Rotation:     in.Rotation,
			SourceWidth:  srcW,
			SourceHeight: srcH,
		},
	}, nil
}

func materialize(in Input) (*image.RGBA, error) {
	switch {
	case in.Planes != nil:
		if err := in.Planes.validate(); err != nil {
			return nil, err
		}
		return in.Planes.ToRGBA(), nil

	case len(in.Bytes) > 0:
		img, _, err := image.Decode(bytes.NewReader(in.Bytes))
		if err != nil {
			return nil, shared.InvalidFrame(fmt.Sprintf("decode image bytes: %v", err))
		}
		return toRGBA(img), nil

	case in.Path != "":
		f, err := os.Open(in.Path)
		if err != nil {
			return nil, shared.InvalidFrame(fmt.Sprintf("open %s: %v", in.Path, err))
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, shared.InvalidFrame(fmt.Sprintf("decode %s: %v", in.Path, err))
		}
		return toRGBA(img), nil

	default:
		return toRGBA(in.Image), nil
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func encode(img *image.RGBA, p profile.Profile) *tensor.Tensor {
	t := p.InputSize

	var shape []int
	if p.Layout == profile.LayoutNCHW {
		shape = []int{1, 3, t, t}
	} else {
		shape = []int{1, t, t, 3}
	}

	if p.Encoding == profile.EncodingUint8 {
		out := tensor.NewUint8(shape...)
		fill(img, t, p.Layout, func(idx int, c int, v uint8) {
			out.U8[idx] = v
		})
		return out
	}

	out := tensor.NewFloat32(shape...)
	switch p.Encoding {
	case profile.EncodingFloat01:
		fill(img, t, p.Layout, func(idx int, c int, v uint8) {
			out.F32[idx] = float32(v) / 255
		})
	case profile.EncodingPM1:
		fill(img, t, p.Layout, func(idx int, c int, v uint8) {
			out.F32[idx] = float32(v)/127.5 - 1
		})
	case profile.EncodingStandardized:
		fill(img, t, p.Layout, func(idx int, c int, v uint8) {
			out.F32[idx] = (float32(v)/255 - p.Mean[c]) / p.Std[c]
		})
	}
	return out
}

func fill(img *image.RGBA, t int, layout profile.Layout, set func(idx, c int, v uint8)) {
	plane := t * t
	for y := 0; y < t; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < t; x++ {
			s := x * 4
			for c := 0; c < 3; c++ {
				var idx int
				if layout == profile.LayoutNCHW {
					idx = c*plane + y*t + x
				} else {
					idx = (y*t+x)*3 + c
				}
				set(idx, c, row[s+c])
			}
		}
	}
}
