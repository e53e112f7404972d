package frame

import (
	"image"
	"image/color"
)

// ToRGBA materializes a validated plane set into an *image.RGBA, honoring
// row and pixel strides.
func (ps *PlaneSet) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, ps.Width, ps.Height))

	switch ps.Format {
	case FormatRGBA:
		copyInterleaved(dst, ps.Planes[0], ps.Width, ps.Height, 0, 1, 2)
	case FormatBGRA:
		copyInterleaved(dst, ps.Planes[0], ps.Width, ps.Height, 2, 1, 0)
	case FormatYUV420:
		yuv420ToRGBA(dst, ps)
	case FormatNV21:
		nv21ToRGBA(dst, ps)
	}
	return dst
}

func copyInterleaved(dst *image.RGBA, p Plane, w, h, ri, gi, bi int) {
	for y := 0; y < h; y++ {
		src := p.Data[y*p.RowStride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			s := x * 4
			d := x * 4
			out[d+0] = src[s+ri]
			out[d+1] = src[s+gi]
			out[d+2] = src[s+bi]
			out[d+3] = src[s+3]
		}
	}
}

func yuv420ToRGBA(dst *image.RGBA, ps *PlaneSet) {
	yp, up, vp := ps.Planes[0], ps.Planes[1], ps.Planes[2]
	for y := 0; y < ps.Height; y++ {
		yRow := yp.Data[y*yp.RowStride:]
		uRow := up.Data[(y/2)*up.RowStride:]
		vRow := vp.Data[(y/2)*vp.RowStride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < ps.Width; x++ {
			cb := uRow[(x/2)*up.PixelStride]
			cr := vRow[(x/2)*vp.PixelStride]
			r, g, b := color.YCbCrToRGB(yRow[x], cb, cr)
			d := x * 4
			out[d+0] = r
			out[d+1] = g
			out[d+2] = b
			out[d+3] = 255
		}
	}
}

func nv21ToRGBA(dst *image.RGBA, ps *PlaneSet) {
	yp, cp := ps.Planes[0], ps.Planes[1]
	for y := 0; y < ps.Height; y++ {
		yRow := yp.Data[y*yp.RowStride:]
		cRow := cp.Data[(y/2)*cp.RowStride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < ps.Width; x++ {
			// VU order
			cr := cRow[(x/2)*2]
			cb := cRow[(x/2)*2+1]
			r, g, b := color.YCbCrToRGB(yRow[x], cb, cr)
			d := x * 4
			out[d+0] = r
			out[d+1] = g
			out[d+2] = b
			out[d+3] = 255
		}
	}
}

// rotateRGBA returns a new image rotated clockwise. Rotate0 returns the
// input unchanged.
func rotateRGBA(src *image.RGBA, r Rotation) *image.RGBA {
	if r == Rotate0 {
		return src
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	switch r {
	case Rotate90:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < w; y++ {
			for x := 0; x < h; x++ {
				copyPixel(dst, x, y, src, y, h-1-x)
			}
		}
	case Rotate180:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				copyPixel(dst, x, y, src, w-1-x, h-1-y)
			}
		}
	case Rotate270:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < w; y++ {
			for x := 0; x < h; x++ {
				copyPixel(dst, x, y, src, w-1-y, x)
			}
		}
	default:
		return src
	}
	return dst
}

func copyPixel(dst *image.RGBA, dx, dy int, src *image.RGBA, sx, sy int) {
	d := dy*dst.Stride + dx*4
	s := sy*src.Stride + sx*4
	copy(dst.Pix[d:d+4], src.Pix[s:s+4])
}
