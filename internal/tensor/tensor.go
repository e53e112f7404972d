package tensor

import "fmt"

type DType int

const (
	Float32 DType = iota
	Uint8
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// Tensor is a dense array in either float32 or uint8 storage. Exactly one
// of F32 and U8 is populated, matched by DType.
type Tensor struct {
	Shape []int
	DType DType
	F32   []float32
	U8    []uint8
}

func NewFloat32(shape ...int) *Tensor {
	return &Tensor{
		Shape: shape,
		DType: Float32,
		F32:   make([]float32, Elems(shape)),
	}
}

func NewUint8(shape ...int) *Tensor {
	return &Tensor{
		Shape: shape,
		DType: Uint8,
		U8:    make([]uint8, Elems(shape)),
	}
}

func Elems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func (t *Tensor) Len() int {
	return Elems(t.Shape)
}

// Float returns the element at the flat index regardless of storage type.
func (t *Tensor) Float(i int) float32 {
	if t.DType == Uint8 {
		return float32(t.U8[i])
	}
	return t.F32[i]
}

func (t *Tensor) Validate() error {
	want := t.Len()
	switch t.DType {
	case Float32:
		if len(t.F32) != want {
			return fmt.Errorf("tensor shape %v wants %d elems, have %d float32", t.Shape, want, len(t.F32))
		}
	case Uint8:
		if len(t.U8) != want {
			return fmt.Errorf("tensor shape %v wants %d elems, have %d uint8", t.Shape, want, len(t.U8))
		}
	default:
		return fmt.Errorf("unknown dtype %d", t.DType)
	}
	return nil
}
