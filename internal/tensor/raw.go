package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// storage is a byte buffer shared by shallow clones of a RawTensor.
// Checkpointed states hold clones, so keeping a forward value alive for the
// backward pass never copies it.
type storage struct {
	bytes []byte
	refs  atomic.Int32
}

func newStorage(size int) *storage {
	s := &storage{bytes: make([]byte, size)}
	s.refs.Store(1)
	return s
}

// RawTensor is a dense row-major tensor. The autodiff engine treats it as an
// opaque value and only ever hands it to a Backend.
type RawTensor struct {
	data   *storage
	shape  Shape
	dtype  DataType
	device Device
}

// NewRaw allocates a zero-filled RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		data:   newStorage(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the dimensions. Callers must not modify the result.
func (r *RawTensor) Shape() Shape { return r.shape }

// DType returns the element type.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device returns where the data lives.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the number of elements.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the size of the data in bytes.
func (r *RawTensor) ByteSize() int { return len(r.data.bytes) }

// Data returns the underlying bytes. Writes are visible to every clone.
func (r *RawTensor) Data() []byte { return r.data.bytes }

// AsFloat32 views the data as []float32 without copying.
// Panics if the dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	return view[float32](r, Float32)
}

// AsFloat64 views the data as []float64 without copying.
// Panics if the dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	return view[float64](r, Float64)
}

func view[T Float](r *RawTensor, want DataType) []T {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	if len(r.data.bytes) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&r.data.bytes[0])), r.NumElements())
}

// Float64s returns a float64 copy of the elements.
func (r *RawTensor) Float64s() []float64 {
	if r.dtype == Float64 {
		return append([]float64(nil), r.AsFloat64()...)
	}
	src := r.AsFloat32()
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

// Item returns the only element of a one-element tensor.
// Panics if the tensor holds more than one element.
func (r *RawTensor) Item() float64 {
	if r.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for one-element tensors, got shape %v", r.shape))
	}
	return r.Float64s()[0]
}

// Clone returns a shallow copy sharing r's data.
func (r *RawTensor) Clone() *RawTensor {
	r.data.refs.Add(1)
	c := *r
	c.shape = r.shape.Clone()
	return &c
}

// Release gives up this reference to the data. The last release drops it.
func (r *RawTensor) Release() {
	if r.data.refs.Add(-1) == 0 {
		r.data.bytes = nil
	}
}

// IsUnique reports whether no clone shares r's data.
func (r *RawTensor) IsUnique() bool {
	return r.data.refs.Load() == 1
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}
