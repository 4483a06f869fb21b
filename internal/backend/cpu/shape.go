package cpu

import (
	"fmt"

	"github.com/born-ml/born/internal/tensor"
)

// Reshape returns a copy of t with a new shape holding the same number of elements.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}

	result := cpu.alloc("reshape", newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the dimensions of t. Without axes, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d doesn't match tensor dimensions %d", len(axes), ndim))
	}

	newShape := make(tensor.Shape, ndim)
	seen := make([]bool, ndim)
	for i, axis := range axes {
		if axis < 0 || axis >= ndim || seen[axis] {
			panic(fmt.Sprintf("transpose: invalid permutation %v for %dD tensor", axes, ndim))
		}
		seen[axis] = true
		newShape[i] = shape[axis]
	}

	result := cpu.alloc("transpose", newShape, t.DType())

	// Input strides reordered to output dimension order.
	oldStrides := shape.ComputeStrides()
	idx := stridedIndex{out: newShape.ComputeStrides(), src: make([]int, ndim)}
	for i, axis := range axes {
		idx.src[i] = oldStrides[axis]
	}

	switch t.DType() {
	case tensor.Float32:
		gather(result.AsFloat32(), t.AsFloat32(), idx)
	case tensor.Float64:
		gather(result.AsFloat64(), t.AsFloat64(), idx)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

// Expand broadcasts x to shape, materializing the repeated values.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot broadcast %v to %v", x.Shape(), shape))
	}

	result := cpu.alloc("expand", shape, x.DType())
	idx := broadcastIndex(x.Shape(), shape)

	switch x.DType() {
	case tensor.Float32:
		gather(result.AsFloat32(), x.AsFloat32(), idx)
	case tensor.Float64:
		gather(result.AsFloat64(), x.AsFloat64(), idx)
	default:
		panic(fmt.Sprintf("expand: unsupported dtype %s", x.DType()))
	}

	return result
}
