package ops

import (
	"github.com/born-ml/born/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}
	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}
	// A scalar gradient flowing into a larger input is spread over it.
	if grad.Shape().Rank() == 0 {
		return backend.Expand(grad, targetShape)
	}

	// Broadcasting aligns shapes from the right, so extra leading dims go first.
	result := grad
	for result.Shape().Rank() > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	for i, dim := range targetShape {
		if dim == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

func negate(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(x, -1)
}

// inversePermutation returns the axes that undo a transpose by axes.
func inversePermutation(axes []int) []int {
	inv := make([]int, len(axes))
	for i, axis := range axes {
		inv[axis] = i
	}
	return inv
}
