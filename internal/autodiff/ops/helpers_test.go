package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/backend/cpu"
	"github.com/born-ml/born/internal/tensor"
)

func raw64(t *testing.T, shape tensor.Shape, data ...float64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, shape, tensor.CPU)
	require.NoError(t, err)
	return r
}

// TestReduceBroadcast_ScalarGradient tests scalar gradient broadcasting.
// This is critical for backward pass from scalar loss.
func TestReduceBroadcast_ScalarGradient(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name        string
		targetShape tensor.Shape
		scalarValue float32
	}{
		{"scalar to 1D", tensor.Shape{5}, 1.0},
		{"scalar to 2D", tensor.Shape{3, 4}, 2.5},
		{"scalar to 3D", tensor.Shape{2, 3, 4}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scalarGrad := tensor.Scalar(float64(tt.scalarValue), tensor.Float32, tensor.CPU)

			result := reduceBroadcast(scalarGrad, tt.targetShape, backend)

			require.True(t, result.Shape().Equal(tt.targetShape), "got shape %v", result.Shape())
			for i, val := range result.AsFloat32() {
				assert.Equal(t, tt.scalarValue, val, "element %d", i)
			}
		})
	}
}

func TestReduceBroadcast(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		grad   *tensor.RawTensor
		target tensor.Shape
		want   []float64
	}{
		{"shapes match", raw64(t, tensor.Shape{2}, 1, 2), tensor.Shape{2}, []float64{1, 2}},
		{"to scalar", raw64(t, tensor.Shape{2, 2}, 1, 2, 3, 4), tensor.Shape{}, []float64{10}},
		{"broadcast dim", raw64(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6), tensor.Shape{2, 1}, []float64{6, 15}},
		{"leading dims", raw64(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6), tensor.Shape{3}, []float64{5, 7, 9}},
		{"leading and inner", raw64(t, tensor.Shape{2, 2, 2}, 1, 2, 3, 4, 5, 6, 7, 8), tensor.Shape{2, 1}, []float64{14, 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reduceBroadcast(tt.grad, tt.target, backend)
			assert.True(t, got.Shape().Equal(tt.target), "got shape %v", got.Shape())
			assert.InDeltaSlice(t, tt.want, got.Float64s(), 1e-12)
		})
	}
}

func TestInversePermutation(t *testing.T) {
	assert.Equal(t, []int{1, 2, 0}, inversePermutation([]int{2, 0, 1}))
	assert.Equal(t, []int{1, 0}, inversePermutation([]int{1, 0}))
}
