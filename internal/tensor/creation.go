package tensor

import "fmt"

// FromSlice creates a RawTensor holding a copy of data.
//
// Example:
//
//	raw, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
func FromSlice[T Float](data []T, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, dtypeOf[T](), device)
	if err != nil {
		return nil, err
	}

	switch d := any(data).(type) {
	case []float32:
		copy(raw.AsFloat32(), d)
	case []float64:
		copy(raw.AsFloat64(), d)
	default:
		// Named float types (e.g. type Weight float32) land here.
		for i, v := range data {
			raw.set(i, float64(v))
		}
	}
	return raw, nil
}

// Scalar creates a rank-0 tensor holding value.
func Scalar(value float64, dtype DataType, device Device) *RawTensor {
	return Full(Shape{}, dtype, value, device)
}

// Full creates a tensor filled with value.
// Panics on an invalid shape.
func Full(shape Shape, dtype DataType, value float64, device Device) *RawTensor {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("full: %v", err))
	}
	if value == 0 {
		return raw
	}

	switch dtype {
	case Float32:
		data := raw.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case Float64:
		data := raw.AsFloat64()
		for i := range data {
			data[i] = value
		}
	}
	return raw
}

// OnesLike creates a tensor of ones with the shape, dtype and device of r.
func OnesLike(r *RawTensor) *RawTensor {
	return Full(r.Shape(), r.DType(), 1, r.Device())
}

// ZerosLike creates a tensor of zeros with the shape, dtype and device of r.
func ZerosLike(r *RawTensor) *RawTensor {
	return Full(r.Shape(), r.DType(), 0, r.Device())
}

func (r *RawTensor) set(i int, v float64) {
	switch r.dtype {
	case Float32:
		r.AsFloat32()[i] = float32(v)
	case Float64:
		r.AsFloat64()[i] = v
	}
}
