// Package tensor provides the primitive tensor representation consumed by the
// autodiff engine and the numeric backends behind it.
package tensor

import (
	"fmt"
	"unsafe"
)

// Float is a constraint for the element types the engine differentiates.
type Float interface {
	~float32 | ~float64
}

// DataType identifies the element type of a RawTensor at runtime.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
)

var dtypeInfo = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Float64: {"float64", 8},
}

func (dt DataType) valid() bool {
	return dt >= 0 && int(dt) < len(dtypeInfo)
}

// Size returns the byte size of one element.
// Panics on an unknown data type.
func (dt DataType) Size() int {
	if !dt.valid() {
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
	return dtypeInfo[dt].size
}

// String returns the Go name of the element type.
func (dt DataType) String() string {
	if !dt.valid() {
		return "unknown"
	}
	return dtypeInfo[dt].name
}

// dtypeOf returns the DataType T is stored as. Named float types map onto
// their underlying type.
func dtypeOf[T Float]() DataType {
	var zero T
	if unsafe.Sizeof(zero) == 4 {
		return Float32
	}
	return Float64
}
