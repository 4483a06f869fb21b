package cpu

import (
	"github.com/born-ml/born/internal/tensor"
)

// stridedIndex maps a flat index in a row-major output to a flat index in a
// source buffer addressed with arbitrary strides.
type stridedIndex struct {
	out []int
	src []int
}

// broadcastIndex addresses a tensor of shape in while iterating over out.
// Missing leading dims and size-1 dims get stride 0.
func broadcastIndex(in, out tensor.Shape) stridedIndex {
	src := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := offset; i < len(out); i++ {
		if in[i-offset] != 1 {
			src[i] = inStrides[i-offset]
		}
	}
	return stridedIndex{out: out.ComputeStrides(), src: src}
}

func (s stridedIndex) at(i int) int {
	j := 0
	for d, stride := range s.out {
		j += (i / stride) * s.src[d]
		i %= stride
	}
	return j
}

// gather fills dst from src through idx.
func gather[T tensor.Float](dst, src []T, idx stridedIndex) {
	for i := range dst {
		dst[i] = src[idx.at(i)]
	}
}
