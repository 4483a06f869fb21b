// Package serialization reads and writes tensor state dictionaries in the
// SafeTensors format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]
//
// Parameters, gradients and optimizer buffers are all plain RawTensors, so a
// single format covers them.
package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/born-ml/born/internal/tensor"
)

// MaxHeaderSize bounds the JSON header accepted by Read.
const MaxHeaderSize = 100 << 20

const metadataKey = "__metadata__"

// TensorHeader describes one tensor in the SafeTensors header.
type TensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Write encodes stateDict to w. Tensors are written in alphabetical order by name.
func Write(w io.Writer, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := slices.Sorted(maps.Keys(stateDict))

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	var offset int64
	for _, name := range names {
		if name == "" || name == metadataKey {
			return &ValidationError{Tensor: name, Err: ErrInvalidTensorName}
		}
		raw := stateDict[name]
		dtype, ok := dtypeToSafeTensors(raw.DType())
		if !ok {
			return &ValidationError{Tensor: name, Err: ErrUnsupportedDType}
		}

		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}
		size := int64(raw.ByteSize())
		header[name] = TensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, name := range names {
		if _, err := w.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// Read decodes a state dictionary written by Write (or any SafeTensors
// producer using F32/F64 tensors). Tensors are placed on the CPU device.
func Read(r io.Reader) (map[string]*tensor.RawTensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var metadata map[string]string
	if m, ok := entries[metadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(entries, metadataKey)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	stateDict := make(map[string]*tensor.RawTensor, len(entries))
	for name, entry := range entries {
		var th TensorHeader
		if err := json.Unmarshal(entry, &th); err != nil {
			return nil, nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		raw, err := decodeTensor(th, data)
		if err != nil {
			return nil, nil, &ValidationError{Tensor: name, Err: err}
		}
		stateDict[name] = raw
	}
	return stateDict, metadata, nil
}

func decodeTensor(th TensorHeader, data []byte) (*tensor.RawTensor, error) {
	dtype, ok := dtypeFromSafeTensors(th.DType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, th.DType)
	}

	start, end := th.DataOffsets[0], th.DataOffsets[1]
	if start < 0 || end < start || end > int64(len(data)) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfBounds, start, end, len(data))
	}

	// The declared shape must match the data span before anything is allocated.
	size := int64(dtype.Size())
	shape := make(tensor.Shape, len(th.Shape))
	for i, dim := range th.Shape {
		if dim < 0 || (dim > 0 && size > math.MaxInt64/dim) {
			return nil, fmt.Errorf("%w: invalid shape %v", ErrShapeMismatch, th.Shape)
		}
		size *= dim
		shape[i] = int(dim)
	}
	if end-start != size {
		return nil, fmt.Errorf("%w: %d bytes for shape %v", ErrShapeMismatch, end-start, th.Shape)
	}

	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	copy(raw.Data(), data[start:end])
	return raw, nil
}

// SaveFile writes stateDict to path.
func SaveFile(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, stateDict, metadata)
}

// LoadFile reads a state dictionary from path.
func LoadFile(path string) (map[string]*tensor.RawTensor, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Read(file)
}

func dtypeToSafeTensors(dt tensor.DataType) (string, bool) {
	switch dt {
	case tensor.Float32:
		return "F32", true
	case tensor.Float64:
		return "F64", true
	default:
		return "", false
	}
}

func dtypeFromSafeTensors(s string) (tensor.DataType, bool) {
	switch s {
	case "F32":
		return tensor.Float32, true
	case "F64":
		return tensor.Float64, true
	default:
		return 0, false
	}
}
