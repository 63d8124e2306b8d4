package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/born-ml/fusion/internal/tensor"
)

// ChecksumKey is the metadata key holding the data section checksum.
const ChecksumKey = "sha256"

// Entry is one named tensor to write.
type Entry struct {
	Name  string
	DType tensor.DataType
	Shape []int
	Data  []byte
}

// Header describes one tensor in a SafeTensors header.
type Header struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes entries to w in the given order. The checksum of the
// data section is added to metadata under ChecksumKey.
func WriteSafeTensors(w io.Writer, entries []Entry, metadata map[string]string) error {
	header := make(map[string]any, len(entries)+1)
	var data bytes.Buffer
	for _, e := range entries {
		if e.Name == "" || e.Name == "__metadata__" {
			return fmt.Errorf("%w: %q", ErrInvalidTensorName, e.Name)
		}
		dtype, err := dtypeName(e.DType)
		if err != nil {
			return err
		}
		if want := tensor.Shape(e.Shape).NumElements() * e.DType.Size(); want != len(e.Data) {
			return fmt.Errorf("tensor %q: shape %v needs %d bytes, have %d", e.Name, e.Shape, want, len(e.Data))
		}
		shape := make([]int64, len(e.Shape))
		for i, d := range e.Shape {
			shape[i] = int64(d)
		}
		start := int64(data.Len())
		data.Write(e.Data)
		header[e.Name] = Header{DType: dtype, Shape: shape, DataOffsets: [2]int64{start, int64(data.Len())}}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[ChecksumKey] = Checksum(data.Bytes())
	header["__metadata__"] = meta

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
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// File is a decoded SafeTensors file.
type File struct {
	Tensors  map[string]Header
	Metadata map[string]string
	Data     []byte
}

// Tensor returns the raw bytes of the named tensor.
func (f *File) Tensor(name string) ([]byte, bool) {
	h, ok := f.Tensors[name]
	if !ok {
		return nil, false
	}
	return f.Data[h.DataOffsets[0]:h.DataOffsets[1]], true
}

// ReadSafeTensors decodes a file written by WriteSafeTensors, checking offsets
// and, when present, the data checksum.
func ReadSafeTensors(r io.Reader) (*File, error) {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if size > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, size)
	}
	headerJSON := make([]byte, size)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	f := &File{Tensors: make(map[string]Header, len(raw)), Data: data}
	for name, msg := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &f.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		var h Header
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		if h.DataOffsets[0] < 0 || h.DataOffsets[0] > h.DataOffsets[1] || h.DataOffsets[1] > int64(len(data)) {
			return nil, fmt.Errorf("%w: tensor %q offsets %v, data %d bytes", ErrOutOfBounds, name, h.DataOffsets, len(data))
		}
		f.Tensors[name] = h
	}
	if want, ok := f.Metadata[ChecksumKey]; ok {
		if err := ValidateChecksum(data, want); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func dtypeName(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Float16:
		return "F16", nil
	case tensor.Int32:
		return "I32", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDType, dt)
	}
}
