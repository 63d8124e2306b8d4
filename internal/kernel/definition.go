// Package kernel holds the contracts between generated GPU operations and the
// execution layer that compiles, binds and dispatches them.
package kernel

import "github.com/born-ml/fusion/internal/tensor"

// Precision selects the arithmetic and storage width of an operation.
type Precision int

// Supported precisions.
const (
	// F32 computes and stores weights in float32.
	F32 Precision = iota
	// F32F16 stores weights in float16 and accumulates in float32.
	F32F16
	// F16 computes and stores weights in float16.
	F16
)

// String returns the short name of the precision.
func (p Precision) String() string {
	switch p {
	case F32:
		return "f32"
	case F32F16:
		return "f32_f16"
	case F16:
		return "f16"
	default:
		return "unknown"
	}
}

// WeightsType returns the element type used for constant weight buffers.
func (p Precision) WeightsType() tensor.DataType {
	if p == F32 {
		return tensor.Float32
	}
	return tensor.Float16
}

// ParsePrecision converts a name produced by String back to a Precision.
func ParsePrecision(name string) (Precision, bool) {
	switch name {
	case "f32", "fp32", "float32":
		return F32, true
	case "f32_f16", "mixed":
		return F32F16, true
	case "f16", "fp16", "float16":
		return F16, true
	default:
		return 0, false
	}
}

// StorageType is the memory object class backing a tensor on the device.
type StorageType int

// Supported storage types.
const (
	StorageBuffer StorageType = iota
	StorageImageBuffer
	StorageTexture2D
	StorageTextureArray
	StorageTexture3D
	StorageSingleTexture2D
)

// String returns the short name of the storage type.
func (s StorageType) String() string {
	switch s {
	case StorageBuffer:
		return "buffer"
	case StorageImageBuffer:
		return "image_buffer"
	case StorageTexture2D:
		return "texture_2d"
	case StorageTextureArray:
		return "texture_array"
	case StorageTexture3D:
		return "texture_3d"
	case StorageSingleTexture2D:
		return "single_texture_2d"
	default:
		return "unknown"
	}
}

// ZeroClampAddressing reports whether reads outside the tensor bounds return zero
// in hardware. Linear buffers have no sampler, so kernels must clamp manually.
func (s StorageType) ZeroClampAddressing() bool {
	return s != StorageBuffer && s != StorageImageBuffer
}

// ParseStorageType converts a name produced by String back to a StorageType.
func ParseStorageType(name string) (StorageType, bool) {
	for s := StorageBuffer; s <= StorageSingleTexture2D; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// AddressMode controls out-of-bounds reads for textures.
type AddressMode int

// Address modes.
const (
	AddressDontCare AddressMode = iota
	AddressZero
)

// TensorDescriptor describes how an activation tensor is stored on the device.
type TensorDescriptor struct {
	DataType    tensor.DataType
	Storage     StorageType
	Batched     bool
	AddressMode AddressMode
}

// HasBatch reports whether the tensor carries a batch axis.
func (d TensorDescriptor) HasBatch() bool { return d.Batched }

// OperationDef is the precision and tensor storage an operation is built for.
type OperationDef struct {
	Precision Precision
	Src       []TensorDescriptor
	Dst       []TensorDescriptor
}

// SrcStorage returns the storage type of the first source tensor.
func (d OperationDef) SrcStorage() StorageType {
	if len(d.Src) == 0 {
		return StorageBuffer
	}
	return d.Src[0].Storage
}

// DstBatched reports whether the first destination tensor has a batch axis.
func (d OperationDef) DstBatched() bool {
	return len(d.Dst) > 0 && d.Dst[0].HasBatch()
}

// NewOperationDef builds a single-input single-output definition where both
// tensors share storage, batching and the data type implied by precision.
func NewOperationDef(p Precision, storage StorageType, batched bool) OperationDef {
	dt := tensor.Float32
	if p == F16 {
		dt = tensor.Float16
	}
	desc := TensorDescriptor{DataType: dt, Storage: storage, Batched: batched}
	return OperationDef{
		Precision: p,
		Src:       []TensorDescriptor{desc},
		Dst:       []TensorDescriptor{desc},
	}
}
