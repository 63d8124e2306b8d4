package fusion

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// PackWeights lays out both operators' biases and weights in the order the
// generated kernel reads them: depthwise bias, depthwise weights by
// (row, col, group, lane), pointwise bias, pointwise weights by
// (out group, in group, in lane, out lane). Channels past the true count are zero.
//
// The attributes are not validated; call IsFusable first.
func PackWeights(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes) []float32 {
	layout := NewLayout(dw, pw)
	dwChannels := dw.Channels()
	dwAligned := layout.IntermediateGroups() * vectorWidth
	outChannels := pw.OutputChannels()
	outAligned := layout.OutputGroups() * vectorWidth
	inChannels := pw.InputChannels()

	data := make([]float32, 0, layout.Len())

	for i := 0; i < dwAligned; i++ {
		data = append(data, biasAt(dw.Bias, i))
	}

	for y := 0; y < layout.KernelH; y++ {
		for x := 0; x < layout.KernelW; x++ {
			for d := 0; d < layout.IntermediateGroups(); d++ {
				for i := 0; i < vectorWidth; i++ {
					ch := d*vectorWidth + i
					if ch < dwChannels {
						data = append(data, dw.Weights.At(0, y, x, ch))
					} else {
						data = append(data, 0)
					}
				}
			}
		}
	}

	for i := 0; i < outAligned; i++ {
		data = append(data, biasAt(pw.Bias, i))
	}

	for d := 0; d < layout.OutputGroups(); d++ {
		for s := 0; s < layout.IntermediateGroups(); s++ {
			for j := 0; j < vectorWidth; j++ {
				for i := 0; i < vectorWidth; i++ {
					src := s*vectorWidth + j
					dst := d*vectorWidth + i
					if src < inChannels && dst < outChannels {
						data = append(data, pw.Weights.At(dst, 0, 0, src))
					} else {
						data = append(data, 0)
					}
				}
			}
		}
	}
	return data
}

func biasAt(bias tensor.Tensor, i int) float32 {
	if i < bias.Len() {
		return bias.Data[i]
	}
	return 0
}

// PackedBuffer is packed constant data in its device byte layout, tagged with
// the element type it was converted to.
type PackedBuffer struct {
	Type tensor.DataType
	Data []byte
	// Len is the number of scalars.
	Len int
}

// Convert encodes values little-endian as dt. Conversion to Float16 rounds to
// nearest even; zeros stay exact zeros.
func Convert(values []float32, dt tensor.DataType) PackedBuffer {
	size := dt.Size()
	data := make([]byte, len(values)*size)
	switch dt {
	case tensor.Float16:
		for i, v := range values {
			binary.LittleEndian.PutUint16(data[i*size:], float16.Fromfloat32(v).Bits())
		}
	case tensor.Float32:
		for i, v := range values {
			binary.LittleEndian.PutUint32(data[i*size:], math.Float32bits(v))
		}
	default:
		panic(fmt.Sprintf("fusion: cannot pack constants as %s", dt))
	}
	return PackedBuffer{Type: dt, Data: data, Len: len(values)}
}

// Float32s decodes the buffer back to float32 values.
func (b PackedBuffer) Float32s() []float32 {
	out := make([]float32, b.Len)
	size := b.Type.Size()
	for i := range out {
		if b.Type == tensor.Float16 {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(b.Data[i*size:])).Float32()
		} else {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.Data[i*size:]))
		}
	}
	return out
}

// Vectors returns the number of 4-wide elements.
func (b PackedBuffer) Vectors() int {
	return b.Len / vectorWidth
}

// Descriptor returns how generated code addresses the buffer: read-only
// constant memory of 4-wide elements.
func (b PackedBuffer) Descriptor() kernel.BufferDescriptor {
	return kernel.BufferDescriptor{
		ElementType: b.Type,
		ElementSize: vectorWidth,
		MemoryType:  kernel.MemoryConstant,
		ReadOnly:    true,
	}
}

// Pack packs the pair and converts it to the weight width of precision.
func Pack(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes, p kernel.Precision) PackedBuffer {
	return Convert(PackWeights(dw, pw), p.WeightsType())
}

// UploadWeights materializes packed as a read-only device buffer and registers it
// in args under the constants name. On failure nothing is registered and the
// allocator's error is returned wrapped.
func UploadWeights(alloc kernel.Allocator, args *kernel.Arguments, packed PackedBuffer) (kernel.Buffer, error) {
	buf, err := alloc.CreateReadOnlyBuffer(packed.Data)
	if err != nil {
		return nil, fmt.Errorf("fusion: upload constants (%d bytes): %w", len(packed.Data), err)
	}
	args.AddBuffer(codegen.ConstantsName, packed.Descriptor(), buf)
	return buf, nil
}
