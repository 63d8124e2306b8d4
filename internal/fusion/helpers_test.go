package fusion

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// ramp fills a tensor with distinct small values: offset + scale*linear index.
func ramp(shape tensor.Shape, scale, offset float32) tensor.Tensor {
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = offset + scale*float32(i+1)
	}
	t, err := tensor.FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// pair builds a depthwise conv with the given channels and kernel followed by a
// 1x1 conv producing outputs channels.
func pair(channels, kh, kw, outputs int) (ops.DepthwiseConv2DAttributes, ops.Conv2DAttributes) {
	dw := ops.NewDepthwiseConv2DAttributes(
		ramp(tensor.Shape{1, kh, kw, channels}, 1, 0),
		ramp(tensor.Shape{channels}, 1, 1000),
	)
	pw := ops.NewConv2DAttributes(
		ramp(tensor.Shape{outputs, 1, 1, channels}, 1, 2000),
		ramp(tensor.Shape{outputs}, 1, 3000),
	)
	return dw, pw
}

// scenarioA is 8 channels, 3x3 depthwise, 16 outputs.
func scenarioA() (ops.DepthwiseConv2DAttributes, ops.Conv2DAttributes) {
	return pair(8, 3, 3, 16)
}

var errDeviceLost = errors.New("device lost")

type fakeBuffer struct {
	size     uint64
	released atomic.Int32
}

func (b *fakeBuffer) Size() uint64          { return b.size }
func (b *fakeBuffer) Device() tensor.Device { return tensor.WebGPU }
func (b *fakeBuffer) Release()              { b.released.Add(1) }

// fakeAllocator records uploads and fails with err when set.
type fakeAllocator struct {
	err error

	mu      sync.Mutex
	uploads [][]byte
	buffers []*fakeBuffer
}

func (a *fakeAllocator) CreateReadOnlyBuffer(data []byte) (kernel.Buffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads = append(a.uploads, append([]byte(nil), data...))
	if a.err != nil {
		return nil, a.err
	}
	buf := &fakeBuffer{size: uint64(len(data))}
	a.buffers = append(a.buffers, buf)
	return buf, nil
}
