package cpu

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fusion/internal/tensor"
)

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.Equal(t, MemoryStats{}, backend.MemoryStats())
}

func TestCreateReadOnlyBuffer(t *testing.T) {
	backend := New()
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	buf, err := backend.CreateReadOnlyBuffer(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), buf.Size())
	assert.Equal(t, tensor.CPU, buf.Device())

	// The buffer owns a copy.
	data[0] = 99
	assert.Equal(t, byte(1), buf.(*HostBuffer).Bytes()[0])

	assert.Equal(t, MemoryStats{AllocatedBytes: 8, Buffers: 1}, backend.MemoryStats())
}

func TestHostBuffer_Release(t *testing.T) {
	backend := New()
	buf, err := backend.CreateReadOnlyBuffer(make([]byte, 16))
	require.NoError(t, err)

	buf.Release()
	assert.Equal(t, uint64(0), buf.Size())
	assert.Nil(t, buf.(*HostBuffer).Bytes())
	assert.Equal(t, MemoryStats{}, backend.MemoryStats())

	// Second release is a no-op.
	buf.Release()
	assert.Equal(t, MemoryStats{}, backend.MemoryStats())
}

func TestNewWithLimit(t *testing.T) {
	backend := NewWithLimit(32)

	first, err := backend.CreateReadOnlyBuffer(make([]byte, 24))
	require.NoError(t, err)

	_, err = backend.CreateReadOnlyBuffer(make([]byte, 16))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.Equal(t, 1, backend.MemoryStats().Buffers)

	first.Release()
	_, err = backend.CreateReadOnlyBuffer(make([]byte, 16))
	assert.NoError(t, err)
}

func TestCreateReadOnlyBuffer_Concurrent(t *testing.T) {
	backend := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := backend.CreateReadOnlyBuffer(make([]byte, 64))
			if err != nil {
				t.Error(err)
				return
			}
			buf.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, MemoryStats{}, backend.MemoryStats())
}
