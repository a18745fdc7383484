package pool

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorWriter struct {
	err error
}

func (ew *errorWriter) Write(p []byte) (n int, err error) {
	return 0, ew.err
}

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, cap(bb.B))
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(SaveBufferDefaultSize)
	bb.MustWrite([]byte{0x55, 0xAA})
	n, err := bb.Write([]byte{0x55, 0xAA})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x55, 0xAA, 0x55, 0xAA}, bb.Bytes())

	clone := bb.Clone()
	originalCap := cap(bb.B)
	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, originalCap, cap(bb.B))
	assert.Equal(t, []byte{0x55, 0xAA, 0x55, 0xAA}, clone, "clone must survive reset")
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(SaveBufferDefaultSize)
	bb.MustWrite([]byte("JM"))

	var buf bytes.Buffer
	n, err := bb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "JM", buf.String())

	n, err = bb.WriteTo(&errorWriter{err: io.ErrShortWrite})
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, int64(0), n)
}

func TestByteBuffer_Grow(t *testing.T) {
	tests := []struct {
		name     string
		filled   int
		required int
		wantCap  int
	}{
		{"sufficient capacity", 0, 100, SaveBufferDefaultSize},
		{"zero bytes", 0, 0, SaveBufferDefaultSize},
		{"small buffer grows by default size", SaveBufferDefaultSize, 1, 2 * SaveBufferDefaultSize},
		{"huge request", SaveBufferDefaultSize, 10 * SaveBufferDefaultSize, 11 * SaveBufferDefaultSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bb := NewByteBuffer(SaveBufferDefaultSize)
			bb.MustWrite(make([]byte, tt.filled))
			bb.Grow(tt.required)
			assert.Equal(t, tt.wantCap, cap(bb.B))
			assert.Equal(t, tt.filled, bb.Len())
		})
	}

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * SaveBufferDefaultSize
		bb := &ByteBuffer{B: make([]byte, size)}
		bb.Grow(1)
		assert.Equal(t, size+size/4, cap(bb.B))
	})

	t.Run("preserves data", func(t *testing.T) {
		bb := NewByteBuffer(16)
		bb.MustWrite([]byte("Woo!"))
		bb.Grow(SaveBufferDefaultSize * 2)
		assert.Equal(t, []byte("Woo!"), bb.Bytes())
	})
}

func TestDefaultPools(t *testing.T) {
	save := GetSaveBuffer()
	require.NotNil(t, save)
	assert.GreaterOrEqual(t, cap(save.B), SaveBufferDefaultSize)
	assert.Equal(t, 0, save.Len())
	save.MustWrite([]byte("gf"))
	PutSaveBuffer(save)

	stash := GetStashBuffer()
	require.NotNil(t, stash)
	assert.GreaterOrEqual(t, cap(stash.B), StashBufferDefaultSize)
	assert.Equal(t, 0, stash.Len())
	PutStashBuffer(stash)

	require.NotPanics(t, func() {
		PutSaveBuffer(nil)
		PutStashBuffer(nil)
	})
}

func TestByteBufferPool_MaxThreshold(t *testing.T) {
	p := NewByteBufferPool(1024, 4096)

	bb := p.Get()
	bb.Grow(10000)
	require.Greater(t, cap(bb.B), 4096)
	p.Put(bb)

	bb2 := p.Get()
	assert.LessOrEqual(t, cap(bb2.B), 4096, "oversized buffers must not be reused")
	assert.Equal(t, 0, bb2.Len())
}

func TestPool_ConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(seed byte) {
			defer wg.Done()
			bb := GetSaveBuffer()
			defer PutSaveBuffer(bb)

			want := bytes.Repeat([]byte{seed}, 64)
			bb.MustWrite(want)
			assert.Equal(t, want, bb.Bytes())
		}(byte(i))
	}
	wg.Wait()
}

func BenchmarkPool_GetWritePut(b *testing.B) {
	data := make([]byte, 4096)
	for b.Loop() {
		bb := GetSaveBuffer()
		bb.MustWrite(data)
		PutSaveBuffer(bb)
	}
}
