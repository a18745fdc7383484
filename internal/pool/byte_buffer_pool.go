package pool

import (
	"io"
	"sync"
)

// Buffer sizes for the default pools. A character file rarely exceeds a few
// KiB; a shared stash holds dozens of pages.
const (
	SaveBufferDefaultSize   = 1024 * 8        // 8KiB
	SaveBufferMaxThreshold  = 1024 * 64       // 64KiB
	StashBufferDefaultSize  = 1024 * 64       // 64KiB
	StashBufferMaxThreshold = 1024 * 1024 * 2 // 2MiB
)

// ByteBuffer accumulates an encoded file image.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// MustWrite writes data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by SaveBufferDefaultSize, larger ones by 25% of their
// capacity, and never by less than requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	if cap(bb.B)-len(bb.B) >= requiredBytes {
		return
	}

	growBy := SaveBufferDefaultSize
	if cap(bb.B) > 4*SaveBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	growBy = max(growBy, requiredBytes)

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// Clone returns a copy of the buffer contents that outlives the buffer.
func (bb *ByteBuffer) Clone() []byte {
	return append([]byte(nil), bb.B...)
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers whose capacity grew past maxThreshold are dropped on Put instead
// of being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	saveDefaultPool  = NewByteBufferPool(SaveBufferDefaultSize, SaveBufferMaxThreshold)
	stashDefaultPool = NewByteBufferPool(StashBufferDefaultSize, StashBufferMaxThreshold)
)

// GetSaveBuffer retrieves a ByteBuffer sized for a character file.
func GetSaveBuffer() *ByteBuffer {
	return saveDefaultPool.Get()
}

// PutSaveBuffer returns a ByteBuffer to the character file pool.
func PutSaveBuffer(bb *ByteBuffer) {
	saveDefaultPool.Put(bb)
}

// GetStashBuffer retrieves a ByteBuffer sized for a shared stash.
func GetStashBuffer() *ByteBuffer {
	return stashDefaultPool.Get()
}

// PutStashBuffer returns a ByteBuffer to the stash pool.
func PutStashBuffer(bb *ByteBuffer) {
	stashDefaultPool.Put(bb)
}
