package pools

import (
	"strings"
	"sync"

	"github.com/ChristianF88/gcodex/gcode"
)

// GlobalPools provides centralized memory pooling for performance optimization
type GlobalPools struct {
	WordSlices  sync.Pool
	ByteBuffers sync.Pool
	Builders    sync.Pool
}

// Pools is the global instance of memory pools
var Pools = &GlobalPools{
	WordSlices: sync.Pool{
		New: func() interface{} {
			slice := make([]gcode.Word, 0, 64)
			return &slice
		},
	},
	ByteBuffers: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 0, 4096)
			return &buf
		},
	},
	Builders: sync.Pool{
		New: func() interface{} {
			builder := &strings.Builder{}
			builder.Grow(256) // Pre-allocate for a typical rendered block
			return builder
		},
	},
}

// GetWordSlice gets a word slice from the pool and resets it
func (gp *GlobalPools) GetWordSlice() []gcode.Word {
	slicePtr := gp.WordSlices.Get().(*[]gcode.Word)
	*slicePtr = (*slicePtr)[:0] // Reset length while keeping capacity
	return *slicePtr
}

// ReturnWordSlice returns a word slice to the pool
func (gp *GlobalPools) ReturnWordSlice(slice []gcode.Word) {
	if cap(slice) < 4096 { // Prevent memory bloat
		emptySlice := slice[:0]
		gp.WordSlices.Put(&emptySlice)
	}
}

// GetByteBuffer gets a byte buffer from the pool and resets it
func (gp *GlobalPools) GetByteBuffer() []byte {
	bufPtr := gp.ByteBuffers.Get().(*[]byte)
	*bufPtr = (*bufPtr)[:0]
	return *bufPtr
}

// ReturnByteBuffer returns a byte buffer to the pool
func (gp *GlobalPools) ReturnByteBuffer(buf []byte) {
	if cap(buf) < 1<<20 {
		emptyBuf := buf[:0]
		gp.ByteBuffers.Put(&emptyBuf)
	}
}

// GetBuilder gets a string builder from the pool and resets it
func (gp *GlobalPools) GetBuilder() *strings.Builder {
	builder := gp.Builders.Get().(*strings.Builder)
	builder.Reset()
	return builder
}

// ReturnBuilder returns a string builder to the pool
func (gp *GlobalPools) ReturnBuilder(builder *strings.Builder) {
	gp.Builders.Put(builder)
}

// Reset clears all pools (useful for testing)
func (gp *GlobalPools) Reset() {
	gp.WordSlices = sync.Pool{New: gp.WordSlices.New}
	gp.ByteBuffers = sync.Pool{New: gp.ByteBuffers.New}
	gp.Builders = sync.Pool{New: gp.Builders.New}
}
