package alloc

// Block is a single contiguous memory block backing one buffer. The length of Bytes
// is the actual allocated size, which may exceed the size requested from the allocator.
type Block struct {
	Bytes []byte
}

// Size returns the actual byte size of the block.
func (b Block) Size() int64 {
	return int64(len(b.Bytes))
}

// Allocator reserves and releases the single memory block backing a buffer.
type Allocator interface {
	// Allocate reserves a block of at least size bytes whose base address is a multiple
	// of align. Align must be a power of two. The returned block may be larger than
	// requested; the whole of it is usable.
	Allocate(size, align int64) (Block, error)

	// Release frees a block previously returned by Allocate. It must not be called
	// while an accessor callback over the block is executing, and any element cleanup
	// the owning container needs must happen first.
	Release(block Block) error
}
