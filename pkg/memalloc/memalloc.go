package memalloc

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/outofforest/tailbuf/alloc"
)

var _ alloc.Allocator = &Allocator{}

// Allocator allocates buffer blocks from the Go heap. Depending on the constructor
// used it hands out blocks of exactly the requested size or rounds them up, which
// makes it useful both as the default allocator and as a mock exercising capacity
// resolution in tests.
type Allocator struct {
	round       func(size int64) int64
	limit       int64
	outstanding map[*byte][]byte
	allocated   int64
}

// New returns an allocator handing out blocks of exactly the requested size.
func New() *Allocator {
	return &Allocator{
		round:       func(size int64) int64 { return size },
		outstanding: map[*byte][]byte{},
	}
}

// NewRounded returns an allocator rounding block sizes up to a multiple of granularity.
func NewRounded(granularity int64) *Allocator {
	if granularity < 1 {
		panic(errors.Errorf("invalid granularity: %d", granularity))
	}
	return &Allocator{
		round: func(size int64) int64 {
			return (size + granularity - 1) / granularity * granularity
		},
		outstanding: map[*byte][]byte{},
	}
}

// NewPow2 returns an allocator rounding block sizes up to the next power of two.
func NewPow2() *Allocator {
	return &Allocator{
		round: func(size int64) int64 {
			rounded := int64(1)
			for rounded < size {
				rounded <<= 1
			}
			return rounded
		},
		outstanding: map[*byte][]byte{},
	}
}

// NewLimited returns an exact-size allocator refusing to hold more than limit bytes
// of outstanding blocks at a time.
func NewLimited(limit int64) *Allocator {
	a := New()
	a.limit = limit
	return a
}

// Allocate reserves a block of at least size bytes aligned to align.
func (a *Allocator) Allocate(size, align int64) (alloc.Block, error) {
	if size < 0 {
		return alloc.Block{}, errors.Errorf("invalid block size: %d", size)
	}
	if align < 1 || align&(align-1) != 0 {
		return alloc.Block{}, errors.Errorf("invalid block alignment: %d", align)
	}

	rounded := a.round(size)
	if a.limit > 0 && a.allocated+rounded > a.limit {
		return alloc.Block{}, errors.Errorf("out of memory: %d bytes requested, %d of %d used",
			rounded, a.allocated, a.limit)
	}

	// Over-allocating by the alignment guarantees an aligned base exists inside
	// the raw slice regardless of where the runtime placed it.
	raw := make([]byte, rounded+align)
	base := uintptr(unsafe.Pointer(&raw[0]))
	offset := int64(0)
	if rem := base % uintptr(align); rem != 0 {
		offset = align - int64(rem)
	}

	block := alloc.Block{Bytes: raw[offset : offset+rounded]}
	a.outstanding[unsafe.SliceData(block.Bytes)] = raw
	a.allocated += rounded

	return block, nil
}

// Release frees a block previously returned by Allocate.
func (a *Allocator) Release(block alloc.Block) error {
	key := unsafe.SliceData(block.Bytes)
	if _, exists := a.outstanding[key]; !exists {
		return errors.New("block does not belong to this allocator")
	}
	delete(a.outstanding, key)
	a.allocated -= block.Size()
	return nil
}

// Outstanding returns the number of blocks allocated and not yet released.
func (a *Allocator) Outstanding() int {
	return len(a.outstanding)
}
