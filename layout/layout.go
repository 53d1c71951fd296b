package layout

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
)

// MaxRegions is the maximum number of tail regions a buffer may carry.
const MaxRegions = 3

// Slot describes the element type of one tail region.
type Slot struct {
	Size  uintptr
	Align uintptr
}

// SlotOf returns the slot describing elements of type E.
func SlotOf[E any]() Slot {
	var e E
	return Slot{
		Size:  unsafe.Sizeof(e),
		Align: unsafe.Alignof(e),
	}
}

// AlignUp rounds offset up to the next multiple of align. Align must be a power of two.
func AlignUp(offset, align uintptr) uintptr {
	return (offset + align - 1) &^ (align - 1)
}

// Chain computes byte offsets and capacities of tail regions placed back-to-back
// after a fixed-size prefix holding the header and metadata records.
//
// Offsets are deterministic functions of the prefix, slots and counts, and are
// recomputed on every call instead of being cached as absolute pointers.
type Chain struct {
	prefix   uintptr
	align    uintptr
	nRegions int
	slots    [MaxRegions]Slot
	counts   [MaxRegions]int
}

// NewChain creates a chain of tail regions following a prefix of the given size and alignment.
// Counts of all regions but the last fix their exact capacity; the count of the last region
// is only a requested minimum used for sizing the allocation.
func NewChain(prefix, prefixAlign uintptr, slots []Slot, counts []int) (Chain, error) {
	if len(slots) < 1 || len(slots) > MaxRegions {
		return Chain{}, errors.Errorf("invalid number of regions: %d", len(slots))
	}
	if len(counts) != len(slots) {
		return Chain{}, errors.Errorf("number of counts does not match number of regions: %d vs %d",
			len(counts), len(slots))
	}

	ch := Chain{
		prefix:   prefix,
		align:    prefixAlign,
		nRegions: len(slots),
	}
	for i, s := range slots {
		if s.Size == 0 {
			return Chain{}, errors.Errorf("region %d has zero-size elements", i)
		}
		if counts[i] < 0 {
			return Chain{}, errors.Errorf("region %d has negative count: %d", i, counts[i])
		}
		if uint64(counts[i]) > math.MaxInt64/uint64(s.Size) {
			return Chain{}, errors.Errorf("region %d overflows: count %d, element size %d",
				i, counts[i], s.Size)
		}
		if s.Align > ch.align {
			ch.align = s.Align
		}
		ch.slots[i] = s
		ch.counts[i] = counts[i]
	}

	return ch, nil
}

// NumRegions returns the number of tail regions in the chain.
func (ch Chain) NumRegions() int {
	return ch.nRegions
}

// Align returns the alignment required from the base address of the block,
// the maximum of the prefix alignment and all element alignments.
func (ch Chain) Align() uintptr {
	return ch.align
}

// Offset returns the byte offset of region i relative to the block base.
func (ch Chain) Offset(i int) uintptr {
	offset := AlignUp(ch.prefix, ch.slots[0].Align)
	for j := 0; j < i; j++ {
		offset = AlignUp(offset+uintptr(ch.counts[j])*ch.slots[j].Size, ch.slots[j+1].Align)
	}
	return offset
}

// MinSize returns the minimal block size fitting the prefix and all regions at their counts.
func (ch Chain) MinSize() int64 {
	last := ch.nRegions - 1
	return int64(ch.Offset(last) + uintptr(ch.counts[last])*ch.slots[last].Size)
}

// Capacity returns the number of elements region i holds inside a block of the given
// actual size. For all regions but the last the capacity is the exact count recorded
// at creation. The last region spans the remaining bytes of the block, so its capacity
// may exceed the requested count if the allocator rounded the block up.
//
// A block smaller than the region layout is an allocator contract breach and panics.
func (ch Chain) Capacity(i int, actualSize int64) int {
	if i < ch.nRegions-1 {
		return ch.counts[i]
	}

	offset := ch.Offset(i)
	if actualSize < int64(offset) {
		panic(errors.Errorf("allocator contract breach: block size %d is smaller than region offset %d",
			actualSize, offset))
	}
	return int((actualSize - int64(offset)) / int64(ch.slots[i].Size))
}
