package layout

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Region is a typed window into a memory block, identified by the block base and
// a byte offset rather than a freely convertible raw address. All element access
// goes through bounds-checked methods.
type Region[E any] struct {
	base     unsafe.Pointer
	offset   uintptr
	capacity int
}

// NewRegion creates a region of capacity elements of type E starting at the given
// byte offset from base. The offset must be a multiple of the alignment of E.
func NewRegion[E any](base unsafe.Pointer, offset uintptr, capacity int) Region[E] {
	return Region[E]{
		base:     base,
		offset:   offset,
		capacity: capacity,
	}
}

// Capacity returns the number of elements the region holds.
func (r Region[E]) Capacity() int {
	return r.capacity
}

// Slice returns the region elements as a slice. The slice aliases the block memory
// and must not outlive it.
func (r Region[E]) Slice() []E {
	if r.capacity == 0 {
		return nil
	}
	return unsafe.Slice((*E)(unsafe.Add(r.base, r.offset)), r.capacity)
}

// At returns a pointer to element i, or an error if i is outside the region capacity.
func (r Region[E]) At(i int) (*E, error) {
	if i < 0 || i >= r.capacity {
		return nil, errors.Errorf("element index %d is out of range, capacity: %d", i, r.capacity)
	}
	var e E
	return (*E)(unsafe.Add(r.base, r.offset+uintptr(i)*unsafe.Sizeof(e))), nil
}
