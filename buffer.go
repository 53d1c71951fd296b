package tailbuf

import (
	"github.com/outofforest/tailbuf/alloc"
	"github.com/outofforest/tailbuf/layout"
)

// metadata of the 1-region variant records nothing, the extent of the only region
// is derived from the actual block size.
type meta1 struct{}

// Buffer is a single allocation holding a header of type H followed by one tail
// region of E elements.
type Buffer[H comparable, E any] struct {
	allocator alloc.Allocator
	block     alloc.Block
}

// Regions is the view of a buffer under construction passed to the header factory.
// It exposes the tail region and its resolved capacity, but not the header, which
// does not exist yet.
type Regions[E any] struct {
	region layout.Region[E]
}

// Capacity returns the resolved capacity of the tail region.
func (r Regions[E]) Capacity() int {
	return r.region.Capacity()
}

// Elements returns the tail region elements. The slice must not be stored past
// the factory call.
func (r Regions[E]) Elements() []E {
	return r.region.Slice()
}

// New creates a buffer with room for at least capacity elements of type E. The
// factory computes the header value. It runs after the tail region is placed, so
// it may read the region and its resolved capacity, while the header itself does
// not exist yet and is not reachable from the view the factory receives.
//
// If the factory fails, the allocation is released and no buffer is created.
func New[H comparable, E any](
	allocator alloc.Allocator,
	capacity int,
	factory func(view Regions[E]) (H, error),
) (*Buffer[H, E], error) {
	ch, err := chain1[H, E](capacity)
	if err != nil {
		return nil, err
	}

	block, err := allocateBlock(allocator, ch)
	if err != nil {
		return nil, err
	}

	b := &Buffer[H, E]{
		allocator: allocator,
		block:     block,
	}

	h, err := factory(Regions[E]{region: region[E](block, b.chain(), 0)})
	if err != nil {
		_ = allocator.Release(block)
		return nil, err
	}

	storeHeader(block, h)

	return b, nil
}

// Capacity returns the resolved capacity of the tail region. It may exceed the
// capacity requested at creation if the allocator rounded the block up.
func (b *Buffer[H, E]) Capacity() int {
	return b.chain().Capacity(0, b.block.Size())
}

// WithHeader calls fn with the buffer header. The pointer is valid only for the
// duration of the call.
func (b *Buffer[H, E]) WithHeader(fn func(h *H)) {
	fn(headerOf[H](b.block))
}

// WithElements calls fn with the tail region elements. The slice is valid only
// for the duration of the call.
func (b *Buffer[H, E]) WithElements(fn func(elems []E)) {
	fn(region[E](b.block, b.chain(), 0).Slice())
}

// WithHeaderAndElements calls fn with the header and the tail region elements.
func (b *Buffer[H, E]) WithHeaderAndElements(fn func(h *H, elems []E)) {
	fn(headerOf[H](b.block), region[E](b.block, b.chain(), 0).Slice())
}

// WithElement calls fn with a pointer to element i of the tail region,
// bounds-checked against the resolved capacity.
func (b *Buffer[H, E]) WithElement(i int, fn func(e *E)) error {
	e, err := region[E](b.block, b.chain(), 0).At(i)
	if err != nil {
		return err
	}
	fn(e)
	return nil
}

// Release frees the buffer allocation. If region elements require cleanup, the
// owning container must do it first. The buffer must not be used afterwards.
func (b *Buffer[H, E]) Release() error {
	return b.allocator.Release(b.block)
}

func (b *Buffer[H, E]) chain() layout.Chain {
	// The count of the last region is not part of the metadata, its extent comes
	// from the actual block size.
	ch, err := chain1[H, E](0)
	if err != nil {
		panic(err)
	}
	return ch
}

func chain1[H, E any](capacity int) (layout.Chain, error) {
	return layout.NewChain(prefixSize[H, meta1](), prefixAlign[H, meta1](),
		[]layout.Slot{layout.SlotOf[E]()},
		[]int{capacity})
}
