package tailbuf

import (
	"github.com/outofforest/photon"

	"github.com/outofforest/tailbuf/alloc"
	"github.com/outofforest/tailbuf/layout"
)

// metadata of the 2-region variant records the element count of the first region.
// It is needed to compute the offset of the second one and is never mutated after
// creation.
type meta2 struct {
	Count1 int64
}

// Buffer2 is a single allocation holding a header of type H followed by two tail
// regions, the first of E1 elements and the second of E2 elements.
type Buffer2[H comparable, E1, E2 any] struct {
	allocator alloc.Allocator
	block     alloc.Block
}

// Regions2 is the view of a buffer under construction passed to the header factory.
// It exposes both tail regions and their capacities, but not the header, which does
// not exist yet.
type Regions2[E1, E2 any] struct {
	region1 layout.Region[E1]
	region2 layout.Region[E2]
}

// Capacity1 returns the capacity of the first tail region.
func (r Regions2[E1, E2]) Capacity1() int {
	return r.region1.Capacity()
}

// Capacity2 returns the resolved capacity of the second tail region.
func (r Regions2[E1, E2]) Capacity2() int {
	return r.region2.Capacity()
}

// Elements1 returns the elements of the first tail region. The slice must not be
// stored past the factory call.
func (r Regions2[E1, E2]) Elements1() []E1 {
	return r.region1.Slice()
}

// Elements2 returns the elements of the second tail region. The slice must not be
// stored past the factory call.
func (r Regions2[E1, E2]) Elements2() []E2 {
	return r.region2.Slice()
}

// New2 creates a buffer with exactly count1 elements of type E1 in the first tail
// region and room for at least capacity2 elements of type E2 in the second one.
// The factory computes the header value after the regions are placed; the header
// is not reachable from the view it receives.
func New2[H comparable, E1, E2 any](
	allocator alloc.Allocator,
	count1, capacity2 int,
	factory func(view Regions2[E1, E2]) (H, error),
) (*Buffer2[H, E1, E2], error) {
	ch, err := chain2[H, E1, E2](count1, capacity2)
	if err != nil {
		return nil, err
	}

	block, err := allocateBlock(allocator, ch)
	if err != nil {
		return nil, err
	}

	b := &Buffer2[H, E1, E2]{
		allocator: allocator,
		block:     block,
	}
	b.meta().Count1 = int64(count1)

	// From here on offsets and capacities are derived from the stored metadata,
	// the same way all later accesses derive them.
	chain := b.chain()
	h, err := factory(Regions2[E1, E2]{
		region1: region[E1](block, chain, 0),
		region2: region[E2](block, chain, 1),
	})
	if err != nil {
		_ = allocator.Release(block)
		return nil, err
	}

	storeHeader(block, h)

	return b, nil
}

// Capacity1 returns the capacity of the first tail region, exactly the count
// requested at creation.
func (b *Buffer2[H, E1, E2]) Capacity1() int {
	return b.chain().Capacity(0, b.block.Size())
}

// Capacity2 returns the resolved capacity of the second tail region. It may exceed
// the capacity requested at creation if the allocator rounded the block up.
func (b *Buffer2[H, E1, E2]) Capacity2() int {
	return b.chain().Capacity(1, b.block.Size())
}

// WithHeader calls fn with the buffer header. The pointer is valid only for the
// duration of the call.
func (b *Buffer2[H, E1, E2]) WithHeader(fn func(h *H)) {
	fn(headerOf[H](b.block))
}

// WithElements1 calls fn with the elements of the first tail region. The slice is
// valid only for the duration of the call.
func (b *Buffer2[H, E1, E2]) WithElements1(fn func(elems []E1)) {
	fn(region[E1](b.block, b.chain(), 0).Slice())
}

// WithElements2 calls fn with the elements of the second tail region. The slice is
// valid only for the duration of the call.
func (b *Buffer2[H, E1, E2]) WithElements2(fn func(elems []E2)) {
	fn(region[E2](b.block, b.chain(), 1).Slice())
}

// WithAll calls fn with the header and both tail regions.
func (b *Buffer2[H, E1, E2]) WithAll(fn func(h *H, elems1 []E1, elems2 []E2)) {
	chain := b.chain()
	fn(headerOf[H](b.block),
		region[E1](b.block, chain, 0).Slice(),
		region[E2](b.block, chain, 1).Slice())
}

// WithElement1 calls fn with a pointer to element i of the first tail region,
// bounds-checked against its capacity.
func (b *Buffer2[H, E1, E2]) WithElement1(i int, fn func(e *E1)) error {
	e, err := region[E1](b.block, b.chain(), 0).At(i)
	if err != nil {
		return err
	}
	fn(e)
	return nil
}

// WithElement2 calls fn with a pointer to element i of the second tail region,
// bounds-checked against its resolved capacity.
func (b *Buffer2[H, E1, E2]) WithElement2(i int, fn func(e *E2)) error {
	e, err := region[E2](b.block, b.chain(), 1).At(i)
	if err != nil {
		return err
	}
	fn(e)
	return nil
}

// Release frees the buffer allocation. If region elements require cleanup, the
// owning container must do it first. The buffer must not be used afterwards.
func (b *Buffer2[H, E1, E2]) Release() error {
	return b.allocator.Release(b.block)
}

func (b *Buffer2[H, E1, E2]) meta() *meta2 {
	return photon.NewFromBytes[meta2](b.block.Bytes[metaOffset[H, meta2]():]).V
}

func (b *Buffer2[H, E1, E2]) chain() layout.Chain {
	ch, err := chain2[H, E1, E2](int(b.meta().Count1), 0)
	if err != nil {
		panic(err)
	}
	return ch
}

func chain2[H, E1, E2 any](count1, capacity2 int) (layout.Chain, error) {
	return layout.NewChain(prefixSize[H, meta2](), prefixAlign[H, meta2](),
		[]layout.Slot{layout.SlotOf[E1](), layout.SlotOf[E2]()},
		[]int{count1, capacity2})
}
