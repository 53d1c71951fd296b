package tailbuf

import (
	"github.com/outofforest/photon"

	"github.com/outofforest/tailbuf/alloc"
	"github.com/outofforest/tailbuf/layout"
)

// metadata of the 3-region variant records the element counts of the first two
// regions. They are needed to compute the offsets of the following regions and are
// never mutated after creation.
type meta3 struct {
	Count1 int64
	Count2 int64
}

// Buffer3 is a single allocation holding a header of type H followed by three tail
// regions of E1, E2 and E3 elements respectively.
type Buffer3[H comparable, E1, E2, E3 any] struct {
	allocator alloc.Allocator
	block     alloc.Block
}

// Regions3 is the view of a buffer under construction passed to the header factory.
// It exposes the three tail regions and their capacities, but not the header, which
// does not exist yet.
type Regions3[E1, E2, E3 any] struct {
	region1 layout.Region[E1]
	region2 layout.Region[E2]
	region3 layout.Region[E3]
}

// Capacity1 returns the capacity of the first tail region.
func (r Regions3[E1, E2, E3]) Capacity1() int {
	return r.region1.Capacity()
}

// Capacity2 returns the capacity of the second tail region.
func (r Regions3[E1, E2, E3]) Capacity2() int {
	return r.region2.Capacity()
}

// Capacity3 returns the resolved capacity of the third tail region.
func (r Regions3[E1, E2, E3]) Capacity3() int {
	return r.region3.Capacity()
}

// Elements1 returns the elements of the first tail region. The slice must not be
// stored past the factory call.
func (r Regions3[E1, E2, E3]) Elements1() []E1 {
	return r.region1.Slice()
}

// Elements2 returns the elements of the second tail region. The slice must not be
// stored past the factory call.
func (r Regions3[E1, E2, E3]) Elements2() []E2 {
	return r.region2.Slice()
}

// Elements3 returns the elements of the third tail region. The slice must not be
// stored past the factory call.
func (r Regions3[E1, E2, E3]) Elements3() []E3 {
	return r.region3.Slice()
}

// New3 creates a buffer with exactly count1 elements of type E1 and count2 elements
// of type E2 in the first two tail regions, and room for at least capacity3 elements
// of type E3 in the third one. The factory computes the header value after the
// regions are placed; the header is not reachable from the view it receives.
func New3[H comparable, E1, E2, E3 any](
	allocator alloc.Allocator,
	count1, count2, capacity3 int,
	factory func(view Regions3[E1, E2, E3]) (H, error),
) (*Buffer3[H, E1, E2, E3], error) {
	ch, err := chain3[H, E1, E2, E3](count1, count2, capacity3)
	if err != nil {
		return nil, err
	}

	block, err := allocateBlock(allocator, ch)
	if err != nil {
		return nil, err
	}

	b := &Buffer3[H, E1, E2, E3]{
		allocator: allocator,
		block:     block,
	}
	meta := b.meta()
	meta.Count1 = int64(count1)
	meta.Count2 = int64(count2)

	// From here on offsets and capacities are derived from the stored metadata,
	// the same way all later accesses derive them.
	chain := b.chain()
	h, err := factory(Regions3[E1, E2, E3]{
		region1: region[E1](block, chain, 0),
		region2: region[E2](block, chain, 1),
		region3: region[E3](block, chain, 2),
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
func (b *Buffer3[H, E1, E2, E3]) Capacity1() int {
	return b.chain().Capacity(0, b.block.Size())
}

// Capacity2 returns the capacity of the second tail region, exactly the count
// requested at creation.
func (b *Buffer3[H, E1, E2, E3]) Capacity2() int {
	return b.chain().Capacity(1, b.block.Size())
}

// Capacity3 returns the resolved capacity of the third tail region. It may exceed
// the capacity requested at creation if the allocator rounded the block up.
func (b *Buffer3[H, E1, E2, E3]) Capacity3() int {
	return b.chain().Capacity(2, b.block.Size())
}

// WithHeader calls fn with the buffer header. The pointer is valid only for the
// duration of the call.
func (b *Buffer3[H, E1, E2, E3]) WithHeader(fn func(h *H)) {
	fn(headerOf[H](b.block))
}

// WithElements1 calls fn with the elements of the first tail region. The slice is
// valid only for the duration of the call.
func (b *Buffer3[H, E1, E2, E3]) WithElements1(fn func(elems []E1)) {
	fn(region[E1](b.block, b.chain(), 0).Slice())
}

// WithElements2 calls fn with the elements of the second tail region. The slice is
// valid only for the duration of the call.
func (b *Buffer3[H, E1, E2, E3]) WithElements2(fn func(elems []E2)) {
	fn(region[E2](b.block, b.chain(), 1).Slice())
}

// WithElements3 calls fn with the elements of the third tail region. The slice is
// valid only for the duration of the call.
func (b *Buffer3[H, E1, E2, E3]) WithElements3(fn func(elems []E3)) {
	fn(region[E3](b.block, b.chain(), 2).Slice())
}

// WithAll calls fn with the header and all three tail regions.
func (b *Buffer3[H, E1, E2, E3]) WithAll(fn func(h *H, elems1 []E1, elems2 []E2, elems3 []E3)) {
	chain := b.chain()
	fn(headerOf[H](b.block),
		region[E1](b.block, chain, 0).Slice(),
		region[E2](b.block, chain, 1).Slice(),
		region[E3](b.block, chain, 2).Slice())
}

// WithElement1 calls fn with a pointer to element i of the first tail region,
// bounds-checked against its capacity.
func (b *Buffer3[H, E1, E2, E3]) WithElement1(i int, fn func(e *E1)) error {
	e, err := region[E1](b.block, b.chain(), 0).At(i)
	if err != nil {
		return err
	}
	fn(e)
	return nil
}

// WithElement2 calls fn with a pointer to element i of the second tail region,
// bounds-checked against its capacity.
func (b *Buffer3[H, E1, E2, E3]) WithElement2(i int, fn func(e *E2)) error {
	e, err := region[E2](b.block, b.chain(), 1).At(i)
	if err != nil {
		return err
	}
	fn(e)
	return nil
}

// WithElement3 calls fn with a pointer to element i of the third tail region,
// bounds-checked against its resolved capacity.
func (b *Buffer3[H, E1, E2, E3]) WithElement3(i int, fn func(e *E3)) error {
	e, err := region[E3](b.block, b.chain(), 2).At(i)
	if err != nil {
		return err
	}
	fn(e)
	return nil
}

// Release frees the buffer allocation. If region elements require cleanup, the
// owning container must do it first. The buffer must not be used afterwards.
func (b *Buffer3[H, E1, E2, E3]) Release() error {
	return b.allocator.Release(b.block)
}

func (b *Buffer3[H, E1, E2, E3]) meta() *meta3 {
	return photon.NewFromBytes[meta3](b.block.Bytes[metaOffset[H, meta3]():]).V
}

func (b *Buffer3[H, E1, E2, E3]) chain() layout.Chain {
	meta := b.meta()
	ch, err := chain3[H, E1, E2, E3](int(meta.Count1), int(meta.Count2), 0)
	if err != nil {
		panic(err)
	}
	return ch
}

func chain3[H, E1, E2, E3 any](count1, count2, capacity3 int) (layout.Chain, error) {
	return layout.NewChain(prefixSize[H, meta3](), prefixAlign[H, meta3](),
		[]layout.Slot{layout.SlotOf[E1](), layout.SlotOf[E2](), layout.SlotOf[E3]()},
		[]int{count1, count2, capacity3})
}
