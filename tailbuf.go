// Package tailbuf provides single-allocation buffer objects: one contiguous memory
// block holding a caller-defined header record, an immutable metadata record and
// one to three variable-length tail regions of elements, laid out back-to-back
// with correct alignment.
package tailbuf

import (
	"unsafe"

	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/tailbuf/alloc"
	"github.com/outofforest/tailbuf/layout"
)

// metaOffset returns the byte offset of the metadata record of type M placed after
// a header of type H.
func metaOffset[H, M any]() uintptr {
	var h H
	var m M
	return layout.AlignUp(unsafe.Sizeof(h), unsafe.Alignof(m))
}

// prefixSize returns the combined size of the header and metadata records, including
// the padding between them.
func prefixSize[H, M any]() uintptr {
	var m M
	return metaOffset[H, M]() + unsafe.Sizeof(m)
}

func prefixAlign[H, M any]() uintptr {
	var h H
	var m M
	align := unsafe.Alignof(h)
	if unsafe.Alignof(m) > align {
		align = unsafe.Alignof(m)
	}
	return align
}

func allocateBlock(allocator alloc.Allocator, ch layout.Chain) (alloc.Block, error) {
	block, err := allocator.Allocate(ch.MinSize(), int64(ch.Align()))
	if err != nil {
		return alloc.Block{}, err
	}
	if block.Size() < ch.MinSize() {
		panic(errors.Errorf("allocator contract breach: requested %d bytes, got %d",
			ch.MinSize(), block.Size()))
	}
	return block, nil
}

func blockBase(block alloc.Block) unsafe.Pointer {
	if len(block.Bytes) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(block.Bytes))
}

// region builds the typed window of region i for the current block address. It is
// recomputed on every access instead of being cached as an absolute pointer.
func region[E any](block alloc.Block, ch layout.Chain, i int) layout.Region[E] {
	return layout.NewRegion[E](blockBase(block), ch.Offset(i), ch.Capacity(i, block.Size()))
}

func storeHeader[H comparable](block alloc.Block, h H) {
	if unsafe.Sizeof(h) == 0 {
		return
	}
	*photon.NewFromBytes[H](block.Bytes).V = h
}

func headerOf[H comparable](block alloc.Block) *H {
	var zero H
	if unsafe.Sizeof(zero) == 0 {
		return &zero
	}
	return photon.NewFromBytes[H](block.Bytes).V
}
