//go:build linux || freebsd || darwin

package mmapalloc

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/outofforest/tailbuf/alloc"
)

var _ alloc.Allocator = &Allocator{}

// Allocator reserves buffer blocks using anonymous memory mappings. Mappings are
// page-aligned and sized in whole pages, so the actual block size usually exceeds
// the requested one and the extra bytes end up in the last tail region.
type Allocator struct {
	pageSize int64
}

// New returns new mmap allocator.
func New() *Allocator {
	return &Allocator{
		pageSize: int64(os.Getpagesize()),
	}
}

// Allocate maps an anonymous region of whole pages covering at least size bytes.
func (a *Allocator) Allocate(size, align int64) (alloc.Block, error) {
	if size < 0 {
		return alloc.Block{}, errors.Errorf("invalid block size: %d", size)
	}
	if align < 1 || align&(align-1) != 0 {
		return alloc.Block{}, errors.Errorf("invalid block alignment: %d", align)
	}
	if align > a.pageSize {
		return alloc.Block{}, errors.Errorf("alignment %d exceeds page size %d", align, a.pageSize)
	}

	nBytes := (size + a.pageSize - 1) / a.pageSize * a.pageSize
	if nBytes == 0 {
		nBytes = a.pageSize
	}

	data, err := unix.Mmap(-1, 0, int(nBytes), unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return alloc.Block{}, errors.WithStack(err)
	}

	return alloc.Block{Bytes: data}, nil
}

// Release unmaps the block.
func (a *Allocator) Release(block alloc.Block) error {
	return errors.WithStack(unix.Munmap(block.Bytes))
}
