package memalloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestExactSize(t *testing.T) {
	requireT := require.New(t)

	a := New()
	block, err := a.Allocate(100, 8)
	requireT.NoError(err)
	requireT.EqualValues(100, block.Size())
	requireT.Equal(1, a.Outstanding())

	requireT.NoError(a.Release(block))
	requireT.Equal(0, a.Outstanding())
}

func TestAlignment(t *testing.T) {
	requireT := require.New(t)

	a := New()
	for _, align := range []int64{1, 8, 64, 4096} {
		block, err := a.Allocate(10, align)
		requireT.NoError(err)
		requireT.EqualValues(0, uintptr(unsafe.Pointer(unsafe.SliceData(block.Bytes)))%uintptr(align))
		requireT.NoError(a.Release(block))
	}
}

func TestRounded(t *testing.T) {
	requireT := require.New(t)

	a := NewRounded(16)

	block, err := a.Allocate(10, 1)
	requireT.NoError(err)
	requireT.EqualValues(16, block.Size())

	block2, err := a.Allocate(16, 1)
	requireT.NoError(err)
	requireT.EqualValues(16, block2.Size())

	block3, err := a.Allocate(17, 1)
	requireT.NoError(err)
	requireT.EqualValues(32, block3.Size())
}

func TestPow2(t *testing.T) {
	requireT := require.New(t)

	a := NewPow2()

	block, err := a.Allocate(100, 1)
	requireT.NoError(err)
	requireT.EqualValues(128, block.Size())

	block2, err := a.Allocate(128, 1)
	requireT.NoError(err)
	requireT.EqualValues(128, block2.Size())
}

func TestLimited(t *testing.T) {
	requireT := require.New(t)

	a := NewLimited(100)

	block, err := a.Allocate(80, 1)
	requireT.NoError(err)

	_, err = a.Allocate(80, 1)
	requireT.Error(err)

	requireT.NoError(a.Release(block))

	block2, err := a.Allocate(80, 1)
	requireT.NoError(err)
	requireT.NoError(a.Release(block2))
}

func TestInvalidRequests(t *testing.T) {
	requireT := require.New(t)

	a := New()

	_, err := a.Allocate(-1, 8)
	requireT.Error(err)

	_, err = a.Allocate(10, 0)
	requireT.Error(err)

	_, err = a.Allocate(10, 3)
	requireT.Error(err)
}

func TestReleaseUnknownBlock(t *testing.T) {
	requireT := require.New(t)

	a := New()
	other := New()
	block, err := other.Allocate(10, 1)
	requireT.NoError(err)

	requireT.Error(a.Release(block))

	requireT.NoError(other.Release(block))
	requireT.Error(other.Release(block))
}
