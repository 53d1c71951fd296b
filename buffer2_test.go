package tailbuf

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/tailbuf/pkg/memalloc"
)

var errTest = errors.New("test error")

func TestTwoRegionCapacities(t *testing.T) {
	requireT := require.New(t)

	// 5 single-byte elements followed by 8-byte aligned ones force padding between
	// the regions.
	b, err := New2[struct{}, byte, uint64](memalloc.New(), 5, 3,
		func(view Regions2[byte, uint64]) (struct{}, error) {
			requireT.Equal(5, view.Capacity1())
			requireT.Equal(3, view.Capacity2())
			return struct{}{}, nil
		})
	requireT.NoError(err)

	requireT.Equal(5, b.Capacity1())
	requireT.Equal(3, b.Capacity2())

	requireT.NoError(b.Release())
}

func TestTwoRegionsDoNotInterfere(t *testing.T) {
	requireT := require.New(t)

	b, err := New2[listHeader, byte, uint64](memalloc.NewPow2(), 5, 3,
		func(view Regions2[byte, uint64]) (listHeader, error) {
			return listHeader{}, nil
		})
	requireT.NoError(err)

	b.WithElements1(func(elems []byte) {
		for i := range elems {
			elems[i] = 0xff
		}
	})
	b.WithElements2(func(elems []uint64) {
		for i := range elems {
			elems[i] = 0xaaaaaaaaaaaaaaaa
		}
	})
	b.WithHeader(func(h *listHeader) {
		h.Length = -1
		h.Capacity = -1
	})

	b.WithAll(func(h *listHeader, elems1 []byte, elems2 []uint64) {
		requireT.Equal(listHeader{Length: -1, Capacity: -1}, *h)
		requireT.Equal(bytes.Repeat([]byte{0xff}, 5), elems1)
		for _, e := range elems2 {
			requireT.EqualValues(uint64(0xaaaaaaaaaaaaaaaa), e)
		}
	})

	requireT.NoError(b.Release())
}

func TestFirstRegionCapacityIsImmutable(t *testing.T) {
	requireT := require.New(t)

	// Rounding affects only the last region, and no amount of header or element
	// mutation may change the recorded count of the first one.
	b, err := New2[listHeader, byte, uint64](memalloc.NewRounded(256), 5, 3,
		func(view Regions2[byte, uint64]) (listHeader, error) {
			return listHeader{}, nil
		})
	requireT.NoError(err)

	requireT.Equal(5, b.Capacity1())
	requireT.GreaterOrEqual(b.Capacity2(), 3)

	b.WithAll(func(h *listHeader, elems1 []byte, elems2 []uint64) {
		h.Length = -1
		for i := range elems1 {
			elems1[i] = 0xff
		}
		for i := range elems2 {
			elems2[i] = 0xffffffffffffffff
		}
	})

	requireT.Equal(5, b.Capacity1())

	requireT.NoError(b.Release())
}

func TestTwoRegionElementAccessIsBoundsChecked(t *testing.T) {
	requireT := require.New(t)

	b, err := New2[struct{}, byte, uint64](memalloc.New(), 5, 3,
		func(view Regions2[byte, uint64]) (struct{}, error) {
			return struct{}{}, nil
		})
	requireT.NoError(err)

	requireT.NoError(b.WithElement1(4, func(e *byte) {
		*e = 1
	}))
	requireT.Error(b.WithElement1(5, func(e *byte) {}))

	requireT.NoError(b.WithElement2(2, func(e *uint64) {
		*e = 1
	}))
	requireT.Error(b.WithElement2(3, func(e *uint64) {}))

	requireT.NoError(b.Release())
}

func TestTwoRegionFactoryFailureReleasesAllocation(t *testing.T) {
	requireT := require.New(t)

	allocator := memalloc.New()
	_, err := New2[struct{}, byte, uint64](allocator, 5, 3,
		func(view Regions2[byte, uint64]) (struct{}, error) {
			return struct{}{}, errTest
		})
	requireT.ErrorIs(err, errTest)
	requireT.Equal(0, allocator.Outstanding())
}
