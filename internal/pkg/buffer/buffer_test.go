package buffer

import (
	"testing"

	"rankstream/api/rankpb"

	"github.com/stretchr/testify/require"
)

func rs(version uint32, items ...string) *rankpb.ResultSet {
	out := &rankpb.ResultSet{Version: version}
	for _, id := range items {
		out.Items = append(out.Items, &rankpb.ScoredItem{ItemID: id, ResultID: id, Score: 0.5})
	}
	return out
}

func TestBestEmpty(t *testing.T) {
	b := New()
	best := b.Best()
	require.True(t, best.IsEmpty())
	require.Equal(t, uint32(0), best.Version)
	require.Empty(t, best.Items)
	require.Equal(t, "[]", b.Versions().String())
}

func TestBestIgnoresArrivalOrder(t *testing.T) {
	b := New()
	require.Nil(t, b.Put(rs(2, "a")))
	require.Nil(t, b.Put(rs(1, "b")))
	require.Equal(t, uint32(2), b.Best().Version)

	require.Nil(t, b.Put(rs(3, "c")))
	require.Equal(t, uint32(3), b.Best().Version)
	require.Equal(t, Versions{1, 2, 3}, b.Versions())
	require.Equal(t, "[1 2 3]", b.Versions().String())
}

func TestPutLastWriteWins(t *testing.T) {
	b := New()
	first := rs(2, "a")
	second := rs(2, "b", "c")
	b.Put(first)
	prev := b.Put(second)
	require.Same(t, first, prev)
	require.Equal(t, 1, b.Len())
	got, ok := b.Get(2)
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestPutIdempotent(t *testing.T) {
	once, twice := New(), New()
	entry := rs(1, "a", "b")
	once.Put(entry)
	twice.Put(entry)
	twice.Put(entry)
	require.Equal(t, once.Len(), twice.Len())
	require.Equal(t, once.Versions(), twice.Versions())
	require.Equal(t, once.Best(), twice.Best())
}
