// Package buffer implements the versioned result buffer used to reconcile
// result sets that arrive during one collection pass.
package buffer

import (
	"fmt"
	"sort"
	"strings"

	"rankstream/api/rankpb"
)

// Versions is a list of buffered version numbers.
type Versions []uint32

func (v Versions) String() string {
	arr := make([]string, len(v))
	for i := range v {
		arr[i] = fmt.Sprintf("%d", v[i])
	}
	return "[" + strings.Join(arr, " ") + "]"
}

// Versioned maps a version number to the last ResultSet received for it.
// It is owned by a single collector and is not safe for concurrent use.
type Versioned struct {
	entries map[uint32]*rankpb.ResultSet
}

// New creates an empty Versioned buffer.
func New() *Versioned {
	return &Versioned{
		entries: make(map[uint32]*rankpb.ResultSet),
	}
}

// Put stores rs under its version, replacing any earlier entry for the same
// version. It returns the replaced entry, or nil.
func (b *Versioned) Put(rs *rankpb.ResultSet) *rankpb.ResultSet {
	prev := b.entries[rs.Version]
	b.entries[rs.Version] = rs
	return prev
}

// Get returns the entry stored for version.
func (b *Versioned) Get(version uint32) (*rankpb.ResultSet, bool) {
	rs, ok := b.entries[version]
	return rs, ok
}

// Len returns the number of distinct versions buffered.
func (b *Versioned) Len() int {
	return len(b.entries)
}

// Versions returns the buffered version numbers in ascending order.
func (b *Versioned) Versions() Versions {
	out := make(Versions, 0, len(b.entries))
	for v := range b.entries {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Best returns the entry with the highest version, or EmptyResult if the
// buffer is empty. Arrival order plays no part in the choice.
func (b *Versioned) Best() *rankpb.ResultSet {
	var best *rankpb.ResultSet
	for v, rs := range b.entries {
		if best == nil || v > best.Version {
			best = rs
		}
	}
	if best == nil {
		return rankpb.EmptyResult()
	}
	return best
}
