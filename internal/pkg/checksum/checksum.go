package checksum

import (
	"encoding/binary"
	"errors"
	"math"

	"rankstream/api/rankpb"

	"github.com/cespare/xxhash/v2"
)

// ErrResultSetTooLong is returned when the result set contains too many items.
var ErrResultSetTooLong = errors.New("result set too long")

// ErrUnexpectedNilElement is returned when the result set unexpectedly contains a nil item.
var ErrUnexpectedNilElement = errors.New("unexpected nil item in result set")

// Sum fingerprints a ResultSet: its version and, in order, every item's
// identifiers and exact score bits. Two result sets with equal sums are
// observably identical.
// The maximum number of items is 2^16-1 (0xffff).
func Sum(rs *rankpb.ResultSet) (uint64, error) {
	if len(rs.Items) > math.MaxUint16 {
		return 0, ErrResultSetTooLong
	}
	d := xxhash.New()
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], rs.Version)
	_, _ = d.Write(buf[:4])
	for _, item := range rs.Items {
		if item == nil {
			return 0, ErrUnexpectedNilElement
		}
		_, _ = d.WriteString(item.ItemID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(item.ResultID)
		_, _ = d.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(item.Score))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64(), nil
}
