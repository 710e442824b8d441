// Package rankpb defines the wire messages and the gRPC service of the
// rankstream protocol.
//
// The service has a single bidirectional streaming method, Rank. The client
// streams Context messages and the server streams back successively refined
// ResultSet versions.
package rankpb

import "fmt"

// Context is a client request phase.
// Understanding is empty on the first Context of a stream.
type Context struct {
	Query         string `json:"query"`
	ItemID        string `json:"item_id"`
	Understanding string `json:"understanding"`
}

// ScoredItem is a single ranked candidate.
type ScoredItem struct {
	ItemID   string  `json:"item_id"`
	ResultID string  `json:"result_id"`
	Score    float64 `json:"score"`
}

// ResultSet is a versioned, ordered list of scored items.
type ResultSet struct {
	Version uint32        `json:"version"`
	Items   []*ScoredItem `json:"items"`
}

// EmptyResult returns the sentinel ResultSet selected when nothing arrived
// before cutover.
func EmptyResult() *ResultSet {
	return &ResultSet{}
}

// IsEmpty reports whether rs is the EmptyResult sentinel.
func (rs *ResultSet) IsEmpty() bool {
	return rs == nil || (rs.Version == 0 && len(rs.Items) == 0)
}

// Clone returns a deep copy of rs.
func (rs *ResultSet) Clone() *ResultSet {
	if rs == nil {
		return nil
	}
	out := &ResultSet{
		Version: rs.Version,
		Items:   make([]*ScoredItem, len(rs.Items)),
	}
	for i, item := range rs.Items {
		if item == nil {
			continue
		}
		cpy := *item
		out.Items[i] = &cpy
	}
	return out
}

func (c *Context) String() string {
	return fmt.Sprintf("query:%q item_id:%q understanding:%q", c.Query, c.ItemID, c.Understanding)
}

func (rs *ResultSet) String() string {
	return fmt.Sprintf("version:%d items:%d", rs.Version, len(rs.Items))
}

// RequestIDHeader is the metadata key carrying the client's request id.
const RequestIDHeader = "x-request-id"
