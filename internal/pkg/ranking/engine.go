// Package ranking produces versioned result sets for a request.
//
// The ranking function is a collaborator of the streaming protocol: the
// server session handler asks an Engine for version 1, 2 and 3 of a result set
// and streams whatever it returns. Engines must be deterministic: identical
// request and version yield identical items and scores.
package ranking

import (
	"context"

	"rankstream/api/rankpb"
)

// Result set bounds shared by every Engine.
const (
	MinItems   = 5
	MaxItems   = 10
	MaxVersion = 3
)

// Request is the addressing data of one ranking call. It is a plain value;
// copies are independent.
type Request struct {
	Query         string
	ItemID        string
	Understanding string
}

// RequestFromContext copies the addressing data out of a Context message.
func RequestFromContext(msg *rankpb.Context) Request {
	return Request{
		Query:         msg.Query,
		ItemID:        msg.ItemID,
		Understanding: msg.Understanding,
	}
}

// Engine generates the result set for a request at a given version.
type Engine interface {
	Generate(ctx context.Context, req Request, version uint32) (*rankpb.ResultSet, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request, version uint32) (*rankpb.ResultSet, error)

// Generate calls f.
func (f EngineFunc) Generate(ctx context.Context, req Request, version uint32) (*rankpb.ResultSet, error) {
	return f(ctx, req, version)
}
