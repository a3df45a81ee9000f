package keeper

import (
	"context"

	"github.com/systmms/secretkeeper/pkg/keeper"
)

// Operation names recognized by Handle.
const (
	OpCreate = "create"
	OpGet    = "get"
	OpDelete = "delete"
	OpList   = "list"
)

// Request is the transport-agnostic shape of an inbound operation. The
// requester id is trusted: authentication happens upstream.
type Request struct {
	Operation   string  `json:"operation"`
	RequesterID string  `json:"requester_id"`
	Payload     Payload `json:"payload"`
}

// Payload carries the operation-specific fields.
type Payload struct {
	// Secret is the plaintext for create.
	Secret string `json:"secret,omitempty"`

	// TTL is the requested lifetime in seconds for create. Zero means the
	// configured default.
	TTL int64 `json:"ttl,omitempty"`

	// SecretID addresses get and delete.
	SecretID string `json:"secret_id,omitempty"`

	// BurnAfterRead asks get to delete the secret after a successful read.
	BurnAfterRead bool `json:"burn_after_read,omitempty"`
}

// Response is the structured result of a dispatched operation. Status is the
// stable error-kind string; internal error details never appear here.
type Response struct {
	Status   string  `json:"status"`
	SecretID string  `json:"secret_id,omitempty"`
	Secret   string  `json:"secret,omitempty"`
	Deleted  bool    `json:"deleted,omitempty"`
	Items    []Entry `json:"items,omitempty"`
}

// Handle dispatches a request to the matching operation. Unknown operations
// fail with ErrInvalidRequest. The returned Response always carries a status
// kind, also on failure.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	var resp Response
	var err error

	switch req.Operation {
	case OpCreate:
		var id string
		id, err = s.Create(ctx, req.RequesterID, []byte(req.Payload.Secret), req.Payload.TTL)
		resp.SecretID = id

	case OpGet:
		var plaintext []byte
		plaintext, err = s.Get(ctx, req.RequesterID, req.Payload.SecretID, req.Payload.BurnAfterRead)
		resp.Secret = string(plaintext)

	case OpDelete:
		err = s.Delete(ctx, req.RequesterID, req.Payload.SecretID)
		resp.Deleted = err == nil

	case OpList:
		resp.Items, err = s.List(ctx, req.RequesterID)

	default:
		err = keeper.InvalidRequestError{Reason: "unknown operation: " + req.Operation}
	}

	resp.Status = keeper.StatusKind(err)
	if err != nil {
		return Response{Status: resp.Status}, err
	}
	return resp, nil
}
