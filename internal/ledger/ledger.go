package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the envelope every ledger engine operation returns. The commerce
// layer checks Success and forwards Payload; it never reimplements the
// business rules behind the envelope.
type Result struct {
	Success bool
	Error   string
	Payload map[string]json.RawMessage
}

// Engine is the call contract of the platform's ledger engine: atomic pricing,
// purchase confirmation and crediting, nickname availability and support
// resolution. Implementations own the idempotency guarantee for
// ConfirmPurchase, keyed by (orderID, captureID).
type Engine interface {
	QuoteItem(ctx context.Context, itemID string) (*Result, error)
	ConfirmPurchase(ctx context.Context, orderID, captureID string) (*Result, error)
	PurchaseWithBalance(ctx context.Context, orderID string) (*Result, error)
	CheckNickname(ctx context.Context, nickname string) (*Result, error)
	ListCatalog(ctx context.Context, userID string) (*Result, error)
	ResolveTicket(ctx context.Context, resolverID, ticketID string, approve bool, notes string) (*Result, error)
}

// ParseEnvelope decodes a raw {success, error?, ...payload} document. The
// success and error fields are lifted out; everything else stays in Payload
// untouched.
func ParseEnvelope(raw []byte) (*Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("malformed ledger envelope: %w", err)
	}

	res := &Result{Payload: fields}
	if v, ok := fields["success"]; ok {
		if err := json.Unmarshal(v, &res.Success); err != nil {
			return nil, fmt.Errorf("malformed success field in ledger envelope: %w", err)
		}
		delete(fields, "success")
	}
	if v, ok := fields["error"]; ok {
		if err := json.Unmarshal(v, &res.Error); err != nil {
			return nil, fmt.Errorf("malformed error field in ledger envelope: %w", err)
		}
		delete(fields, "error")
	}
	return res, nil
}

// PayloadJSON re-serializes the payload for passthrough responses.
func (r *Result) PayloadJSON() (json.RawMessage, error) {
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger payload: %w", err)
	}
	return raw, nil
}

// PayloadBool reads an optional boolean flag from the payload.
func (r *Result) PayloadBool(key string) bool {
	v, ok := r.Payload[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false
	}
	return b
}

// PayloadString reads an optional string field from the payload.
func (r *Result) PayloadString(key string) string {
	v, ok := r.Payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
