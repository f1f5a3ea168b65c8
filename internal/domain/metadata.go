package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type PurchaseKind string

const (
	PurchaseKindCreditPackage  PurchaseKind = "credit_package"
	PurchaseKindMembership     PurchaseKind = "membership"
	PurchaseKindServiceRequest PurchaseKind = "service_request"
)

// PurchaseMetadata tags an order with what was bought. Unknown kinds are
// accepted and carried through untouched so newer catalog entries do not
// require a deploy here; Extra holds any fields this service does not model.
type PurchaseMetadata struct {
	Kind           PurchaseKind      `json:"kind"`
	Credits        int64             `json:"credits,omitempty"`
	PlanCode       string            `json:"plan_code,omitempty"`
	RequestedValue string            `json:"requested_value,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

func (m PurchaseMetadata) Validate() error {
	if m.Kind == "" {
		return fmt.Errorf("purchase kind is required: %w", ErrValidation)
	}
	switch m.Kind {
	case PurchaseKindCreditPackage:
		if m.Credits <= 0 {
			return fmt.Errorf("credit package requires a positive credit count: %w", ErrValidation)
		}
	case PurchaseKindMembership:
		if m.PlanCode == "" {
			return fmt.Errorf("membership requires a plan code: %w", ErrValidation)
		}
	case PurchaseKindServiceRequest:
		if m.RequestedValue == "" {
			return fmt.Errorf("service request requires a requested value: %w", ErrValidation)
		}
	}
	return nil
}

func (m PurchaseMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *PurchaseMetadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = PurchaseMetadata{}
		return nil
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
}
