package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSnapshot is the copy of an address stored on an order as jsonb.
// Later edits to the source address never touch it.
type AddressSnapshot struct {
	FullName   string  `json:"full_name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// Value marshals the snapshot into a JSON document.
func (a AddressSnapshot) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("address: missing city")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal %w", err)
	}
	return string(payload), nil
}

// Scan decodes a JSON document produced by Value.
func (a *AddressSnapshot) Scan(value interface{}) error {
	if value == nil {
		*a = AddressSnapshot{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if strings.TrimSpace(raw) == "" {
		*a = AddressSnapshot{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), a); err != nil {
		return fmt.Errorf("address: unmarshal %w", err)
	}
	return nil
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
