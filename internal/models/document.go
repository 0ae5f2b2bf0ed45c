package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// OwnerField is the field every owner-scoped document carries.
const OwnerField = "ownerId"

// Fields holds a document's top-level values.
type Fields map[string]any

// ToFields converts a struct into [Fields] through its JSON representation.
func ToFields(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return f, nil
}

// Clone returns a deep copy, so stored fields never alias caller values.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return maps.Clone(f)
	}
	var out Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return maps.Clone(f)
	}
	return out
}

// String returns the value of key when it is a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Document is a record returned by the persistence gateway.
type Document struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Revision   int       `json:"revision"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Fields     Fields    `json:"fields"`
}

// OwnerID returns the document's owner field.
func (d *Document) OwnerID() string {
	return d.Fields.String(OwnerField)
}

// OwnedBy reports whether the document belongs to ownerID.
func (d *Document) OwnedBy(ownerID string) bool {
	return ownerID != "" && d.OwnerID() == ownerID
}

// Decode copies the document's fields into v, then fills id/createdAt/updatedAt/revision keys
// so typed entities see gateway-assigned metadata.
func (d *Document) Decode(v any) error {
	f := d.Fields.Clone()
	f["id"] = d.ID
	f["revision"] = d.Revision
	f["createdAt"] = d.CreatedAt
	f["updatedAt"] = d.UpdatedAt

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

// DocumentList is the result of a list call: Total matches and the returned page.
type DocumentList struct {
	Total     int
	Documents []Document
}

// Condition is an equality filter on one field.
type Condition struct {
	Field string
	Value string
}

// Query filters, orders and limits a list call.
//
// Results are ordered by creation, oldest first unless Descending is set.
type Query struct {
	Conditions []Condition
	Descending bool
	Max        int
}

// OwnedBy starts a query scoped to ownerID.
func OwnedBy(ownerID string) Query {
	return Query{}.Equal(OwnerField, ownerID)
}

// Equal adds an equality condition.
func (q Query) Equal(field, value string) Query {
	q.Conditions = append(append([]Condition(nil), q.Conditions...), Condition{Field: field, Value: value})
	return q
}

// Newest orders results newest first.
func (q Query) Newest() Query {
	q.Descending = true
	return q
}

// Limit caps the number of returned documents. Zero means no cap.
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

// Owner returns the value of the ownerId condition, if any.
func (q Query) Owner() string {
	for _, c := range q.Conditions {
		if c.Field == OwnerField {
			return c.Value
		}
	}
	return ""
}

// Matches reports whether fields satisfy every condition.
func (q Query) Matches(f Fields) bool {
	for _, c := range q.Conditions {
		if fmt.Sprint(f[c.Field]) != c.Value {
			return false
		}
	}
	return true
}
