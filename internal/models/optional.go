package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// OptionalID is a nullable foreign key that remembers whether it was present
// in the decoded payload.
//
//	absent  -> Set=false               (create: no reference, update: keep)
//	null    -> Set=true, Valid=false   (no reference, update clears)
//	number  -> Set=true, Valid=true
type OptionalID struct {
	Set   bool
	Valid bool
	Value int64
}

// SomeID returns an OptionalID referencing id.
func SomeID(id int64) OptionalID {
	return OptionalID{Set: true, Valid: true, Value: id}
}

// NullID returns an explicitly cleared OptionalID.
func NullID() OptionalID {
	return OptionalID{Set: true}
}

// OptionalFromPtr converts a nullable column value into a set OptionalID.
func OptionalFromPtr(id *int64) OptionalID {
	if id == nil {
		return NullID()
	}
	return SomeID(*id)
}

// Ptr returns the referenced id or nil.
func (o OptionalID) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler. It is invoked for JSON null too.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		o.Value = 0
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Valid = true
	o.Value = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, o.Value, 10), nil
}
