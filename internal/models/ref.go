package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ref is an optional, non-owning reference to another entity by id.
// The zero value means "no reference".
type Ref struct {
	ID    int64
	Valid bool
}

// RefTo returns a valid reference to id.
func RefTo(id int64) Ref {
	return Ref{ID: id, Valid: true}
}

// Is reports whether r points at id.
func (r Ref) Is(id int64) bool {
	return r.Valid && r.ID == id
}

func (r Ref) String() string {
	if !r.Valid {
		return "null"
	}
	return strconv.FormatInt(r.ID, 10)
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(r.ID, 10)), nil
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("reference must be an integer id or null: %w", err)
	}
	*r = RefTo(id)
	return nil
}

// Value implements driver.Valuer so a Ref is stored as a nullable integer.
func (r Ref) Value() (driver.Value, error) {
	if !r.Valid {
		return nil, nil
	}
	return r.ID, nil
}

// Scan implements sql.Scanner.
func (r *Ref) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Ref{}
	case int64:
		*r = RefTo(v)
	case []byte:
		id, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan ref: %w", err)
		}
		*r = RefTo(id)
	default:
		return fmt.Errorf("scan ref: unsupported type %T", src)
	}
	return nil
}

// RefPatch carries an optional change to a Ref field. Set is false when the
// field was absent from the patch; an explicit JSON null sets it with an
// invalid Ref, clearing the reference.
type RefPatch struct {
	Set bool
	Ref Ref
}

// SetRef returns a patch that assigns r.
func SetRef(r Ref) RefPatch {
	return RefPatch{Set: true, Ref: r}
}

func (p RefPatch) MarshalJSON() ([]byte, error) {
	return p.Ref.MarshalJSON()
}

func (p *RefPatch) UnmarshalJSON(data []byte) error {
	if err := p.Ref.UnmarshalJSON(data); err != nil {
		return err
	}
	p.Set = true
	return nil
}

// FloatPatch carries an optional change to a nullable number. Like RefPatch,
// an explicit JSON null sets it with no value, clearing the field.
type FloatPatch struct {
	Set   bool
	Valid bool
	Float float64
}

// SetFloat returns a patch that assigns v.
func SetFloat(v float64) FloatPatch {
	return FloatPatch{Set: true, Valid: true, Float: v}
}

// ClearFloat returns a patch that clears the field.
func ClearFloat() FloatPatch {
	return FloatPatch{Set: true}
}

// Value returns a fresh pointer to the patched number, or nil when cleared.
func (p FloatPatch) Value() *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Float
	return &v
}

func (p FloatPatch) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Float)
}

func (p *FloatPatch) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ClearFloat()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("estimate must be a number or null: %w", err)
	}
	*p = SetFloat(v)
	return nil
}
