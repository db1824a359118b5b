package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date decodes either a calendar date ("2025-03-01", as sent by HTML date
// inputs) or an RFC 3339 timestamp. Date-only values are midnight UTC.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate accepts time.DateOnly or time.RFC3339.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is neither YYYY-MM-DD nor RFC 3339", ErrInvalidArgument, raw)
	}
	return t, nil
}

// UnmarshalJSON accepts date-only start and end dates.
func (in *SprintInput) UnmarshalJSON(data []byte) error {
	type plain SprintInput
	aux := struct {
		*plain
		StartDate *Date `json:"startDate"`
		EndDate   *Date `json:"endDate"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.StartDate != nil {
		in.StartDate = aux.StartDate.Time
	}
	if aux.EndDate != nil {
		in.EndDate = aux.EndDate.Time
	}
	return nil
}

// UnmarshalJSON accepts date-only start and end dates.
func (p *SprintPatch) UnmarshalJSON(data []byte) error {
	type plain SprintPatch
	aux := struct {
		*plain
		StartDate *Date `json:"startDate"`
		EndDate   *Date `json:"endDate"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.StartDate != nil && !aux.StartDate.IsZero() {
		p.StartDate = &aux.StartDate.Time
	}
	if aux.EndDate != nil && !aux.EndDate.IsZero() {
		p.EndDate = &aux.EndDate.Time
	}
	return nil
}
