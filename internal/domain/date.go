package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayouts are the calendar date formats accepted from exports and API clients.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"1/2/2006",
	"01/02/2006",
	"20060102",
}

// ParseDate parses v with the first matching layout and truncates it to a UTC day.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func unmarshalDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return time.Time{}, nil
	}
	return ParseDate(s)
}

// UnmarshalJSON accepts any of DateLayouts for the date field.
func (p *ForecastPoint) UnmarshalJSON(data []byte) error {
	type plain ForecastPoint
	aux := struct {
		*plain
		Date json.RawMessage `json:"date"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	date, err := unmarshalDate(aux.Date)
	if err != nil {
		return err
	}
	p.Date = date
	return nil
}

// UnmarshalJSON accepts any of DateLayouts for the date field.
func (p *DemandPoint) UnmarshalJSON(data []byte) error {
	type plain DemandPoint
	aux := struct {
		*plain
		Date json.RawMessage `json:"date"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	date, err := unmarshalDate(aux.Date)
	if err != nil {
		return err
	}
	p.Date = date
	return nil
}
