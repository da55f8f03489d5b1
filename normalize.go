package vota

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Date fields revived per record shape
var (
	ElectionDateFields = []string{"dateCreated"}
	BallotDateFields   = []string{"dateCreated", "dateDeleted"}
	ResultDateFields   = []string{"dateCreatedUtc", "overrideDateUtc"}
)

// ParseISODate parses RFC 3339 values with or without fractional seconds.
// Values without zone are read as UTC.
func ParseISODate(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ReviveDates returns a copy of record where every listed field holding an
// ISO 8601 string is replaced by a time.Time. Absent and null fields are
// left untouched.
func ReviveDates(record map[string]any, fields ...string) (map[string]any, error) {
	if record == nil {
		return nil, nil
	}

	out := maps.Clone(record)
	for _, field := range fields {
		raw, ok := out[field]
		if !ok || raw == nil {
			continue
		}

		switch v := raw.(type) {
		case time.Time:
		case string:
			t, err := ParseISODate(v)
			if err != nil {
				return nil, parseDataError(field, v, err)
			}
			out[field] = t
		default:
			return nil, parseDataError(field, raw, fmt.Errorf("unsupported date value of type %T", raw))
		}
	}

	return out, nil
}

// ReviveRecords applies ReviveDates to a single record or to every record
// of a sequence. Other payloads are returned unchanged.
func ReviveRecords(payload any, fields ...string) (any, error) {
	switch v := payload.(type) {
	case map[string]any:
		return ReviveDates(v, fields...)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			revived, err := ReviveRecords(item, fields...)
			if err != nil {
				return nil, err
			}
			out[i] = revived
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			revived, err := ReviveDates(item, fields...)
			if err != nil {
				return nil, err
			}
			out[i] = revived
		}
		return out, nil
	default:
		return payload, nil
	}
}

// DecodeRecords revives the listed date fields in body and decodes the
// result into out, a pointer to a record or a slice of records.
func DecodeRecords(body []byte, out any, fields ...string) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return parseDataError("body", string(body), err)
	}

	revived, err := ReviveRecords(payload, fields...)
	if err != nil {
		return err
	}

	normalized, err := json.Marshal(revived)
	if err != nil {
		return parseDataError("body", string(body), err)
	}

	if err := json.Unmarshal(normalized, out); err != nil {
		return parseDataError("body", string(body), err)
	}

	return nil
}
