package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeFlexible decodes a field that clients send either as JSON or as a
// string holding JSON, e.g. "openingHours": "[{...}]". A null or empty
// value leaves dest untouched and reports false. Unknown keys are rejected.
func DecodeFlexible(raw json.RawMessage, dest interface{}) (bool, error) {
	return decodeFlexible(raw, dest, true)
}

// DecodeFlexibleLoose is DecodeFlexible without the unknown-key check, for
// payloads clients build from richer objects of their own.
func DecodeFlexibleLoose(raw json.RawMessage, dest interface{}) (bool, error) {
	return decodeFlexible(raw, dest, false)
}

func decodeFlexible(raw json.RawMessage, dest interface{}, strict bool) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return false, err
		}
		if inner == "" {
			return false, nil
		}
		raw = []byte(inner)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dest); err != nil {
		return false, fmt.Errorf("malformed value: %w", err)
	}
	if dec.More() {
		return false, errors.New("malformed value: trailing data")
	}
	return true, nil
}
