package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON columns are stored as jsonb on Postgres and as text elsewhere.

func jsonValue(v interface{}) (driver.Value, error) {
	return json.Marshal(v)
}

func jsonScan(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// StringList is a JSON encoded list of strings (image URLs, zones).
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(s))
}

func (s *StringList) Scan(value interface{}) error {
	return jsonScan(value, s)
}
