package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// entityList stores an item's entity names as a JSON array column
type entityList []string

// Value implements driver.Valuer
func (e entityList) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(e))
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (e *entityList) Scan(value any) error {
	if value == nil {
		*e = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported entities type %T", value)
	}
	return json.Unmarshal(data, (*[]string)(e))
}

// metaBag stores an item's source-specific meta as a JSON object column
type metaBag map[string]any

// Value implements driver.Valuer
func (m metaBag) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshal meta: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (m *metaBag) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported meta type %T", value)
	}
	return json.Unmarshal(data, (*map[string]any)(m))
}
