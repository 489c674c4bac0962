package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// errNotJSONObject is returned when an OrderedMap is decoded from anything but an object.
var errNotJSONObject = errors.New("ordered map: expected JSON object")

// OrderedMap is a string to string mapping that remembers insertion order.
// Setting an existing key replaces its value and keeps its position.
type OrderedMap struct {
	// keys holds the keys in insertion order.
	keys []string
	// values holds the current value for every key.
	values map[string]string
}

// NewOrderedMap returns an empty map with room for capacity keys.
func NewOrderedMap(capacity int) *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0, capacity),
		values: make(map[string]string, capacity),
	}
}

// Set stores value under key.
func (m *OrderedMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}

	value, ok := m.values[key]

	return value, ok
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}

	return append([]string(nil), m.keys...)
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", key, err)
		}

		encodedValue, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, fmt.Errorf("encode value of %q: %w", key, err)
		}

		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of strings, keeping the document order.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("ordered map: %w", err)
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errNotJSONObject
	}

	m.keys = m.keys[:0]
	m.values = make(map[string]string)

	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return fmt.Errorf("ordered map: %w", err)
		}

		key, ok := token.(string)
		if !ok {
			return errNotJSONObject
		}

		var value string
		if err = decoder.Decode(&value); err != nil {
			return fmt.Errorf("ordered map value of %q: %w", key, err)
		}

		m.Set(key, value)
	}

	if _, err = decoder.Token(); err != nil {
		return fmt.Errorf("ordered map: %w", err)
	}

	return nil
}
