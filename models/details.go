package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Details is a label → value map that preserves insertion order. Listing
// detail labels vary per property and their document order is part of the
// output contract, so a plain map (which Go marshals with sorted keys)
// cannot be used.
type Details struct {
	keys   []string
	values map[string]string
}

// Set stores a value under key, appending the key on first insertion.
func (d *Details) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value for key and whether it is present.
func (d *Details) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the labels in insertion order.
func (d *Details) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of stored pairs.
func (d *Details) Len() int {
	return len(d.keys)
}

// MarshalJSON emits a JSON object with keys in insertion order.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the keys in document order.
func (d *Details) UnmarshalJSON(data []byte) error {
	d.keys = nil
	d.values = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("details: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("details: non-string key %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		d.Set(key, value)
	}

	_, err = dec.Token() // closing brace
	return err
}
