// Package kv keeps JSON documents in named buckets, either in SQLite or in
// memory.
package kv

import (
	"encoding/json"
	"fmt"
)

// Bucket is a named set of JSON documents.
type Bucket interface {
	// Put encodes value and stores it under key, replacing any previous value.
	Put(key string, value any) error

	// Get decodes the document under key into out. It reports false when
	// the key is absent.
	Get(key string, out any) (bool, error)

	// Delete removes key and reports whether it was present.
	Delete(key string) (bool, error)

	// Keys lists the bucket's keys in ascending order.
	Keys() ([]string, error)
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("kv: encode %q: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return nil
}
