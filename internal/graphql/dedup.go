package graphql

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Deduper collapses concurrent identical outbound requests into one shared
// network call. It is process-wide: one instance is shared by every client.
// Keys are forgotten as soon as the underlying call completes, so a failed
// request is never cached.
type Deduper struct {
	group singleflight.Group
}

// NewDeduper creates an empty deduplicator.
func NewDeduper() *Deduper {
	return &Deduper{}
}

// Do runs fn for key unless an identical call is already in flight, in which
// case the caller attaches to the existing result (value or error).
func (d *Deduper) Do(key string, fn func() ([]byte, error)) ([]byte, error) {
	v, err, _ := d.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Fingerprint derives the dedup key for a request: the endpoint, the query
// text, and the JSON-serialized variables.
func Fingerprint(endpoint, query string, vars map[string]any) (string, error) {
	var varsJSON []byte
	if vars != nil {
		var err error
		varsJSON, err = json.Marshal(vars)
		if err != nil {
			return "", fmt.Errorf("marshal variables: %w", err)
		}
	}
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write(varsJSON)
	return hex.EncodeToString(h.Sum(nil)), nil
}
