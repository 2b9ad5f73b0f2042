package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. encoding/json sorts map keys, so
// equal maps hash equally regardless of insertion order.
func HashJSON(v any) (string, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(v); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return digest(h), nil
}

// hashKey builds "kind:<sha256 of parts>". Parts are JSON-encodable key
// components such as a snapshot hash and its option struct.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		_ = enc.Encode(p)
	}
	return kind + ":" + digest(h)
}

func digest(h hash.Hash) string { return hex.EncodeToString(h.Sum(nil)) }
