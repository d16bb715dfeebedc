package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON returns the digest of v's JSON encoding. Job sets and report rows
// are fingerprinted this way, so equal inputs share cache entries no matter
// which file or request they came from.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// kindKey returns "kind:<digest of parts>".
func kindKey(kind string, parts ...any) string {
	// parts are strings and SequenceKeyOpts, which always encode.
	digest, _ := HashJSON(parts)
	return kind + ":" + digest
}
