package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash fingerprints an encoded record. Encoding is deterministic (fixed
// struct field order), so equal content always hashes equal regardless of
// which device produced it. Clock skew never enters change detection.
func Hash(record []byte) string {
	h := sha256.Sum256(record)
	return hex.EncodeToString(h[:])
}
