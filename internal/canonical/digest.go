package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestHex returns the lowercase hex SHA-256 of data.
func DigestHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EnvelopeHash computes the content fingerprint of a decision input envelope:
// "sha256:" + hex digest of the canonical encoding. Collaborators that write
// to the ledger use this so the same envelope always hashes identically.
func EnvelopeHash(envelope any) (string, error) {
	encoded, err := Encode(envelope)
	if err != nil {
		return "", err
	}
	return "sha256:" + DigestHex(encoded), nil
}
