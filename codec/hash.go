// Package codec provides the byte-level primitives the rest of the chain is
// built on: hashing, big-endian integer encoding, base58 addresses, and a
// deterministic gob-based record codec.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
)

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// DoubleSha256 returns SHA-256(SHA-256(data)), used for address checksums.
func DoubleSha256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Uint64BE encodes n as 8 big-endian bytes.
func Uint64BE(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

// EncodeRecord gob-encodes v. Used for block, transaction, and wallet
// persistence, matching the teacher's own choice of codec.
func EncodeRecord(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecord gob-decodes data into v, which must be a pointer.
func DecodeRecord(data []byte, v any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}
