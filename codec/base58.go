package codec

import "github.com/mr-tron/base58"

// Base58Encode converts binary data to its base58 representation.
func Base58Encode(input []byte) []byte {
	return []byte(base58.Encode(input))
}

// Base58Decode converts a base58 string back to binary. Returns an error on
// malformed input instead of panicking, since addresses typed in by a user
// reach this function directly.
func Base58Decode(input []byte) ([]byte, error) {
	return base58.Decode(string(input))
}
