package wallet

import (
	"bytes"
	"errors"

	"github.com/kilimba-labs/utxochain/codec"
)

const (
	version        = byte(0x00)
	checksumLength = 4
	addressLength  = 1 + 20 + checksumLength
)

// ErrInvalidAddress is returned by PublicKeyHashFromAddress when the address
// fails to decode or its checksum doesn't match.
var ErrInvalidAddress = errors.New("wallet: invalid address")

// Address derives the base58 address for a public key:
// base58(version ‖ Hash160(pubkey) ‖ checksum).
func Address(pubKey []byte) []byte {
	pubHash := codec.Hash160(pubKey)
	versioned := append([]byte{version}, pubHash...)
	checksum := checksum(versioned)
	full := append(versioned, checksum...)
	return codec.Base58Encode(full)
}

// ValidateAddress decodes address and recomputes its checksum.
func ValidateAddress(address string) bool {
	_, err := PublicKeyHashFromAddress(address)
	return err == nil
}

// PublicKeyHashFromAddress decodes address, verifies its checksum, and
// returns the embedded public-key hash.
func PublicKeyHashFromAddress(address string) ([]byte, error) {
	decoded, err := codec.Base58Decode([]byte(address))
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if len(decoded) != addressLength {
		return nil, ErrInvalidAddress
	}

	addrVersion := decoded[0]
	pubKeyHash := decoded[1 : len(decoded)-checksumLength]
	actualChecksum := decoded[len(decoded)-checksumLength:]

	want := checksum(append([]byte{addrVersion}, pubKeyHash...))
	if !bytes.Equal(actualChecksum, want) {
		return nil, ErrInvalidAddress
	}
	return pubKeyHash, nil
}

func checksum(payload []byte) []byte {
	return codec.DoubleSha256(payload)[:checksumLength]
}
