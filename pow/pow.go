// Package pow implements the block proof-of-work engine: a nonce search
// over a block header preimage until the SHA-256 digest, read as a big
// integer, falls below a static target.
package pow

import (
	"crypto/sha256"
	"math"
	"math/big"

	"github.com/kilimba-labs/utxochain/codec"
)

// Difficulty is the number of leading zero bits required in a valid block
// hash.
const Difficulty = 12

// target returns 1 << (256 - Difficulty), the upper bound a valid hash must
// fall strictly below.
func target() *big.Int {
	t := big.NewInt(1)
	t.Lsh(t, uint(256-Difficulty))
	return t
}

// Preimage builds the header preimage for a block: previous hash, Merkle
// root of its transactions, nonce, and difficulty, each field fixed-width or
// self-delimiting so no ambiguity arises from concatenation.
func Preimage(prevHash, merkleRoot []byte, nonce uint64) []byte {
	data := make([]byte, 0, len(prevHash)+len(merkleRoot)+16)
	data = append(data, prevHash...)
	data = append(data, merkleRoot...)
	data = append(data, codec.Uint64BE(nonce)...)
	data = append(data, codec.Uint64BE(Difficulty)...)
	return data
}

// Run iterates nonce from 0 until SHA256(preimage) is strictly below the
// difficulty target, then returns the winning nonce and hash.
func Run(prevHash, merkleRoot []byte) (uint64, []byte) {
	var intHash big.Int
	var hash [32]byte
	tgt := target()

	var nonce uint64
	for nonce < math.MaxUint64 {
		data := Preimage(prevHash, merkleRoot, nonce)
		hash = sha256.Sum256(data)
		intHash.SetBytes(hash[:])

		if intHash.Cmp(tgt) == -1 {
			break
		}
		nonce++
	}

	return nonce, hash[:]
}

// Validate recomputes the hash for the stored nonce and reports whether it
// meets the difficulty target.
func Validate(prevHash, merkleRoot []byte, nonce uint64) bool {
	var intHash big.Int
	data := Preimage(prevHash, merkleRoot, nonce)
	hash := sha256.Sum256(data)
	intHash.SetBytes(hash[:])
	return intHash.Cmp(target()) == -1
}
