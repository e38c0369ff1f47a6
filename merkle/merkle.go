// Package merkle computes the root hash of a list of transaction encodings.
//
// The tree is represented as a flat, per-level slice of hashes computed
// bottom-up rather than a tree of linked nodes: once the root is known, no
// child pointer needs to survive, so there is nothing to keep alive or
// accidentally cycle.
package merkle

import "github.com/kilimba-labs/utxochain/codec"

// Root returns the Merkle root of leaves, where each leaf is the full
// canonical encoding of one transaction (not its id). An odd leaf count is
// balanced by duplicating the first leaf.
func Root(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return codec.Sha256(nil)
	}

	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = codec.Sha256(leaf)
	}

	if len(level)%2 != 0 {
		level = append([][]byte{level[0]}, level...)
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append([][]byte{level[0]}, level...)
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			pair := append(append([]byte{}, level[i]...), level[i+1]...)
			next = append(next, codec.Sha256(pair))
		}
		level = next
	}

	return level[0]
}
