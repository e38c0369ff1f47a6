package pow

import (
	"testing"

	"github.com/kilimba-labs/utxochain/codec"
)

func TestRunProducesValidProof(t *testing.T) {
	prevHash := []byte("prev")
	merkleRoot := []byte("root")

	nonce, hash := Run(prevHash, merkleRoot)

	if !Validate(prevHash, merkleRoot, nonce) {
		t.Fatalf("Run produced a nonce %d that Validate rejects", nonce)
	}
	if len(hash) != 32 {
		t.Fatalf("want 32-byte hash, got %d bytes", len(hash))
	}
}

func TestValidateRejectsWrongNonce(t *testing.T) {
	prevHash := []byte("prev")
	merkleRoot := []byte("root")

	nonce, _ := Run(prevHash, merkleRoot)
	if Validate(prevHash, merkleRoot, nonce+1) {
		t.Fatal("Validate should reject a nonce that doesn't meet the target")
	}
}

func TestPreimageIncludesDifficulty(t *testing.T) {
	a := Preimage([]byte("p"), []byte("m"), 0)
	b := Preimage([]byte("p"), []byte("m"), 1)
	if string(a) == string(b) {
		t.Fatal("different nonces must produce different preimages")
	}
	if tail := a[len(a)-8:]; string(tail) != string(codec.Uint64BE(Difficulty)) {
		t.Fatalf("preimage should end with the big-endian difficulty, got %x", tail)
	}
}
