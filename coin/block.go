package coin

import (
	"time"

	"github.com/kilimba-labs/utxochain/codec"
	"github.com/kilimba-labs/utxochain/merkle"
	"github.com/kilimba-labs/utxochain/pow"
)

// Block is an ordered list of transactions (coinbase first) chained to its
// predecessor by hash.
type Block struct {
	Transactions []*Transaction
	PrevHash     []byte
	Hash         []byte
	Nonce        uint64
	Height       uint64
	Timestamp    int64
}

// merkleRoot hashes each transaction's full canonical encoding (not its id)
// into the block's Merkle root.
func (b *Block) merkleRoot() []byte {
	leaves := make([][]byte, len(b.Transactions))
	for i, tx := range b.Transactions {
		leaves[i] = tx.Serialize()
	}
	return merkle.Root(leaves)
}

// CreateBlock mines a new block over txs, chained after prevHash at height.
func CreateBlock(txs []*Transaction, prevHash []byte, height uint64) *Block {
	b := &Block{
		Transactions: txs,
		PrevHash:     prevHash,
		Height:       height,
		Timestamp:    time.Now().Unix(),
	}
	nonce, hash := pow.Run(b.PrevHash, b.merkleRoot())
	b.Nonce = nonce
	b.Hash = hash
	return b
}

// Genesis mints the chain's first block around a single coinbase
// transaction.
func Genesis(coinbase *Transaction) *Block {
	return CreateBlock([]*Transaction{coinbase}, []byte{}, 0)
}

// ValidatePoW recomputes the block's proof-of-work and reports whether the
// stored nonce still satisfies the difficulty target.
func (b *Block) ValidatePoW() bool {
	return pow.Validate(b.PrevHash, b.merkleRoot(), b.Nonce)
}

// Serialize gob-encodes the block for storage.
func (b *Block) Serialize() []byte {
	data, err := codec.EncodeRecord(b)
	if err != nil {
		panic(err)
	}
	return data
}

// DeserializeBlock decodes a Block written by Serialize.
func DeserializeBlock(data []byte) (*Block, error) {
	var b Block
	if err := codec.DecodeRecord(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
