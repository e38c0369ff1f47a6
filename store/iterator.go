package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/kilimba-labs/utxochain/coin"
)

// Iterator walks the chain from the current tip back to genesis, one block
// per Next call.
type Iterator struct {
	currentHash []byte
	database    *BlockChain
}

// Iterator returns a fresh walker positioned at the chain's current tip.
func (chain *BlockChain) Iterator() *Iterator {
	return &Iterator{currentHash: chain.lastHash, database: chain}
}

// Next returns the block at the iterator's current position and advances to
// its predecessor. Callers stop once a block with an empty PrevHash (the
// genesis block) is returned.
func (iter *Iterator) Next() (*coin.Block, error) {
	var block *coin.Block
	err := iter.database.Database.View(func(txn *badger.Txn) error {
		b, err := iter.database.readBlock(txn, iter.currentHash)
		if err != nil {
			return err
		}
		block = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	iter.currentHash = block.PrevHash
	return block, nil
}
