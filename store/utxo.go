package store

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/kilimba-labs/utxochain/coin"
)

const (
	utxoPrefix   = "utxo-"
	reindexBatch = 100000
)

// ErrInsufficientFunds is returned when an address cannot cover an amount
// from its unspent outputs.
var ErrInsufficientFunds = errors.New("store: insufficient funds")

// UTXOSet is the unspent-output index derived from a BlockChain, stored
// under keys prefixed with "utxo-" alongside the chain's own block records.
type UTXOSet struct {
	Chain *BlockChain
}

func utxoKey(txID []byte) []byte {
	return append([]byte(utxoPrefix), txID...)
}

// Reindex rebuilds the entire UTXO index from a full scan of the chain.
func (u UTXOSet) Reindex() error {
	db := u.Chain.Database

	if err := deleteByPrefix(db, []byte(utxoPrefix)); err != nil {
		return err
	}

	utxo, err := u.Chain.FindUTXO()
	if err != nil {
		return err
	}

	return db.Update(func(txn *badger.Txn) error {
		for txID, outs := range utxo {
			idBytes, err := hex.DecodeString(txID)
			if err != nil {
				return err
			}
			if err := txn.Set(utxoKey(idBytes), outs.Serialize()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update folds a newly mined or received block into the index: every input
// it spends is removed (or shrunk) from the index, and every output it
// creates is added.
func (u UTXOSet) Update(block *coin.Block) error {
	db := u.Chain.Database

	return db.Update(func(txn *badger.Txn) error {
		for _, tx := range block.Transactions {
			if !tx.IsCoinbase() {
				for _, in := range tx.Inputs {
					item, err := txn.Get(utxoKey(in.ID))
					if err != nil {
						return err
					}
					var outs coin.TxOutputs
					if err := item.Value(func(val []byte) error {
						decoded, err := coin.DeserializeOutputs(val)
						if err != nil {
							return err
						}
						outs = decoded
						return nil
					}); err != nil {
						return err
					}

					var remaining coin.TxOutputs
					for idx, out := range outs.Outputs {
						if idx != in.Out {
							remaining.Outputs = append(remaining.Outputs, out)
						}
					}

					if len(remaining.Outputs) == 0 {
						if err := txn.Delete(utxoKey(in.ID)); err != nil {
							return err
						}
					} else {
						if err := txn.Set(utxoKey(in.ID), remaining.Serialize()); err != nil {
							return err
						}
					}
				}
			}

			newOutputs := coin.TxOutputs{Outputs: tx.Outputs}
			if err := txn.Set(utxoKey(tx.ID), newOutputs.Serialize()); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindSpendableOutputs walks the index looking for outputs locked to
// pubKeyHash, stopping once their total value reaches amount. It returns the
// accumulated value (which may exceed amount) and the output references to
// spend.
func (u UTXOSet) FindSpendableOutputs(pubKeyHash []byte, amount int) (int, map[string][]int, error) {
	unspentOutputs := make(map[string][]int)
	accumulated := 0

	db := u.Chain.Database
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(utxoPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.Key()
			txID := hex.EncodeToString(bytes.TrimPrefix(key, prefix))

			err := item.Value(func(val []byte) error {
				outs, err := coin.DeserializeOutputs(val)
				if err != nil {
					return err
				}
				for outIdx, out := range outs.Outputs {
					if out.IsLockedWithKey(pubKeyHash) && accumulated < amount {
						accumulated += out.Value
						unspentOutputs[txID] = append(unspentOutputs[txID], outIdx)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if accumulated >= amount {
				break
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	return accumulated, unspentOutputs, nil
}

// GetBalance sums every unspent output locked to pubKeyHash.
func (u UTXOSet) GetBalance(pubKeyHash []byte) (int, error) {
	balance := 0

	db := u.Chain.Database
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(utxoPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				outs, err := coin.DeserializeOutputs(val)
				if err != nil {
					return err
				}
				for _, out := range outs.Outputs {
					if out.IsLockedWithKey(pubKeyHash) {
						balance += out.Value
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return balance, err
}

// CountTransactions returns the number of distinct transaction ids tracked
// in the index.
func (u UTXOSet) CountTransactions() (int, error) {
	count := 0
	db := u.Chain.Database
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(utxoPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// deleteByPrefix removes every key under prefix in batches bounded at
// reindexBatch keys, so a reindex of a large index never builds one
// unbounded transaction.
func deleteByPrefix(db *badger.DB, prefix []byte) error {
	collectKeys := func() ([][]byte, error) {
		var keys [][]byte
		err := db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().KeyCopy(nil)
				keys = append(keys, key)
				if len(keys) == reindexBatch {
					break
				}
			}
			return nil
		})
		return keys, err
	}

	for {
		keys, err := collectKeys()
		if err != nil {
			return fmt.Errorf("store: collect keys for prefix %q: %w", prefix, err)
		}
		if len(keys) == 0 {
			return nil
		}

		err = db.Update(func(txn *badger.Txn) error {
			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("store: delete batch for prefix %q: %w", prefix, err)
		}
	}
}
