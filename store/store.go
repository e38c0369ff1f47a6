// Package store holds the persistent blockchain (an embedded ordered
// key-value database keyed by block hash, plus a distinguished "last hash"
// pointer) and its derived UTXO index.
package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dgraph-io/badger/v4"

	"github.com/kilimba-labs/utxochain/coin"
)

func hexID(id []byte) string { return hex.EncodeToString(id) }

const (
	dbPathFmt   = "./tmp/blocks/block_%s"
	lastHashKey = "LH"
	genesisData = "genesis"
)

// ErrAlreadyExists is returned by InitBlockChain when a store already exists
// at the node's path.
var ErrAlreadyExists = errors.New("store: blockchain already exists")

// ErrNotExist is returned by ContinueBlockChain when no store exists yet.
var ErrNotExist = errors.New("store: blockchain does not exist")

// ErrBlockNotFound is returned by GetBlock for an unknown hash.
var ErrBlockNotFound = errors.New("store: block not found")

// ErrTransactionNotFound is returned by FindTransaction.
var ErrTransactionNotFound = errors.New("store: transaction not found")

// BlockChain is the append-only, content-addressed block store plus its
// cached tip hash.
type BlockChain struct {
	mu       sync.Mutex // serializes writers per spec.md §5: one writer at a time
	lastHash []byte
	Database *badger.DB
}

func dbPath(nodeID string) string {
	return fmt.Sprintf(dbPathFmt, nodeID)
}

func dbExists(path string) bool {
	_, err := os.Stat(filepath.Join(path, "MANIFEST"))
	return !os.IsNotExist(err)
}

// openDB opens Badger at path, retrying once if a stale LOCK file from an
// unclean shutdown is blocking it.
func openDB(path string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err == nil {
		return db, nil
	}
	if !strings.Contains(err.Error(), "LOCK") {
		return nil, err
	}

	lockPath := filepath.Join(path, "LOCK")
	if rmErr := os.Remove(lockPath); rmErr != nil {
		return nil, fmt.Errorf("store: remove stale lock: %w", rmErr)
	}
	log.Println("store: removed stale LOCK file, retrying open")
	return badger.Open(opts)
}

// InitBlockChain creates a fresh store for nodeID, minting a genesis block
// whose coinbase pays address. Fails if a store already exists.
func InitBlockChain(address, nodeID string) (*BlockChain, error) {
	path := dbPath(nodeID)
	if dbExists(path) {
		return nil, ErrAlreadyExists
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}

	cb, err := coin.CoinbaseTx(address, genesisData)
	if err != nil {
		return nil, err
	}
	genesis := coin.Genesis(cb)

	err = db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(genesis.Hash, genesis.Serialize()); err != nil {
			return err
		}
		return txn.Set([]byte(lastHashKey), genesis.Hash)
	})
	if err != nil {
		return nil, err
	}

	return &BlockChain{lastHash: genesis.Hash, Database: db}, nil
}

// ContinueBlockChain opens the existing store for nodeID. Fails if none
// exists.
func ContinueBlockChain(nodeID string) (*BlockChain, error) {
	path := dbPath(nodeID)
	if !dbExists(path) {
		return nil, ErrNotExist
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}

	var lastHash []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastHashKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			lastHash = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: read last hash: %w", err)
	}

	return &BlockChain{lastHash: lastHash, Database: db}, nil
}

func (chain *BlockChain) readBlock(txn *badger.Txn, hash []byte) (*coin.Block, error) {
	item, err := txn.Get(hash)
	if err != nil {
		return nil, err
	}
	var block *coin.Block
	err = item.Value(func(val []byte) error {
		b, decErr := coin.DeserializeBlock(val)
		if decErr != nil {
			return decErr
		}
		block = b
		return nil
	})
	return block, err
}

// GetBestHeight returns the height of the block LH currently points to.
func (chain *BlockChain) GetBestHeight() (uint64, error) {
	var height uint64
	err := chain.Database.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastHashKey))
		if err != nil {
			return err
		}
		var lastHash []byte
		if err := item.Value(func(val []byte) error {
			lastHash = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}

		block, err := chain.readBlock(txn, lastHash)
		if err != nil {
			return err
		}
		height = block.Height
		return nil
	})
	return height, err
}

// GetBlock looks up a block by its hash.
func (chain *BlockChain) GetBlock(hash []byte) (*coin.Block, error) {
	var block *coin.Block
	err := chain.Database.View(func(txn *badger.Txn) error {
		b, err := chain.readBlock(txn, hash)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrBlockNotFound
			}
			return err
		}
		block = b
		return nil
	})
	return block, err
}

// GetBlockHashes walks the chain from the current tip back to genesis,
// returning hashes in that order.
func (chain *BlockChain) GetBlockHashes() ([][]byte, error) {
	var hashes [][]byte
	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, block.Hash)
		if len(block.PrevHash) == 0 {
			break
		}
	}
	return hashes, nil
}

// MineBlock verifies every non-coinbase transaction in txs, then extends the
// chain with a new block at tip height + 1, committing the block and the
// LH pointer update atomically.
func (chain *BlockChain) MineBlock(txs []*coin.Transaction) (*coin.Block, error) {
	chain.mu.Lock()
	defer chain.mu.Unlock()

	for _, tx := range txs {
		ok, err := chain.VerifyTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("store: mine block: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("store: mine block: %w", coin.ErrInvalidSignature)
		}
	}

	var lastHeight uint64
	err := chain.Database.View(func(txn *badger.Txn) error {
		block, err := chain.readBlock(txn, chain.lastHash)
		if err != nil {
			return err
		}
		lastHeight = block.Height
		return nil
	})
	if err != nil {
		return nil, err
	}

	newBlock := coin.CreateBlock(txs, chain.lastHash, lastHeight+1)

	err = chain.Database.Update(func(txn *badger.Txn) error {
		if err := txn.Set(newBlock.Hash, newBlock.Serialize()); err != nil {
			return err
		}
		return txn.Set([]byte(lastHashKey), newBlock.Hash)
	})
	if err != nil {
		return nil, err
	}

	chain.lastHash = newBlock.Hash
	return newBlock, nil
}

// AddBlock inserts a block received from a peer. A block already present is
// a silent no-op. The tip advances only if block.Height is strictly greater
// than the height of the block LH currently points to.
func (chain *BlockChain) AddBlock(block *coin.Block) error {
	chain.mu.Lock()
	defer chain.mu.Unlock()

	return chain.Database.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(block.Hash); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(block.Hash, block.Serialize()); err != nil {
			return err
		}

		item, err := txn.Get([]byte(lastHashKey))
		if err != nil {
			return err
		}
		var tipHash []byte
		if err := item.Value(func(val []byte) error {
			tipHash = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}

		tip, err := chain.readBlock(txn, tipHash)
		if err != nil {
			return err
		}

		if tip.Height < block.Height {
			if err := txn.Set([]byte(lastHashKey), block.Hash); err != nil {
				return err
			}
			chain.lastHash = block.Hash
		}
		return nil
	})
}

// FindUTXO scans the whole chain and returns, per transaction id, the
// outputs never referenced by a later input.
func (chain *BlockChain) FindUTXO() (map[string]coin.TxOutputs, error) {
	utxo := make(map[string]coin.TxOutputs)
	spent := make(map[string]map[int]struct{})

	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Transactions {
			txID := hexID(tx.ID)

		outputs:
			for outIdx, out := range tx.Outputs {
				if spentSet, ok := spent[txID]; ok {
					if _, spentHere := spentSet[outIdx]; spentHere {
						continue outputs
					}
				}
				entry := utxo[txID]
				entry.Outputs = append(entry.Outputs, out)
				utxo[txID] = entry
			}

			if !tx.IsCoinbase() {
				for _, in := range tx.Inputs {
					inID := hexID(in.ID)
					if spent[inID] == nil {
						spent[inID] = make(map[int]struct{})
					}
					spent[inID][in.Out] = struct{}{}
				}
			}
		}

		if len(block.PrevHash) == 0 {
			break
		}
	}

	return utxo, nil
}

// FindTransaction walks the chain from the tip looking for id.
func (chain *BlockChain) FindTransaction(id []byte) (coin.Transaction, error) {
	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return coin.Transaction{}, err
		}
		for _, tx := range block.Transactions {
			if hexID(tx.ID) == hexID(id) {
				return *tx, nil
			}
		}
		if len(block.PrevHash) == 0 {
			break
		}
	}
	return coin.Transaction{}, ErrTransactionNotFound
}

func (chain *BlockChain) prevTransactions(tx *coin.Transaction) (map[string]coin.Transaction, error) {
	prevTxs := make(map[string]coin.Transaction)
	for _, in := range tx.Inputs {
		prevTx, err := chain.FindTransaction(in.ID)
		if err != nil {
			return nil, err
		}
		prevTxs[hexID(in.ID)] = prevTx
	}
	return prevTxs, nil
}

// SignTransaction loads every previous transaction tx's inputs reference and
// signs tx with privateKey.
func (chain *BlockChain) SignTransaction(tx *coin.Transaction, privateKey *btcec.PrivateKey) error {
	if tx.IsCoinbase() {
		return nil
	}
	prevTxs, err := chain.prevTransactions(tx)
	if err != nil {
		return err
	}
	return tx.Sign(privateKey, prevTxs)
}

// VerifyTransaction checks tx's signatures against the chain's history of
// the outputs it spends.
func (chain *BlockChain) VerifyTransaction(tx *coin.Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}
	prevTxs, err := chain.prevTransactions(tx)
	if err != nil {
		return false, err
	}
	return tx.Verify(prevTxs)
}
