package store

import (
	"os"
	"testing"

	"github.com/kilimba-labs/utxochain/coin"
	"github.com/kilimba-labs/utxochain/wallet"
)

func withTempStoreDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })
}

func mustAddress(t *testing.T) string {
	t.Helper()
	w, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet.NewWallet: %v", err)
	}
	return string(w.Address())
}

func TestInitBlockChainRefusesIfExists(t *testing.T) {
	withTempStoreDir(t)

	address := mustAddress(t)
	chain, err := InitBlockChain(address, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	chain.Database.Close()

	if _, err := InitBlockChain(address, "test"); err != ErrAlreadyExists {
		t.Fatalf("InitBlockChain on an existing store: got %v, want ErrAlreadyExists", err)
	}
}

func TestContinueBlockChainRefusesIfAbsent(t *testing.T) {
	withTempStoreDir(t)

	if _, err := ContinueBlockChain("does-not-exist"); err != ErrNotExist {
		t.Fatalf("ContinueBlockChain on a missing store: got %v, want ErrNotExist", err)
	}
}

func TestMineBlockAdvancesHeight(t *testing.T) {
	withTempStoreDir(t)

	address := mustAddress(t)
	chain, err := InitBlockChain(address, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	defer chain.Database.Close()

	cb, err := coin.CoinbaseTx(address, "")
	if err != nil {
		t.Fatalf("CoinbaseTx: %v", err)
	}

	block, err := chain.MineBlock([]*coin.Transaction{cb})
	if err != nil {
		t.Fatalf("MineBlock: %v", err)
	}
	if block.Height != 1 {
		t.Fatalf("mined block height = %d, want 1", block.Height)
	}

	height, err := chain.GetBestHeight()
	if err != nil {
		t.Fatalf("GetBestHeight: %v", err)
	}
	if height != 1 {
		t.Fatalf("GetBestHeight = %d, want 1", height)
	}
}

func TestAddBlockIgnoresLowerHeight(t *testing.T) {
	withTempStoreDir(t)

	address := mustAddress(t)
	chain, err := InitBlockChain(address, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	defer chain.Database.Close()

	cb, err := coin.CoinbaseTx(address, "")
	if err != nil {
		t.Fatalf("CoinbaseTx: %v", err)
	}
	tip, err := chain.MineBlock([]*coin.Transaction{cb})
	if err != nil {
		t.Fatalf("MineBlock: %v", err)
	}

	genesis, err := chain.GetBlock(tip.PrevHash)
	if err != nil {
		t.Fatalf("GetBlock(genesis): %v", err)
	}

	if err := chain.AddBlock(genesis); err != nil {
		t.Fatalf("AddBlock(genesis): %v", err)
	}

	height, err := chain.GetBestHeight()
	if err != nil {
		t.Fatalf("GetBestHeight: %v", err)
	}
	if height != tip.Height {
		t.Fatalf("re-adding a lower block must not move the tip: height = %d, want %d", height, tip.Height)
	}
}

func TestFindTransactionAndVerify(t *testing.T) {
	withTempStoreDir(t)

	address := mustAddress(t)
	chain, err := InitBlockChain(address, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	defer chain.Database.Close()

	genesisHash, err := chain.GetBlockHashes()
	if err != nil {
		t.Fatalf("GetBlockHashes: %v", err)
	}
	genesis, err := chain.GetBlock(genesisHash[0])
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	cb := genesis.Transactions[0]

	found, err := chain.FindTransaction(cb.ID)
	if err != nil {
		t.Fatalf("FindTransaction: %v", err)
	}
	if string(found.ID) != string(cb.ID) {
		t.Fatal("FindTransaction should return the genesis coinbase by id")
	}

	ok, err := chain.VerifyTransaction(cb)
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if !ok {
		t.Fatal("a coinbase transaction should always verify")
	}
}
