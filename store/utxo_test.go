package store

import (
	"errors"
	"testing"

	"github.com/kilimba-labs/utxochain/coin"
	"github.com/kilimba-labs/utxochain/wallet"
)

func TestReindexMatchesGenesisCoinbase(t *testing.T) {
	withTempStoreDir(t)

	w, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet.NewWallet: %v", err)
	}
	address := string(w.Address())

	chain, err := InitBlockChain(address, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	defer chain.Database.Close()

	utxo := UTXOSet{Chain: chain}
	if err := utxo.Reindex(); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	pubKeyHash, err := wallet.PublicKeyHashFromAddress(address)
	if err != nil {
		t.Fatalf("PublicKeyHashFromAddress: %v", err)
	}

	balance, err := utxo.GetBalance(pubKeyHash)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != coin.CoinbaseReward {
		t.Fatalf("balance after reindexing genesis = %d, want %d", balance, coin.CoinbaseReward)
	}
}

func TestSendCoinUpdatesBalances(t *testing.T) {
	withTempStoreDir(t)

	sender, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet.NewWallet (sender): %v", err)
	}
	receiver, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet.NewWallet (receiver): %v", err)
	}
	senderAddr := string(sender.Address())
	receiverAddr := string(receiver.Address())

	chain, err := InitBlockChain(senderAddr, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	defer chain.Database.Close()

	utxo := UTXOSet{Chain: chain}
	if err := utxo.Reindex(); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	tx, err := NewTransaction(sender, senderAddr, receiverAddr, 5, utxo)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	cb, err := coin.CoinbaseTx(senderAddr, "")
	if err != nil {
		t.Fatalf("CoinbaseTx: %v", err)
	}

	block, err := chain.MineBlock([]*coin.Transaction{cb, tx})
	if err != nil {
		t.Fatalf("MineBlock: %v", err)
	}
	if err := utxo.Update(block); err != nil {
		t.Fatalf("Update: %v", err)
	}

	receiverHash, err := wallet.PublicKeyHashFromAddress(receiverAddr)
	if err != nil {
		t.Fatalf("PublicKeyHashFromAddress: %v", err)
	}
	receiverBalance, err := utxo.GetBalance(receiverHash)
	if err != nil {
		t.Fatalf("GetBalance(receiver): %v", err)
	}
	if receiverBalance != 5 {
		t.Fatalf("receiver balance = %d, want 5", receiverBalance)
	}

	senderHash, err := wallet.PublicKeyHashFromAddress(senderAddr)
	if err != nil {
		t.Fatalf("PublicKeyHashFromAddress: %v", err)
	}
	senderBalance, err := utxo.GetBalance(senderHash)
	if err != nil {
		t.Fatalf("GetBalance(sender): %v", err)
	}
	// Genesis reward (20) + new block reward (20) - 5 sent = 35.
	if senderBalance != 2*coin.CoinbaseReward-5 {
		t.Fatalf("sender balance = %d, want %d", senderBalance, 2*coin.CoinbaseReward-5)
	}
}

func TestNewTransactionFailsOnInsufficientFunds(t *testing.T) {
	withTempStoreDir(t)

	sender, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet.NewWallet: %v", err)
	}
	receiver, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet.NewWallet: %v", err)
	}
	senderAddr := string(sender.Address())

	chain, err := InitBlockChain(senderAddr, "test")
	if err != nil {
		t.Fatalf("InitBlockChain: %v", err)
	}
	defer chain.Database.Close()

	utxo := UTXOSet{Chain: chain}
	if err := utxo.Reindex(); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	_, err = NewTransaction(sender, senderAddr, string(receiver.Address()), coin.CoinbaseReward+1, utxo)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("NewTransaction over balance: got %v, want ErrInsufficientFunds", err)
	}
}
