package store

import (
	"encoding/hex"
	"fmt"

	"github.com/kilimba-labs/utxochain/coin"
	"github.com/kilimba-labs/utxochain/wallet"
)

// NewTransaction builds and signs a transaction paying amount from the
// wallet at fromAddress to toAddress, spending outputs selected from u.
func NewTransaction(from *wallet.Wallet, fromAddress, toAddress string, amount int, u UTXOSet) (*coin.Transaction, error) {
	pubKeyHash, err := wallet.PublicKeyHashFromAddress(fromAddress)
	if err != nil {
		return nil, err
	}

	acc, validOutputs, err := u.FindSpendableOutputs(pubKeyHash, amount)
	if err != nil {
		return nil, err
	}
	if acc < amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, acc, amount)
	}

	var inputs []coin.TxInput
	for txIDStr, outs := range validOutputs {
		txID, err := hex.DecodeString(txIDStr)
		if err != nil {
			return nil, err
		}
		for _, outIdx := range outs {
			inputs = append(inputs, coin.TxInput{ID: txID, Out: outIdx})
		}
	}

	toOut, err := coin.NewTXOutput(amount, toAddress)
	if err != nil {
		return nil, err
	}
	outputs := []coin.TxOutput{*toOut}

	if acc > amount {
		changeOut, err := coin.NewTXOutput(acc-amount, fromAddress)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *changeOut)
	}

	tx := &coin.Transaction{Inputs: inputs, Outputs: outputs}
	tx.SetID()

	if err := u.Chain.SignTransaction(tx, from.Keys.PrivateKey); err != nil {
		return nil, err
	}

	return tx, nil
}
