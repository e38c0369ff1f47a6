package coin

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	ecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/kilimba-labs/utxochain/codec"
)

// ErrPreviousTransactionMissing is returned when an input references a
// transaction id this node has no record of.
var ErrPreviousTransactionMissing = errors.New("coin: previous transaction not found")

// ErrInvalidSignature is returned by Verify when any input's signature
// fails to validate against its claimed public key.
var ErrInvalidSignature = errors.New("coin: invalid signature")

// Transaction is the unit of value transfer: a list of inputs spending
// prior outputs and a list of new outputs.
type Transaction struct {
	ID      []byte
	Inputs  []TxInput
	Outputs []TxOutput
}

// Serialize gob-encodes the transaction as stored (including its ID).
func (tx Transaction) Serialize() []byte {
	data, err := codec.EncodeRecord(tx)
	if err != nil {
		panic(err)
	}
	return data
}

// DeserializeTransaction decodes a Transaction written by Serialize.
func DeserializeTransaction(data []byte) (Transaction, error) {
	var tx Transaction
	if err := codec.DecodeRecord(data, &tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Hash returns the SHA-256 of the transaction's canonical encoding with its
// id field cleared — this is what becomes the transaction's own id.
func (tx *Transaction) Hash() []byte {
	txCopy := *tx
	txCopy.ID = []byte{}
	return codec.Sha256(txCopy.Serialize())
}

// SetID computes and assigns tx.ID via Hash.
func (tx *Transaction) SetID() {
	tx.ID = tx.Hash()
}

// CoinbaseTx builds the reward transaction that mints coins to address. data
// is arbitrary coinbase payload (a nonce or message); if empty, a default is
// used.
func CoinbaseTx(address, data string) (*Transaction, error) {
	if data == "" {
		data = fmt.Sprintf("coinbase to %s", address)
	}

	in := TxInput{ID: []byte{}, Out: -1, Signature: nil, PubKeyHash: []byte(data)}
	out, err := NewTXOutput(CoinbaseReward, address)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{Inputs: []TxInput{in}, Outputs: []TxOutput{*out}}
	tx.SetID()
	return tx, nil
}

// CoinbaseReward is the fixed block subsidy paid to a miner's coinbase
// output.
const CoinbaseReward = 20

// IsCoinbase reports whether tx is a coinbase transaction: exactly one
// input referencing an empty transaction id and output index -1.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 &&
		len(tx.Inputs[0].ID) == 0 &&
		tx.Inputs[0].Out == -1
}

// TrimmedCopy returns a copy of tx with every input's signature and
// public-key-hash cleared, the representation signed over per input.
func (tx *Transaction) TrimmedCopy() Transaction {
	inputs := make([]TxInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = TxInput{ID: in.ID, Out: in.Out, Signature: nil, PubKeyHash: nil}
	}

	outputs := make([]TxOutput, len(tx.Outputs))
	copy(outputs, tx.Outputs)

	return Transaction{ID: tx.ID, Inputs: inputs, Outputs: outputs}
}

// signingDigest reconstructs, for input i of a trimmed copy, the exact
// message signing and verification both hash: set input i's PubKeyHash to
// the previous output's lock, recompute the trimmed copy's id, clear the
// field again, and apply the outer SHA-256 the curve actually signs.
func signingDigest(txCopy *Transaction, i int, prevOutPubKeyHash []byte) []byte {
	txCopy.Inputs[i].Signature = nil
	txCopy.Inputs[i].PubKeyHash = prevOutPubKeyHash
	txCopy.ID = txCopy.Hash()
	txCopy.Inputs[i].PubKeyHash = nil
	return codec.Sha256(txCopy.ID)
}

// Sign signs every non-coinbase input of tx with privateKey. prevTxs must
// contain, for every referenced input, the transaction that created the
// output being spent, keyed by hex(tx_id).
func (tx *Transaction) Sign(privateKey *btcec.PrivateKey, prevTxs map[string]Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}

	for _, in := range tx.Inputs {
		if _, ok := prevTxs[hex.EncodeToString(in.ID)]; !ok {
			return ErrPreviousTransactionMissing
		}
	}

	txCopy := tx.TrimmedCopy()
	pubKey := privateKey.PubKey().SerializeCompressed()

	for i, in := range txCopy.Inputs {
		prevTx := prevTxs[hex.EncodeToString(in.ID)]
		digest := signingDigest(&txCopy, i, prevTx.Outputs[in.Out].PubKeyHash)

		sig := ecdsa.Sign(privateKey, digest)

		tx.Inputs[i].Signature = sig.Serialize()
		tx.Inputs[i].PubKeyHash = pubKey
	}
	return nil
}

// Verify checks every non-coinbase input's signature. Coinbase transactions
// always verify.
func (tx *Transaction) Verify(prevTxs map[string]Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}

	for _, in := range tx.Inputs {
		if _, ok := prevTxs[hex.EncodeToString(in.ID)]; !ok {
			return false, ErrPreviousTransactionMissing
		}
	}

	txCopy := tx.TrimmedCopy()

	for i, in := range tx.Inputs {
		prevTx := prevTxs[hex.EncodeToString(in.ID)]
		digest := signingDigest(&txCopy, i, prevTx.Outputs[in.Out].PubKeyHash)

		sig, err := ecdsa.ParseDERSignature(in.Signature)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		pubKey, err := btcec.ParsePubKey(in.PubKeyHash)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}

		if !sig.Verify(digest, pubKey) {
			return false, ErrInvalidSignature
		}
	}
	return true, nil
}

// String renders a transaction for human-readable debugging (used by
// print_blockchain).
func (tx Transaction) String() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("--- Transaction %x:", tx.ID))
	for i, in := range tx.Inputs {
		lines = append(lines, fmt.Sprintf("     Input %d:", i))
		lines = append(lines, fmt.Sprintf("       Previous TxID: %x", in.ID))
		lines = append(lines, fmt.Sprintf("       Output Index:  %d", in.Out))
		lines = append(lines, fmt.Sprintf("       Signature:     %x", in.Signature))
		lines = append(lines, fmt.Sprintf("       PubKeyHash:    %x", in.PubKeyHash))
	}
	for i, out := range tx.Outputs {
		lines = append(lines, fmt.Sprintf("     Output %d:", i))
		lines = append(lines, fmt.Sprintf("       Value:         %d", out.Value))
		lines = append(lines, fmt.Sprintf("       PubKeyHash:    %x", out.PubKeyHash))
	}
	return strings.Join(lines, "\n")
}
