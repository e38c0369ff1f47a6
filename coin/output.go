package coin

import (
	"bytes"

	"github.com/kilimba-labs/utxochain/codec"
	"github.com/kilimba-labs/utxochain/wallet"
)

// TxOutput is a non-negative value locked to a recipient's public-key hash.
type TxOutput struct {
	Value      int
	PubKeyHash []byte
}

// NewTXOutput builds an output paying value to address.
func NewTXOutput(value int, address string) (*TxOutput, error) {
	out := &TxOutput{Value: value}
	if err := out.Lock([]byte(address)); err != nil {
		return nil, err
	}
	return out, nil
}

// Lock sets the output's public-key hash from a recipient address.
func (out *TxOutput) Lock(address []byte) error {
	pubKeyHash, err := wallet.PublicKeyHashFromAddress(string(address))
	if err != nil {
		return err
	}
	out.PubKeyHash = pubKeyHash
	return nil
}

// IsLockedWithKey reports whether pubKeyHash can spend this output.
func (out *TxOutput) IsLockedWithKey(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// TxOutputs is the serializable collection of a transaction's outputs, the
// value stored under the "utxo-" index in the store.
type TxOutputs struct {
	Outputs []TxOutput
}

// Serialize gob-encodes the output list for UTXO index storage.
func (outs TxOutputs) Serialize() []byte {
	data, err := codec.EncodeRecord(outs)
	if err != nil {
		panic(err) // encoding a plain value slice cannot fail
	}
	return data
}

// DeserializeOutputs decodes a TxOutputs value written by Serialize.
func DeserializeOutputs(data []byte) (TxOutputs, error) {
	var outs TxOutputs
	if err := codec.DecodeRecord(data, &outs); err != nil {
		return TxOutputs{}, err
	}
	return outs, nil
}
