package wallet

import (
	"bytes"
	"encoding/gob"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Wallet is a single address's key material.
type Wallet struct {
	Keys KeyPair
}

// NewWallet creates a wallet around a freshly generated key pair.
func NewWallet() (*Wallet, error) {
	keys, err := NewKeyPair()
	if err != nil {
		return nil, err
	}
	return &Wallet{Keys: keys}, nil
}

// Address returns this wallet's base58 address.
func (w *Wallet) Address() []byte {
	return Address(w.Keys.PublicKey)
}

// walletRecord is the on-disk shape of a Wallet: only the private scalar is
// persisted, matching the teacher's GobEncode/GobDecode pair; the public key
// and curve point are reconstructed on load.
type walletRecord struct {
	D []byte
}

// GobEncode implements gob.GobEncoder.
func (w *Wallet) GobEncode() ([]byte, error) {
	rec := walletRecord{D: w.Keys.PrivateKey.Serialize()}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (w *Wallet) GobDecode(b []byte) error {
	var rec walletRecord
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&rec); err != nil {
		return err
	}

	priv, pub := btcec.PrivKeyFromBytes(rec.D)
	w.Keys = KeyPair{PrivateKey: priv, PublicKey: pub.SerializeCompressed()}
	return nil
}
