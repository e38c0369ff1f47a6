package wallet

import "github.com/btcsuite/btcd/btcec/v2"

// KeyPair holds a secp256k1 private key alongside its compressed SEC1
// public key, mirroring how the rest of the chain passes keys around.
type KeyPair struct {
	PrivateKey *btcec.PrivateKey
	PublicKey  []byte // 33-byte compressed SEC1 encoding
}

// NewKeyPair generates a fresh secp256k1 key pair.
func NewKeyPair() (KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		PrivateKey: priv,
		PublicKey:  priv.PubKey().SerializeCompressed(),
	}, nil
}
