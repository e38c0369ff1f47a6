package coin

// TxInput references an output being spent. For a coinbase input, ID is
// empty and Out is -1; PubKeyHash then carries arbitrary coinbase data
// instead of a real public key.
type TxInput struct {
	ID         []byte
	Out        int
	Signature  []byte
	PubKeyHash []byte
}
