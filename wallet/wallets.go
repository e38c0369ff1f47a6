package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilimba-labs/utxochain/codec"
)

// ErrNoSuchWallet is returned by callers that require a wallet on file for
// an address this collection doesn't hold.
var ErrNoSuchWallet = errors.New("wallet: no such wallet")

// walletDir is the on-disk location for a node's wallet file, per the
// filesystem layout in spec.md §6.
const walletDir = "./tmp/wallets/wallet_%s"

func walletPath(nodeID string) string {
	return filepath.Join(fmt.Sprintf(walletDir, nodeID), "wallet.data")
}

// Wallets is the on-disk collection of a node's key pairs, keyed by address.
type Wallets struct {
	nodeID  string
	Wallets map[string]*Wallet
}

// CreateWallets loads (or initializes, if none exists yet) the wallet
// collection for nodeID.
func CreateWallets(nodeID string) (*Wallets, error) {
	ws := &Wallets{nodeID: nodeID, Wallets: make(map[string]*Wallet)}
	if err := ws.LoadFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return ws, nil
}

// AddWallet generates a new key pair, persists it, and returns its address.
func (ws *Wallets) AddWallet() (string, error) {
	w, err := NewWallet()
	if err != nil {
		return "", err
	}

	address := string(w.Address())
	ws.Wallets[address] = w

	if err := ws.SaveFile(); err != nil {
		return "", err
	}
	return address, nil
}

// GetAllAddresses lists every address held by this collection.
func (ws *Wallets) GetAllAddresses() []string {
	addresses := make([]string, 0, len(ws.Wallets))
	for address := range ws.Wallets {
		addresses = append(addresses, address)
	}
	return addresses
}

// GetWallet looks up the wallet for address, or nil if unknown.
func (ws *Wallets) GetWallet(address string) *Wallet {
	return ws.Wallets[address]
}

// LoadFile reads and decodes the wallet file for this collection's node,
// returning an os.IsNotExist error untouched when no file exists yet (the
// first AddWallet call will create one).
func (ws *Wallets) LoadFile() error {
	path := walletPath(ws.nodeID)
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var loaded Wallets
	if err := codec.DecodeRecord(content, &loaded); err != nil {
		return err
	}
	ws.Wallets = loaded.Wallets
	return nil
}

// GobEncode/GobDecode let Wallets round-trip through gob without exporting
// nodeID, which is process-local configuration, not wallet data.
type walletsRecord struct {
	Wallets map[string]*Wallet
}

func (ws Wallets) GobEncode() ([]byte, error) {
	return codec.EncodeRecord(walletsRecord{Wallets: ws.Wallets})
}

func (ws *Wallets) GobDecode(b []byte) error {
	var rec walletsRecord
	if err := codec.DecodeRecord(b, &rec); err != nil {
		return err
	}
	ws.Wallets = rec.Wallets
	return nil
}

// SaveFile serializes this node's wallet collection to disk.
func (ws *Wallets) SaveFile() error {
	path := walletPath(ws.nodeID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	content, err := codec.EncodeRecord(ws)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}
