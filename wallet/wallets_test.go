package wallet

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempWalletDir(t *testing.T) func() {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	return func() { os.Chdir(cwd) }
}

func TestCreateWalletsOnFreshNode(t *testing.T) {
	defer withTempWalletDir(t)()

	ws, err := CreateWallets("9999")
	if err != nil {
		t.Fatalf("CreateWallets: %v", err)
	}
	if len(ws.GetAllAddresses()) != 0 {
		t.Fatal("a fresh node should start with no wallets")
	}
}

func TestAddWalletPersistsAcrossLoad(t *testing.T) {
	defer withTempWalletDir(t)()

	ws, err := CreateWallets("9999")
	if err != nil {
		t.Fatalf("CreateWallets: %v", err)
	}

	address, err := ws.AddWallet()
	if err != nil {
		t.Fatalf("AddWallet: %v", err)
	}

	if _, err := os.Stat(walletPath("9999")); err != nil {
		t.Fatalf("expected wallet file at %s: %v", walletPath("9999"), err)
	}

	reloaded, err := CreateWallets("9999")
	if err != nil {
		t.Fatalf("CreateWallets (reload): %v", err)
	}
	if w := reloaded.GetWallet(address); w == nil {
		t.Fatalf("address %q should be present after reload", address)
	}
}

func TestGetWalletUnknownAddressReturnsNil(t *testing.T) {
	defer withTempWalletDir(t)()

	ws, err := CreateWallets("9999")
	if err != nil {
		t.Fatalf("CreateWallets: %v", err)
	}
	if w := ws.GetWallet("does-not-exist"); w != nil {
		t.Fatal("GetWallet should return nil for an unknown address")
	}
}

func TestWalletPathMatchesFilesystemLayout(t *testing.T) {
	got := walletPath("3000")
	want := filepath.Join("tmp", "wallets", "wallet_3000", "wallet.data")
	if filepath.Clean(got) != filepath.Clean("./"+want) {
		t.Fatalf("walletPath(3000) = %q, want %q", got, want)
	}
}
