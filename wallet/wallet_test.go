package wallet

import "testing"

func TestNewWalletAddressValidates(t *testing.T) {
	w, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}

	address := string(w.Address())
	if !ValidateAddress(address) {
		t.Fatalf("address %q from a freshly generated wallet should validate", address)
	}
}

func TestValidateAddressRejectsGarbage(t *testing.T) {
	if ValidateAddress("not-a-real-address") {
		t.Fatal("garbage input should not validate as an address")
	}
}

func TestValidateAddressRejectsFlippedChecksum(t *testing.T) {
	w, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	address := w.Address()
	tampered := append([]byte{}, address...)
	// Swap the last character for another valid base58 digit so the address
	// still decodes and only the checksum comparison can reject it.
	last := len(tampered) - 1
	if tampered[last] == '1' {
		tampered[last] = '2'
	} else {
		tampered[last] = '1'
	}

	if ValidateAddress(string(tampered)) {
		t.Fatal("a tampered checksum should fail validation")
	}
}

func TestWalletGobRoundTrip(t *testing.T) {
	w, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}

	encoded, err := w.GobEncode()
	if err != nil {
		t.Fatalf("GobEncode: %v", err)
	}

	var restored Wallet
	if err := restored.GobDecode(encoded); err != nil {
		t.Fatalf("GobDecode: %v", err)
	}

	if string(restored.Address()) != string(w.Address()) {
		t.Fatal("a wallet decoded from its own encoding should derive the same address")
	}
}
