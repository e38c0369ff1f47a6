package codec

import "testing"

func TestBase58RoundTrip(t *testing.T) {
	input := []byte{0x00, 0x01, 0x02, 0xff, 0xfe}
	encoded := Base58Encode(input)

	decoded, err := Base58Decode(encoded)
	if err != nil {
		t.Fatalf("Base58Decode: %v", err)
	}
	if string(decoded) != string(input) {
		t.Fatalf("round trip mismatch: got %x, want %x", decoded, input)
	}
}

func TestBase58DecodeRejectsInvalidCharacters(t *testing.T) {
	if _, err := Base58Decode([]byte("0OIl")); err == nil {
		t.Fatal("expected an error decoding excluded base58 characters")
	}
}
