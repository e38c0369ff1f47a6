package codec

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestUint64BERoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 255, 256, 1 << 32, ^uint64(0)}
	for _, n := range cases {
		got := Uint64BE(n)
		if len(got) != 8 {
			t.Fatalf("Uint64BE(%d): want 8 bytes, got %d", n, len(got))
		}
		if back := binary.BigEndian.Uint64(got); back != n {
			t.Fatalf("Uint64BE(%d) decodes back to %d", n, back)
		}
	}
}

func TestDoubleSha256(t *testing.T) {
	data := []byte("utxochain")
	once := Sha256(data)
	twice := Sha256(once)
	if !bytes.Equal(twice, DoubleSha256(data)) {
		t.Fatal("DoubleSha256 should equal Sha256(Sha256(data))")
	}
}

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	type sample struct {
		A int
		B []byte
	}
	in := sample{A: 7, B: []byte("hello")}

	encoded, err := EncodeRecord(in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	var out sample
	if err := DecodeRecord(encoded, &out); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	if out.A != in.A || !bytes.Equal(out.B, in.B) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}
