package codec

import (
	"log"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is mandated by the address format
)

// Hash160 computes RIPEMD160(SHA256(data)), the public-key hash embedded in
// every address and output.
func Hash160(data []byte) []byte {
	sum := Sha256(data)

	hasher := ripemd160.New()
	if _, err := hasher.Write(sum); err != nil {
		log.Panic(err)
	}
	return hasher.Sum(nil)
}
