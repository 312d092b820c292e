package booking

import "math/rand"

// refAlphabet holds the characters booking references are drawn from.
const refAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// referenceLength is the fixed length of a booking reference.
const referenceLength = 8

// NewReference returns a fresh 8-character booking reference. References are
// not primary keys; uniqueness is enforced by the ledger, with the caller
// regenerating on collision.
func NewReference() string {
	buf := make([]byte, referenceLength)
	for i := range buf {
		buf[i] = refAlphabet[rand.Intn(len(refAlphabet))]
	}
	return string(buf)
}
