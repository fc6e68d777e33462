package sharedtable

import "crypto/rand"

const signSize = 10

// randomSign draws a fresh 10-byte version token. With 80 bits of
// entropy, two consecutive structural changes collide with negligible
// probability — the "overwhelming probability" of distinctness
// spec.md's Monotonic sign property asks for.
func randomSign() ([signSize]byte, error) {
	var sign [signSize]byte
	if _, err := rand.Read(sign[:]); err != nil {
		return sign, err
	}
	return sign, nil
}
