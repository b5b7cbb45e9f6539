// Package random generates random sequences for secrets and identifiers.
package random

import (
	"crypto/rand"
	"math/big"
)

var (
	numSeq   [10]rune
	lowerSeq [26]rune
	upperSeq [26]rune
	allSeq   [62]rune
)

func init() {
	for i := 0; i < 10; i++ {
		numSeq[i] = rune('0' + i)
	}
	for i := 0; i < 26; i++ {
		lowerSeq[i] = rune('a' + i)
		upperSeq[i] = rune('A' + i)
	}
	copy(allSeq[:], numSeq[:])
	copy(allSeq[10:], lowerSeq[:])
	copy(allSeq[36:], upperSeq[:])
}

// Seq returns a random alphanumeric string of length n.
func Seq(n int) string {
	runes := make([]rune, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(allSeq))))
		if err != nil {
			// crypto/rand only fails when the platform entropy source is broken
			panic(err)
		}
		runes[i] = allSeq[idx.Int64()]
	}
	return string(runes)
}
