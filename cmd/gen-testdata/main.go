// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// gen-testdata prints a large YAML mapping for cfgbin pack: every
// fourth key holds a list of values, the rest a single string.
package main

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
)

const (
	nPairs    = 200000
	listEvery = 4
	listLen   = 3
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	crand.Read(seedBytes[:])
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

func main() {
	rng := newRand()
	h := hmac.New(sha256.New, []byte(hmacKey))

	for i := 0; i < nPairs; i++ {
		var buf [suffixLen / 2]byte
		if _, err := rng.Read(buf[:]); err != nil {
			panic(err)
		}
		value := fmt.Sprintf("%s%x", prefix, buf)
		h.Reset()
		h.Write([]byte(value))
		key := hex.EncodeToString(h.Sum(nil))

		if i%listEvery != 0 {
			fmt.Printf("%q: %q\n", key, value)
			continue
		}
		fmt.Printf("%q:\n", key)
		for j := 0; j < listLen; j++ {
			fmt.Printf("  - %q\n", fmt.Sprintf("%s%d", value, j))
		}
	}
}
