// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package unsafestring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	for _, input := range []string{
		"",
		"abc",
		"😀",
	} {
		b := []byte(input)
		var s string
		allocs := testing.AllocsPerRun(1, func() {
			s = FromBytes(b)
		})
		require.Zero(t, allocs)
		require.Equal(t, input, s)
	}
}
