// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"math/big"
	"testing"

	"github.com/Fantom-foundation/Scry/go/tosca"
)

func TestFormatValue(t *testing.T) {
	tests := map[string]struct {
		value any
		want  string
	}{
		"small integer": {uint32(42), "42"},
		"negative":      {int8(-3), "-3"},
		"big integer":   {new(big.Int).Lsh(big.NewInt(1), 100), "1267650600228229401496703205376"},
		"bool":          {true, "true"},
		"address":       {tosca.Address{19: 1}, "0x0000000000000000000000000000000000000001"},
		"bytes":         {[]byte{0xab, 0xcd}, "0xabcd"},
		"empty bytes":   {[]byte{}, "0x"},
		"fixed bytes":   {[2]byte{1, 2}, "0x0102"},
		"string":        {"a\"b", `"a\"b"`},
		"list":          {[]any{uint8(1), []any{true, "x"}}, `[1, [true, "x"]]`},
		"empty list":    {[]any{}, "[]"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := formatValue(test.value); got != test.want {
				t.Errorf("unexpected format, wanted %s, got %s", test.want, got)
			}
		})
	}
}
