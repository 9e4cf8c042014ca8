// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestAddress_StringIsLowerCaseHex(t *testing.T) {
	address := Address{0xAB, 1, 19: 0xff}
	if want, got := "0xab010000000000000000000000000000000000ff", address.String(); want != got {
		t.Errorf("unexpected address print, wanted %v, got %v", want, got)
	}
}

func TestValue_NewValueFillsFromLeastSignificantLimb(t *testing.T) {
	tests := map[string]struct {
		args []uint64
		want *uint256.Int
	}{
		"none":  {nil, uint256.NewInt(0)},
		"one":   {[]uint64{42}, uint256.NewInt(42)},
		"two":   {[]uint64{1, 2}, new(uint256.Int).Or(new(uint256.Int).Lsh(uint256.NewInt(1), 64), uint256.NewInt(2))},
		"four":  {[]uint64{1, 0, 0, 0}, new(uint256.Int).Lsh(uint256.NewInt(1), 192)},
		"max64": {[]uint64{math.MaxUint64}, uint256.NewInt(math.MaxUint64)},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := NewValue(test.args...).ToUint256()
			if !got.Eq(test.want) {
				t.Errorf("unexpected value, wanted %v, got %v", test.want, got)
			}
		})
	}
}

func TestValue_NewValuePanicsOnTooManyArguments(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	NewValue(1, 2, 3, 4, 5)
}

func TestValue_ConversionsAgree(t *testing.T) {
	values := []Value{{}, NewValue(1), NewValue(1, 0), {0xff, 31: 0x01}}
	for _, value := range values {
		if want, got := value.ToBig(), value.ToUint256().ToBig(); want.Cmp(got) != 0 {
			t.Errorf("big and uint256 conversions disagree, %v vs %v", want, got)
		}
		if got := ValueFromUint256(value.ToUint256()); got != value {
			t.Errorf("round trip through uint256 failed, wanted %v, got %v", value, got)
		}
	}
	if got := ValueFromUint256(nil); got != (Value{}) {
		t.Errorf("nil should convert to zero, got %v", got)
	}
}

func TestValue_StringIsDecimal(t *testing.T) {
	tests := map[Value]string{
		{}:             "0",
		NewValue(255):  "255",
		NewValue(1, 0): "18446744073709551616",
		NewValue(1e18): "1000000000000000000",
	}
	for value, want := range tests {
		if got := value.String(); want != got {
			t.Errorf("unexpected print, wanted %v, got %v", want, got)
		}
	}
}

func TestValue_CmpOrdersNumerically(t *testing.T) {
	tests := []struct {
		a, b Value
		want int
	}{
		{NewValue(1), NewValue(2), -1},
		{NewValue(2), NewValue(2), 0},
		{NewValue(1, 0), NewValue(math.MaxUint64), 1},
	}
	for _, test := range tests {
		if got := test.a.Cmp(test.b); got != test.want {
			t.Errorf("unexpected comparison of %v and %v, wanted %d, got %d", test.a, test.b, test.want, got)
		}
	}
}

func TestValue_AddAndSubWrapAround(t *testing.T) {
	maxValue := ValueFromUint256(new(uint256.Int).SetAllOne())
	tests := map[string]struct {
		got, want Value
	}{
		"add":           {Add(NewValue(40), NewValue(2)), NewValue(42)},
		"add carry":     {Add(NewValue(math.MaxUint64), NewValue(1)), NewValue(1, 0)},
		"add overflow":  {Add(maxValue, NewValue(2)), NewValue(1)},
		"sub":           {Sub(NewValue(42), NewValue(2)), NewValue(40)},
		"sub borrow":    {Sub(NewValue(1, 0), NewValue(1)), NewValue(math.MaxUint64)},
		"sub underflow": {Sub(NewValue(0), NewValue(1)), maxValue},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if test.want != test.got {
				t.Errorf("wanted %v, got %v", test.want, test.got)
			}
		})
	}
}

func TestValue_JSONUsesFixedLengthHex(t *testing.T) {
	value := NewValue(0x1234)
	encoded, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("failed to encode value: %v", err)
	}
	want := `"0x0000000000000000000000000000000000000000000000000000000000001234"`
	if got := string(encoded); want != got {
		t.Errorf("unexpected encoding, wanted %v, got %v", want, got)
	}
	var restored Value
	if err := json.Unmarshal(encoded, &restored); err != nil {
		t.Fatalf("failed to decode value: %v", err)
	}
	if restored != value {
		t.Errorf("unexpected restored value, wanted %v, got %v", value, restored)
	}
}

func TestValue_JSONRejectsMalformedInput(t *testing.T) {
	inputs := []string{
		`"1234"`,
		`"0x12"`,
		`"0xzz00000000000000000000000000000000000000000000000000000000000000"`,
		`"0x"`,
	}
	for _, input := range inputs {
		var value Value
		if err := json.Unmarshal([]byte(input), &value); err == nil {
			t.Errorf("expected decoding of %s to fail, got %v", input, value)
		}
	}
}

func TestValue_ToBigIsUnsigned(t *testing.T) {
	value := Value{0x80}
	want := new(big.Int).Lsh(big.NewInt(1), 255)
	if got := value.ToBig(); got.Cmp(want) != 0 {
		t.Errorf("unexpected conversion, wanted %v, got %v", want, got)
	}
}

func TestKeccak256_ProducesKnownHashOfEmptyInput(t *testing.T) {
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := EmptyCodeHash.String(); want != got {
		t.Errorf("unexpected hash of empty input, wanted %v, got %v", want, got)
	}
	if got := Keccak256([]byte{}); got != EmptyCodeHash {
		t.Errorf("nil and empty input should have the same hash")
	}
}

func TestKeccak256_RecycledHashersProduceSameResult(t *testing.T) {
	want := Keccak256([]byte{1, 2, 3})
	for i := 0; i < 10; i++ {
		Keccak256(make([]byte, 200*i))
		if got := Keccak256([]byte{1, 2, 3}); want != got {
			t.Fatalf("unexpected hash in round %d, wanted %v, got %v", i, want, got)
		}
	}
}

func TestAccount_NewAccountComputesCodeHash(t *testing.T) {
	code := Code{0x60, 0x01, 0x60, 0x00, 0x55}
	account := NewAccount(NewValue(12), 3, code)
	if want, got := Keccak256(code), account.CodeHash; want != got {
		t.Errorf("unexpected code hash, wanted %v, got %v", want, got)
	}
	if account.Balance != NewValue(12) || account.Nonce != 3 {
		t.Errorf("unexpected account properties: %v", account)
	}

	empty := NewAccount(Value{}, 0, nil)
	if empty.CodeHash != EmptyCodeHash {
		t.Errorf("account without code should have the empty code hash")
	}
}

func TestAccount_IsEmpty(t *testing.T) {
	tests := map[string]struct {
		account Account
		empty   bool
	}{
		"zero":         {Account{}, true},
		"no code":      {NewAccount(Value{}, 0, nil), true},
		"with balance": {NewAccount(NewValue(1), 0, nil), false},
		"with nonce":   {NewAccount(Value{}, 1, nil), false},
		"with code":    {NewAccount(Value{}, 0, Code{0}), false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if want, got := test.empty, test.account.IsEmpty(); want != got {
				t.Errorf("unexpected emptiness, wanted %t, got %t", want, got)
			}
		})
	}
}

func TestWord_TextEncoding(t *testing.T) {
	word := NewWord(1, 2)
	text, err := word.MarshalText()
	if err != nil {
		t.Fatalf("failed to encode word: %v", err)
	}
	var restored Word
	if err := restored.UnmarshalText(text); err != nil {
		t.Fatalf("failed to decode word: %v", err)
	}
	if word != restored {
		t.Errorf("unexpected restored word, wanted %v, got %v", word, restored)
	}
	if word[23] != 1 || word[31] != 2 {
		t.Errorf("unexpected word layout: %v", word)
	}
}
