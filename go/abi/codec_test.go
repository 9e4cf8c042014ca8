// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package abi

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Scry/go/tosca"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"pgregory.net/rand"
)

func TestCodec_GetReservesRoundTrip(t *testing.T) {
	sig := MustParseSignature("getReserves()(uint112,uint112,uint32)")
	data, err := EncodeOutput(sig, big.NewInt(1000), big.NewInt(2000), uint32(1700000000))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if want, got := 96, len(data); want != got {
		t.Fatalf("unexpected encoding size, wanted %d, got %d", want, got)
	}
	values, err := DecodeOutput(sig, data)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := []any{big.NewInt(1000), big.NewInt(2000), uint32(1700000000)}
	if !equal(want, values) {
		t.Errorf("unexpected values, wanted %v, got %v", want, values)
	}
}

func TestEncodeCall_StartsWithSelector(t *testing.T) {
	sig := MustParseSignature("transfer(address,uint256)")
	to := tosca.Address{0xaa}
	data, err := EncodeCall(sig, to, uint64(42))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	want := "a9059cbb" +
		"000000000000000000000000aa00000000000000000000000000000000000000" +
		"000000000000000000000000000000000000000000000000000000000000002a"
	if got := fmt.Sprintf("%x", data); got != want {
		t.Errorf("unexpected encoding\nwant %v\ngot  %v", want, got)
	}

	args, err := DecodeInput(sig, data)
	if err != nil {
		t.Fatalf("failed to decode input: %v", err)
	}
	if !equal([]any{to, big.NewInt(42)}, args) {
		t.Errorf("unexpected arguments: %v", args)
	}
}

func TestCodec_PrimitiveTypesRoundTripAtBoundaries(t *testing.T) {
	for _, typ := range primitiveTypes() {
		for _, value := range boundaryValues(typ) {
			t.Run(fmt.Sprintf("%v/%v", typ, value), func(t *testing.T) {
				data, err := Encode([]Type{typ}, value)
				if err != nil {
					t.Fatalf("failed to encode: %v", err)
				}
				got, err := Decode([]Type{typ}, data)
				if err != nil {
					t.Fatalf("failed to decode: %v", err)
				}
				if !equal([]any{value}, got) {
					t.Errorf("round trip failed, wanted %v, got %v", value, got[0])
				}
			})
		}
	}
}

func TestCodec_RandomCompositeValuesRoundTrip(t *testing.T) {
	rnd := rand.New(42)
	types := []string{
		"uint256[]",
		"string[]",
		"(address,bytes,string)",
		"(uint8,(bool,bytes4)[])[2]",
		"bytes[][]",
		"int64[3]",
	}
	for _, name := range types {
		typ, err := ParseType(name)
		if err != nil {
			t.Fatalf("failed to parse %v: %v", name, err)
		}
		for i := 0; i < 20; i++ {
			value := randomValue(rnd, typ)
			data, err := Encode([]Type{typ, typ}, value, value)
			if err != nil {
				t.Fatalf("failed to encode %v: %v", value, err)
			}
			got, err := Decode([]Type{typ, typ}, data)
			if err != nil {
				t.Fatalf("failed to decode %v: %v", typ, err)
			}
			if !equal([]any{value, value}, got) {
				t.Fatalf("round trip of %v failed, wanted %v, got %v", typ, value, got)
			}
		}
	}
}

func TestEncode_MatchesGoEthereum(t *testing.T) {
	rnd := rand.New(7)
	tests := map[string]func() any{
		"uint8":     func() any { return uint8(rnd.Uint64()) },
		"uint64":    func() any { return rnd.Uint64() },
		"uint112":   func() any { return new(big.Int).SetUint64(rnd.Uint64()) },
		"int32":     func() any { return int32(rnd.Uint64()) },
		"int256":    func() any { return big.NewInt(-int64(rnd.Uint64() >> 1)) },
		"address":   func() any { return common.BytesToAddress(randomBytes(rnd, 20)) },
		"bool":      func() any { return rnd.Intn(2) == 1 },
		"bytes4":    func() any { return [4]byte(randomBytes(rnd, 4)) },
		"bytes32":   func() any { return [32]byte(randomBytes(rnd, 32)) },
		"bytes":     func() any { return randomBytes(rnd, rnd.Intn(100)) },
		"string":    func() any { return string(randomBytes(rnd, rnd.Intn(100))) },
		"uint256[]": func() any { return []*big.Int{big.NewInt(1), new(big.Int).SetUint64(rnd.Uint64())} },
		"uint16[3]": func() any { return [3]uint16{1, uint16(rnd.Uint64()), 3} },
		"string[]":  func() any { return []string{"a", strings.Repeat("b", 40)} },
	}

	for name, generate := range tests {
		t.Run(name, func(t *testing.T) {
			typ, err := ParseType(name)
			if err != nil {
				t.Fatalf("failed to parse type: %v", err)
			}
			gethType, err := gethabi.NewType(name, "", nil)
			if err != nil {
				t.Fatalf("failed to create reference type: %v", err)
			}
			for i := 0; i < 10; i++ {
				value := generate()
				want, err := gethabi.Arguments{{Type: gethType}, {Type: gethType}}.Pack(value, value)
				if err != nil {
					t.Fatalf("reference failed to encode %v: %v", value, err)
				}
				got, err := Encode([]Type{typ, typ}, value, value)
				if err != nil {
					t.Fatalf("failed to encode %v: %v", value, err)
				}
				if !bytes.Equal(want, got) {
					t.Errorf("encoding of %v differs\nwant %x\ngot  %x", value, want, got)
				}
			}
		})
	}
}

func TestEncode_RejectsInvalidValues(t *testing.T) {
	tests := map[string]struct {
		typ   string
		value any
	}{
		"uint8 too large":         {"uint8", 256},
		"uint negative":           {"uint256", -1},
		"uint112 too large":       {"uint112", new(big.Int).Lsh(big.NewInt(1), 112)},
		"int8 too small":          {"int8", -129},
		"int8 too large":          {"int8", 128},
		"int256 too large":        {"int256", new(big.Int).Lsh(big.NewInt(1), 255)},
		"nil big int":             {"uint256", (*big.Int)(nil)},
		"string as uint":          {"uint256", "1"},
		"int as address":          {"address", 1},
		"int as bool":             {"bool", 1},
		"short fixed bytes":       {"bytes4", []byte{1, 2, 3}},
		"long fixed bytes":        {"bytes4", [5]byte{}},
		"bytes as string":         {"string", []byte("a")},
		"wrong array length":      {"uint8[2]", []uint8{1}},
		"scalar as slice":         {"uint8[]", uint8(1)},
		"invalid slice element":   {"uint8[]", []int{1, 1000}},
		"wrong tuple size":        {"(uint8,bool)", []any{uint8(1)}},
		"invalid tuple component": {"(uint8,bool)", []any{uint8(1), "true"}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			typ, err := ParseType(test.typ)
			if err != nil {
				t.Fatalf("failed to parse type: %v", err)
			}
			_, err = Encode([]Type{typ}, test.value)
			if !errors.Is(err, ErrEncode) {
				t.Errorf("expected encoding error, got %v", err)
			}
			var encodeErr *EncodeError
			if !errors.As(err, &encodeErr) {
				t.Errorf("expected an *EncodeError, got %T", err)
			}
		})
	}
}

func TestEncode_RejectsWrongNumberOfArguments(t *testing.T) {
	sig := MustParseSignature("transfer(address,uint256)")
	if _, err := EncodeCall(sig, tosca.Address{}); !errors.Is(err, ErrEncode) {
		t.Errorf("expected encoding error, got %v", err)
	}
}

func TestDecode_RejectsInvalidData(t *testing.T) {
	word := func(hex string) string {
		return strings.Repeat("0", 64-len(hex)) + hex
	}
	tests := map[string]struct {
		types string
		data  string
	}{
		"empty":                      {"uint256", ""},
		"short word":                 {"uint256", word("1")[:62]},
		"insufficient return data":   {"(uint112,uint112,uint32)", word("1") + word("2")},
		"uint8 exceeding width":      {"uint8", word("100")},
		"uint112 exceeding width":    {"uint112", word("1" + strings.Repeat("0", 28))},
		"int8 exceeding width":       {"int8", word("80")},
		"int8 with wrong sign bits":  {"int8", "ff" + word("ff")[2:62] + "01"},
		"dirty address":              {"address", word("1" + strings.Repeat("0", 40))},
		"bool two":                   {"bool", word("2")},
		"bytes4 with dirty padding":  {"bytes4", "0102030405" + strings.Repeat("0", 54)},
		"offset out of bounds":       {"bytes", word("40")},
		"huge offset":                {"bytes", strings.Repeat("f", 64)},
		"length beyond data":         {"bytes", word("20") + word("21")},
		"slice length beyond data":   {"uint256[]", word("20") + word("2") + word("1")},
		"huge slice length":          {"uint256[]", word("20") + strings.Repeat("f", 64)},
		"missing string length word": {"string", word("20")},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			typ, err := ParseType(test.types)
			if err != nil {
				t.Fatalf("failed to parse type: %v", err)
			}
			types := []Type{typ}
			if typ.Kind == TupleKind {
				types = typ.Components
			}
			data := common.FromHex(test.data)
			_, err = Decode(types, data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected decoding error, got %v", err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("expected a *DecodeError, got %T", err)
			}
		})
	}
}

func TestDecode_AcceptsSignExtendedNegativeIntegers(t *testing.T) {
	typ, _ := ParseType("int8")
	data := bytes.Repeat([]byte{0xff}, 32)
	got, err := Decode([]Type{typ}, data)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if want := int8(-1); got[0] != want {
		t.Errorf("unexpected value, wanted %v, got %v", want, got[0])
	}
}

func TestDecode_RandomDataDoesNotPanic(t *testing.T) {
	rnd := rand.New(1)
	sig := MustParseSignature("f()(uint256[],(string,bytes)[2],bytes32,int8,address,bool[][])")
	for i := 0; i < 2000; i++ {
		data := randomBytes(rnd, rnd.Intn(600))
		// bias towards small offsets and lengths
		for j := 0; j+32 <= len(data); j += 32 {
			if rnd.Intn(2) == 0 {
				copy(data[j:j+32], make([]byte, 31))
				data[j+31] %= 0xc0
			}
		}
		_, _ = DecodeOutput(sig, data)
	}
}

func TestDecodeInput_RejectsWrongSelector(t *testing.T) {
	sig := MustParseSignature("balanceOf(address)")
	tests := map[string][]byte{
		"empty":        nil,
		"too short":    {0x70, 0xa0},
		"other method": append([]byte{0xa9, 0x05, 0x9c, 0xbb}, make([]byte, 32)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeInput(sig, data); !errors.Is(err, ErrDecode) {
				t.Errorf("expected decoding error, got %v", err)
			}
		})
	}
}

func TestDecodeRevertReason(t *testing.T) {
	errorPayload, err := EncodeCall(MustParseSignature("Error(string)"), "insufficient liquidity")
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	panicPayload, err := EncodeCall(MustParseSignature("Panic(uint256)"), uint64(0x11))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	tests := map[string]struct {
		data   []byte
		reason string
		ok     bool
	}{
		"error":   {errorPayload, "insufficient liquidity", true},
		"panic":   {panicPayload, "panic: 0x11", true},
		"empty":   {nil, "", false},
		"custom":  {[]byte{1, 2, 3, 4}, "", false},
		"garbage": {errorPayload[:40], "", false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			reason, ok := DecodeRevertReason(test.data)
			if reason != test.reason || ok != test.ok {
				t.Errorf("unexpected result, wanted (%q, %v), got (%q, %v)", test.reason, test.ok, reason, ok)
			}
		})
	}
}

func primitiveTypes() []Type {
	var res []Type
	for size := 8; size <= 256; size += 8 {
		res = append(res, Type{Kind: UintKind, Size: size}, Type{Kind: IntKind, Size: size})
	}
	for size := 1; size <= 32; size++ {
		res = append(res, Type{Kind: FixedBytesKind, Size: size})
	}
	return append(res,
		Type{Kind: AddressKind, Size: 160},
		Type{Kind: BoolKind},
		Type{Kind: BytesKind},
		Type{Kind: StringKind},
	)
}

// boundaryValues returns the zero, maximum, and a middle value of the type,
// represented by the Go types produced by the decoder.
func boundaryValues(t Type) []any {
	switch t.Kind {
	case UintKind:
		one := big.NewInt(1)
		upper := new(big.Int).Sub(new(big.Int).Lsh(one, uint(t.Size)), one)
		middle := new(big.Int).Lsh(one, uint(t.Size-1))
		return []any{goInteger(t, new(big.Int)), goInteger(t, upper), goInteger(t, middle)}
	case IntKind:
		one := big.NewInt(1)
		limit := new(big.Int).Lsh(one, uint(t.Size-1))
		upper := new(big.Int).Sub(limit, one)
		lower := new(big.Int).Neg(limit)
		return []any{goInteger(t, new(big.Int)), goInteger(t, upper), goInteger(t, lower), goInteger(t, big.NewInt(-1))}
	case AddressKind:
		var ones tosca.Address
		for i := range ones {
			ones[i] = 0xff
		}
		return []any{tosca.Address{}, ones, tosca.Address{19: 1}}
	case BoolKind:
		return []any{false, true}
	case FixedBytesKind:
		zero := reflect.New(reflect.ArrayOf(t.Size, reflect.TypeOf(byte(0)))).Elem()
		ones := reflect.New(zero.Type()).Elem()
		reflect.Copy(ones, reflect.ValueOf(bytes.Repeat([]byte{0xff}, t.Size)))
		return []any{zero.Interface(), ones.Interface()}
	case BytesKind:
		return []any{[]byte{}, bytes.Repeat([]byte{0xff}, 64), []byte{1, 2, 3}}
	case StringKind:
		return []any{"", strings.Repeat("x", 65), "hello"}
	}
	return nil
}

func goInteger(t Type, value *big.Int) any {
	switch {
	case t.Kind == UintKind && t.Size == 8:
		return uint8(value.Uint64())
	case t.Kind == UintKind && t.Size == 16:
		return uint16(value.Uint64())
	case t.Kind == UintKind && t.Size == 32:
		return uint32(value.Uint64())
	case t.Kind == UintKind && t.Size == 64:
		return value.Uint64()
	case t.Kind == IntKind && t.Size == 8:
		return int8(value.Int64())
	case t.Kind == IntKind && t.Size == 16:
		return int16(value.Int64())
	case t.Kind == IntKind && t.Size == 32:
		return int32(value.Int64())
	case t.Kind == IntKind && t.Size == 64:
		return value.Int64()
	}
	return value
}

func randomValue(rnd *rand.Rand, t Type) any {
	switch t.Kind {
	case UintKind, IntKind:
		value := new(big.Int).SetUint64(rnd.Uint64() >> (64 - min(t.Size, 64) + 1))
		if t.Kind == IntKind && rnd.Intn(2) == 0 {
			value.Neg(value)
		}
		return goInteger(t, value)
	case AddressKind:
		var address tosca.Address
		copy(address[:], randomBytes(rnd, 20))
		return address
	case BoolKind:
		return rnd.Intn(2) == 1
	case FixedBytesKind:
		res := reflect.New(reflect.ArrayOf(t.Size, reflect.TypeOf(byte(0)))).Elem()
		reflect.Copy(res, reflect.ValueOf(randomBytes(rnd, t.Size)))
		return res.Interface()
	case BytesKind:
		return randomBytes(rnd, rnd.Intn(70))
	case StringKind:
		return string(randomBytes(rnd, rnd.Intn(70)))
	case SliceKind:
		res := make([]any, rnd.Intn(4))
		for i := range res {
			res[i] = randomValue(rnd, *t.Elem)
		}
		return res
	case ArrayKind:
		res := make([]any, t.Size)
		for i := range res {
			res[i] = randomValue(rnd, *t.Elem)
		}
		return res
	case TupleKind:
		res := make([]any, len(t.Components))
		for i, c := range t.Components {
			res[i] = randomValue(rnd, c)
		}
		return res
	}
	return nil
}

func randomBytes(rnd *rand.Rand, n int) []byte {
	res := make([]byte, n)
	rnd.Read(res)
	return res
}

// equal compares decoded values, comparing big integers by value.
func equal(a, b any) bool {
	if x, ok := a.(*big.Int); ok {
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	}
	if x, ok := a.([]any); ok {
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
