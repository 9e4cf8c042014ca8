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
	"fmt"
	"reflect"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/holiman/uint256"
)

var (
	errorSignature = MustParseSignature("Error(string)")
	panicSignature = MustParseSignature("Panic(uint256)")
)

// DecodeOutput decodes the results of the given function.
func DecodeOutput(signature Signature, data []byte) ([]any, error) {
	return Decode(signature.Outputs, data)
}

// DecodeInput decodes the arguments of a call of the given function. The
// data has to start with the selector of the function.
func DecodeInput(signature Signature, data []byte) ([]any, error) {
	selector := signature.Selector()
	if len(data) < len(selector) {
		return nil, &DecodeError{Type: signature.String(), Reason: "missing selector"}
	}
	if !bytes.Equal(data[:len(selector)], selector[:]) {
		return nil, &DecodeError{Type: signature.String(), Reason: fmt.Sprintf("selector mismatch, got 0x%x", data[:len(selector)])}
	}
	return Decode(signature.Inputs, data[len(selector):])
}

// Decode decodes a tuple of the given types. Integers, addresses, and
// booleans have to be padded canonically, and all offsets and lengths have
// to stay within the data. Trailing data is ignored.
func Decode(types []Type, data []byte) ([]any, error) {
	return decodeTuple(Type{Kind: TupleKind, Components: types}, types, data, 0)
}

// DecodeRevertReason extracts the message of a revert payload produced by
// a failing require or a panic. The result is false if the payload has
// neither format.
func DecodeRevertReason(data []byte) (string, bool) {
	if values, err := DecodeInput(errorSignature, data); err == nil {
		return values[0].(string), true
	}
	if values, err := DecodeInput(panicSignature, data); err == nil {
		return fmt.Sprintf("panic: 0x%x", values[0]), true
	}
	return "", false
}

// decodeTuple decodes a sequence of values from data, which starts at the
// given position of the overall input.
func decodeTuple(tuple Type, types []Type, data []byte, base int) ([]any, error) {
	if need := tupleHeadSize(types); len(data) < need {
		return nil, decodeError(tuple, base, "need %d bytes, have %d", need, len(data))
	}
	res := make([]any, len(types))
	pos := 0
	for i, t := range types {
		start := pos
		if t.isDynamic() {
			offset, err := readSize(t, data, pos, base)
			if err != nil {
				return nil, err
			}
			start = offset
		}
		value, err := decodeValue(t, data[start:], base+start)
		if err != nil {
			return nil, err
		}
		res[i] = value
		pos += t.headSize()
	}
	return res, nil
}

func decodeValue(t Type, data []byte, base int) (any, error) {
	switch t.Kind {
	case UintKind, IntKind, AddressKind, BoolKind, FixedBytesKind:
		if len(data) < wordSize {
			return nil, decodeError(t, base, "need %d bytes, have %d", wordSize, len(data))
		}
		return decodeWord(t, data[:wordSize], base)

	case BytesKind, StringKind:
		length, err := readSize(t, data, 0, base)
		if err != nil {
			return nil, err
		}
		if length > len(data)-wordSize {
			return nil, decodeError(t, base, "length %d exceeds data", length)
		}
		content := data[wordSize : wordSize+length]
		if t.Kind == StringKind {
			return string(content), nil
		}
		return bytes.Clone(content), nil

	case SliceKind:
		length, err := readSize(t, data, 0, base)
		if err != nil {
			return nil, err
		}
		if length > (len(data)-wordSize)/max(t.Elem.headSize(), 1) {
			return nil, decodeError(t, base, "length %d exceeds data", length)
		}
		return decodeTuple(t, repeat(*t.Elem, length), data[wordSize:], base+wordSize)

	case ArrayKind:
		return decodeTuple(t, repeat(*t.Elem, t.Size), data, base)

	case TupleKind:
		return decodeTuple(t, t.Components, data, base)
	}
	return nil, decodeError(t, base, "unsupported type")
}

// decodeWord decodes a value of a static elementary type from a single
// 32-byte word, rejecting non-canonical encodings.
func decodeWord(t Type, word []byte, base int) (any, error) {
	switch t.Kind {
	case UintKind:
		value := new(uint256.Int).SetBytes32(word)
		if value.BitLen() > t.Size {
			return nil, decodeError(t, base, "value 0x%x exceeds %d bits", word, t.Size)
		}
		return toGoUint(t, value), nil

	case IntKind:
		value := new(uint256.Int).SetBytes32(word)
		if t.Size < 256 {
			extended := new(uint256.Int).ExtendSign(value, uint256.NewInt(uint64(t.Size/8-1)))
			if !extended.Eq(value) {
				return nil, decodeError(t, base, "value 0x%x exceeds %d bits", word, t.Size)
			}
		}
		return toGoInt(t, value), nil

	case AddressKind:
		var address tosca.Address
		padding := wordSize - len(address)
		if !isZero(word[:padding]) {
			return nil, decodeError(t, base, "dirty padding 0x%x", word[:padding])
		}
		copy(address[:], word[padding:])
		return address, nil

	case BoolKind:
		if !isZero(word[:wordSize-1]) || word[wordSize-1] > 1 {
			return nil, decodeError(t, base, "invalid boolean 0x%x", word)
		}
		return word[wordSize-1] == 1, nil

	case FixedBytesKind:
		if !isZero(word[t.Size:]) {
			return nil, decodeError(t, base, "dirty padding 0x%x", word[t.Size:])
		}
		res := reflect.New(reflect.ArrayOf(t.Size, reflect.TypeOf(byte(0)))).Elem()
		reflect.Copy(res, reflect.ValueOf(word[:t.Size]))
		return res.Interface(), nil
	}
	return nil, decodeError(t, base, "not an elementary type")
}

// readSize reads an offset or length from the word at the given position.
// The result never exceeds the size of the data.
func readSize(t Type, data []byte, pos int, base int) (int, error) {
	if len(data) < pos+wordSize {
		return 0, decodeError(t, base+pos, "need %d bytes, have %d", pos+wordSize, len(data))
	}
	value := new(uint256.Int).SetBytes32(data[pos : pos+wordSize])
	if !value.IsUint64() || value.Uint64() > uint64(len(data)) {
		return 0, decodeError(t, base+pos, "offset or length 0x%x out of bounds", data[pos:pos+wordSize])
	}
	return int(value.Uint64()), nil
}

func toGoUint(t Type, value *uint256.Int) any {
	switch t.Size {
	case 8:
		return uint8(value.Uint64())
	case 16:
		return uint16(value.Uint64())
	case 32:
		return uint32(value.Uint64())
	case 64:
		return value.Uint64()
	}
	return value.ToBig()
}

func toGoInt(t Type, value *uint256.Int) any {
	low := int64(value.Uint64())
	switch t.Size {
	case 8:
		return int8(low)
	case 16:
		return int16(low)
	case 32:
		return int32(low)
	case 64:
		return low
	}
	if value.Sign() >= 0 {
		return value.ToBig()
	}
	res := new(uint256.Int).Neg(value).ToBig()
	return res.Neg(res)
}

func isZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
