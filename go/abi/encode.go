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
	"math/big"
	"reflect"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const wordSize = 32

// EncodeCall encodes a call of the given function: the selector of the
// function followed by the encoded arguments.
func EncodeCall(signature Signature, args ...any) ([]byte, error) {
	data, err := Encode(signature.Inputs, args...)
	if err != nil {
		return nil, err
	}
	selector := signature.Selector()
	return append(selector[:], data...), nil
}

// EncodeOutput encodes the given values as results of the given function.
func EncodeOutput(signature Signature, values ...any) ([]byte, error) {
	return Encode(signature.Outputs, values...)
}

// Encode encodes the given values as a tuple of the given types.
func Encode(types []Type, values ...any) ([]byte, error) {
	return encodeTuple(Type{Kind: TupleKind, Components: types}, types, values)
}

func encodeTuple(tuple Type, types []Type, values []any) ([]byte, error) {
	if len(values) != len(types) {
		return nil, encodeError(tuple, values, "expected %d values, got %d", len(types), len(values))
	}
	headSize := tupleHeadSize(types)
	head := make([]byte, 0, headSize)
	var tail []byte
	for i, t := range types {
		encoded, err := encodeValue(t, values[i])
		if err != nil {
			return nil, err
		}
		if t.isDynamic() {
			head = append(head, encodeLength(headSize+len(tail))...)
			tail = append(tail, encoded...)
		} else {
			head = append(head, encoded...)
		}
	}
	return append(head, tail...), nil
}

func encodeValue(t Type, value any) ([]byte, error) {
	switch t.Kind {
	case UintKind, IntKind:
		word, err := toWord(t, value)
		if err != nil {
			return nil, err
		}
		res := word.Bytes32()
		return res[:], nil

	case AddressKind:
		var address tosca.Address
		switch v := value.(type) {
		case tosca.Address:
			address = v
		case common.Address:
			address = tosca.Address(v)
		case [20]byte:
			address = v
		default:
			return nil, encodeError(t, value, "unsupported Go type")
		}
		res := make([]byte, wordSize)
		copy(res[wordSize-len(address):], address[:])
		return res, nil

	case BoolKind:
		v, ok := value.(bool)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		res := make([]byte, wordSize)
		if v {
			res[wordSize-1] = 1
		}
		return res, nil

	case FixedBytesKind:
		data, ok := toBytes(value)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		if len(data) != t.Size {
			return nil, encodeError(t, value, "expected %d bytes, got %d", t.Size, len(data))
		}
		return padRight(data), nil

	case BytesKind:
		data, ok := toBytes(value)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		return append(encodeLength(len(data)), padRight(data)...), nil

	case StringKind:
		v, ok := value.(string)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		return append(encodeLength(len(v)), padRight([]byte(v))...), nil

	case SliceKind:
		elements, ok := toElements(value)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		encoded, err := encodeTuple(t, repeat(*t.Elem, len(elements)), elements)
		if err != nil {
			return nil, err
		}
		return append(encodeLength(len(elements)), encoded...), nil

	case ArrayKind:
		elements, ok := toElements(value)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		if len(elements) != t.Size {
			return nil, encodeError(t, value, "expected %d elements, got %d", t.Size, len(elements))
		}
		return encodeTuple(t, repeat(*t.Elem, t.Size), elements)

	case TupleKind:
		elements, ok := toElements(value)
		if !ok {
			return nil, encodeError(t, value, "unsupported Go type")
		}
		return encodeTuple(t, t.Components, elements)
	}
	return nil, encodeError(t, value, "unsupported type")
}

// toWord converts an integer value into its 256-bit two's complement
// representation, checking that it fits into the given type.
func toWord(t Type, value any) (*uint256.Int, error) {
	var b *big.Int
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, encodeError(t, value, "nil value")
		}
		b = v
	case *uint256.Int:
		if v == nil {
			return nil, encodeError(t, value, "nil value")
		}
		b = v.ToBig()
	case uint256.Int:
		b = v.ToBig()
	case int:
		b = big.NewInt(int64(v))
	case int8:
		b = big.NewInt(int64(v))
	case int16:
		b = big.NewInt(int64(v))
	case int32:
		b = big.NewInt(int64(v))
	case int64:
		b = big.NewInt(v)
	case uint:
		b = new(big.Int).SetUint64(uint64(v))
	case uint8:
		b = new(big.Int).SetUint64(uint64(v))
	case uint16:
		b = new(big.Int).SetUint64(uint64(v))
	case uint32:
		b = new(big.Int).SetUint64(uint64(v))
	case uint64:
		b = new(big.Int).SetUint64(v)
	default:
		return nil, encodeError(t, value, "unsupported Go type")
	}

	if t.Kind == UintKind {
		if b.Sign() < 0 || b.BitLen() > t.Size {
			return nil, encodeError(t, value, "out of range")
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if b.Cmp(limit) >= 0 || b.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, encodeError(t, value, "out of range")
		}
	}
	res, _ := uint256.FromBig(b)
	return res, nil
}

func toBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case tosca.Data:
		return v, true
	case tosca.Code:
		return v, true
	case tosca.Hash:
		return v[:], true
	case tosca.Word:
		return v[:], true
	case common.Hash:
		return v[:], true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	res := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(res), rv)
	return res, true
}

func toElements(value any) ([]any, bool) {
	if v, ok := value.([]any); ok {
		return v, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	res := make([]any, rv.Len())
	for i := range res {
		res[i] = rv.Index(i).Interface()
	}
	return res, true
}

func repeat(t Type, n int) []Type {
	res := make([]Type, n)
	for i := range res {
		res[i] = t
	}
	return res
}

func encodeLength(length int) []byte {
	res := uint256.NewInt(uint64(length)).Bytes32()
	return res[:]
}

// padRight pads the data with zeros to a multiple of the word size.
func padRight(data []byte) []byte {
	size := (len(data) + wordSize - 1) / wordSize * wordSize
	res := make([]byte, size)
	copy(res, data)
	return res
}
