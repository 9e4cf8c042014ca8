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
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Fantom-foundation/Scry/go/abi"
	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// parseArguments converts command line arguments into values accepted by
// the ABI encoder. Arrays and tuples are written as bracketed lists, e.g.
// "[1,2,3]" or "(0x12..,true)".
func parseArguments(types []abi.Type, args []string) ([]any, error) {
	if len(args) != len(types) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(types), len(args))
	}
	res := make([]any, len(args))
	for i, arg := range args {
		value, err := parseArgument(types[i], arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		res[i] = value
	}
	return res, nil
}

func parseArgument(t abi.Type, arg string) (any, error) {
	arg = strings.TrimSpace(arg)
	switch t.Kind {
	case abi.UintKind, abi.IntKind:
		value, ok := new(big.Int).SetString(arg, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", arg)
		}
		return value, nil
	case abi.AddressKind:
		return parseAddress(arg)
	case abi.BoolKind:
		return strconv.ParseBool(arg)
	case abi.FixedBytesKind, abi.BytesKind:
		return hexutil.Decode(arg)
	case abi.StringKind:
		return arg, nil
	case abi.SliceKind, abi.ArrayKind, abi.TupleKind:
		elements, err := splitList(arg)
		if err != nil {
			return nil, err
		}
		types := t.Components
		if t.Kind != abi.TupleKind {
			types = make([]abi.Type, len(elements))
			for i := range types {
				types[i] = *t.Elem
			}
		}
		return parseArguments(types, elements)
	}
	return nil, fmt.Errorf("unsupported type %v", t)
}

// splitList splits a bracketed list at commas not nested in brackets.
func splitList(list string) ([]string, error) {
	if len(list) < 2 || !isBracketPair(list[0], list[len(list)-1]) {
		return nil, fmt.Errorf("expected a bracketed list, got %q", list)
	}
	inner := strings.TrimSpace(list[1 : len(list)-1])
	if inner == "" {
		return nil, nil
	}
	var res []string
	depth, start := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				res = append(res, inner[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", list)
	}
	return append(res, inner[start:]), nil
}

func isBracketPair(first, last byte) bool {
	return (first == '[' && last == ']') || (first == '(' && last == ')')
}

func parseAddress(s string) (tosca.Address, error) {
	if !common.IsHexAddress(s) {
		return tosca.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return tosca.Address(common.HexToAddress(s)), nil
}

func parseKeys(keys []string) ([]tosca.Key, error) {
	res := make([]tosca.Key, 0, len(keys))
	for _, key := range keys {
		value, ok := new(big.Int).SetString(key, 0)
		if !ok || value.Sign() < 0 || value.BitLen() > 256 {
			return nil, fmt.Errorf("invalid storage key %q", key)
		}
		res = append(res, tosca.Key(common.BigToHash(value)))
	}
	return res, nil
}
