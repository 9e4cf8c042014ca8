// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package abi encodes function calls and decodes their results following
// the Solidity contract ABI. Functions are described by human-readable
// signatures, e.g. "getReserves()(uint112,uint112,uint32)".
package abi

import (
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Scry/go/tosca"
)

// Signature describes the parameters and results of a contract function.
type Signature struct {
	Name    string
	Inputs  []Type
	Outputs []Type
}

// ParseSignature parses a function signature in one of the forms
//
//	name(inputs)(outputs)
//	name(inputs) returns (outputs)
//	function name(inputs) external view returns (outputs)
//
// where parameters may be named. The output list is optional.
func ParseSignature(signature string) (Signature, error) {
	s := strings.TrimSpace(signature)
	s = strings.TrimSpace(strings.TrimPrefix(s, "function "))

	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return Signature{}, fmt.Errorf("%w: missing parameter list in %q", ErrInvalidSignature, signature)
	}
	name := strings.TrimSpace(s[:open])
	if !isIdentifier(name) {
		return Signature{}, fmt.Errorf("%w: invalid function name %q", ErrInvalidSignature, name)
	}
	end, err := matchingParen(s, open)
	if err != nil {
		return Signature{}, err
	}
	inputs, err := parseParameters(s[open+1 : end])
	if err != nil {
		return Signature{}, err
	}

	rest := strings.TrimSpace(s[end+1:])
	for rest != "" && rest[0] != '(' {
		word, tail, _ := strings.Cut(rest, " ")
		if i := strings.IndexByte(word, '('); i >= 0 {
			word, tail = word[:i], rest[i:]
		}
		switch word {
		case "returns":
		case "external", "public", "internal", "view", "pure", "payable", "nonpayable", "virtual", "override":
		default:
			return Signature{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidSignature, word, signature)
		}
		rest = strings.TrimSpace(tail)
	}

	var outputs []Type
	if rest != "" {
		end, err := matchingParen(rest, 0)
		if err != nil {
			return Signature{}, err
		}
		if trailing := strings.TrimSpace(rest[end+1:]); trailing != "" && trailing != ";" {
			return Signature{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidSignature, trailing, signature)
		}
		outputs, err = parseParameters(rest[1:end])
		if err != nil {
			return Signature{}, err
		}
	}

	return Signature{Name: name, Inputs: inputs, Outputs: outputs}, nil
}

// MustParseSignature is like ParseSignature but panics on malformed input.
// It is intended for signatures fixed at compile time.
func MustParseSignature(signature string) Signature {
	res, err := ParseSignature(signature)
	if err != nil {
		panic(err)
	}
	return res
}

// String returns the canonical form "name(type1,type2)" of the signature.
func (s Signature) String() string {
	return s.Name + "(" + typeList(s.Inputs) + ")"
}

// Selector returns the first four bytes of the Keccak256 hash of the
// canonical signature.
func (s Signature) Selector() [4]byte {
	hash := tosca.Keccak256([]byte(s.String()))
	return [4]byte(hash[:4])
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_' || c == '$':
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
