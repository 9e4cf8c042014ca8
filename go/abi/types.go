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
	"fmt"
	"strconv"
	"strings"
)

// maxArrayLength limits the length of fixed-size arrays.
const maxArrayLength = 1 << 16

// Kind enumerates the families of ABI types.
type Kind byte

const (
	UintKind Kind = iota
	IntKind
	AddressKind
	BoolKind
	FixedBytesKind
	BytesKind
	StringKind
	SliceKind
	ArrayKind
	TupleKind
)

// Type describes an ABI type. Size is the bit width of integers, the number
// of bytes of fixed-size byte arrays, and the length of fixed-size arrays.
type Type struct {
	Kind       Kind
	Size       int
	Elem       *Type  // < element type of slices and arrays
	Components []Type // < member types of tuples
}

// String returns the canonical name of the type as used for computing
// function selectors.
func (t Type) String() string {
	switch t.Kind {
	case UintKind:
		return fmt.Sprintf("uint%d", t.Size)
	case IntKind:
		return fmt.Sprintf("int%d", t.Size)
	case AddressKind:
		return "address"
	case BoolKind:
		return "bool"
	case FixedBytesKind:
		return fmt.Sprintf("bytes%d", t.Size)
	case BytesKind:
		return "bytes"
	case StringKind:
		return "string"
	case SliceKind:
		return t.Elem.String() + "[]"
	case ArrayKind:
		return fmt.Sprintf("%v[%d]", t.Elem, t.Size)
	case TupleKind:
		return "(" + typeList(t.Components) + ")"
	default:
		return fmt.Sprintf("Kind(%d)", t.Kind)
	}
}

func typeList(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

// isDynamic reports whether the encoding of the type is referenced through
// an offset in the head of the enclosing tuple.
func (t Type) isDynamic() bool {
	switch t.Kind {
	case BytesKind, StringKind, SliceKind:
		return true
	case ArrayKind:
		return t.Elem.isDynamic()
	case TupleKind:
		for _, c := range t.Components {
			if c.isDynamic() {
				return true
			}
		}
	}
	return false
}

// headSize is the number of bytes the type occupies in the head of the
// enclosing tuple.
func (t Type) headSize() int {
	if t.isDynamic() {
		return wordSize
	}
	switch t.Kind {
	case ArrayKind:
		return t.Size * t.Elem.headSize()
	case TupleKind:
		return tupleHeadSize(t.Components)
	}
	return wordSize
}

func tupleHeadSize(types []Type) int {
	size := 0
	for _, t := range types {
		size += t.headSize()
	}
	return size
}

// ParseType parses the name of a type, e.g. "uint256", "bytes32[]", or
// "(address,uint112)[2]". The aliases "uint" and "int" denote the 256-bit
// variants.
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Type{}, fmt.Errorf("%w: empty type", ErrInvalidSignature)
	}

	// array suffixes bind to everything before them
	if strings.HasSuffix(name, "]") {
		open := strings.LastIndexByte(name, '[')
		if open < 0 {
			return Type{}, fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidSignature, name)
		}
		elem, err := ParseType(name[:open])
		if err != nil {
			return Type{}, err
		}
		length := strings.TrimSpace(name[open+1 : len(name)-1])
		if length == "" {
			return Type{Kind: SliceKind, Elem: &elem}, nil
		}
		size, err := strconv.Atoi(length)
		if err != nil || size <= 0 || size > maxArrayLength {
			return Type{}, fmt.Errorf("%w: invalid array length in %q", ErrInvalidSignature, name)
		}
		return Type{Kind: ArrayKind, Size: size, Elem: &elem}, nil
	}

	if strings.HasPrefix(name, "(") {
		if !strings.HasSuffix(name, ")") {
			return Type{}, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSignature, name)
		}
		components, err := parseParameters(name[1 : len(name)-1])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: TupleKind, Components: components}, nil
	}

	switch name {
	case "address":
		return Type{Kind: AddressKind, Size: 160}, nil
	case "bool":
		return Type{Kind: BoolKind}, nil
	case "bytes":
		return Type{Kind: BytesKind}, nil
	case "string":
		return Type{Kind: StringKind}, nil
	case "uint":
		return Type{Kind: UintKind, Size: 256}, nil
	case "int":
		return Type{Kind: IntKind, Size: 256}, nil
	}

	for _, prefix := range []struct {
		name string
		kind Kind
	}{
		{"uint", UintKind},
		{"int", IntKind},
		{"bytes", FixedBytesKind},
	} {
		rest, found := strings.CutPrefix(name, prefix.name)
		if !found {
			continue
		}
		size, err := strconv.Atoi(rest)
		if err != nil || rest[0] == '0' {
			break
		}
		if prefix.kind == FixedBytesKind {
			if size < 1 || size > 32 {
				return Type{}, fmt.Errorf("%w: invalid size of %q", ErrInvalidSignature, name)
			}
		} else if size < 8 || size > 256 || size%8 != 0 {
			return Type{}, fmt.Errorf("%w: invalid size of %q", ErrInvalidSignature, name)
		}
		return Type{Kind: prefix.kind, Size: size}, nil
	}
	return Type{}, fmt.Errorf("%w: unknown type %q", ErrInvalidSignature, name)
}

// parseParameters parses a comma separated list of parameters. Each
// parameter is a type, optionally followed by a data location and a name.
func parseParameters(list string) ([]Type, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts, err := splitTopLevel(list)
	if err != nil {
		return nil, err
	}
	res := make([]Type, 0, len(parts))
	for _, part := range parts {
		typeName, err := parameterType(part)
		if err != nil {
			return nil, err
		}
		t, err := ParseType(typeName)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

// parameterType strips data locations and names from a parameter
// declaration like "uint112 reserve0" or "(uint a, bool b)[] memory list".
func parameterType(parameter string) (string, error) {
	parameter = strings.TrimSpace(parameter)
	if parameter == "" {
		return "", fmt.Errorf("%w: empty parameter", ErrInvalidSignature)
	}
	end := 0
	if parameter[0] == '(' {
		closing, err := matchingParen(parameter, 0)
		if err != nil {
			return "", err
		}
		end = closing + 1
	}
	// array suffixes may follow the base type
	for end < len(parameter) && parameter[end] != ' ' && parameter[end] != '\t' {
		end++
	}
	typeName := parameter[:end]
	rest := strings.Fields(parameter[end:])
	if len(rest) > 0 && isDataLocation(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) > 1 {
		return "", fmt.Errorf("%w: unexpected tokens in parameter %q", ErrInvalidSignature, parameter)
	}
	return typeName, nil
}

func isDataLocation(word string) bool {
	return word == "memory" || word == "calldata" || word == "storage"
}

// splitTopLevel splits a list at commas not nested in parentheses.
func splitTopLevel(list string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, c := range list {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSignature, list)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSignature, list)
	}
	return append(parts, list[start:]), nil
}

// matchingParen returns the position of the parenthesis closing the one at
// position open.
func matchingParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSignature, s)
}
