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

	"github.com/Fantom-foundation/Scry/go/tosca"
)

const (
	// ErrDecode is the error all decoding failures can be matched against.
	ErrDecode = tosca.ConstError("abi decoding failed")
	// ErrEncode is the error all encoding failures can be matched against.
	ErrEncode = tosca.ConstError("abi encoding failed")
	// ErrInvalidSignature is reported for malformed function signatures.
	ErrInvalidSignature = tosca.ConstError("invalid signature")
)

// DecodeError describes why a byte sequence could not be decoded. It is
// reported for data that is too short, for offsets and lengths pointing
// outside of the data, and for values not representable in their type.
type DecodeError struct {
	Type   string
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d: %s", ErrDecode, e.Type, e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// EncodeError describes why a value could not be encoded in a given type.
type EncodeError struct {
	Type   string
	Value  any
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%v: cannot encode %v (%T) as %s: %s", ErrEncode, e.Value, e.Value, e.Type, e.Reason)
}

func (e *EncodeError) Unwrap() error {
	return ErrEncode
}

func decodeError(t Type, offset int, format string, args ...any) error {
	return &DecodeError{Type: t.String(), Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func encodeError(t Type, value any, format string, args ...any) error {
	return &EncodeError{Type: t.String(), Value: value, Reason: fmt.Sprintf(format, args...)}
}
