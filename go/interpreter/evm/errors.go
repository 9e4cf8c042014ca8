// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package evm

import "github.com/Fantom-foundation/Scry/go/tosca"

// The errors below end the execution of the current frame with a halt. They
// never leave the interpreter; Run reports them through the result.
const (
	errOutOfGas               = tosca.ConstError("out of gas")
	errOverflow               = tosca.ConstError("integer overflow")
	errGasUintOverflow        = tosca.ConstError("gas uint64 overflow")
	errInvalidJump            = tosca.ConstError("invalid jump destination")
	errInvalidOpCode          = tosca.ConstError("invalid opcode")
	errInvalidRevision        = tosca.ConstError("opcode not supported by revision")
	errStackOverflow          = tosca.ConstError("stack overflow")
	errStackUnderflow         = tosca.ConstError("stack underflow")
	errStaticContextViolation = tosca.ConstError("state change in static context")
	errReturnDataOutOfBounds  = tosca.ConstError("return data out of bounds")
	errInitCodeTooLarge       = tosca.ConstError("init code larger than allowed")
)

var haltReasons = map[tosca.ConstError]tosca.HaltReason{
	errOutOfGas:               tosca.HaltOutOfGas,
	errOverflow:               tosca.HaltOutOfGas,
	errGasUintOverflow:        tosca.HaltOutOfGas,
	errInvalidJump:            tosca.HaltInvalidJump,
	errInvalidOpCode:          tosca.HaltInvalidOpcode,
	errInvalidRevision:        tosca.HaltInvalidOpcode,
	errStackOverflow:          tosca.HaltStackOverflow,
	errStackUnderflow:         tosca.HaltStackUnderflow,
	errStaticContextViolation: tosca.HaltStateChangeNotPermitted,
	errReturnDataOutOfBounds:  tosca.HaltReturnDataOutOfBounds,
	errInitCodeTooLarge:       tosca.HaltInitCodeTooLarge,
}

// haltReasonOf returns the halt reason encoded by the given error. The result
// is false for errors not caused by the executed code, e.g. failing state
// lookups, which abort the run instead.
func haltReasonOf(err error) (tosca.HaltReason, bool) {
	constErr, ok := err.(tosca.ConstError)
	if !ok {
		return tosca.HaltNone, false
	}
	reason, found := haltReasons[constErr]
	return reason, found
}
