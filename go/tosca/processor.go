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

import "fmt"

//go:generate mockgen -source processor.go -destination processor_mock.go -package tosca

// Processor is an interface for a component capable of running top-level
// calls. Implementations handle the transfer of value, the execution of
// (potentially) recursive contract calls, the integration of precompiled
// contracts, and the creation of new contracts. Unlike a transaction, a
// simulated call is not charged fees and does not increment nonces.
type Processor interface {
	// Run executes the given call in the provided context. The error is only
	// non-nil if the call could not be completed, e.g. because required state
	// could not be fetched. Reverts and halts are reported through the result.
	Run(BlockParameters, CallContext, TransactionContext) (ExecutionResult, error)
}

// DefaultCallGas is the gas budget of calls not specifying their own limit.
const DefaultCallGas Gas = 30_000_000

// CallContext summarizes the fixed parameters of one simulated contract
// invocation. It is not modified during the execution.
type CallContext struct {
	Caller      Address
	Target      Address
	CodeAddress *Address // < the code to run for CallCode and DelegateCall; Target if nil
	Input       Data
	Value       Value
	Kind        CallKind
	Gas         Gas // < DefaultCallGas if zero
}

// GetGas returns the gas budget of the call, resolving the default.
func (c *CallContext) GetGas() Gas {
	if c.Gas <= 0 {
		return DefaultCallGas
	}
	return c.Gas
}

// GetCodeAddress returns the address of the account whose code is executed.
func (c *CallContext) GetCodeAddress() Address {
	if c.CodeAddress != nil && (c.Kind == CallCode || c.Kind == DelegateCall) {
		return *c.CodeAddress
	}
	return c.Target
}

// ResultKind classifies the way an execution ended.
type ResultKind byte

const (
	// Success is reported if the code stopped or returned normally.
	Success ResultKind = iota
	// Revert is reported if the code ended with a REVERT instruction or the
	// call could not transfer the requested value.
	Revert
	// Halt is reported for any other abnormal termination.
	Halt
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "success"
	case Revert:
		return "revert"
	case Halt:
		return "halt"
	default:
		return fmt.Sprintf("ResultKind(%d)", k)
	}
}

// HaltReason lists the causes for an abnormal termination of an execution.
type HaltReason byte

const (
	HaltNone HaltReason = iota
	HaltOutOfGas
	HaltInvalidJump
	HaltStackUnderflow
	HaltStackOverflow
	HaltInvalidOpcode
	HaltStateChangeNotPermitted
	HaltReturnDataOutOfBounds
	HaltInitCodeTooLarge
	HaltCallDepthExceeded
	HaltPrecompileFailed
	HaltAddressCollision
	HaltInvalidCode
)

func (r HaltReason) String() string {
	switch r {
	case HaltNone:
		return "none"
	case HaltOutOfGas:
		return "out of gas"
	case HaltInvalidJump:
		return "invalid jump"
	case HaltStackUnderflow:
		return "stack underflow"
	case HaltStackOverflow:
		return "stack overflow"
	case HaltInvalidOpcode:
		return "invalid opcode"
	case HaltStateChangeNotPermitted:
		return "state change not permitted"
	case HaltReturnDataOutOfBounds:
		return "return data out of bounds"
	case HaltInitCodeTooLarge:
		return "init code too large"
	case HaltCallDepthExceeded:
		return "call depth exceeded"
	case HaltPrecompileFailed:
		return "precompile failed"
	case HaltAddressCollision:
		return "address collision"
	case HaltInvalidCode:
		return "invalid code"
	default:
		return fmt.Sprintf("HaltReason(%d)", r)
	}
}

// ExecutionResult summarizes the outcome of a top-level call. Only the
// output of a successful call is meant to be decoded as return values; the
// output of a reverted call carries the revert payload. Halted calls have no
// output and consume all of their gas.
type ExecutionResult struct {
	Kind       ResultKind
	Output     Data
	GasUsed    Gas
	GasRefund  Gas
	HaltReason HaltReason // < only set if Kind is Halt
	Logs       []Log
}

func (r ExecutionResult) String() string {
	switch r.Kind {
	case Success:
		return fmt.Sprintf("Success{output: 0x%x, gas used: %d}", []byte(r.Output), r.GasUsed)
	case Revert:
		return fmt.Sprintf("Revert{output: 0x%x, gas used: %d}", []byte(r.Output), r.GasUsed)
	case Halt:
		return fmt.Sprintf("Halt{reason: %v, gas used: %d}", r.HaltReason, r.GasUsed)
	default:
		return fmt.Sprintf("ExecutionResult(%v)", r.Kind)
	}
}
