// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package simulator runs read-only contract calls against an overlay of
// lazily fetched chain state. Nested calls, contract creations, and
// precompiled contracts are handled here; the code of each frame is run by a
// tosca.Interpreter.
package simulator

import (
	"fmt"
	"time"

	"github.com/Fantom-foundation/Scry/go/abi"
	"github.com/Fantom-foundation/Scry/go/state"
	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/rs/zerolog"

	// registers the default interpreter
	_ "github.com/Fantom-foundation/Scry/go/interpreter/evm"
)

const (
	// ErrReverted is reported by Call if the contract reverted.
	ErrReverted = tosca.ConstError("execution reverted")
	// ErrHalted is reported by Call if the execution halted.
	ErrHalted = tosca.ConstError("execution halted")
)

// DefaultInterpreter is the name of the registered interpreter used if no
// interpreter is configured.
const DefaultInterpreter = "evm"

// Config summarizes the configuration options of a Simulator.
type Config struct {
	// Interpreter runs the code of individual frames. If nil, the
	// DefaultInterpreter with default settings is used.
	Interpreter tosca.Interpreter
	// CallGas is the gas budget of calls issued through Call. If zero,
	// tosca.DefaultCallGas is used.
	CallGas tosca.Gas
	// Block describes the block calls are simulated in. If nil, the result
	// of DefaultBlockParameters is used.
	Block *tosca.BlockParameters
	// BlockHashes provides the results of the BLOCKHASH instruction.
	// Unknown blocks have a zero hash.
	BlockHashes map[int64]tosca.Hash
	// Logger receives an entry for every executed call. If nil, nothing is
	// logged.
	Logger *zerolog.Logger
}

// DefaultBlockParameters returns the block parameters used for simulations
// without explicit block information.
func DefaultBlockParameters() tosca.BlockParameters {
	return tosca.BlockParameters{
		ChainID:  tosca.NewWord(1),
		GasLimit: tosca.DefaultCallGas,
		Revision: tosca.LatestRevision,
	}
}

// Simulator executes top-level calls. It implements tosca.Processor and can
// thus also be used with transaction contexts other than the one maintained
// by state.TransactionContext. A Simulator is stateless and may be shared
// between goroutines, as long as each of them uses its own overlay.
type Simulator struct {
	interpreter tosca.Interpreter
	block       tosca.BlockParameters
	blockHashes map[int64]tosca.Hash
	callGas     tosca.Gas
	log         zerolog.Logger
}

var _ tosca.Processor = (*Simulator)(nil)

// NewSimulator creates a simulator using the given configuration.
func NewSimulator(config Config) (*Simulator, error) {
	interpreter := config.Interpreter
	if interpreter == nil {
		vm, err := tosca.NewInterpreter(DefaultInterpreter)
		if err != nil {
			return nil, fmt.Errorf("failed to create interpreter: %w", err)
		}
		interpreter = vm
	}
	block := DefaultBlockParameters()
	if config.Block != nil {
		block = *config.Block
	}
	if block.Revision < tosca.R07_Istanbul || block.Revision > tosca.LatestRevision {
		return nil, &tosca.ErrUnsupportedRevision{Revision: block.Revision}
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &Simulator{
		interpreter: interpreter,
		block:       block,
		blockHashes: config.BlockHashes,
		callGas:     config.CallGas,
		log:         logger.With().Str("component", "simulator").Logger(),
	}, nil
}

// Block returns the parameters of the block calls are simulated in.
func (s *Simulator) Block() tosca.BlockParameters {
	return s.block
}

// Execute runs the given call on the overlay. Successful calls leave their
// effects in the overlay, visible to subsequent calls in the same session;
// reverted and halted calls leave no trace besides fetched state. The error
// is only non-nil if the call could not be completed, in which case the
// overlay is left as it was before the call.
func (s *Simulator) Execute(call tosca.CallContext, overlay *state.Overlay) (tosca.ExecutionResult, error) {
	start := time.Now()
	context := state.NewTransactionContext(overlay, s.block.Revision)
	for number, hash := range s.blockHashes {
		context.SetBlockHash(number, hash)
	}

	result, err := s.Run(s.block, call, context)
	context.Commit()
	if err != nil {
		s.log.Warn().
			Err(err).
			Stringer("target", call.Target).
			Msg("call aborted")
		return tosca.ExecutionResult{}, err
	}

	s.log.Debug().
		Stringer("target", call.Target).
		Stringer("kind", call.Kind).
		Stringer("result", result.Kind).
		Int64("gas_used", int64(result.GasUsed)).
		Dur("duration", time.Since(start)).
		Msg("call executed")
	return result, nil
}

// Run executes the given call in the provided context. The context is not
// committed; this is left to the caller.
func (s *Simulator) Run(
	block tosca.BlockParameters,
	call tosca.CallContext,
	context tosca.TransactionContext,
) (tosca.ExecutionResult, error) {
	switch call.Kind {
	case tosca.Call, tosca.CallCode, tosca.DelegateCall, tosca.StaticCall:
	default:
		return tosca.ExecutionResult{}, fmt.Errorf("%w: %v", tosca.ErrInvalidCallKind, call.Kind)
	}

	gas := call.GetGas()
	value := call.Value
	if call.Kind == tosca.StaticCall {
		value = tosca.Value{}
	}
	snapshot := context.CreateSnapshot()

	if block.Revision >= tosca.R09_Berlin {
		warmUp(block, call, context)
	}

	runContext := runContext{
		TransactionContext: context,
		interpreter:        s.interpreter,
		blockParameters:    block,
		transactionParameters: tosca.TransactionParameters{
			Origin: call.Caller,
		},
		depth:  0,
		static: call.Kind == tosca.StaticCall,
	}

	result, err := runContext.Call(call.Kind, tosca.CallParameters{
		Sender:      call.Caller,
		Recipient:   call.Target,
		Value:       value,
		Input:       call.Input,
		Gas:         gas,
		CodeAddress: call.GetCodeAddress(),
	})
	if err != nil {
		context.RestoreSnapshot(snapshot)
		return tosca.ExecutionResult{}, err
	}

	res := tosca.ExecutionResult{
		Kind:      result.Kind,
		GasUsed:   gas - result.GasLeft,
		GasRefund: result.GasRefund,
	}
	switch result.Kind {
	case tosca.Success:
		res.Output = result.Output
		res.Logs = context.GetLogs()
	case tosca.Revert:
		res.Output = result.Output
		context.RestoreSnapshot(snapshot)
	default:
		res.GasUsed = gas
		res.GasRefund = 0
		res.HaltReason = result.HaltReason
		context.RestoreSnapshot(snapshot)
	}
	return res, nil
}

// warmUp marks the accounts accessed by any call as warm.
func warmUp(block tosca.BlockParameters, call tosca.CallContext, context tosca.TransactionContext) {
	context.AccessAccount(call.Caller)
	context.AccessAccount(call.Target)
	context.AccessAccount(call.GetCodeAddress())
	for _, address := range precompiledAddresses(block.Revision) {
		context.AccessAccount(address)
	}
	if block.Revision >= tosca.R12_Shanghai {
		context.AccessAccount(block.Coinbase)
	}
}

// Call invokes the function described by the given signature on the target
// contract through a static call and decodes the returned values. Reverts
// and halts are reported through a *CallError.
func (s *Simulator) Call(
	overlay *state.Overlay,
	caller tosca.Address,
	target tosca.Address,
	signature abi.Signature,
	args ...any,
) ([]any, tosca.ExecutionResult, error) {
	input, err := abi.EncodeCall(signature, args...)
	if err != nil {
		return nil, tosca.ExecutionResult{}, err
	}
	result, err := s.Execute(tosca.CallContext{
		Caller: caller,
		Target: target,
		Input:  input,
		Kind:   tosca.StaticCall,
		Gas:    s.callGas,
	}, overlay)
	if err != nil {
		return nil, result, err
	}
	if result.Kind != tosca.Success {
		return nil, result, newCallError(signature, result)
	}
	values, err := abi.DecodeOutput(signature, result.Output)
	if err != nil {
		return nil, result, fmt.Errorf("failed to decode output of %v: %w", signature, err)
	}
	return values, result, nil
}

// CallError describes a call that did not complete successfully.
type CallError struct {
	Function string
	Result   tosca.ExecutionResult
	// Reason is the message of an Error(string) revert payload, if present.
	Reason string
}

func newCallError(signature abi.Signature, result tosca.ExecutionResult) *CallError {
	res := &CallError{Function: signature.String(), Result: result}
	if result.Kind == tosca.Revert {
		if reason, ok := abi.DecodeRevertReason(result.Output); ok {
			res.Reason = reason
		}
	}
	return res
}

func (e *CallError) Error() string {
	switch {
	case e.Result.Kind == tosca.Revert && e.Reason != "":
		return fmt.Sprintf("%v: %s: %s", e.Function, ErrReverted, e.Reason)
	case e.Result.Kind == tosca.Revert:
		return fmt.Sprintf("%v: %s", e.Function, ErrReverted)
	default:
		return fmt.Sprintf("%v: %s: %v", e.Function, ErrHalted, e.Result.HaltReason)
	}
}

func (e *CallError) Unwrap() error {
	if e.Result.Kind == tosca.Revert {
		return ErrReverted
	}
	return ErrHalted
}
