// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package simulator

import (
	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	// MaxRecursiveDepth is the maximum depth of nested calls.
	MaxRecursiveDepth = 1024

	maxCodeSize          = 24576
	createGasCostPerByte = 200
)

// runContext is the tosca.RunContext handed to the interpreter. Each frame
// holds its own copy, so depth and static mode are per frame while the
// embedded transaction context is shared.
type runContext struct {
	tosca.TransactionContext
	interpreter           tosca.Interpreter
	blockParameters       tosca.BlockParameters
	transactionParameters tosca.TransactionParameters
	depth                 int
	static                bool
}

// Call runs a nested call or contract creation. Failures of the callee are
// reported through the result kind; an error is only returned if the state
// needed to run the callee could not be obtained.
func (r runContext) Call(kind tosca.CallKind, parameters tosca.CallParameters) (tosca.CallResult, error) {
	if r.depth > MaxRecursiveDepth {
		return halted(tosca.HaltCallDepthExceeded, parameters.Gas), nil
	}
	if kind == tosca.Create || kind == tosca.Create2 {
		return r.executeCreate(kind, parameters)
	}
	return r.executeCall(kind, parameters)
}

func halted(reason tosca.HaltReason, gasLeft tosca.Gas) tosca.CallResult {
	return tosca.CallResult{Kind: tosca.Halt, HaltReason: reason, GasLeft: gasLeft}
}

// guarded runs the given step and rolls the state back to the snapshot
// unless the step succeeded.
func (r runContext) guarded(step func() (tosca.CallResult, error)) (tosca.CallResult, error) {
	snapshot := r.CreateSnapshot()
	result, err := step()
	if err != nil {
		r.RestoreSnapshot(snapshot)
		return tosca.CallResult{}, err
	}
	if result.Kind != tosca.Success {
		r.RestoreSnapshot(snapshot)
	}
	return result, nil
}

func (r runContext) executeCall(kind tosca.CallKind, parameters tosca.CallParameters) (tosca.CallResult, error) {
	if kind == tosca.StaticCall {
		r.static = true
	}
	recipient := parameters.Recipient
	transfers := kind == tosca.Call || kind == tosca.CallCode
	if transfers {
		ok, err := canTransferValue(r, parameters.Value, parameters.Sender, &recipient)
		if err != nil {
			return tosca.CallResult{}, err
		}
		if !ok {
			return tosca.CallResult{Kind: tosca.Revert, GasLeft: parameters.Gas}, nil
		}
	}

	codeAddress := recipient
	if kind == tosca.CallCode || kind == tosca.DelegateCall {
		codeAddress = parameters.CodeAddress
	}
	revision := r.blockParameters.Revision

	return r.guarded(func() (tosca.CallResult, error) {
		if kind == tosca.Call && parameters.Value == (tosca.Value{}) && !isPrecompiled(recipient, revision) {
			exists, err := r.AccountExists(recipient)
			if err != nil || !exists {
				return tosca.CallResult{Kind: tosca.Success, GasLeft: parameters.Gas}, err
			}
		}
		if transfers {
			if err := transferValue(r, parameters.Value, parameters.Sender, recipient); err != nil {
				return tosca.CallResult{}, err
			}
		}

		if result, ok := handlePrecompiled(revision, parameters.Input, codeAddress, parameters.Gas); ok {
			if result.Kind != tosca.Success {
				result.GasLeft = 0
			}
			return result, nil
		}

		code, err := r.GetCode(codeAddress)
		if err != nil {
			return tosca.CallResult{}, err
		}
		codeHash, err := r.GetCodeHash(codeAddress)
		if err != nil {
			return tosca.CallResult{}, err
		}

		frame := r.frame(kind, parameters, recipient, code, codeHash)
		frame.Input = parameters.Input
		result, err := r.interpreter.Run(frame)
		if err != nil {
			return tosca.CallResult{}, err
		}
		return settle(result), nil
	})
}

// settle converts the outcome of a frame into the result seen by its caller.
// Only reverts hand unused gas back, and failed frames lose their refunds.
func settle(result tosca.Result) tosca.CallResult {
	if result.Kind != tosca.Success {
		if result.Kind != tosca.Revert {
			result.GasLeft = 0
		}
		result.GasRefund = 0
	}
	return tosca.CallResult{
		Kind:       result.Kind,
		Output:     result.Output,
		GasLeft:    result.GasLeft,
		GasRefund:  result.GasRefund,
		HaltReason: result.HaltReason,
	}
}

func (r runContext) executeCreate(kind tosca.CallKind, parameters tosca.CallParameters) (tosca.CallResult, error) {
	rejected := tosca.CallResult{Kind: tosca.Revert, GasLeft: parameters.Gas}
	ok, err := canTransferValue(r, parameters.Value, parameters.Sender, nil)
	if err != nil || !ok {
		return rejected, err
	}
	nonce, err := r.GetNonce(parameters.Sender)
	if err != nil {
		return tosca.CallResult{}, err
	}
	if nonce == ^uint64(0) {
		return rejected, nil
	}
	if err := r.SetNonce(parameters.Sender, nonce+1); err != nil {
		return tosca.CallResult{}, err
	}

	initCode := tosca.Code(parameters.Input)
	initHash := tosca.Keccak256(initCode)
	created := createAddress(kind, parameters.Sender, nonce, parameters.Salt, initHash)
	if r.blockParameters.Revision >= tosca.R09_Berlin {
		r.AccessAccount(created)
	}
	collision, err := hasCollision(r, created)
	if err != nil {
		return tosca.CallResult{}, err
	}
	if collision {
		return halted(tosca.HaltAddressCollision, 0), nil
	}

	return r.guarded(func() (tosca.CallResult, error) {
		if err := r.CreateAccount(created); err != nil {
			return tosca.CallResult{}, err
		}
		if err := r.SetNonce(created, 1); err != nil {
			return tosca.CallResult{}, err
		}
		if err := transferValue(r, parameters.Value, parameters.Sender, created); err != nil {
			return tosca.CallResult{}, err
		}

		result, err := r.interpreter.Run(r.frame(kind, parameters, created, initCode, initHash))
		if err != nil {
			return tosca.CallResult{}, err
		}
		switch result.Kind {
		case tosca.Success:
		case tosca.Revert:
			return tosca.CallResult{Kind: tosca.Revert, Output: result.Output, GasLeft: result.GasLeft}, nil
		default:
			return halted(result.HaltReason, 0), nil
		}

		deployed := tosca.Code(result.Output)
		depositGas := tosca.Gas(len(deployed) * createGasCostPerByte)
		if reason := r.checkDeployment(deployed, result.GasLeft, depositGas); reason != tosca.HaltNone {
			return halted(reason, 0), nil
		}
		if err := r.SetCode(created, deployed); err != nil {
			return tosca.CallResult{}, err
		}
		return tosca.CallResult{
			Kind:           tosca.Success,
			GasLeft:        result.GasLeft - depositGas,
			GasRefund:      result.GasRefund,
			CreatedAddress: created,
		}, nil
	})
}

// checkDeployment reports why the code returned by init code can not be
// deployed, or HaltNone if it can.
func (r runContext) checkDeployment(code tosca.Code, gasLeft, depositGas tosca.Gas) tosca.HaltReason {
	switch {
	case len(code) > maxCodeSize:
		return tosca.HaltInvalidCode
	case r.blockParameters.Revision >= tosca.R10_London && len(code) > 0 && code[0] == 0xEF:
		return tosca.HaltInvalidCode
	case gasLeft < depositGas:
		return tosca.HaltOutOfGas
	}
	return tosca.HaltNone
}

// frame builds the interpreter parameters for code running one level deeper.
// The input is left empty; init code never receives call data.
func (r runContext) frame(
	kind tosca.CallKind,
	parameters tosca.CallParameters,
	recipient tosca.Address,
	code tosca.Code,
	codeHash tosca.Hash,
) tosca.Parameters {
	inner := r
	inner.depth++
	return tosca.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               inner,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth,
		Gas:                   parameters.Gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}
}

// hasCollision reports whether a contract can not be created at the given
// address because it already carries a nonce or code.
func hasCollision(state tosca.WorldState, address tosca.Address) (bool, error) {
	nonce, err := state.GetNonce(address)
	if err != nil || nonce != 0 {
		return nonce != 0, err
	}
	hash, err := state.GetCodeHash(address)
	if err != nil {
		return false, err
	}
	return hash != (tosca.Hash{}) && hash != tosca.EmptyCodeHash, nil
}

func createAddress(
	kind tosca.CallKind,
	sender tosca.Address,
	nonce uint64,
	salt tosca.Hash,
	initHash tosca.Hash,
) tosca.Address {
	if kind == tosca.Create {
		return tosca.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return tosca.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

// canTransferValue checks that the sender covers the value and that the
// recipient balance, if given, does not overflow.
func canTransferValue(
	state tosca.WorldState,
	value tosca.Value,
	sender tosca.Address,
	recipient *tosca.Address,
) (bool, error) {
	if value == (tosca.Value{}) {
		return true, nil
	}
	balance, err := state.GetBalance(sender)
	if err != nil || balance.Cmp(value) < 0 {
		return false, err
	}
	if recipient == nil || *recipient == sender {
		return true, nil
	}
	balance, err = state.GetBalance(*recipient)
	if err != nil {
		return false, err
	}
	_, overflow := new(uint256.Int).AddOverflow(balance.ToUint256(), value.ToUint256())
	return !overflow, nil
}

// transferValue moves value from sender to recipient. It must only be used
// after canTransferValue approved the transfer.
func transferValue(
	state tosca.WorldState,
	value tosca.Value,
	sender tosca.Address,
	recipient tosca.Address,
) error {
	if value == (tosca.Value{}) || sender == recipient {
		return nil
	}
	from, err := state.GetBalance(sender)
	if err != nil {
		return err
	}
	to, err := state.GetBalance(recipient)
	if err != nil {
		return err
	}
	if err := state.SetBalance(sender, tosca.Sub(from, value)); err != nil {
		return err
	}
	return state.SetBalance(recipient, tosca.Add(to, value))
}
