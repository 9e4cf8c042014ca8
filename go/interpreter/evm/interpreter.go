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

import (
	"fmt"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/Fantom-foundation/Scry/go/tosca/vm"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// status is enumeration of the execution state of an interpreter run.
type status byte

const (
	statusRunning        status = iota // < all fine, ops are processed
	statusStopped                      // < execution stopped with a STOP
	statusReverted                     // < execution stopped with a REVERT
	statusReturned                     // < execution stopped with a RETURN
	statusSelfDestructed               // < execution stopped with a SELF-DESTRUCT
)

// context is the execution environment of an interpreter run. It contains all
// the necessary state to execute a contract, including input parameters, the
// contract code, and internal execution state such as the program counter,
// stack, and memory. For each contract execution, a new context is created.
type context struct {
	// Inputs
	params    tosca.Parameters
	context   tosca.RunContext
	code      tosca.Code
	jumpDests jumpDests

	// Execution state
	pc     int
	gas    tosca.Gas
	refund tosca.Gas
	stack  *stack
	memory *memory

	// Intermediate data
	returnData []byte // < the result of the last nested contract call

	// Optional
	tracer *zerolog.Logger
}

// useGas reduces the gas level by the given amount. An error is returned if
// not enough gas is available; the gas level is not modified in this case.
func (c *context) useGas(amount tosca.Gas) error {
	if c.gas < 0 || amount < 0 || c.gas < amount {
		return errOutOfGas
	}
	c.gas -= amount
	return nil
}

// isAtLeast returns true if the interpreter is is running at least at the given
// revision or newer, false otherwise.
func (c *context) isAtLeast(revision tosca.Revision) bool {
	return c.params.Revision >= revision
}

func run(
	analyzer *analyzer,
	tracer *zerolog.Logger,
	params tosca.Parameters,
) (tosca.Result, error) {
	// Don't bother with the execution if there's no code.
	if len(params.Code) == 0 {
		return tosca.Result{
			Kind:    tosca.Success,
			GasLeft: params.Gas,
		}, nil
	}

	var ctxt = context{
		params:    params,
		context:   params.Context,
		code:      params.Code,
		jumpDests: analyzer.analyze(params.Code, params.CodeHash),
		gas:       params.Gas,
		stack:     newStack(),
		memory:    newMemory(),
		tracer:    tracer,
	}
	defer releaseStack(ctxt.stack)

	status, err := steps(&ctxt)
	if err != nil {
		reason, isHalt := haltReasonOf(err)
		if !isHalt {
			return tosca.Result{}, err
		}
		return tosca.Result{
			Kind:       tosca.Halt,
			HaltReason: reason,
		}, nil
	}
	return generateResult(status, &ctxt)
}

func generateResult(status status, ctxt *context) (tosca.Result, error) {
	switch status {
	case statusStopped, statusSelfDestructed:
		return tosca.Result{
			Kind:      tosca.Success,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReturned:
		return tosca.Result{
			Kind:      tosca.Success,
			Output:    ctxt.returnData,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReverted:
		return tosca.Result{
			Kind:    tosca.Revert,
			Output:  ctxt.returnData,
			GasLeft: ctxt.gas,
		}, nil
	default:
		return tosca.Result{}, fmt.Errorf("unexpected error in interpreter, unknown status: %v", status)
	}
}

// steps executes the contract code in the given context until it stops.
// Errors causing a halt of the execution are reported as listed in
// haltReasons; any other error is a failure of the run context.
func steps(c *context) (status, error) {
	staticGasPrices := getStaticGasPrices(c.params.Revision)

	status := statusRunning
	for status == statusRunning {
		if c.pc >= len(c.code) {
			return statusStopped, nil
		}

		op := vm.OpCode(c.code[c.pc])
		if c.tracer != nil {
			trace(c, op)
		}

		// Instructions of later revisions are invalid.
		if c.params.Revision < vm.IntroducedIn(op) {
			return status, errInvalidRevision
		}

		// Check stack boundary for every instruction
		if err := checkStackLimits(c.stack.len(), op); err != nil {
			return status, err
		}

		// Consume static gas price for instruction before execution
		if err := c.useGas(staticGasPrices.get(op)); err != nil {
			return status, err
		}

		var err error

		// Execute instruction
		switch op {
		case vm.STOP:
			status = statusStopped

		// arithmetic
		case vm.ADD:
			binaryOp(c, (*uint256.Int).Add)
		case vm.MUL:
			binaryOp(c, (*uint256.Int).Mul)
		case vm.SUB:
			binaryOp(c, (*uint256.Int).Sub)
		case vm.DIV:
			binaryOp(c, (*uint256.Int).Div)
		case vm.SDIV:
			binaryOp(c, (*uint256.Int).SDiv)
		case vm.MOD:
			binaryOp(c, (*uint256.Int).Mod)
		case vm.SMOD:
			binaryOp(c, (*uint256.Int).SMod)
		case vm.ADDMOD:
			ternaryOp(c, (*uint256.Int).AddMod)
		case vm.MULMOD:
			ternaryOp(c, (*uint256.Int).MulMod)
		case vm.EXP:
			err = opExp(c)
		case vm.SIGNEXTEND:
			opSignExtend(c)

		// comparison and bitwise logic
		case vm.LT:
			compareOp(c, (*uint256.Int).Lt)
		case vm.GT:
			compareOp(c, (*uint256.Int).Gt)
		case vm.SLT:
			compareOp(c, (*uint256.Int).Slt)
		case vm.SGT:
			compareOp(c, (*uint256.Int).Sgt)
		case vm.EQ:
			compareOp(c, (*uint256.Int).Eq)
		case vm.ISZERO:
			opIsZero(c)
		case vm.AND:
			binaryOp(c, (*uint256.Int).And)
		case vm.OR:
			binaryOp(c, (*uint256.Int).Or)
		case vm.XOR:
			binaryOp(c, (*uint256.Int).Xor)
		case vm.NOT:
			opNot(c)
		case vm.BYTE:
			opByte(c)
		case vm.SHL:
			shiftOp(c, (*uint256.Int).Lsh)
		case vm.SHR:
			shiftOp(c, (*uint256.Int).Rsh)
		case vm.SAR:
			opSar(c)
		case vm.SHA3:
			err = opSha3(c)

		// environment
		case vm.ADDRESS:
			pushAddress(c, c.params.Recipient)
		case vm.BALANCE:
			err = opBalance(c)
		case vm.ORIGIN:
			pushAddress(c, c.params.Origin)
		case vm.CALLER:
			pushAddress(c, c.params.Sender)
		case vm.CALLVALUE:
			pushWord(c, c.params.Value)
		case vm.CALLDATALOAD:
			opCallDataLoad(c)
		case vm.CALLDATASIZE:
			pushUint64(c, uint64(len(c.params.Input)))
		case vm.CALLDATACOPY:
			err = opDataCopy(c, c.params.Input)
		case vm.CODESIZE:
			pushUint64(c, uint64(len(c.code)))
		case vm.CODECOPY:
			err = opDataCopy(c, c.code)
		case vm.GASPRICE:
			pushWord(c, c.params.GasPrice)
		case vm.EXTCODESIZE:
			err = opExtCodeSize(c)
		case vm.EXTCODECOPY:
			err = opExtCodeCopy(c)
		case vm.RETURNDATASIZE:
			pushUint64(c, uint64(len(c.returnData)))
		case vm.RETURNDATACOPY:
			err = opReturnDataCopy(c)
		case vm.EXTCODEHASH:
			err = opExtCodeHash(c)

		// block
		case vm.BLOCKHASH:
			opBlockHash(c)
		case vm.COINBASE:
			pushAddress(c, c.params.Coinbase)
		case vm.TIMESTAMP:
			pushUint64(c, uint64(c.params.Timestamp))
		case vm.NUMBER:
			pushUint64(c, uint64(c.params.BlockNumber))
		case vm.PREVRANDAO:
			pushWord(c, c.params.PrevRandao)
		case vm.GASLIMIT:
			pushUint64(c, uint64(c.params.GasLimit))
		case vm.CHAINID:
			pushWord(c, c.params.ChainID)
		case vm.SELFBALANCE:
			err = opSelfBalance(c)
		case vm.BASEFEE:
			pushWord(c, c.params.BaseFee)
		case vm.BLOBHASH:
			opBlobHash(c)
		case vm.BLOBBASEFEE:
			pushWord(c, c.params.BlobBaseFee)

		// stack, memory, storage and flow
		case vm.POP:
			c.stack.pop()
		case vm.MLOAD:
			err = opMload(c)
		case vm.MSTORE:
			err = opMstore(c)
		case vm.MSTORE8:
			err = opMstore8(c)
		case vm.SLOAD:
			err = opSload(c)
		case vm.SSTORE:
			err = opSstore(c)
		case vm.JUMP:
			err = jumpTo(c, c.stack.pop())
		case vm.JUMPI:
			err = opJumpi(c)
		case vm.PC:
			pushUint64(c, uint64(c.pc))
		case vm.MSIZE:
			pushUint64(c, c.memory.length())
		case vm.GAS:
			pushUint64(c, uint64(c.gas))
		case vm.JUMPDEST:
			// nothing
		case vm.TLOAD:
			opTload(c)
		case vm.TSTORE:
			err = opTstore(c)
		case vm.MCOPY:
			err = opMcopy(c)
		case vm.PUSH0:
			pushUint64(c, 0)
		case vm.PUSH1, vm.PUSH2, vm.PUSH3, vm.PUSH4, vm.PUSH5, vm.PUSH6, vm.PUSH7, vm.PUSH8,
			vm.PUSH9, vm.PUSH10, vm.PUSH11, vm.PUSH12, vm.PUSH13, vm.PUSH14, vm.PUSH15, vm.PUSH16,
			vm.PUSH17, vm.PUSH18, vm.PUSH19, vm.PUSH20, vm.PUSH21, vm.PUSH22, vm.PUSH23, vm.PUSH24,
			vm.PUSH25, vm.PUSH26, vm.PUSH27, vm.PUSH28, vm.PUSH29, vm.PUSH30, vm.PUSH31, vm.PUSH32:
			opPush(c, int(op-vm.PUSH1)+1)
		case vm.DUP1, vm.DUP2, vm.DUP3, vm.DUP4, vm.DUP5, vm.DUP6, vm.DUP7, vm.DUP8,
			vm.DUP9, vm.DUP10, vm.DUP11, vm.DUP12, vm.DUP13, vm.DUP14, vm.DUP15, vm.DUP16:
			c.stack.dup(int(op - vm.DUP1))
		case vm.SWAP1, vm.SWAP2, vm.SWAP3, vm.SWAP4, vm.SWAP5, vm.SWAP6, vm.SWAP7, vm.SWAP8,
			vm.SWAP9, vm.SWAP10, vm.SWAP11, vm.SWAP12, vm.SWAP13, vm.SWAP14, vm.SWAP15, vm.SWAP16:
			c.stack.swap(int(op-vm.SWAP1) + 1)
		case vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4:
			err = opLog(c, int(op-vm.LOG0))

		// calls and termination
		case vm.CREATE:
			err = opCreate(c, tosca.Create)
		case vm.CREATE2:
			err = opCreate(c, tosca.Create2)
		case vm.CALL:
			err = opCall(c, tosca.Call)
		case vm.CALLCODE:
			err = opCall(c, tosca.CallCode)
		case vm.DELEGATECALL:
			err = opCall(c, tosca.DelegateCall)
		case vm.STATICCALL:
			err = opCall(c, tosca.StaticCall)
		case vm.RETURN:
			err = opEndWithResult(c)
			status = statusReturned
		case vm.REVERT:
			err = opEndWithResult(c)
			status = statusReverted
		case vm.SELFDESTRUCT:
			status, err = opSelfDestruct(c)
		default:
			err = errInvalidOpCode
		}

		if err != nil {
			return status, err
		}

		c.pc++
	}
	return status, nil
}
