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

	"github.com/Fantom-foundation/Scry/go/tosca/vm"
)

// stackUsage defines the effect of an instruction on the stack. The
// instruction accesses the interval [from, to) relative to the stack pointer
// and changes the stack size by delta.
type stackUsage struct {
	from, to, delta int
}

// computeStackUsage computes the stack usage of the given opcode. An error is
// returned for opcodes that are not valid instructions.
func computeStackUsage(op vm.OpCode) (stackUsage, error) {
	makeUsage := func(pops, pushes int) stackUsage {
		delta := pushes - pops
		to := 0
		if delta > 0 {
			to = delta
		}
		return stackUsage{from: -pops, to: to, delta: delta}
	}

	if vm.PUSH1 <= op && op <= vm.PUSH32 {
		return makeUsage(0, 1), nil
	}
	if vm.DUP1 <= op && op <= vm.DUP16 {
		return makeUsage(int(op-vm.DUP1+1), int(op-vm.DUP1+2)), nil
	}
	if vm.SWAP1 <= op && op <= vm.SWAP16 {
		return makeUsage(int(op-vm.SWAP1+2), int(op-vm.SWAP1+2)), nil
	}
	if vm.LOG0 <= op && op <= vm.LOG4 {
		return makeUsage(int(op-vm.LOG0+2), 0), nil
	}

	switch op {
	case vm.JUMPDEST, vm.STOP:
		return makeUsage(0, 0), nil
	case vm.PUSH0, vm.MSIZE, vm.ADDRESS, vm.ORIGIN, vm.CALLER, vm.CALLVALUE,
		vm.CALLDATASIZE, vm.CODESIZE, vm.GASPRICE, vm.COINBASE, vm.TIMESTAMP,
		vm.NUMBER, vm.PREVRANDAO, vm.GASLIMIT, vm.PC, vm.GAS, vm.RETURNDATASIZE,
		vm.SELFBALANCE, vm.CHAINID, vm.BASEFEE, vm.BLOBBASEFEE:
		return makeUsage(0, 1), nil
	case vm.POP, vm.JUMP, vm.SELFDESTRUCT:
		return makeUsage(1, 0), nil
	case vm.ISZERO, vm.NOT, vm.BALANCE, vm.CALLDATALOAD, vm.EXTCODESIZE,
		vm.BLOCKHASH, vm.MLOAD, vm.SLOAD, vm.TLOAD, vm.EXTCODEHASH, vm.BLOBHASH:
		return makeUsage(1, 1), nil
	case vm.MSTORE, vm.MSTORE8, vm.SSTORE, vm.TSTORE, vm.JUMPI, vm.RETURN, vm.REVERT:
		return makeUsage(2, 0), nil
	case vm.ADD, vm.SUB, vm.MUL, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.EXP,
		vm.SIGNEXTEND, vm.SHA3, vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ, vm.AND,
		vm.XOR, vm.OR, vm.BYTE, vm.SHL, vm.SHR, vm.SAR:
		return makeUsage(2, 1), nil
	case vm.CALLDATACOPY, vm.CODECOPY, vm.RETURNDATACOPY, vm.MCOPY:
		return makeUsage(3, 0), nil
	case vm.ADDMOD, vm.MULMOD, vm.CREATE:
		return makeUsage(3, 1), nil
	case vm.EXTCODECOPY:
		return makeUsage(4, 0), nil
	case vm.CREATE2:
		return makeUsage(4, 1), nil
	case vm.STATICCALL, vm.DELEGATECALL:
		return makeUsage(6, 1), nil
	case vm.CALL, vm.CALLCODE:
		return makeUsage(7, 1), nil
	}
	return stackUsage{}, fmt.Errorf("unsupported opcode: %v", op)
}

// stackLimits defines the stack sizes an instruction may be started with.
type stackLimits struct {
	min int // The minimum stack size required by an OpCode.
	max int // The maximum stack size allowed before running an OpCode.
}

var precomputedStackLimits = func() (res [256]stackLimits) {
	for i := range res {
		usage, err := computeStackUsage(vm.OpCode(i))
		if err != nil {
			// Invalid instructions fail for other reasons.
			res[i] = stackLimits{min: 0, max: maxStackSize}
			continue
		}
		res[i] = stackLimits{min: -usage.from, max: maxStackSize - usage.to}
	}
	return res
}()

// checkStackLimits checks that the instruction will not under- or overflow
// the stack of the given size.
func checkStackLimits(stackLen int, op vm.OpCode) error {
	limits := precomputedStackLimits[op]
	if stackLen < limits.min {
		return errStackUnderflow
	}
	if stackLen > limits.max {
		return errStackOverflow
	}
	return nil
}
