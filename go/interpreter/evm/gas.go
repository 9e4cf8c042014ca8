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
	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/Fantom-foundation/Scry/go/tosca/vm"
)

const (
	CallNewAccountGas    tosca.Gas = 25000 // Paid for CALL when the destination address didn't exist prior.
	CallValueTransferGas tosca.Gas = 9000  // Paid for CALL when the value transfer is non-zero.
	CallStipend          tosca.Gas = 2300  // Free gas given at beginning of call.

	ColdSloadCostEIP2929         tosca.Gas = 2100 // Cost of cold SLOAD after EIP 2929
	ColdAccountAccessCostEIP2929 tosca.Gas = 2600 // Cost of cold account access after EIP 2929
	WarmStorageReadCostEIP2929   tosca.Gas = 100  // Cost of reading warm storage after EIP 2929

	// CreateBySelfdestructGas is used when the refunded account is one that
	// does not exist (EIP-150).
	CreateBySelfdestructGas tosca.Gas = 25000
	SelfdestructRefundGas   tosca.Gas = 24000 // Refunded following a selfdestruct operation before London.

	SloadGasEIP2200                   tosca.Gas = 800   // Cost of SLOAD after EIP 2200 (part of Istanbul)
	SstoreSentryGasEIP2200            tosca.Gas = 2300  // Minimum gas required to be present for an SSTORE call, not consumed
	SstoreSetGasEIP2200               tosca.Gas = 20000 // Once per SSTORE operation from clean zero to non-zero
	SstoreResetGasEIP2200             tosca.Gas = 5000  // Once per SSTORE operation from clean non-zero to something else
	SstoreClearsScheduleRefundEIP2200 tosca.Gas = 15000 // Once per SSTORE operation for clearing an originally existing storage slot

	// SstoreClearsScheduleRefundEIP3529 is SSTORE_RESET_GAS - COLD_SLOAD_COST +
	// ACCESS_LIST_STORAGE_KEY_COST = 5000 - 2100 + 1900.
	SstoreClearsScheduleRefundEIP3529 tosca.Gas = 4800

	MaxCodeSize     = 24576           // Maximum bytecode to permit for a contract
	MaxInitCodeSize = 2 * MaxCodeSize // Maximum initcode to permit in a create instruction
)

// staticGasPrices lists the gas charged for each instruction before it is
// executed. Costs depending on the operands or on the state are charged by
// the instructions themselves.
type staticGasPrices [256]tosca.Gas

func (p *staticGasPrices) get(op vm.OpCode) tosca.Gas {
	return p[op]
}

var staticGasPricesPerRevision = func() (res [numRevisions]staticGasPrices) {
	for r := range res {
		for i := range res[r] {
			res[r][i] = getStaticGasPriceInternal(vm.OpCode(i), tosca.Revision(r))
		}
	}
	return res
}()

// numRevisions is the number of revisions with a gas table.
const numRevisions = int(tosca.LatestRevision) + 1

func getStaticGasPrices(revision tosca.Revision) *staticGasPrices {
	return &staticGasPricesPerRevision[revision]
}

func getStaticGasPriceInternal(op vm.OpCode, revision tosca.Revision) tosca.Gas {
	if vm.PUSH1 <= op && op <= vm.PUSH32 {
		return 3
	}
	if vm.DUP1 <= op && op <= vm.DUP16 {
		return 3
	}
	if vm.SWAP1 <= op && op <= vm.SWAP16 {
		return 3
	}
	if vm.LT <= op && op <= vm.SAR {
		return 3
	}
	if vm.COINBASE <= op && op <= vm.CHAINID {
		return 2
	}

	// From Berlin on, state accessing instructions are charged dynamically
	// depending on whether the accessed account or slot is warm or cold.
	if revision >= tosca.R09_Berlin {
		switch op {
		case vm.BALANCE, vm.EXTCODESIZE, vm.EXTCODECOPY, vm.EXTCODEHASH,
			vm.SLOAD, vm.CALL, vm.CALLCODE, vm.STATICCALL, vm.DELEGATECALL:
			return 0
		}
	}

	switch op {
	case vm.POP, vm.PUSH0, vm.ADDRESS, vm.ORIGIN, vm.CALLER, vm.CALLVALUE,
		vm.CALLDATASIZE, vm.CODESIZE, vm.GASPRICE, vm.RETURNDATASIZE,
		vm.BASEFEE, vm.BLOBBASEFEE, vm.PC, vm.MSIZE, vm.GAS:
		return 2
	case vm.ADD, vm.SUB, vm.CALLDATALOAD, vm.CALLDATACOPY, vm.CODECOPY,
		vm.RETURNDATACOPY, vm.BLOBHASH, vm.MLOAD, vm.MSTORE, vm.MSTORE8, vm.MCOPY:
		return 3
	case vm.MUL, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.SIGNEXTEND, vm.SELFBALANCE:
		return 5
	case vm.ADDMOD, vm.MULMOD, vm.JUMP:
		return 8
	case vm.EXP, vm.JUMPI:
		return 10
	case vm.BLOCKHASH:
		return 20
	case vm.SHA3:
		return 30
	case vm.JUMPDEST:
		return 1
	case vm.TLOAD, vm.TSTORE:
		return 100
	case vm.BALANCE, vm.EXTCODESIZE, vm.EXTCODECOPY, vm.EXTCODEHASH,
		vm.CALL, vm.CALLCODE, vm.STATICCALL, vm.DELEGATECALL:
		return 700
	case vm.SLOAD:
		return SloadGasEIP2200
	case vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4:
		return tosca.Gas(375 * (1 + int(op-vm.LOG0)))
	case vm.CREATE, vm.CREATE2:
		return 32000
	case vm.SELFDESTRUCT:
		return 5000
	case vm.STOP, vm.RETURN, vm.REVERT, vm.SSTORE, vm.INVALID:
		return 0
	}
	return 0
}

// getAccessCost returns the EIP-2929 costs of an account access.
func getAccessCost(accessStatus tosca.AccessStatus) tosca.Gas {
	if accessStatus == tosca.ColdAccess {
		return ColdAccountAccessCostEIP2929
	}
	return WarmStorageReadCostEIP2929
}

// getDynamicCostsForSstore returns the costs of an SSTORE operation causing
// the given storage status, excluding the costs of a cold slot access.
// See EIP-2200 and EIP-2929 for the definition of the cost schedule.
func getDynamicCostsForSstore(revision tosca.Revision, status tosca.StorageStatus) tosca.Gas {
	read := SloadGasEIP2200
	reset := SstoreResetGasEIP2200
	if revision >= tosca.R09_Berlin {
		read = WarmStorageReadCostEIP2929
		reset = SstoreResetGasEIP2200 - ColdSloadCostEIP2929
	}
	switch status {
	case tosca.StorageAdded:
		return SstoreSetGasEIP2200
	case tosca.StorageModified, tosca.StorageDeleted:
		return reset
	}
	return read
}

// getRefundForSstore returns the refund granted or withdrawn by an SSTORE
// operation causing the given storage status.
func getRefundForSstore(revision tosca.Revision, status tosca.StorageStatus) tosca.Gas {
	read := SloadGasEIP2200
	reset := SstoreResetGasEIP2200
	if revision >= tosca.R09_Berlin {
		read = WarmStorageReadCostEIP2929
		reset = SstoreResetGasEIP2200 - ColdSloadCostEIP2929
	}
	clearing := SstoreClearsScheduleRefundEIP2200
	if revision >= tosca.R10_London {
		clearing = SstoreClearsScheduleRefundEIP3529
	}
	switch status {
	case tosca.StorageDeleted, tosca.StorageModifiedDeleted:
		return clearing
	case tosca.StorageDeletedAdded:
		return -clearing
	case tosca.StorageDeletedRestored:
		return reset - read - clearing
	case tosca.StorageAddedDeleted:
		return SstoreSetGasEIP2200 - read
	case tosca.StorageModifiedRestored:
		return reset - read
	}
	return 0
}

// callGas returns the gas forwarded to a nested call. EIP-150 limits it to
// all but one 64th of the available gas.
func callGas(available tosca.Gas, requested tosca.Gas, requestedFits bool) tosca.Gas {
	gas := available - available/64
	if requestedFits && requested < gas {
		return requested
	}
	return gas
}

// computeCodeSizeCost returns the gas cost for the size of an init code, or
// an error if the size exceeds MaxInitCodeSize (EIP-3860).
func computeCodeSizeCost(size uint64) (tosca.Gas, error) {
	if size > MaxInitCodeSize {
		return 0, errInitCodeTooLarge
	}
	const initCodeWordGas = 2
	return tosca.Gas(initCodeWordGas * tosca.SizeInWords(size)), nil
}

func selfDestructNewAccountCost(accountExists bool, balance tosca.Value) tosca.Gas {
	if !accountExists && balance != (tosca.Value{}) {
		return CreateBySelfdestructGas
	}
	return 0
}

func selfDestructRefund(destructed bool, revision tosca.Revision) tosca.Gas {
	// EIP-3529 removed the refund with London.
	if destructed && revision < tosca.R10_London {
		return SelfdestructRefundGas
	}
	return 0
}
