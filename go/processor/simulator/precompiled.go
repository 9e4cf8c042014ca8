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
	geth "github.com/ethereum/go-ethereum/core/vm"
)

func handlePrecompiled(revision tosca.Revision, input tosca.Data, address tosca.Address, gas tosca.Gas) (tosca.CallResult, bool) {
	contract, ok := getPrecompiledContract(address, revision)
	if !ok {
		return tosca.CallResult{}, false
	}
	gasCost := contract.RequiredGas(input)
	if gasCost > uint64(gas) {
		return tosca.CallResult{Kind: tosca.Halt, HaltReason: tosca.HaltOutOfGas}, true
	}
	gas -= tosca.Gas(gasCost)
	output, err := contract.Run(input)
	if err != nil {
		// precompiled contracts only return errors on invalid input
		return tosca.CallResult{Kind: tosca.Halt, HaltReason: tosca.HaltPrecompileFailed}, true
	}
	return tosca.CallResult{
		Kind:    tosca.Success,
		Output:  output,
		GasLeft: gas,
	}, true
}

func isPrecompiled(address tosca.Address, revision tosca.Revision) bool {
	_, ok := getPrecompiledContract(address, revision)
	return ok
}

func getPrecompiledContract(address tosca.Address, revision tosca.Revision) (geth.PrecompiledContract, bool) {
	contract, ok := precompiledContracts(revision)[common.Address(address)]
	return contract, ok
}

// precompiledAddresses lists the addresses of all precompiled contracts
// active in the given revision.
func precompiledAddresses(revision tosca.Revision) []tosca.Address {
	contracts := precompiledContracts(revision)
	res := make([]tosca.Address, 0, len(contracts))
	for address := range contracts {
		res = append(res, tosca.Address(address))
	}
	return res
}

func precompiledContracts(revision tosca.Revision) map[common.Address]geth.PrecompiledContract {
	switch {
	case revision >= tosca.R13_Cancun:
		return geth.PrecompiledContractsCancun
	case revision >= tosca.R09_Berlin:
		return geth.PrecompiledContractsBerlin
	default:
		return geth.PrecompiledContractsIstanbul
	}
}
