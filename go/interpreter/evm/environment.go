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
)

func pushUint64(c *context, value uint64) {
	c.stack.pushUndefined().SetUint64(value)
}

func pushWord(c *context, word [32]byte) {
	c.stack.pushUndefined().SetBytes32(word[:])
}

func pushAddress(c *context, address tosca.Address) {
	c.stack.pushUndefined().SetBytes20(address[:])
}

// accessAccount charges the EIP-2929 costs for accessing the given account
// and marks it as warm. Before Berlin, the costs are covered by the static
// gas price of the instruction.
func accessAccount(c *context, address tosca.Address) error {
	if !c.isAtLeast(tosca.R09_Berlin) {
		return nil
	}
	return c.useGas(getAccessCost(c.context.AccessAccount(address)))
}

func opCallDataLoad(c *context) {
	top := c.stack.peek()
	offset, overflow := top.Uint64WithOverflow()
	if overflow {
		top.Clear()
		return
	}
	top.SetBytes32(getData(c.params.Input, offset, 32))
}

func opBalance(c *context) error {
	top := c.stack.peek()
	address := tosca.Address(top.Bytes20())
	if err := accessAccount(c, address); err != nil {
		return err
	}
	balance, err := c.context.GetBalance(address)
	if err != nil {
		return err
	}
	top.SetBytes32(balance[:])
	return nil
}

func opSelfBalance(c *context) error {
	balance, err := c.context.GetBalance(c.params.Recipient)
	if err != nil {
		return err
	}
	pushWord(c, balance)
	return nil
}

func opExtCodeSize(c *context) error {
	top := c.stack.peek()
	address := tosca.Address(top.Bytes20())
	if err := accessAccount(c, address); err != nil {
		return err
	}
	size, err := c.context.GetCodeSize(address)
	if err != nil {
		return err
	}
	top.SetUint64(uint64(size))
	return nil
}

// opExtCodeHash yields zero for accounts that do not exist (EIP-1052).
func opExtCodeHash(c *context) error {
	top := c.stack.peek()
	address := tosca.Address(top.Bytes20())
	if err := accessAccount(c, address); err != nil {
		return err
	}
	exists, err := c.context.AccountExists(address)
	if err != nil || !exists {
		top.Clear()
		return err
	}
	hash, err := c.context.GetCodeHash(address)
	if err != nil {
		return err
	}
	top.SetBytes32(hash[:])
	return nil
}

func opExtCodeCopy(c *context) error {
	address := tosca.Address(c.stack.pop().Bytes20())
	memOffset, codeOffset, length := c.stack.pop(), c.stack.pop(), c.stack.pop()
	if err := accessAccount(c, address); err != nil {
		return err
	}
	target, err := prepareCopy(c, memOffset, length)
	if err != nil {
		return err
	}
	code, err := c.context.GetCode(address)
	if err != nil {
		return err
	}
	copy(target, getData(code, offsetOrMax(codeOffset), uint64(len(target))))
	return nil
}

// opBlockHash provides the hashes of the 256 most recent blocks; any other
// block number yields zero.
func opBlockHash(c *context) {
	top := c.stack.peek()
	number, overflow := top.Uint64WithOverflow()
	current := uint64(c.params.BlockNumber)
	if overflow || number >= current || current-number > 256 {
		top.Clear()
		return
	}
	hash := c.context.GetBlockHash(int64(number))
	top.SetBytes32(hash[:])
}

func opBlobHash(c *context) {
	top := c.stack.peek()
	hashes := c.params.BlobHashes
	if !top.IsUint64() || top.Uint64() >= uint64(len(hashes)) {
		top.Clear()
		return
	}
	top.SetBytes32(hashes[top.Uint64()][:])
}
