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
	"bytes"
	"math"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/holiman/uint256"
)

// opEndWithResult implements RETURN and REVERT, capturing the memory range
// given on the stack as the output of the frame.
func opEndWithResult(c *context) error {
	offset, size := c.stack.pop(), c.stack.pop()
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		return err
	}
	data, err := c.memory.slice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	c.returnData = bytes.Clone(data)
	return nil
}

// jumpTo moves the program counter to the given destination, which has to be
// a JUMPDEST instruction outside of PUSH data.
func jumpTo(c *context, destination *uint256.Int) error {
	if !destination.IsUint64() || !c.jumpDests.isJumpDest(destination.Uint64()) {
		return errInvalidJump
	}
	// the interpreter loop increments the PC after the instruction
	c.pc = int(destination.Uint64()) - 1
	return nil
}

func opJumpi(c *context) error {
	destination, condition := c.stack.pop(), c.stack.pop()
	if condition.IsZero() {
		return nil
	}
	return jumpTo(c, destination)
}

// opPush pushes the n bytes following the instruction. Data cut off by the
// end of the code is padded with zeros.
func opPush(c *context, n int) {
	var data [32]byte
	start := c.pc + 1
	if start < len(c.code) {
		copy(data[:n], c.code[start:])
	}
	c.stack.pushUndefined().SetBytes(data[:n])
	c.pc += n
}

func opMload(c *context) error {
	top := c.stack.peek()
	if !top.IsUint64() {
		return errOverflow
	}
	return c.memory.readWord(top.Uint64(), top, c)
}

func opMstore(c *context) error {
	offset, value := c.stack.pop(), c.stack.pop()
	if !offset.IsUint64() {
		return errOverflow
	}
	return c.memory.writeWord(offset.Uint64(), value, c)
}

func opMstore8(c *context) error {
	offset, value := c.stack.pop(), c.stack.pop()
	if !offset.IsUint64() {
		return errOverflow
	}
	return c.memory.write(offset.Uint64(), []byte{byte(value.Uint64())}, c)
}

// opMcopy copies within memory (EIP-5656); the ranges may overlap.
func opMcopy(c *context) error {
	dst, src, length := c.stack.pop(), c.stack.pop(), c.stack.pop()
	if length.IsZero() {
		return nil
	}
	if !dst.IsUint64() || !src.IsUint64() || !length.IsUint64() {
		return errOverflow
	}
	size := length.Uint64()
	if err := c.useGas(tosca.Gas(3 * tosca.SizeInWords(size))); err != nil {
		return err
	}
	// both ranges are expanded before the source slice is obtained
	if err := c.memory.expand(dst.Uint64(), size, c); err != nil {
		return err
	}
	data, err := c.memory.slice(src.Uint64(), size, c)
	if err != nil {
		return err
	}
	copy(c.memory.data[dst.Uint64():], data)
	return nil
}

// prepareCopy validates a copy of length bytes into memory at memOffset,
// charges the per word copy costs and the memory expansion, and returns the
// target region.
func prepareCopy(c *context, memOffset, length *uint256.Int) ([]byte, error) {
	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return nil, err
	}
	if err := c.useGas(tosca.Gas(3 * tosca.SizeInWords(length.Uint64()))); err != nil {
		return nil, err
	}
	return c.memory.slice(memOffset.Uint64(), length.Uint64(), c)
}

// opDataCopy implements CALLDATACOPY and CODECOPY.
func opDataCopy(c *context, source []byte) error {
	memOffset, dataOffset, length := c.stack.pop(), c.stack.pop(), c.stack.pop()
	target, err := prepareCopy(c, memOffset, length)
	if err != nil {
		return err
	}
	copy(target, getData(source, offsetOrMax(dataOffset), uint64(len(target))))
	return nil
}

func opSload(c *context) error {
	top := c.stack.peek()
	key := tosca.Key(top.Bytes32())
	if c.isAtLeast(tosca.R09_Berlin) {
		cost := WarmStorageReadCostEIP2929
		if c.context.AccessStorage(c.params.Recipient, key) == tosca.ColdAccess {
			cost = ColdSloadCostEIP2929
		}
		if err := c.useGas(cost); err != nil {
			return err
		}
	}
	value, err := c.context.GetStorage(c.params.Recipient, key)
	if err != nil {
		return err
	}
	top.SetBytes32(value[:])
	return nil
}

func opSstore(c *context) error {
	if c.params.Static {
		return errStaticContextViolation
	}
	// EIP-2200: SSTORE requires more than the call stipend to be left
	if c.gas <= SstoreSentryGasEIP2200 {
		return errOutOfGas
	}
	key := tosca.Key(c.stack.pop().Bytes32())
	value := tosca.Word(c.stack.pop().Bytes32())

	var cost tosca.Gas
	if c.isAtLeast(tosca.R09_Berlin) &&
		c.context.AccessStorage(c.params.Recipient, key) == tosca.ColdAccess {
		cost = ColdSloadCostEIP2929
	}
	status, err := c.context.SetStorage(c.params.Recipient, key, value)
	if err != nil {
		return err
	}
	if err := c.useGas(cost + getDynamicCostsForSstore(c.params.Revision, status)); err != nil {
		return err
	}
	c.refund += getRefundForSstore(c.params.Revision, status)
	return nil
}

func opTload(c *context) {
	top := c.stack.peek()
	value := c.context.GetTransientStorage(c.params.Recipient, tosca.Key(top.Bytes32()))
	top.SetBytes32(value[:])
}

// opTstore writes transient storage (EIP-1153), which counts as a state
// change in static frames.
func opTstore(c *context) error {
	if c.params.Static {
		return errStaticContextViolation
	}
	key := tosca.Key(c.stack.pop().Bytes32())
	value := tosca.Word(c.stack.pop().Bytes32())
	c.context.SetTransientStorage(c.params.Recipient, key, value)
	return nil
}

func opSha3(c *context) error {
	offset, size := c.stack.pop(), c.stack.peek()
	if checkSizeOffsetUint64Overflow(offset, size) != nil {
		return errOverflow
	}
	data, err := c.memory.slice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	if err := c.useGas(tosca.Gas(6 * tosca.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	hash := tosca.Keccak256(data)
	size.SetBytes32(hash[:])
	return nil
}

func opLog(c *context, numTopics int) error {
	if c.params.Static {
		return errStaticContextViolation
	}
	offset, size := c.stack.pop(), c.stack.pop()
	topics := make([]tosca.Hash, numTopics)
	for i := range topics {
		topics[i] = c.stack.pop().Bytes32()
	}
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		return err
	}
	if size.Uint64() > math.MaxInt64/8 {
		return errOverflow
	}
	if err := c.useGas(tosca.Gas(8 * size.Uint64())); err != nil {
		return err
	}
	data, err := c.memory.slice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	c.context.EmitLog(tosca.Log{
		Address: c.params.Recipient,
		Topics:  topics,
		Data:    bytes.Clone(data),
	})
	return nil
}

func opSelfDestruct(c *context) (status, error) {
	if c.params.Static {
		return statusStopped, errStaticContextViolation
	}
	beneficiary := tosca.Address(c.stack.pop().Bytes20())

	// EIP-2929: only cold beneficiaries are charged
	var cost tosca.Gas
	if c.isAtLeast(tosca.R09_Berlin) && c.context.AccessAccount(beneficiary) == tosca.ColdAccess {
		cost = ColdAccountAccessCostEIP2929
	}
	exists, err := c.context.AccountExists(beneficiary)
	if err != nil {
		return statusStopped, err
	}
	balance, err := c.context.GetBalance(c.params.Recipient)
	if err != nil {
		return statusStopped, err
	}
	if err := c.useGas(cost + selfDestructNewAccountCost(exists, balance)); err != nil {
		return statusStopped, err
	}

	destructed, err := c.context.SelfDestruct(c.params.Recipient, beneficiary)
	if err != nil {
		return statusStopped, err
	}
	c.refund += selfDestructRefund(destructed, c.params.Revision)
	return statusSelfDestructed, nil
}

// getData returns size bytes of data starting at the given offset. Bytes
// beyond the end of data are zero.
func getData(data []byte, offset uint64, size uint64) []byte {
	res := make([]byte, size)
	if offset < uint64(len(data)) {
		copy(res, data[offset:])
	}
	return res
}

// offsetOrMax converts an offset into data, mapping offsets beyond the
// uint64 range to the largest offset.
func offsetOrMax(offset *uint256.Int) uint64 {
	if offset.IsUint64() {
		return offset.Uint64()
	}
	return math.MaxUint64
}

// checkSizeOffsetUint64Overflow fails if a non-empty range does not fit into
// the uint64 address space.
func checkSizeOffsetUint64Overflow(offset, size *uint256.Int) error {
	if size.IsZero() {
		return nil
	}
	if !offset.IsUint64() || !size.IsUint64() || offset.Uint64()+size.Uint64() < offset.Uint64() {
		return errOverflow
	}
	return nil
}
