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

// opCall implements CALL, CALLCODE, DELEGATECALL and STATICCALL. The nested
// frame is executed by the run context; its gas left is returned to the
// current frame and its output becomes the new return data.
func opCall(c *context, kind tosca.CallKind) error {
	requestedGas := c.stack.pop()
	address := tosca.Address(c.stack.pop().Bytes20())
	var value uint256.Int
	if kind == tosca.Call || kind == tosca.CallCode {
		value = *c.stack.pop()
	}
	inOffset, inSize := c.stack.pop(), c.stack.pop()
	outOffset, outSize := c.stack.pop(), c.stack.pop()

	transfer := !value.IsZero()
	if kind == tosca.Call && transfer && c.params.Static {
		return errStaticContextViolation
	}

	if checkSizeOffsetUint64Overflow(inOffset, inSize) != nil ||
		checkSizeOffsetUint64Overflow(outOffset, outSize) != nil {
		return errOverflow
	}
	input, err := c.memory.slice(inOffset.Uint64(), inSize.Uint64(), c)
	if err != nil {
		return err
	}
	input = bytes.Clone(input)
	out, outLength := outOffset.Uint64(), outSize.Uint64()
	if err := c.memory.expand(out, outLength, c); err != nil {
		return err
	}

	if err := accessAccount(c, address); err != nil {
		return err
	}
	if transfer {
		if err := c.useGas(CallValueTransferGas); err != nil {
			return err
		}
	}
	// EIP-158: value carrying calls creating a new account pay extra.
	if transfer && kind == tosca.Call {
		exists, err := c.context.AccountExists(address)
		if err != nil {
			return err
		}
		if !exists {
			if err := c.useGas(CallNewAccountGas); err != nil {
				return err
			}
		}
	}

	fits := requestedGas.IsUint64() && requestedGas.Uint64() <= math.MaxInt64
	gas := callGas(c.gas, tosca.Gas(requestedGas.Uint64()), fits)
	if err := c.useGas(gas); err != nil {
		return err
	}

	if transfer {
		gas += CallStipend
		balance, err := c.context.GetBalance(c.params.Recipient)
		if err != nil {
			return err
		}
		if balance.ToUint256().Lt(&value) {
			// the call fails without being started, all gas is returned
			c.gas += gas
			c.returnData = nil
			pushUint64(c, 0)
			return nil
		}
	}

	if kind == tosca.Call && c.params.Static {
		kind = tosca.StaticCall
	}
	params := tosca.CallParameters{
		Sender:      c.params.Recipient,
		Recipient:   address,
		CodeAddress: address,
		Value:       tosca.Value(value.Bytes32()),
		Input:       input,
		Gas:         gas,
	}
	switch kind {
	case tosca.CallCode:
		params.Recipient = c.params.Recipient
	case tosca.DelegateCall:
		params.Sender = c.params.Sender
		params.Recipient = c.params.Recipient
		params.Value = c.params.Value
	}

	result, err := c.context.Call(kind, params)
	if err != nil {
		return err
	}
	if outLength > 0 {
		copy(c.memory.data[out:out+outLength], result.Output)
	}
	c.gas += result.GasLeft
	c.refund += result.GasRefund
	c.returnData = result.Output
	setBool(c.stack.pushUndefined(), result.Kind == tosca.Success)
	return nil
}

// opCreate implements CREATE and CREATE2. The address of the new contract,
// or zero if the creation failed, is pushed on the stack.
func opCreate(c *context, kind tosca.CallKind) error {
	if c.params.Static {
		return errStaticContextViolation
	}
	value := *c.stack.pop()
	offset, size := c.stack.pop(), c.stack.pop()
	var salt tosca.Hash
	if kind == tosca.Create2 {
		salt = c.stack.pop().Bytes32()
	}

	if checkSizeOffsetUint64Overflow(offset, size) != nil {
		return errOverflow
	}
	length := size.Uint64()
	initCode, err := c.memory.slice(offset.Uint64(), length, c)
	if err != nil {
		return err
	}

	// EIP-3860: init code is limited in size and charged per word
	if c.isAtLeast(tosca.R12_Shanghai) {
		cost, err := computeCodeSizeCost(length)
		if err != nil {
			return err
		}
		if err := c.useGas(cost); err != nil {
			return err
		}
	}
	if kind == tosca.Create2 {
		// hashing the init code for the address derivation
		if err := c.useGas(tosca.Gas(6 * tosca.SizeInWords(length))); err != nil {
			return err
		}
	}

	if !value.IsZero() {
		balance, err := c.context.GetBalance(c.params.Recipient)
		if err != nil {
			return err
		}
		if balance.ToUint256().Lt(&value) {
			c.returnData = nil
			pushUint64(c, 0)
			return nil
		}
	}

	gas := c.gas - c.gas/64
	if err := c.useGas(gas); err != nil {
		return err
	}
	result, err := c.context.Call(kind, tosca.CallParameters{
		Sender: c.params.Recipient,
		Value:  tosca.Value(value.Bytes32()),
		Input:  bytes.Clone(initCode),
		Gas:    gas,
		Salt:   salt,
	})
	if err != nil {
		return err
	}

	c.gas += result.GasLeft
	c.refund += result.GasRefund
	c.returnData = nil
	if result.Kind == tosca.Revert {
		c.returnData = result.Output
	}
	created := c.stack.pushUndefined()
	if result.Kind == tosca.Success {
		created.SetBytes20(result.CreatedAddress[:])
	} else {
		created.Clear()
	}
	return nil
}

// opReturnDataCopy halts if the requested range exceeds the return data of
// the last nested call (EIP-211).
func opReturnDataCopy(c *context) error {
	memOffset, dataOffset, length := c.stack.pop(), c.stack.pop(), c.stack.pop()
	start, startOverflow := dataOffset.Uint64WithOverflow()
	size, sizeOverflow := length.Uint64WithOverflow()
	end := start + size
	if startOverflow || sizeOverflow || end < start || end > uint64(len(c.returnData)) {
		return errReturnDataOutOfBounds
	}
	target, err := prepareCopy(c, memOffset, length)
	if err != nil {
		return err
	}
	copy(target, c.returnData[start:end])
	return nil
}
