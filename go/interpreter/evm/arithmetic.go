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
	"github.com/holiman/uint256"
)

// All arithmetic wraps around modulo 2^256. Divisions and modulo operations
// by zero yield zero, as implemented by uint256.

// binaryOp replaces the two topmost stack elements x (top) and y by f(x, y).
func binaryOp(c *context, f func(z, x, y *uint256.Int) *uint256.Int) {
	x := c.stack.pop()
	y := c.stack.peek()
	f(y, x, y)
}

// ternaryOp replaces the three topmost stack elements x (top), y and m by
// f(x, y, m).
func ternaryOp(c *context, f func(z, x, y, m *uint256.Int) *uint256.Int) {
	x := c.stack.pop()
	y := c.stack.pop()
	m := c.stack.peek()
	f(m, x, y, m)
}

// compareOp replaces the two topmost stack elements x (top) and y by 1 if
// f(x, y) holds, and by 0 otherwise.
func compareOp(c *context, f func(x, y *uint256.Int) bool) {
	x := c.stack.pop()
	y := c.stack.peek()
	setBool(y, f(x, y))
}

// shiftOp shifts the second stack element by the number of bits on top of
// the stack. Shifts by 256 bits or more produce zero.
func shiftOp(c *context, f func(z, x *uint256.Int, n uint) *uint256.Int) {
	shift := c.stack.pop()
	value := c.stack.peek()
	if !shift.LtUint64(256) {
		value.Clear()
		return
	}
	f(value, value, uint(shift.Uint64()))
}

func setBool(z *uint256.Int, value bool) {
	if value {
		z.SetOne()
	} else {
		z.Clear()
	}
}

func opIsZero(c *context) {
	top := c.stack.peek()
	setBool(top, top.IsZero())
}

func opNot(c *context) {
	top := c.stack.peek()
	top.Not(top)
}

// opSar is an arithmetic shift; large shifts fill the value with its sign.
func opSar(c *context) {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.LtUint64(256) {
		value.SRsh(value, uint(shift.Uint64()))
		return
	}
	if value.Sign() < 0 {
		value.SetAllOne()
	} else {
		value.Clear()
	}
}

func opSignExtend(c *context) {
	byteNum := c.stack.pop()
	value := c.stack.peek()
	value.ExtendSign(value, byteNum)
}

func opByte(c *context) {
	index := c.stack.pop()
	value := c.stack.peek()
	value.Byte(index)
}

// opExp charges 50 gas per byte of the exponent (EIP-160).
func opExp(c *context) error {
	exponent := c.stack.peekN(1)
	if err := c.useGas(tosca.Gas(50 * exponent.ByteLen())); err != nil {
		return err
	}
	binaryOp(c, (*uint256.Int).Exp)
	return nil
}
