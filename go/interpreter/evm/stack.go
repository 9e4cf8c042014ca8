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
	"strings"
	"sync"

	"github.com/holiman/uint256"
)

// maxStackSize is the number of words a stack can hold.
const maxStackSize = 1024

// stack holds the operands of a frame. Operations do not check bounds; the
// interpreter verifies the stack requirements of each instruction before
// executing it. A stack occupies 32KB and is recycled through a pool:
//
//	s := newStack()
//	defer releaseStack(s)
type stack struct {
	data [maxStackSize]uint256.Int
	size int
}

var stackPool = sync.Pool{New: func() any { return new(stack) }}

func newStack() *stack {
	return stackPool.Get().(*stack)
}

// releaseStack hands the stack back to the pool; it must not be used
// afterwards.
func releaseStack(s *stack) {
	s.size = 0
	stackPool.Put(s)
}

func (s *stack) len() int {
	return s.size
}

func (s *stack) push(value *uint256.Int) {
	s.data[s.size].Set(value)
	s.size++
}

// pushUndefined grows the stack by one element and returns it for in-place
// initialization. Its content is arbitrary.
func (s *stack) pushUndefined() *uint256.Int {
	s.size++
	return &s.data[s.size-1]
}

// pop removes the top element. The result aliases the removed slot and is
// overwritten by the next push.
func (s *stack) pop() *uint256.Int {
	s.size--
	return &s.data[s.size]
}

func (s *stack) peek() *uint256.Int {
	return s.peekN(0)
}

// peekN returns the n-th element below the top; peekN(0) is the top.
func (s *stack) peekN(n int) *uint256.Int {
	return &s.data[s.size-1-n]
}

// swap exchanges the top with the n-th element below it.
func (s *stack) swap(n int) {
	top, other := s.peek(), s.peekN(n)
	*top, *other = *other, *top
}

// dup pushes a copy of the n-th element below the top.
func (s *stack) dup(n int) {
	s.push(s.peekN(n))
}

func (s *stack) String() string {
	var b strings.Builder
	for i := 0; i < s.size; i++ {
		fmt.Fprintf(&b, "%4d: %s\n", i, s.peekN(i).Hex())
	}
	return b.String()
}
