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
	"math"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/holiman/uint256"
)

// memory is the byte-addressed scratch memory of a frame. It grows in whole
// words on demand and every growth is charged to the gas of the frame.
type memory struct {
	data []byte
	paid tosca.Gas // expansion costs paid so far
}

func newMemory() *memory {
	return &memory{}
}

// maxMemorySize bounds the memory; larger sizes overflow the cost formula
// and could never be paid for.
const maxMemorySize = 0x1FFFFFFFE0

// memoryCost is the total cost of a memory of the given number of words:
// 3 gas per word plus words²/512.
func memoryCost(words uint64) tosca.Gas {
	return tosca.Gas(3*words + words*words/512)
}

// expansionCost returns the gas still to be paid for growing the memory to
// cover size bytes.
func (m *memory) expansionCost(size uint64) tosca.Gas {
	if size <= m.length() {
		return 0
	}
	if size > maxMemorySize {
		return math.MaxInt64
	}
	return memoryCost(tosca.SizeInWords(size)) - m.paid
}

// expand grows the memory to cover [offset, offset+size) and charges the
// costs to the given frame. A zero size never expands the memory.
func (m *memory) expand(offset, size uint64, c *context) error {
	if size == 0 {
		return nil
	}
	end := offset + size
	if end < offset {
		return errGasUintOverflow
	}
	if end <= m.length() {
		return nil
	}
	if err := c.useGas(m.expansionCost(end)); err != nil {
		return err
	}
	words := tosca.SizeInWords(end)
	m.paid = memoryCost(words)
	m.data = append(m.data, make([]byte, words*32-m.length())...)
	return nil
}

func (m *memory) length() uint64 {
	return uint64(len(m.data))
}

// slice returns size bytes at the given offset, expanding the memory as
// needed. The result aliases the memory and is invalidated by the next
// expansion.
func (m *memory) slice(offset, size uint64, c *context) ([]byte, error) {
	if err := m.expand(offset, size, c); err != nil {
		return nil, err
	}
	// a zero size does not expand the memory, so the offset may be off-bounds
	if size == 0 {
		return nil, nil
	}
	return m.data[offset : offset+size], nil
}

func (m *memory) write(offset uint64, data []byte, c *context) error {
	target, err := m.slice(offset, uint64(len(data)), c)
	if err != nil {
		return err
	}
	copy(target, data)
	return nil
}

// writeWord stores the value as a 32 byte big-endian word.
func (m *memory) writeWord(offset uint64, value *uint256.Int, c *context) error {
	target, err := m.slice(offset, 32, c)
	if err != nil {
		return err
	}
	value.WriteToSlice(target)
	return nil
}

func (m *memory) readWord(offset uint64, target *uint256.Int, c *context) error {
	data, err := m.slice(offset, 32, c)
	if err != nil {
		return err
	}
	target.SetBytes32(data)
	return nil
}
