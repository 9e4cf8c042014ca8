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
	"github.com/Fantom-foundation/Scry/go/tosca/vm"
)

// trace logs the instruction about to be executed together with the
// remaining gas and the top of the stack.
func trace(c *context, op vm.OpCode) {
	event := c.tracer.Trace().
		Int("pc", c.pc).
		Stringer("op", op).
		Int64("gas", int64(c.gas)).
		Int("stack", c.stack.len())
	if c.stack.len() > 0 {
		event = event.Str("top", c.stack.peek().Hex())
	}
	event.Int("depth", c.params.Depth).Msg("step")
}
