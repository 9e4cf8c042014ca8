// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// ErrUnknownInterpreter is reported by NewInterpreter for names without a
// registered factory.
const ErrUnknownInterpreter = ConstError("unknown interpreter")

// InterpreterFactory creates an Interpreter from an implementation specific
// configuration. A nil configuration selects the defaults.
type InterpreterFactory func(config any) (Interpreter, error)

// Interpreter implementations register a factory under a name during their
// package initialization. Importing an implementation thus makes it
// available through NewInterpreter. Names are case-insensitive.
var interpreters = struct {
	sync.Mutex
	factories map[string]InterpreterFactory
}{factories: map[string]InterpreterFactory{}}

// NewInterpreter creates an instance of the interpreter registered under the
// given name, using at most one configuration value.
func NewInterpreter(name string, config ...any) (Interpreter, error) {
	if len(config) > 1 {
		return nil, fmt.Errorf("invalid configuration: expected at most one value, got %d", len(config))
	}
	interpreters.Lock()
	factory := interpreters.factories[strings.ToLower(name)]
	interpreters.Unlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInterpreter, name)
	}
	var cfg any
	if len(config) == 1 {
		cfg = config[0]
	}
	return factory(cfg)
}

// GetAllRegisteredInterpreters returns a copy of the registered factories,
// keyed by their lower-case name.
func GetAllRegisteredInterpreters() map[string]InterpreterFactory {
	interpreters.Lock()
	defer interpreters.Unlock()
	return maps.Clone(interpreters.factories)
}

// RegisterInterpreterFactory makes an interpreter available under the given
// name. Registering nil or reusing a name is an error.
func RegisterInterpreterFactory(name string, factory InterpreterFactory) error {
	key := strings.ToLower(name)
	if factory == nil {
		return fmt.Errorf("cannot register nil factory as %q", key)
	}
	interpreters.Lock()
	defer interpreters.Unlock()
	if _, found := interpreters.factories[key]; found {
		return fmt.Errorf("interpreter %q is already registered", key)
	}
	interpreters.factories[key] = factory
	return nil
}
