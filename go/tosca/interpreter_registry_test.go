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
	"errors"
	"testing"
)

func TestInterpreterRegistry_NameCollisionsAreDetected(t *testing.T) {
	const name = "something-just-for-this-test"
	factory := func(any) (Interpreter, error) {
		return nil, nil
	}
	if err := RegisterInterpreterFactory(name, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RegisterInterpreterFactory(name, factory); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestInterpreterRegistry_NilFactoriesAreRejected(t *testing.T) {
	const name = "something"
	if err := RegisterInterpreterFactory(name, nil); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestInterpreterRegistry_RegisteredFactoryIsUsedByNewInterpreter(t *testing.T) {
	const name = "Registry-Test-Interpreter"
	var received any
	factory := func(config any) (Interpreter, error) {
		received = config
		return nil, nil
	}
	if err := RegisterInterpreterFactory(name, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := NewInterpreter("registry-test-interpreter", 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != 42 {
		t.Errorf("configuration not forwarded to factory, got %v", received)
	}

	if _, found := GetAllRegisteredInterpreters()["registry-test-interpreter"]; !found {
		t.Errorf("factory not listed among registered interpreters")
	}
}

func TestInterpreterRegistry_UnknownInterpreterIsReported(t *testing.T) {
	_, err := NewInterpreter("does-not-exist")
	if !errors.Is(err, ErrUnknownInterpreter) {
		t.Errorf("expected unknown interpreter error, got %v", err)
	}
	if _, found := GetAllRegisteredInterpreters()["does-not-exist"]; found {
		t.Errorf("lookup should not register anything")
	}
}

func TestInterpreterRegistry_TooManyConfigurationsAreRejected(t *testing.T) {
	if _, err := NewInterpreter("does-not-exist", 1, 2); err == nil {
		t.Errorf("expected error, got nil")
	}
}
