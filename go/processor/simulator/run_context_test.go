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
	"errors"
	"testing"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/mock/gomock"
)

const errInjected = tosca.ConstError("injected error")

func newTestRunContext(context tosca.TransactionContext, interpreter tosca.Interpreter) runContext {
	return runContext{
		TransactionContext: context,
		interpreter:        interpreter,
		blockParameters:    tosca.BlockParameters{Revision: tosca.R13_Cancun},
	}
}

func TestRunContext_InterpreterResultIsHandledCorrectly(t *testing.T) {
	tests := map[string]struct {
		result  tosca.Result
		restore bool
		gasLeft tosca.Gas
	}{
		"success": {
			result:  tosca.Result{Kind: tosca.Success, Output: []byte("out"), GasLeft: 400, GasRefund: 5},
			gasLeft: 400,
		},
		"revert": {
			result:  tosca.Result{Kind: tosca.Revert, Output: []byte("out"), GasLeft: 400, GasRefund: 5},
			restore: true,
			gasLeft: 400,
		},
		"halt": {
			result:  tosca.Result{Kind: tosca.Halt, GasLeft: 400, HaltReason: tosca.HaltInvalidJump},
			restore: true,
			gasLeft: 0,
		},
	}

	params := tosca.CallParameters{
		Sender:    tosca.Address{1},
		Recipient: tosca.Address{2},
		Gas:       1000,
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			context := tosca.NewMockTransactionContext(ctrl)
			interpreter := tosca.NewMockInterpreter(ctrl)

			context.EXPECT().AccountExists(params.Recipient).Return(true, nil)
			context.EXPECT().CreateSnapshot().Return(tosca.Snapshot(3))
			context.EXPECT().GetCode(params.Recipient).Return(tosca.Code{byte(0)}, nil)
			context.EXPECT().GetCodeHash(params.Recipient).Return(tosca.Hash{}, nil)
			if test.restore {
				context.EXPECT().RestoreSnapshot(tosca.Snapshot(3))
			}
			interpreter.EXPECT().Run(gomock.Any()).Return(test.result, nil)

			result, err := newTestRunContext(context, interpreter).Call(tosca.Call, params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Kind != test.result.Kind {
				t.Errorf("unexpected kind, wanted %v, got %v", test.result.Kind, result.Kind)
			}
			if result.GasLeft != test.gasLeft {
				t.Errorf("unexpected gas left, wanted %d, got %d", test.gasLeft, result.GasLeft)
			}
			if result.HaltReason != test.result.HaltReason {
				t.Errorf("unexpected halt reason, wanted %v, got %v", test.result.HaltReason, result.HaltReason)
			}
			if test.result.Kind == tosca.Success && result.GasRefund != test.result.GasRefund {
				t.Errorf("refund of successful call lost")
			}
			if test.result.Kind != tosca.Success && result.GasRefund != 0 {
				t.Errorf("failed call should not grant refunds, got %d", result.GasRefund)
			}
		})
	}
}

func TestRunContext_InterpreterErrorsAreForwarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockTransactionContext(ctrl)
	interpreter := tosca.NewMockInterpreter(ctrl)

	context.EXPECT().CreateSnapshot().Return(tosca.Snapshot(1))
	context.EXPECT().GetCode(gomock.Any()).Return(tosca.Code{byte(0)}, nil)
	context.EXPECT().GetCodeHash(gomock.Any()).Return(tosca.Hash{}, nil)
	context.EXPECT().RestoreSnapshot(tosca.Snapshot(1))
	interpreter.EXPECT().Run(gomock.Any()).Return(tosca.Result{}, errInjected)

	_, err := newTestRunContext(context, interpreter).Call(tosca.StaticCall, tosca.CallParameters{Gas: 100})
	if !errors.Is(err, errInjected) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestRunContext_StateErrorsAreForwarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockTransactionContext(ctrl)

	context.EXPECT().CreateSnapshot().Return(tosca.Snapshot(2))
	context.EXPECT().AccountExists(gomock.Any()).Return(false, errInjected)
	context.EXPECT().RestoreSnapshot(tosca.Snapshot(2))

	_, err := newTestRunContext(context, nil).Call(tosca.Call, tosca.CallParameters{Gas: 100})
	if !errors.Is(err, errInjected) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestRunContext_CallToNonExistingAccountSucceedsWithoutRunningCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockTransactionContext(ctrl)
	interpreter := tosca.NewMockInterpreter(ctrl)

	context.EXPECT().CreateSnapshot()
	context.EXPECT().AccountExists(tosca.Address{2}).Return(false, nil)

	result, err := newTestRunContext(context, interpreter).Call(tosca.Call, tosca.CallParameters{
		Recipient: tosca.Address{2},
		Gas:       100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != tosca.Success || result.GasLeft != 100 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunContext_DepthLimitIsEnforced(t *testing.T) {
	for _, kind := range []tosca.CallKind{tosca.Call, tosca.StaticCall, tosca.DelegateCall, tosca.Create, tosca.Create2} {
		runContext := runContext{depth: MaxRecursiveDepth + 1}
		result, err := runContext.Call(kind, tosca.CallParameters{Gas: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Kind != tosca.Halt || result.HaltReason != tosca.HaltCallDepthExceeded {
			t.Errorf("unexpected result for %v: %+v", kind, result)
		}
		if result.GasLeft != 100 {
			t.Errorf("gas of call exceeding depth limit should be returned, got %d", result.GasLeft)
		}
	}
}

func TestRunContext_NestedFramesRunAtIncreasingDepth(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockTransactionContext(ctrl)
	interpreter := tosca.NewMockInterpreter(ctrl)

	context.EXPECT().CreateSnapshot().AnyTimes()
	context.EXPECT().GetCode(gomock.Any()).Return(tosca.Code{byte(0)}, nil).AnyTimes()
	context.EXPECT().GetCodeHash(gomock.Any()).Return(tosca.Hash{}, nil).AnyTimes()

	gomock.InOrder(
		interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tosca.Parameters) (tosca.Result, error) {
			if params.Depth != 0 || !params.Static {
				t.Errorf("unexpected outer frame parameters, depth %d, static %v", params.Depth, params.Static)
			}
			// a delegate call from within a static frame remains static
			res, err := params.Context.Call(tosca.DelegateCall, tosca.CallParameters{Gas: 50})
			return tosca.Result{Kind: res.Kind, GasLeft: res.GasLeft}, err
		}),
		interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tosca.Parameters) (tosca.Result, error) {
			if params.Depth != 1 || !params.Static {
				t.Errorf("unexpected inner frame parameters, depth %d, static %v", params.Depth, params.Static)
			}
			return tosca.Result{Kind: tosca.Success, GasLeft: 20}, nil
		}),
	)

	result, err := newTestRunContext(context, interpreter).Call(tosca.StaticCall, tosca.CallParameters{Gas: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != tosca.Success || result.GasLeft != 20 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunContext_CreateFailsOnAddressCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockTransactionContext(ctrl)

	sender := tosca.Address{1}
	created := tosca.Address(crypto.CreateAddress(common.Address(sender), 4))
	context.EXPECT().GetNonce(sender).Return(uint64(4), nil)
	context.EXPECT().SetNonce(sender, uint64(5)).Return(nil)
	context.EXPECT().AccessAccount(created)
	context.EXPECT().GetNonce(created).Return(uint64(1), nil)

	result, err := newTestRunContext(context, nil).Call(tosca.Create, tosca.CallParameters{
		Sender: sender,
		Gas:    100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != tosca.Halt || result.HaltReason != tosca.HaltAddressCollision || result.GasLeft != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunContext_CreateRejectsInvalidCode(t *testing.T) {
	tests := map[string]struct {
		code    []byte
		gasLeft tosca.Gas
		reason  tosca.HaltReason
	}{
		"too large":       {make([]byte, maxCodeSize+1), 10_000_000, tosca.HaltInvalidCode},
		"0xEF prefix":     {[]byte{0xef, 0x00}, 10_000, tosca.HaltInvalidCode},
		"deposit too low": {make([]byte, 10), 1999, tosca.HaltOutOfGas},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			context := tosca.NewMockTransactionContext(ctrl)
			interpreter := tosca.NewMockInterpreter(ctrl)

			context.EXPECT().GetNonce(gomock.Any()).Return(uint64(0), nil).Times(2)
			context.EXPECT().SetNonce(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			context.EXPECT().AccessAccount(gomock.Any())
			context.EXPECT().GetCodeHash(gomock.Any()).Return(tosca.Hash{}, nil)
			context.EXPECT().CreateSnapshot().Return(tosca.Snapshot(7))
			context.EXPECT().CreateAccount(gomock.Any()).Return(nil)
			context.EXPECT().RestoreSnapshot(tosca.Snapshot(7))
			interpreter.EXPECT().Run(gomock.Any()).Return(tosca.Result{
				Kind:    tosca.Success,
				Output:  test.code,
				GasLeft: test.gasLeft,
			}, nil)

			result, err := newTestRunContext(context, interpreter).Call(tosca.Create, tosca.CallParameters{
				Sender: tosca.Address{1},
				Gas:    test.gasLeft,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Kind != tosca.Halt || result.HaltReason != test.reason || result.GasLeft != 0 {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	}
}

func TestCreateAddress_MatchesGoEthereum(t *testing.T) {
	sender := tosca.Address{1, 2, 3}
	salt := tosca.Hash{4, 5, 6}
	initHash := tosca.Keccak256([]byte{7, 8, 9})

	if want, got := tosca.Address(crypto.CreateAddress(common.Address(sender), 12)),
		createAddress(tosca.Create, sender, 12, salt, initHash); want != got {
		t.Errorf("unexpected CREATE address, wanted %v, got %v", want, got)
	}
	if want, got := tosca.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:])),
		createAddress(tosca.Create2, sender, 12, salt, initHash); want != got {
		t.Errorf("unexpected CREATE2 address, wanted %v, got %v", want, got)
	}
}

func TestCanTransferValue(t *testing.T) {
	sender, recipient := tosca.Address{1}, tosca.Address{2}
	maxValue := tosca.Sub(tosca.Value{}, tosca.NewValue(1))
	tests := map[string]struct {
		value            tosca.Value
		senderBalance    tosca.Value
		recipientBalance tosca.Value
		recipient        *tosca.Address
		want             bool
	}{
		"zero value":             {tosca.Value{}, tosca.Value{}, tosca.Value{}, &recipient, true},
		"sufficient balance":     {tosca.NewValue(5), tosca.NewValue(5), tosca.Value{}, &recipient, true},
		"insufficient balance":   {tosca.NewValue(6), tosca.NewValue(5), tosca.Value{}, &recipient, false},
		"self transfer":          {tosca.NewValue(5), tosca.NewValue(5), tosca.Value{}, &sender, true},
		"without recipient":      {tosca.NewValue(5), tosca.NewValue(5), tosca.Value{}, nil, true},
		"recipient overflow":     {tosca.NewValue(5), tosca.NewValue(5), maxValue, &recipient, false},
		"recipient at max value": {tosca.NewValue(1), tosca.NewValue(5), tosca.Sub(maxValue, tosca.NewValue(1)), &recipient, true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			context := tosca.NewMockWorldState(ctrl)
			context.EXPECT().GetBalance(sender).Return(test.senderBalance, nil).AnyTimes()
			context.EXPECT().GetBalance(recipient).Return(test.recipientBalance, nil).AnyTimes()

			got, err := canTransferValue(context, test.value, sender, test.recipient)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("unexpected result, wanted %v, got %v", test.want, got)
			}
		})
	}
}

func TestTransferValue_UpdatesBalances(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockWorldState(ctrl)
	sender, recipient := tosca.Address{1}, tosca.Address{2}

	context.EXPECT().GetBalance(sender).Return(tosca.NewValue(100), nil)
	context.EXPECT().GetBalance(recipient).Return(tosca.NewValue(7), nil)
	context.EXPECT().SetBalance(sender, tosca.NewValue(90)).Return(nil)
	context.EXPECT().SetBalance(recipient, tosca.NewValue(17)).Return(nil)

	if err := transferValue(context, tosca.NewValue(10), sender, recipient); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTransferValue_ForwardsStateErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tosca.NewMockWorldState(ctrl)
	context.EXPECT().GetBalance(gomock.Any()).Return(tosca.Value{}, errInjected)

	err := transferValue(context, tosca.NewValue(10), tosca.Address{1}, tosca.Address{2})
	if !errors.Is(err, errInjected) {
		t.Errorf("expected injected error, got %v", err)
	}
}
