// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package source is a generated GoMock package.
package source

import (
	reflect "reflect"

	tosca "github.com/Fantom-foundation/Scry/go/tosca"
	gomock "go.uber.org/mock/gomock"
)

// MockSource is a mock of Source interface.
type MockSource struct {
	ctrl     *gomock.Controller
	recorder *MockSourceMockRecorder
}

// MockSourceMockRecorder is the mock recorder for MockSource.
type MockSourceMockRecorder struct {
	mock *MockSource
}

// NewMockSource creates a new mock instance.
func NewMockSource(ctrl *gomock.Controller) *MockSource {
	mock := &MockSource{ctrl: ctrl}
	mock.recorder = &MockSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSource) EXPECT() *MockSourceMockRecorder {
	return m.recorder
}

// FetchAccount mocks base method.
func (m *MockSource) FetchAccount(arg0 tosca.Address) (tosca.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchAccount", arg0)
	ret0, _ := ret[0].(tosca.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchAccount indicates an expected call of FetchAccount.
func (mr *MockSourceMockRecorder) FetchAccount(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchAccount", reflect.TypeOf((*MockSource)(nil).FetchAccount), arg0)
}

// FetchStorage mocks base method.
func (m *MockSource) FetchStorage(arg0 tosca.Address, arg1 tosca.Key) (tosca.Word, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchStorage", arg0, arg1)
	ret0, _ := ret[0].(tosca.Word)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchStorage indicates an expected call of FetchStorage.
func (mr *MockSourceMockRecorder) FetchStorage(arg0, arg1 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchStorage", reflect.TypeOf((*MockSource)(nil).FetchStorage), arg0, arg1)
}
