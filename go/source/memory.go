// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package source

import (
	"sync"

	"github.com/Fantom-foundation/Scry/go/tosca"
)

var _ Source = (*MemorySource)(nil)

// MemorySource is a Source serving a fixed set of accounts and storage slots
// kept in memory. It is intended for offline simulations and tests. Unknown
// accounts are empty and unknown slots are zero.
type MemorySource struct {
	mutex    sync.Mutex
	accounts map[tosca.Address]tosca.Account
	storage  map[slot]tosca.Word
}

type slot struct {
	address tosca.Address
	key     tosca.Key
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		accounts: map[tosca.Address]tosca.Account{},
		storage:  map[slot]tosca.Word{},
	}
}

// SetAccount registers the given account. The code hash is recomputed.
func (s *MemorySource) SetAccount(address tosca.Address, account tosca.Account) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.accounts[address] = tosca.NewAccount(account.Balance, account.Nonce, account.Code)
}

func (s *MemorySource) SetStorage(address tosca.Address, key tosca.Key, value tosca.Word) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if value == (tosca.Word{}) {
		delete(s.storage, slot{address, key})
		return
	}
	s.storage[slot{address, key}] = value
}

func (s *MemorySource) FetchAccount(address tosca.Address) (tosca.Account, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if account, found := s.accounts[address]; found {
		account.Code = clone(account.Code)
		return account, nil
	}
	return tosca.NewAccount(tosca.Value{}, 0, nil), nil
}

func (s *MemorySource) FetchStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.storage[slot{address, key}], nil
}

func clone(code tosca.Code) tosca.Code {
	if code == nil {
		return nil
	}
	return append(tosca.Code{}, code...)
}
