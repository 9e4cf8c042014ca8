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
	"sync/atomic"

	"github.com/Fantom-foundation/Scry/go/tosca"
)

var _ Source = (*CountingSource)(nil)

// CountingSource is a decorator counting the fetches forwarded to a nested
// source.
type CountingSource struct {
	source         Source
	accountFetches atomic.Uint64
	storageFetches atomic.Uint64
	failures       atomic.Uint64
}

func NewCountingSource(source Source) *CountingSource {
	return &CountingSource{source: source}
}

func (s *CountingSource) FetchAccount(address tosca.Address) (tosca.Account, error) {
	s.accountFetches.Add(1)
	account, err := s.source.FetchAccount(address)
	if err != nil {
		s.failures.Add(1)
	}
	return account, err
}

func (s *CountingSource) FetchStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	s.storageFetches.Add(1)
	value, err := s.source.FetchStorage(address, key)
	if err != nil {
		s.failures.Add(1)
	}
	return value, err
}

// Stats returns the number of fetches issued so far.
func (s *CountingSource) Stats() Stats {
	return Stats{
		AccountFetches: s.accountFetches.Load(),
		StorageFetches: s.storageFetches.Load(),
		Failures:       s.failures.Load(),
	}
}
