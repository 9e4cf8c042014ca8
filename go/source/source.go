// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package source provides access to chain state held by a remote provider.
// Sources are read-only and stateless beyond their transport handle: they
// do not cache, they do not retry on behalf of their callers beyond what the
// transport does, and they never mutate the chain.
package source

import (
	"github.com/Fantom-foundation/Scry/go/tosca"
)

//go:generate mockgen -source source.go -destination source_mock.go -package source

// Source fetches account and storage data of a fixed chain snapshot.
// Implementations must be safe for concurrent use.
type Source interface {
	// FetchAccount obtains the balance, nonce, and code of the given account.
	// Accounts unknown to the chain are reported as empty accounts.
	FetchAccount(tosca.Address) (tosca.Account, error)
	// FetchStorage obtains the value of a storage slot. Slots never written
	// to are reported as the zero word.
	FetchStorage(tosca.Address, tosca.Key) (tosca.Word, error)
}

const (
	// ErrSourceUnavailable is reported if the remote provider could not be
	// reached or failed to answer a request.
	ErrSourceUnavailable = tosca.ConstError("source unavailable")
	// ErrNotFound is reported if the provider does not have the requested
	// data, e.g. because the pinned block height is not available.
	ErrNotFound = tosca.ConstError("state not found")
)

// Stats summarizes the requests served by a source.
type Stats struct {
	AccountFetches uint64
	StorageFetches uint64
	Retries        uint64
	Failures       uint64
}

func (s Stats) Add(o Stats) Stats {
	return Stats{
		AccountFetches: s.AccountFetches + o.AccountFetches,
		StorageFetches: s.StorageFetches + o.StorageFetches,
		Retries:        s.Retries + o.Retries,
		Failures:       s.Failures + o.Failures,
	}
}
