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

import "github.com/Fantom-foundation/Scry/go/tosca"

var _ Source = EmptySource{}

// EmptySource is a Source of a chain without any state. Every account is
// empty and every storage slot is zero.
type EmptySource struct{}

func (EmptySource) FetchAccount(tosca.Address) (tosca.Account, error) {
	return tosca.NewAccount(tosca.Value{}, 0, nil), nil
}

func (EmptySource) FetchStorage(tosca.Address, tosca.Key) (tosca.Word, error) {
	return tosca.Word{}, nil
}
