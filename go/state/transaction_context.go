// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"github.com/Fantom-foundation/Scry/go/tosca"
)

var _ tosca.TransactionContext = (*TransactionContext)(nil)

// TransactionContext is the view on an Overlay for the duration of a single
// top-level call. In addition to the world state provided by the overlay, it
// manages the state scoped to one transaction: transient storage, accessed
// accounts and slots, logs, and destroyed accounts. All of these are journaled
// together with the overlay, such that restoring a snapshot rolls back both.
type TransactionContext struct {
	overlay  *Overlay
	revision tosca.Revision

	blockHashes map[int64]tosca.Hash
	// originals holds the value of slots at the begin of the transaction. It
	// is filled on the first write to a slot.
	originals map[Slot]tosca.Word

	transient        map[Slot]tosca.Word
	accessedAccounts map[tosca.Address]struct{}
	accessedSlots    map[Slot]struct{}
	logs             []tosca.Log
	created          map[tosca.Address]struct{}
	destructed       map[tosca.Address]struct{}
}

// NewTransactionContext starts a new transaction on the given overlay.
func NewTransactionContext(overlay *Overlay, revision tosca.Revision) *TransactionContext {
	return &TransactionContext{
		overlay:          overlay,
		revision:         revision,
		blockHashes:      map[int64]tosca.Hash{},
		originals:        map[Slot]tosca.Word{},
		transient:        map[Slot]tosca.Word{},
		accessedAccounts: map[tosca.Address]struct{}{},
		accessedSlots:    map[Slot]struct{}{},
		created:          map[tosca.Address]struct{}{},
		destructed:       map[tosca.Address]struct{}{},
	}
}

// SetBlockHash registers the hash of a past block for the BLOCKHASH
// instruction. Unknown blocks have a zero hash.
func (c *TransactionContext) SetBlockHash(number int64, hash tosca.Hash) {
	c.blockHashes[number] = hash
}

func (c *TransactionContext) AccountExists(address tosca.Address) (bool, error) {
	return c.overlay.AccountExists(address)
}

func (c *TransactionContext) GetBalance(address tosca.Address) (tosca.Value, error) {
	return c.overlay.GetBalance(address)
}

func (c *TransactionContext) SetBalance(address tosca.Address, balance tosca.Value) error {
	return c.overlay.SetBalance(address, balance)
}

func (c *TransactionContext) GetNonce(address tosca.Address) (uint64, error) {
	return c.overlay.GetNonce(address)
}

func (c *TransactionContext) SetNonce(address tosca.Address, nonce uint64) error {
	return c.overlay.SetNonce(address, nonce)
}

func (c *TransactionContext) GetCode(address tosca.Address) (tosca.Code, error) {
	return c.overlay.GetCode(address)
}

func (c *TransactionContext) GetCodeHash(address tosca.Address) (tosca.Hash, error) {
	return c.overlay.GetCodeHash(address)
}

func (c *TransactionContext) GetCodeSize(address tosca.Address) (int, error) {
	return c.overlay.GetCodeSize(address)
}

func (c *TransactionContext) SetCode(address tosca.Address, code tosca.Code) error {
	return c.overlay.SetCode(address, code)
}

func (c *TransactionContext) GetStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	return c.overlay.GetStorage(address, key)
}

// GetCommittedStorage returns the value the slot had at the begin of the
// transaction.
func (c *TransactionContext) GetCommittedStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	if original, found := c.originals[Slot{address, key}]; found {
		return original, nil
	}
	return c.overlay.GetStorage(address, key)
}

// SetStorage updates the given slot and reports the effect of the update
// relative to the value at the begin of the transaction and the current value.
func (c *TransactionContext) SetStorage(address tosca.Address, key tosca.Key, value tosca.Word) (tosca.StorageStatus, error) {
	current, err := c.overlay.GetStorage(address, key)
	if err != nil {
		return tosca.StorageAssigned, err
	}
	original, err := c.GetCommittedStorage(address, key)
	if err != nil {
		return tosca.StorageAssigned, err
	}
	c.originals[Slot{address, key}] = original
	c.overlay.SetStorage(address, key, value)
	return tosca.GetStorageStatus(original, current, value), nil
}

// SelfDestruct transfers the balance of the given account to the beneficiary.
// Starting with Cancun, the account is only destroyed if it was created in
// the same transaction.
func (c *TransactionContext) SelfDestruct(address tosca.Address, beneficiary tosca.Address) (bool, error) {
	balance, err := c.overlay.GetBalance(address)
	if err != nil {
		return false, err
	}
	_, created := c.created[address]
	destroy := c.revision < tosca.R13_Cancun || created

	if address != beneficiary {
		beneficiaryBalance, err := c.overlay.GetBalance(beneficiary)
		if err != nil {
			return false, err
		}
		if err := c.overlay.SetBalance(beneficiary, tosca.Add(beneficiaryBalance, balance)); err != nil {
			return false, err
		}
		if err := c.overlay.SetBalance(address, tosca.Value{}); err != nil {
			return false, err
		}
	} else if destroy {
		if err := c.overlay.SetBalance(address, tosca.Value{}); err != nil {
			return false, err
		}
	}

	destructed := c.hasSelfDestructed(address)
	if destroy && !destructed {
		c.destructed[address] = struct{}{}
		c.overlay.record(func() { delete(c.destructed, address) })
	}
	return !destructed, nil
}

// hasSelfDestructed reports whether the account was destroyed in this
// transaction.
func (c *TransactionContext) hasSelfDestructed(address tosca.Address) bool {
	_, found := c.destructed[address]
	return found
}

func (c *TransactionContext) CreateAccount(address tosca.Address) error {
	if err := c.overlay.CreateAccount(address); err != nil {
		return err
	}
	if _, found := c.created[address]; !found {
		c.created[address] = struct{}{}
		c.overlay.record(func() { delete(c.created, address) })
	}
	return nil
}

func (c *TransactionContext) CreateSnapshot() tosca.Snapshot {
	return tosca.Snapshot(c.overlay.Snapshot())
}

func (c *TransactionContext) RestoreSnapshot(snapshot tosca.Snapshot) {
	c.overlay.RevertToSnapshot(int(snapshot))
}

func (c *TransactionContext) GetTransientStorage(address tosca.Address, key tosca.Key) tosca.Word {
	return c.transient[Slot{address, key}]
}

func (c *TransactionContext) SetTransientStorage(address tosca.Address, key tosca.Key, value tosca.Word) {
	slot := Slot{address, key}
	previous, found := c.transient[slot]
	c.transient[slot] = value
	c.overlay.record(func() {
		if found {
			c.transient[slot] = previous
		} else {
			delete(c.transient, slot)
		}
	})
}

func (c *TransactionContext) AccessAccount(address tosca.Address) tosca.AccessStatus {
	if _, found := c.accessedAccounts[address]; found {
		return tosca.WarmAccess
	}
	c.accessedAccounts[address] = struct{}{}
	c.overlay.record(func() { delete(c.accessedAccounts, address) })
	return tosca.ColdAccess
}

func (c *TransactionContext) AccessStorage(address tosca.Address, key tosca.Key) tosca.AccessStatus {
	slot := Slot{address, key}
	if _, found := c.accessedSlots[slot]; found {
		return tosca.WarmAccess
	}
	c.accessedSlots[slot] = struct{}{}
	c.overlay.record(func() { delete(c.accessedSlots, slot) })
	return tosca.ColdAccess
}

func (c *TransactionContext) EmitLog(log tosca.Log) {
	size := len(c.logs)
	c.logs = append(c.logs, log)
	c.overlay.record(func() { c.logs = c.logs[:size] })
}

func (c *TransactionContext) GetLogs() []tosca.Log {
	return append([]tosca.Log(nil), c.logs...)
}

func (c *TransactionContext) GetBlockHash(number int64) tosca.Hash {
	return c.blockHashes[number]
}

// Commit ends the transaction. Destroyed accounts are removed, and all
// modifications become permanent in the underlying overlay.
func (c *TransactionContext) Commit() {
	for address := range c.destructed {
		c.overlay.InsertAccount(address, tosca.Account{})
	}
	c.overlay.Commit()
}
