// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state provides the local view on the chain state used for
// simulating calls. The view is an overlay on top of a remote source: data
// is fetched on first access and retained for the rest of the session, and
// all modifications are kept local.
package state

import (
	"bytes"
	"slices"

	"github.com/Fantom-foundation/Scry/go/source"
	"github.com/Fantom-foundation/Scry/go/tosca"
	"golang.org/x/exp/maps"
)

// Origin describes where the value of an overlay entry came from.
type Origin byte

const (
	// Absent entries are unknown to the overlay and need to be fetched.
	Absent Origin = iota
	// Fetched entries were obtained from the source.
	Fetched
	// Local entries were inserted or overridden locally.
	Local
)

func (o Origin) String() string {
	switch o {
	case Absent:
		return "absent"
	case Fetched:
		return "fetched"
	case Local:
		return "local"
	}
	return "unknown"
}

// Overlay is a mutable view on the chain state answering queries from an
// in-memory cache. Missing entries are fetched from the source and retained
// for the lifetime of the overlay, such that any key is fetched at most once.
// Writes are never forwarded to the source.
//
// Local modifications are journaled and can be rolled back to a snapshot.
// Rolling back never evicts fetched data.
//
// An Overlay is not safe for concurrent use. Calls sharing one overlay must
// be serialized by the caller.
type Overlay struct {
	source   source.Source
	accounts map[tosca.Address]*accountEntry
	storage  map[tosca.Address]map[tosca.Key]*slotEntry
	journal  []func()
}

// accountEntry and slotEntry instances are immutable once they are part of
// the overlay; updates replace them to keep journal entries valid.
type accountEntry struct {
	account tosca.Account
	origin  Origin
	// fresh accounts are not backed by the source. Slots not present in the
	// overlay are zero.
	fresh bool
}

type slotEntry struct {
	value  tosca.Word
	origin Origin
}

// Slot identifies a single storage slot.
type Slot struct {
	Address tosca.Address
	Key     tosca.Key
}

// NewOverlay creates an empty overlay on top of the given source.
func NewOverlay(source source.Source) *Overlay {
	return &Overlay{
		source:   source,
		accounts: map[tosca.Address]*accountEntry{},
		storage:  map[tosca.Address]map[tosca.Key]*slotEntry{},
	}
}

// GetAccount returns the account stored at the given address. If the account
// is not yet known, it is fetched from the source. Fetch errors are returned
// unchanged and nothing is cached. The code of the resulting account must not
// be modified.
func (o *Overlay) GetAccount(address tosca.Address) (tosca.Account, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return tosca.Account{}, err
	}
	return entry.account, nil
}

// GetStorage returns the value of the given storage slot. If the slot is not
// yet known, it is fetched from the source, unless the account was created
// locally, in which case it is zero.
func (o *Overlay) GetStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	if entry, found := o.storage[address][key]; found {
		return entry.value, nil
	}
	if entry, found := o.accounts[address]; found && entry.fresh {
		return tosca.Word{}, nil
	}
	value, err := o.source.FetchStorage(address, key)
	if err != nil {
		return tosca.Word{}, err
	}
	o.slots(address)[key] = &slotEntry{value: value, origin: Fetched}
	return value, nil
}

// SetAccount overrides the account at the given address. The storage of the
// account is retained, and slots not yet known are still fetched from the
// source. The code hash is derived from the code.
func (o *Overlay) SetAccount(address tosca.Address, account tosca.Account) {
	fresh := false
	if entry, found := o.accounts[address]; found {
		fresh = entry.fresh
	}
	o.setAccountEntry(address, &accountEntry{
		account: tosca.NewAccount(account.Balance, account.Nonce, account.Code),
		origin:  Local,
		fresh:   fresh,
	})
}

// InsertAccount places a new account at the given address that is not backed
// by the source. All storage slots of the account are zero, unless they are
// set locally.
func (o *Overlay) InsertAccount(address tosca.Address, account tosca.Account) {
	o.setAccountEntry(address, &accountEntry{
		account: tosca.NewAccount(account.Balance, account.Nonce, account.Code),
		origin:  Local,
		fresh:   true,
	})
	previous, found := o.storage[address]
	o.storage[address] = map[tosca.Key]*slotEntry{}
	o.record(func() {
		if found {
			o.storage[address] = previous
		} else {
			delete(o.storage, address)
		}
	})
}

// SetStorage overrides the value of a storage slot.
func (o *Overlay) SetStorage(address tosca.Address, key tosca.Key, value tosca.Word) {
	slots := o.slots(address)
	previous, found := slots[key]
	slots[key] = &slotEntry{value: value, origin: Local}
	o.record(func() {
		if found {
			slots[key] = previous
		} else {
			delete(slots, key)
		}
	})
}

// AccountOrigin reports where the current value of the account came from.
func (o *Overlay) AccountOrigin(address tosca.Address) Origin {
	if entry, found := o.accounts[address]; found {
		return entry.origin
	}
	return Absent
}

// StorageOrigin reports where the current value of the slot came from.
func (o *Overlay) StorageOrigin(address tosca.Address, key tosca.Key) Origin {
	if entry, found := o.storage[address][key]; found {
		return entry.origin
	}
	return Absent
}

// Prefetch loads the given account into the overlay if it is not yet known.
func (o *Overlay) Prefetch(address tosca.Address) error {
	_, err := o.getAccountEntry(address)
	return err
}

// PrefetchStorage loads the given slot into the overlay if it is not yet known.
func (o *Overlay) PrefetchStorage(address tosca.Address, key tosca.Key) error {
	_, err := o.GetStorage(address, key)
	return err
}

// Snapshot returns an identifier of the current state of the overlay that can
// be used to roll back later modifications.
func (o *Overlay) Snapshot() int {
	return len(o.journal)
}

// RevertToSnapshot rolls back all local modifications conducted since the
// given snapshot was taken. Fetched data is retained. Snapshots invalidated
// by an earlier revert or a commit are ignored.
func (o *Overlay) RevertToSnapshot(snapshot int) {
	if snapshot < 0 || snapshot > len(o.journal) {
		return
	}
	for i := len(o.journal) - 1; i >= snapshot; i-- {
		o.journal[i]()
	}
	o.journal = o.journal[:snapshot]
}

// Commit makes all local modifications permanent for the rest of the session.
// Snapshots taken before are invalidated.
func (o *Overlay) Commit() {
	o.journal = o.journal[:0]
}

// Dirty lists all accounts and slots modified locally, in ascending order.
func (o *Overlay) Dirty() ([]tosca.Address, []Slot) {
	accounts := []tosca.Address{}
	for _, address := range maps.Keys(o.accounts) {
		if o.accounts[address].origin == Local {
			accounts = append(accounts, address)
		}
	}
	slices.SortFunc(accounts, func(a, b tosca.Address) int {
		return bytes.Compare(a[:], b[:])
	})

	slots := []Slot{}
	for address, entries := range o.storage {
		for _, key := range maps.Keys(entries) {
			if entries[key].origin == Local {
				slots = append(slots, Slot{Address: address, Key: key})
			}
		}
	}
	slices.SortFunc(slots, func(a, b Slot) int {
		if res := bytes.Compare(a.Address[:], b.Address[:]); res != 0 {
			return res
		}
		return bytes.Compare(a.Key[:], b.Key[:])
	})
	return accounts, slots
}

// -- derived accessors --

func (o *Overlay) AccountExists(address tosca.Address) (bool, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return false, err
	}
	return !entry.account.IsEmpty(), nil
}

func (o *Overlay) GetBalance(address tosca.Address) (tosca.Value, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return tosca.Value{}, err
	}
	return entry.account.Balance, nil
}

func (o *Overlay) SetBalance(address tosca.Address, balance tosca.Value) error {
	return o.updateAccount(address, func(account *tosca.Account) {
		account.Balance = balance
	})
}

func (o *Overlay) GetNonce(address tosca.Address) (uint64, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return 0, err
	}
	return entry.account.Nonce, nil
}

func (o *Overlay) SetNonce(address tosca.Address, nonce uint64) error {
	return o.updateAccount(address, func(account *tosca.Account) {
		account.Nonce = nonce
	})
}

func (o *Overlay) GetCode(address tosca.Address) (tosca.Code, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return nil, err
	}
	return entry.account.Code, nil
}

func (o *Overlay) GetCodeHash(address tosca.Address) (tosca.Hash, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return tosca.Hash{}, err
	}
	return entry.account.CodeHash, nil
}

func (o *Overlay) GetCodeSize(address tosca.Address) (int, error) {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return 0, err
	}
	return len(entry.account.Code), nil
}

func (o *Overlay) SetCode(address tosca.Address, code tosca.Code) error {
	return o.updateAccount(address, func(account *tosca.Account) {
		account.Code = code
		account.CodeHash = tosca.Keccak256(code)
	})
}

// CreateAccount replaces the account at the given address by a new account
// not backed by the source. The balance of a previous account is retained.
func (o *Overlay) CreateAccount(address tosca.Address) error {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return err
	}
	o.InsertAccount(address, tosca.Account{Balance: entry.account.Balance})
	return nil
}

func (o *Overlay) getAccountEntry(address tosca.Address) (*accountEntry, error) {
	if entry, found := o.accounts[address]; found {
		return entry, nil
	}
	account, err := o.source.FetchAccount(address)
	if err != nil {
		return nil, err
	}
	// code analysis is cached by hash, so the hash must match the code
	account.CodeHash = tosca.Keccak256(account.Code)
	entry := &accountEntry{account: account, origin: Fetched}
	o.accounts[address] = entry
	return entry, nil
}

func (o *Overlay) updateAccount(address tosca.Address, update func(*tosca.Account)) error {
	entry, err := o.getAccountEntry(address)
	if err != nil {
		return err
	}
	account := entry.account
	update(&account)
	o.setAccountEntry(address, &accountEntry{
		account: account,
		origin:  Local,
		fresh:   entry.fresh,
	})
	return nil
}

func (o *Overlay) setAccountEntry(address tosca.Address, entry *accountEntry) {
	previous, found := o.accounts[address]
	o.accounts[address] = entry
	o.record(func() {
		if found {
			o.accounts[address] = previous
		} else {
			delete(o.accounts, address)
		}
	})
}

func (o *Overlay) slots(address tosca.Address) map[tosca.Key]*slotEntry {
	slots, found := o.storage[address]
	if !found {
		slots = map[tosca.Key]*slotEntry{}
		o.storage[address] = slots
	}
	return slots
}

func (o *Overlay) record(undo func()) {
	o.journal = append(o.journal, undo)
}
