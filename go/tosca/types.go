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
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

func (a Address) String() string { return hexutil.Encode(a[:]) }
func (k Key) String() string     { return hexutil.Encode(k[:]) }
func (w Word) String() string    { return hexutil.Encode(w[:]) }
func (h Hash) String() string    { return hexutil.Encode(h[:]) }

func (w Word) MarshalText() ([]byte, error) {
	return hexutil.Bytes(w[:]).MarshalText()
}

func (w *Word) UnmarshalText(data []byte) error {
	return decodeFixed(w[:], data)
}

// NewWord creates a Word from up to 4 uint64 arguments ordered from most to
// least significant, following the conventions of NewValue.
func NewWord(args ...uint64) Word {
	return Word(NewValue(args...))
}

// EmptyCodeHash is the Keccak256 hash of empty code.
var EmptyCodeHash = Keccak256(nil)

var keccakPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakState interface {
	Reset()
	Write([]byte) (int, error)
	Read([]byte) (int, error)
}

// Keccak256 computes the Keccak256 hash of the given data. Hashers are
// recycled, so hashing is cheap enough for the SHA3 instruction.
func Keccak256(data []byte) (res Hash) {
	hasher := keccakPool.Get().(keccakState)
	hasher.Reset()
	hasher.Write(data)
	hasher.Read(res[:])
	keccakPool.Put(hasher)
	return res
}

// Account summarizes the basic information of an account: its balance, its
// nonce, and its code. The CodeHash is always the hash of Code.
type Account struct {
	Balance  Value
	Nonce    uint64
	Code     Code
	CodeHash Hash
}

// NewAccount creates an account with the given properties and computes the
// matching code hash.
func NewAccount(balance Value, nonce uint64, code Code) Account {
	return Account{
		Balance:  balance,
		Nonce:    nonce,
		Code:     code,
		CodeHash: Keccak256(code),
	}
}

// IsEmpty reports whether the account has no balance, no nonce, and no code.
// Empty accounts are treated as non-existing.
func (a Account) IsEmpty() bool {
	return a.Balance == (Value{}) && a.Nonce == 0 && len(a.Code) == 0
}

func (a Account) String() string {
	return fmt.Sprintf("Account{balance: %v, nonce: %d, code: %d bytes}", a.Balance, a.Nonce, len(a.Code))
}

// NewValue creates a Value from up to 4 uint64 arguments, given from most to
// least significant. Missing leading limbs are zero.
func NewValue(args ...uint64) (result Value) {
	if len(args) > 4 {
		panic("too many arguments")
	}
	pos := 32 - 8*len(args)
	for _, limb := range args {
		binary.BigEndian.PutUint64(result[pos:], limb)
		pos += 8
	}
	return result
}

// ValueFromUint256 converts a *uint256.Int to a Value. A nil input is zero.
func ValueFromUint256(value *uint256.Int) Value {
	if value == nil {
		return Value{}
	}
	return value.Bytes32()
}

func (v Value) ToBig() *big.Int {
	return new(big.Int).SetBytes(v[:])
}

func (v Value) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(v[:])
}

// String prints the value in decimal.
func (v Value) String() string {
	return v.ToUint256().Dec()
}

func (v Value) Cmp(o Value) int {
	return bytes.Compare(v[:], o[:])
}

func (v Value) MarshalText() ([]byte, error) {
	return hexutil.Bytes(v[:]).MarshalText()
}

func (v *Value) UnmarshalText(data []byte) error {
	return decodeFixed(v[:], data)
}

// Add returns a+b modulo 2^256.
func Add(a, b Value) Value {
	return ValueFromUint256(new(uint256.Int).Add(a.ToUint256(), b.ToUint256()))
}

// Sub returns a-b modulo 2^256.
func Sub(a, b Value) Value {
	return ValueFromUint256(new(uint256.Int).Sub(a.ToUint256(), b.ToUint256()))
}

func decodeFixed(trg []byte, text []byte) error {
	var data hexutil.Bytes
	if err := data.UnmarshalText(text); err != nil {
		return err
	}
	if len(data) != len(trg) {
		return fmt.Errorf("invalid length, wanted %d bytes, got %d", len(trg), len(data))
	}
	copy(trg, data)
	return nil
}

func (k CallKind) String() string {
	switch k {
	case Call:
		return "call"
	case StaticCall:
		return "static_call"
	case DelegateCall:
		return "delegate_call"
	case CallCode:
		return "call_code"
	case Create:
		return "create"
	case Create2:
		return "create2"
	default:
		return "unknown"
	}
}
