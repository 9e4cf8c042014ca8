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

import "math"

// GetStorageStatus classifies the update of a storage slot from its current
// to an updated value, given the value the slot had at the start of the
// transaction. The result determines the gas costs and refunds of SSTORE.
func GetStorageStatus(original, current, updated Word) StorageStatus {
	if current == updated {
		return StorageAssigned
	}
	var zero Word
	switch {
	case original == current:
		switch {
		case original == zero:
			return StorageAdded
		case updated == zero:
			return StorageDeleted
		default:
			return StorageModified
		}
	case original == zero:
		// 0 -> Y -> ?
		if updated == zero {
			return StorageAddedDeleted
		}
		return StorageAssigned
	case current == zero:
		// X -> 0 -> ?
		if updated == original {
			return StorageDeletedRestored
		}
		return StorageDeletedAdded
	default:
		// X -> Y -> ?
		switch updated {
		case zero:
			return StorageModifiedDeleted
		case original:
			return StorageModifiedRestored
		}
		return StorageAssigned
	}
}

// SizeInWords returns the number of 32 byte words needed to cover size
// bytes. The result saturates instead of overflowing.
func SizeInWords(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}
