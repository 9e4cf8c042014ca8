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
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.etcd.io/bbolt"
)

var _ Source = (*PersistentCache)(nil)

var (
	accountBucket = []byte("accounts")
	storageBucket = []byte("storage")
)

// flushThreshold is the number of buffered writes triggering a flush to disk.
const flushThreshold = 25

// PersistentCache is a Source decorator retaining successfully fetched data
// in a file, such that repeated simulations against the same provider and
// block height do not have to fetch the same data again. Since the content
// of the cache is only valid for a fixed block height, it must not be used
// for sources following the latest block.
type PersistentCache struct {
	source Source
	db     *bbolt.DB

	pendingMutex  sync.Mutex
	pendingWrites []pendingWrite
}

type pendingWrite struct {
	bucket []byte
	key    []byte
	value  []byte
}

type storedAccount struct {
	Balance tosca.Value   `json:"balance"`
	Nonce   uint64        `json:"nonce"`
	Code    hexutil.Bytes `json:"code"`
}

// OpenPersistentCache opens, or creates, the cache file for the given
// provider URL and block height in the given directory.
func OpenPersistentCache(source Source, directory string, url string, blockNumber uint64) (*PersistentCache, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	path := filepath.Join(directory, getCacheFilename(url, blockNumber))
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{accountBucket, storageBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &PersistentCache{source: source, db: db}, nil
}

func (c *PersistentCache) FetchAccount(address tosca.Address) (tosca.Account, error) {
	var stored storedAccount
	found, err := c.get(accountBucket, address[:], &stored)
	if err != nil {
		return tosca.Account{}, err
	}
	if found {
		return tosca.NewAccount(stored.Balance, stored.Nonce, tosca.Code(stored.Code)), nil
	}

	account, err := c.source.FetchAccount(address)
	if err != nil {
		return tosca.Account{}, err
	}
	err = c.put(accountBucket, address[:], storedAccount{
		Balance: account.Balance,
		Nonce:   account.Nonce,
		Code:    hexutil.Bytes(account.Code),
	})
	return account, err
}

func (c *PersistentCache) FetchStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	dbKey := append(address[:], key[:]...)
	var value tosca.Word
	found, err := c.get(storageBucket, dbKey, &value)
	if err != nil {
		return tosca.Word{}, err
	}
	if found {
		return value, nil
	}

	value, err = c.source.FetchStorage(address, key)
	if err != nil {
		return tosca.Word{}, err
	}
	return value, c.put(storageBucket, dbKey, value)
}

// Flush writes all buffered entries to disk.
func (c *PersistentCache) Flush() error {
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()
	return c.flush()
}

// Close flushes buffered entries and closes the cache file.
func (c *PersistentCache) Close() error {
	return errors.Join(c.Flush(), c.db.Close())
}

func (c *PersistentCache) get(bucket []byte, key []byte, value any) (bool, error) {
	// Entries not yet flushed are served from the write buffer.
	c.pendingMutex.Lock()
	for i := len(c.pendingWrites) - 1; i >= 0; i-- {
		write := c.pendingWrites[i]
		if string(write.bucket) == string(bucket) && string(write.key) == string(key) {
			c.pendingMutex.Unlock()
			return true, json.Unmarshal(write.value, value)
		}
	}
	c.pendingMutex.Unlock()

	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, value)
	})
	if err != nil {
		return false, fmt.Errorf("failed to read from cache: %w", err)
	}
	return found, nil
}

func (c *PersistentCache) put(bucket []byte, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()
	c.pendingWrites = append(c.pendingWrites, pendingWrite{bucket: bucket, key: key, value: data})
	if len(c.pendingWrites) >= flushThreshold {
		return c.flush()
	}
	return nil
}

func (c *PersistentCache) flush() error {
	if len(c.pendingWrites) == 0 {
		return nil
	}
	err := c.db.Update(func(tx *bbolt.Tx) error {
		for _, write := range c.pendingWrites {
			if err := tx.Bucket(write.bucket).Put(write.key, write.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	c.pendingWrites = c.pendingWrites[:0]
	return nil
}

func getCacheFilename(url string, blockNumber uint64) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%d-%x.db", blockNumber, hash[:10])
}
