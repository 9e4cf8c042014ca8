// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package evm

import (
	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/Fantom-foundation/Scry/go/tosca/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// jumpDests is a bitmap marking the positions of JUMPDEST instructions in a
// code. JUMPDEST bytes that are part of PUSH data are not marked.
type jumpDests []uint64

func (j jumpDests) isJumpDest(pos uint64) bool {
	if pos/64 >= uint64(len(j)) {
		return false
	}
	return j[pos/64]&(1<<(pos%64)) != 0
}

func (j jumpDests) set(pos int) {
	j[pos/64] |= 1 << (pos % 64)
}

// analyze computes the jump destinations of the given code.
func analyze(code []byte) jumpDests {
	res := make(jumpDests, (len(code)+63)/64)
	for i := 0; i < len(code); {
		op := vm.OpCode(code[i])
		if op == vm.JUMPDEST {
			res.set(i)
		}
		i += op.Width()
	}
	return res
}

// AnalysisConfig configures the caching of code analysis results.
type AnalysisConfig struct {
	// CacheSize is the number of codes whose analysis is retained. If set to
	// 0, a default size is used. If negative, no cache is used.
	CacheSize int
}

const defaultAnalysisCacheSize = 1 << 12

// analyzer computes jump destination tables, caching the results for codes
// with known hashes.
type analyzer struct {
	cache *lru.Cache[tosca.Hash, jumpDests]
}

func newAnalyzer(config AnalysisConfig) (*analyzer, error) {
	if config.CacheSize == 0 {
		config.CacheSize = defaultAnalysisCacheSize
	}
	var cache *lru.Cache[tosca.Hash, jumpDests]
	if config.CacheSize > 0 {
		var err error
		cache, err = lru.New[tosca.Hash, jumpDests](config.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &analyzer{cache: cache}, nil
}

// analyze returns the jump destinations of the given code. If codeHash is
// not nil, it must be the hash of the code; it is then used as a cache key.
// Codes without hash, e.g. init codes, are analyzed on every call.
func (a *analyzer) analyze(code []byte, codeHash *tosca.Hash) jumpDests {
	if a.cache == nil || codeHash == nil {
		return analyze(code)
	}
	if res, exists := a.cache.Get(*codeHash); exists {
		return res
	}
	res := analyze(code)
	a.cache.Add(*codeHash, res)
	return res
}
