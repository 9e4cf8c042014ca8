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
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

var _ Source = (*RPCSource)(nil)

// Config summarizes the configuration options of an RPCSource.
type Config struct {
	// BlockNumber pins all requests to the given block height. If nil, the
	// latest block of the provider is used, which may change between requests.
	BlockNumber *uint64
	// Retries is the number of attempts for a request failing due to
	// transport issues. Defaults to 3.
	Retries int
	// RetryDelay is the back-off between attempts, growing linearly with the
	// number of failed attempts. Defaults to 100ms.
	RetryDelay time.Duration
	// Logger receives a debug entry for every request. If nil, nothing is
	// logged.
	Logger *zerolog.Logger
}

const (
	defaultRetries    = 3
	defaultRetryDelay = 100 * time.Millisecond
)

// RPCSource is a Source fetching state through the Ethereum JSON-RPC API of
// a remote provider. The client handle is shared and never modified by the
// source. RPCSource is safe for concurrent use.
type RPCSource struct {
	context    context.Context
	client     *rpc.Client
	block      string
	retries    int
	retryDelay time.Duration
	log        zerolog.Logger

	accountFetches atomic.Uint64
	storageFetches atomic.Uint64
	retryCount     atomic.Uint64
	failures       atomic.Uint64
}

// NewRPCSource creates a source using the given client. The context is used
// for all requests issued by the resulting source; cancelling it aborts
// pending and future requests.
func NewRPCSource(ctx context.Context, client *rpc.Client, config Config) *RPCSource {
	block := "latest"
	if config.BlockNumber != nil {
		block = hexutil.Uint64(*config.BlockNumber).String()
	}
	if config.Retries <= 0 {
		config.Retries = defaultRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaultRetryDelay
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &RPCSource{
		context:    ctx,
		client:     client,
		block:      block,
		retries:    config.Retries,
		retryDelay: config.RetryDelay,
		log:        logger.With().Str("component", "rpc-source").Str("block", block).Logger(),
	}
}

// DialRPCSource connects to the provider at the given URL and creates a
// source using the resulting client.
func DialRPCSource(ctx context.Context, url string, config Config) (*RPCSource, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", ErrSourceUnavailable, url, err)
	}
	return NewRPCSource(ctx, client, config), nil
}

// Block returns the block parameter used for all requests.
func (s *RPCSource) Block() string {
	return s.block
}

// Close releases the underlying client.
func (s *RPCSource) Close() {
	s.client.Close()
}

// FetchAccount obtains balance, nonce, and code of the given address in a
// single batch request.
func (s *RPCSource) FetchAccount(address tosca.Address) (tosca.Account, error) {
	s.accountFetches.Add(1)
	start := time.Now()

	var (
		balance hexutil.Big
		nonce   hexutil.Uint64
		code    hexutil.Bytes
	)
	batch := []rpc.BatchElem{
		{Method: "eth_getBalance", Args: []any{address, s.block}, Result: &balance},
		{Method: "eth_getTransactionCount", Args: []any{address, s.block}, Result: &nonce},
		{Method: "eth_getCode", Args: []any{address, s.block}, Result: &code},
	}
	err := s.execute(func(ctx context.Context) error {
		for i := range batch {
			batch[i].Error = nil
		}
		if err := s.client.BatchCallContext(ctx, batch); err != nil {
			return err
		}
		for _, elem := range batch {
			if elem.Error != nil {
				return fmt.Errorf("%s: %w", elem.Method, elem.Error)
			}
		}
		return nil
	})
	if err != nil {
		s.failures.Add(1)
		s.log.Debug().Err(err).Stringer("address", address).Msg("failed to fetch account")
		return tosca.Account{}, fmt.Errorf("failed to fetch account %v: %w", address, err)
	}

	value, overflow := uint256.FromBig((*big.Int)(&balance))
	if overflow {
		s.failures.Add(1)
		return tosca.Account{}, fmt.Errorf("%w: balance of %v exceeds 256 bits", ErrSourceUnavailable, address)
	}

	s.log.Debug().
		Stringer("address", address).
		Uint64("nonce", uint64(nonce)).
		Int("code", len(code)).
		Dur("duration", time.Since(start)).
		Msg("fetched account")
	return tosca.NewAccount(tosca.ValueFromUint256(value), uint64(nonce), tosca.Code(code)), nil
}

// FetchStorage obtains the value of a single storage slot.
func (s *RPCSource) FetchStorage(address tosca.Address, key tosca.Key) (tosca.Word, error) {
	s.storageFetches.Add(1)
	start := time.Now()

	var result hexutil.Bytes
	err := s.execute(func(ctx context.Context) error {
		return s.client.CallContext(ctx, &result, "eth_getStorageAt", address, key, s.block)
	})
	if err != nil {
		s.failures.Add(1)
		s.log.Debug().Err(err).Stringer("address", address).Stringer("key", key).Msg("failed to fetch storage")
		return tosca.Word{}, fmt.Errorf("failed to fetch storage %v/%v: %w", address, key, err)
	}
	if len(result) > 32 {
		s.failures.Add(1)
		return tosca.Word{}, fmt.Errorf("%w: storage value of %d bytes at %v/%v", ErrSourceUnavailable, len(result), address, key)
	}

	var value tosca.Word
	copy(value[32-len(result):], result)
	s.log.Debug().
		Stringer("address", address).
		Stringer("key", key).
		Stringer("value", value).
		Dur("duration", time.Since(start)).
		Msg("fetched storage")
	return value, nil
}

// Stats returns the number of requests issued so far.
func (s *RPCSource) Stats() Stats {
	return Stats{
		AccountFetches: s.accountFetches.Load(),
		StorageFetches: s.storageFetches.Load(),
		Retries:        s.retryCount.Load(),
		Failures:       s.failures.Load(),
	}
}

// execute runs the given request, retrying it on transport failures. Errors
// reported by the provider itself are not retried. The resulting error is
// classified as ErrNotFound or ErrSourceUnavailable.
func (s *RPCSource) execute(request func(context.Context) error) error {
	if err := s.context.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			s.retryCount.Add(1)
			select {
			case <-time.After(time.Duration(attempt) * s.retryDelay):
			case <-s.context.Done():
				return fmt.Errorf("%w: %w", ErrSourceUnavailable, s.context.Err())
			}
		}
		err = request(s.context)
		if err == nil {
			return nil
		}
		if isProviderError(err) || s.context.Err() != nil {
			break
		}
	}
	return classify(err)
}

// isProviderError reports whether the error was produced by the provider
// answering the request, as opposed to a failed transport.
func isProviderError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// notFoundMessages lists fragments of provider error messages signaling
// that the requested block or the state at that block is not available.
var notFoundMessages = []string{
	"not found",
	"missing trie node",
	"unknown block",
	"state is not available",
	"state histories haven't been fully indexed",
	"required historical state unavailable",
}

func classify(err error) error {
	if isProviderError(err) {
		msg := strings.ToLower(err.Error())
		for _, fragment := range notFoundMessages {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %w", ErrNotFound, err)
			}
		}
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
