// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Fantom-foundation/Scry/go/abi"
	"github.com/Fantom-foundation/Scry/go/interpreter/evm"
	"github.com/Fantom-foundation/Scry/go/processor/simulator"
	"github.com/Fantom-foundation/Scry/go/source"
	"github.com/Fantom-foundation/Scry/go/state"
	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

var CallCmd = cli.Command{
	Action:    doCall,
	Name:      "call",
	Usage:     "Simulate a read-only call of a contract function",
	ArgsUsage: " ",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "rpc",
			Usage:    "URL of the JSON-RPC provider serving the chain state",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:  "block",
			Usage: "block height the state is read at, latest if not set",
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "address of the called contract",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "from",
			Usage: "address of the caller",
			Value: tosca.Address{}.String(),
		},
		&cli.StringFlag{
			Name:     "sig",
			Usage:    "signature of the called function, e.g. \"getReserves()(uint112,uint112,uint32)\"",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "arg",
			Usage: "argument of the call, may be repeated",
		},
		&cli.StringSliceFlag{
			Name:  "seed-slot",
			Usage: "storage slot of the called contract fetched before the execution, may be repeated",
		},
		&cli.Uint64Flag{
			Name:  "gas",
			Usage: "gas budget of the call",
			Value: uint64(tosca.DefaultCallGas),
		},
		&cli.StringFlag{
			Name:  "revision",
			Usage: "EVM revision the call is executed with",
			Value: tosca.LatestRevision.String(),
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "directory for caching fetched state between runs, requires --block",
		},
		&cli.StringFlag{
			Name:  "interpreter",
			Usage: "interpreter running the contract code, one of: " + interpreterNames(),
			Value: simulator.DefaultInterpreter,
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "log every executed instruction, evm interpreter only",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "time limit for the whole simulation",
			Value: time.Minute,
		},
	},
}

func doCall(c *cli.Context) error {
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	sig, err := abi.ParseSignature(c.String("sig"))
	if err != nil {
		return err
	}
	args, err := parseArguments(sig.Inputs, c.StringSlice("arg"))
	if err != nil {
		return err
	}
	to, err := parseAddress(c.String("to"))
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	from, err := parseAddress(c.String("from"))
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	seeds, err := parseKeys(c.StringSlice("seed-slot"))
	if err != nil {
		return fmt.Errorf("invalid --seed-slot: %w", err)
	}
	revision, err := tosca.ParseRevision(c.String("revision"))
	if err != nil {
		return err
	}

	var vmConfig any
	if c.Bool("trace") {
		tracer := logger.Level(zerolog.TraceLevel)
		vmConfig = evm.Config{Tracer: &tracer}
	}
	interpreter, err := tosca.NewInterpreter(c.String("interpreter"), vmConfig)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()

	url := c.String("rpc")
	config := source.Config{Logger: &logger}
	var blockNumber uint64
	if c.IsSet("block") {
		blockNumber = c.Uint64("block")
		config.BlockNumber = &blockNumber
	}
	remote, err := source.DialRPCSource(ctx, url, config)
	if err != nil {
		return err
	}
	defer remote.Close()

	counting := source.NewCountingSource(remote)
	var src source.Source = counting
	if dir := c.String("cache-dir"); dir != "" {
		if config.BlockNumber == nil {
			return fmt.Errorf("--cache-dir requires --block")
		}
		cache, err := source.OpenPersistentCache(counting, dir, url, blockNumber)
		if err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close cache")
			}
		}()
		src = cache
	}

	overlay := state.NewOverlay(src)
	if len(seeds) > 0 {
		if err := overlay.Prefetch(to); err != nil {
			return err
		}
		for _, key := range seeds {
			if err := overlay.PrefetchStorage(to, key); err != nil {
				return err
			}
		}
	}

	block := simulator.DefaultBlockParameters()
	block.BlockNumber = int64(blockNumber)
	block.Revision = revision
	sim, err := simulator.NewSimulator(simulator.Config{
		Interpreter: interpreter,
		Block:       &block,
		CallGas:     tosca.Gas(c.Uint64("gas")),
		Logger:      &logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	values, result, err := sim.Call(overlay, from, to, sig, args...)
	duration := time.Since(start)
	var failed *simulator.CallError
	if err != nil && !errors.As(err, &failed) {
		return err
	}

	out := c.App.Writer
	switch {
	case failed == nil:
		for i, value := range values {
			fmt.Fprintf(out, "%v: %s\n", sig.Outputs[i], formatValue(value))
		}
	case result.Kind == tosca.Revert:
		reason := failed.Reason
		if reason == "" {
			reason = hexutil.Encode(result.Output)
		}
		fmt.Fprintf(out, "reverted: %s\n", reason)
	default:
		fmt.Fprintf(out, "halted: %v\n", result.HaltReason)
	}

	stats := counting.Stats()
	fmt.Fprintf(out, "gas used: %d (~%sgas)\n", result.GasUsed,
		unitconv.FormatPrefix(float64(result.GasUsed), unitconv.SI, 1))
	fmt.Fprintf(out, "fetched %d accounts and %d slots (%d retries) in %v\n",
		stats.AccountFetches, stats.StorageFetches, remote.Stats().Retries, duration.Round(time.Millisecond))
	return err
}

// interpreterNames lists the registered interpreters.
func interpreterNames() string {
	names := maps.Keys(tosca.GetAllRegisteredInterpreters())
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func contextWithTimeout(c *cli.Context) (context.Context, context.CancelFunc) {
	if timeout := c.Duration("timeout"); timeout > 0 {
		return context.WithTimeout(c.Context, timeout)
	}
	return context.WithCancel(c.Context)
}
