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
	"bytes"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Fantom-foundation/Scry/go/abi"
	"github.com/Fantom-foundation/Scry/go/processor/simulator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/urfave/cli/v2"
)

const pairAddress = "0x0000000000000000000000000000000000000042"

// pairCode returns the reserves packed into slot 8 the way a Uniswap V2
// pair contract does.
var pairCode = hexutil.MustDecode("0x600854806dffffffffffffffffffffffffffff166000528060701c6dffffffffffffffffffffffffffff1660205260e01c60405260606000f3")

// reserves of 1000 and 2000 updated at timestamp 1700000000
var pairReserves = common.HexToHash("0x6553f10000000000000000000000000007d000000000000000000000000003e8")

// provider is a minimal eth namespace serving fixed chain state.
type provider struct {
	mutex   sync.Mutex
	codes   map[common.Address][]byte
	storage map[common.Address]map[common.Hash]common.Hash
	blocks  []string
}

func newProvider() *provider {
	return &provider{
		codes:   map[common.Address][]byte{},
		storage: map[common.Address]map[common.Hash]common.Hash{},
	}
}

func (p *provider) record(block string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.blocks = append(p.blocks, block)
}

func (p *provider) requests() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string{}, p.blocks...)
}

func (p *provider) GetBalance(address common.Address, block string) (*hexutil.Big, error) {
	p.record(block)
	return (*hexutil.Big)(new(big.Int)), nil
}

func (p *provider) GetTransactionCount(address common.Address, block string) (hexutil.Uint64, error) {
	p.record(block)
	return 0, nil
}

func (p *provider) GetCode(address common.Address, block string) (hexutil.Bytes, error) {
	p.record(block)
	return p.codes[address], nil
}

func (p *provider) GetStorageAt(address common.Address, key common.Hash, block string) (hexutil.Bytes, error) {
	p.record(block)
	value := p.storage[address][key]
	return value[:], nil
}

func startProvider(t *testing.T, eth *provider) string {
	t.Helper()
	server := rpc.NewServer()
	if err := server.RegisterName("eth", eth); err != nil {
		t.Fatalf("failed to register service: %v", err)
	}
	endpoint := httptest.NewServer(server)
	t.Cleanup(func() {
		endpoint.Close()
		server.Stop()
	})
	return endpoint.URL
}

func newPairProvider() *provider {
	eth := newProvider()
	pair := common.HexToAddress(pairAddress)
	eth.codes[pair] = pairCode
	eth.storage[pair] = map[common.Hash]common.Hash{
		common.BigToHash(big.NewInt(8)): pairReserves,
	}
	return eth
}

func runScry(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"scry"}, args...))
	return out.String(), err
}

func TestCall_PrintsDecodedResultOfContractCall(t *testing.T) {
	eth := newPairProvider()
	url := startProvider(t, eth)

	out, err := runScry(t, "call",
		"--rpc", url,
		"--block", "100",
		"--to", pairAddress,
		"--sig", "function getReserves() external view returns (uint112 reserve0, uint112 reserve1, uint32 blockTimestampLast)",
	)
	if err != nil {
		t.Fatalf("call failed: %v\n%s", err, out)
	}

	lines := strings.Split(out, "\n")
	want := []string{
		"uint112: 1000",
		"uint112: 2000",
		"uint32: 1700000000",
	}
	if len(lines) < len(want)+2 {
		t.Fatalf("unexpected output:\n%s", out)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("unexpected output line %d, wanted %q, got %q", i, line, lines[i])
		}
	}
	if !strings.HasPrefix(lines[3], "gas used: ") {
		t.Errorf("missing gas report, got %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "fetched ") {
		t.Errorf("missing fetch report, got %q", lines[4])
	}

	for _, block := range eth.requests() {
		if block != "0x64" {
			t.Errorf("request not pinned to block 100, got %q", block)
		}
	}
}

func TestCall_SeedSlotsAreFetchedUpFront(t *testing.T) {
	eth := newPairProvider()
	url := startProvider(t, eth)

	out, err := runScry(t, "call",
		"--rpc", url,
		"--to", pairAddress,
		"--sig", "getReserves()(uint112,uint112,uint32)",
		"--seed-slot", "8",
		"--seed-slot", "9",
	)
	if err != nil {
		t.Fatalf("call failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "and 2 slots") {
		t.Errorf("expected two fetched slots, got:\n%s", out)
	}
	for _, block := range eth.requests() {
		if block != "latest" {
			t.Errorf("expected requests for latest block, got %q", block)
		}
	}
}

func TestCall_CacheDirectoryAvoidsRepeatedFetches(t *testing.T) {
	eth := newPairProvider()
	url := startProvider(t, eth)
	dir := t.TempDir()

	args := []string{"call",
		"--rpc", url,
		"--block", "100",
		"--to", pairAddress,
		"--sig", "getReserves()(uint112,uint112,uint32)",
		"--cache-dir", dir,
	}
	first, err := runScry(t, args...)
	if err != nil {
		t.Fatalf("first call failed: %v\n%s", err, first)
	}
	requests := len(eth.requests())
	if requests == 0 {
		t.Fatalf("first call did not contact the provider")
	}

	second, err := runScry(t, args...)
	if err != nil {
		t.Fatalf("second call failed: %v\n%s", err, second)
	}
	if got := len(eth.requests()); got != requests {
		t.Errorf("second call contacted the provider %d times", got-requests)
	}
	if !strings.HasPrefix(second, "uint112: 1000\n") {
		t.Errorf("unexpected output of cached call:\n%s", second)
	}
}

func TestCall_RevertReasonIsReported(t *testing.T) {
	reason, err := abi.EncodeCall(abi.MustParseSignature("Error(string)"), "nope")
	if err != nil {
		t.Fatalf("failed to encode revert reason: %v", err)
	}
	size := byte(len(reason))
	// CODECOPY the payload located after the 12 byte prefix and REVERT with it
	code := append([]byte{
		0x60, size, 0x60, 12, 0x60, 0, 0x39,
		0x60, size, 0x60, 0, 0xfd,
	}, reason...)

	eth := newProvider()
	eth.codes[common.HexToAddress(pairAddress)] = code
	url := startProvider(t, eth)

	out, err := runScry(t, "call",
		"--rpc", url,
		"--to", pairAddress,
		"--sig", "getReserves()(uint112,uint112,uint32)",
	)
	if !errors.Is(err, simulator.ErrReverted) {
		t.Errorf("expected reverted call to fail, got %v", err)
	}
	if want, got := 2, exitCode(err); want != got {
		t.Errorf("unexpected exit code, wanted %d, got %d", want, got)
	}
	if !strings.HasPrefix(out, "reverted: nope\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCall_PrintsHaltReason(t *testing.T) {
	eth := newProvider()
	eth.codes[common.HexToAddress(pairAddress)] = []byte{0xfe}
	url := startProvider(t, eth)

	out, err := runScry(t, "call",
		"--rpc", url,
		"--to", pairAddress,
		"--sig", "getReserves()(uint112,uint112,uint32)",
		"--gas", "50000",
	)
	if !errors.Is(err, simulator.ErrHalted) {
		t.Errorf("expected halted call to fail, got %v", err)
	}
	if want, got := 3, exitCode(err); want != got {
		t.Errorf("unexpected exit code, wanted %d, got %d", want, got)
	}
	if !strings.HasPrefix(out, "halted: invalid opcode\ngas used: 50000 ") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCall_InterpreterIsSelectedByName(t *testing.T) {
	url := startProvider(t, newPairProvider())
	for _, name := range []string{"evm", "EVM"} {
		out, err := runScry(t, "call",
			"--rpc", url,
			"--to", pairAddress,
			"--sig", "getReserves()(uint112,uint112,uint32)",
			"--interpreter", name,
		)
		if err != nil {
			t.Fatalf("call with interpreter %s failed: %v", name, err)
		}
		if !strings.Contains(out, "uint112: 1000\n") {
			t.Errorf("unexpected output:\n%s", out)
		}
	}
}

func TestCall_UsageListsRegisteredInterpreters(t *testing.T) {
	for _, flag := range CallCmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "interpreter" {
			if !strings.Contains(f.Usage, simulator.DefaultInterpreter) {
				t.Errorf("usage does not list %q: %s", simulator.DefaultInterpreter, f.Usage)
			}
			return
		}
	}
	t.Errorf("missing --interpreter flag")
}

func TestCall_RejectsInvalidFlags(t *testing.T) {
	const rpcURL = "http://localhost:1"
	tests := map[string][]string{
		"missing rpc":         {"call", "--to", pairAddress, "--sig", "f()"},
		"invalid target":      {"call", "--rpc", rpcURL, "--to", "0x12", "--sig", "f()"},
		"invalid caller":      {"call", "--rpc", rpcURL, "--to", pairAddress, "--from", "x", "--sig", "f()"},
		"invalid signature":   {"call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f("},
		"missing argument":    {"call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f(uint8)"},
		"invalid revision":    {"call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f()", "--revision", "Frontier"},
		"invalid seed slot":   {"call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f()", "--seed-slot", "x"},
		"invalid log level":   {"--log-level", "loud", "call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f()"},
		"cache without block": {"call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f()", "--cache-dir", "x"},
		"unknown interpreter": {"call", "--rpc", rpcURL, "--to", pairAddress, "--sig", "f()", "--interpreter", "lfvm"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := runScry(t, args...); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
