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
	"errors"
	"fmt"
	"os"

	"github.com/Fantom-foundation/Scry/go/processor/simulator"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode tells calls rejected by the contract apart from failed
// simulations.
func exitCode(err error) int {
	switch {
	case errors.Is(err, simulator.ErrReverted):
		return 2
	case errors.Is(err, simulator.ErrHalted):
		return 3
	default:
		return 1
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "scry",
		Usage:     "Simulates read-only contract calls against remote chain state",
		Copyright: "(c) 2024 Fantom Foundation",
		// list arguments contain commas
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			logLevelFlag,
		},
		Commands: []*cli.Command{
			&CallCmd,
		},
	}
}
