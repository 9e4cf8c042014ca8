// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package evm provides an EVM interpreter executing byte-code directly. It
// covers a single call frame; nested calls and contract creations are
// delegated to the run context provided by the caller.
package evm

import (
	"fmt"

	"github.com/Fantom-foundation/Scry/go/tosca"
	"github.com/rs/zerolog"
)

// Registers the interpreter with its default configuration.
func init() {
	err := tosca.RegisterInterpreterFactory("evm", func(config any) (tosca.Interpreter, error) {
		switch c := config.(type) {
		case nil:
			return NewInterpreter(Config{})
		case Config:
			return NewInterpreter(c)
		default:
			return nil, fmt.Errorf("invalid configuration for evm interpreter: %T", config)
		}
	})
	if err != nil {
		panic(err)
	}
}

// Config summarizes the configuration options of the interpreter.
type Config struct {
	AnalysisConfig
	// Tracer, if set, receives a trace level entry for every executed
	// instruction.
	Tracer *zerolog.Logger
}

type evm struct {
	config   Config
	analyzer *analyzer
}

// NewInterpreter creates an interpreter using the given configuration. The
// resulting instance may be used for concurrent runs.
func NewInterpreter(config Config) (*evm, error) {
	analyzer, err := newAnalyzer(config.AnalysisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create code analyzer: %w", err)
	}
	return &evm{config: config, analyzer: analyzer}, nil
}

// Defines the newest supported revision for this interpreter implementation
const newestSupportedRevision = tosca.R13_Cancun

func (e *evm) Run(params tosca.Parameters) (tosca.Result, error) {
	if params.Revision < tosca.R07_Istanbul || params.Revision > newestSupportedRevision {
		return tosca.Result{}, &tosca.ErrUnsupportedRevision{Revision: params.Revision}
	}
	return run(e.analyzer, e.config.Tracer, params)
}
