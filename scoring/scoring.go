// hapalign: haplotype-aware alignment of reads to pangenome graphs.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

/*
Package scoring contains the scoring parameters used by the aligners,
and the error model that bounds the search of the graph WFA aligner.

Parameters can be read from YAML documents such as

	match: 1
	mismatch: 4
	gap_open: 6
	gap_extension: 1
	full_length_bonus: 5
	error_model:
	  mismatches: {fraction: 0.03, min: 1}
	  gaps: {fraction: 0.05, min: 1}
	  gap_length: {fraction: 0.1, min: 1}

Keys that are absent keep their default values.
*/
package scoring

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScore is returned by Validate for unusable parameters.
var ErrInvalidScore = errors.New("invalid scoring parameter")

// Aligner holds the scoring parameters. Match is a score, all other
// parameters except FullLengthBonus are penalties; all are non-negative.
// A gap of length n costs GapOpen + n * GapExtension.
type Aligner struct {
	Match           int32 `yaml:"match"`
	Mismatch        int32 `yaml:"mismatch"`
	GapOpen         int32 `yaml:"gap_open"`
	GapExtension    int32 `yaml:"gap_extension"`
	FullLengthBonus int32 `yaml:"full_length_bonus"`
}

// Default parameters.
const (
	DefaultMatch           = 1
	DefaultMismatch        = 4
	DefaultGapOpen         = 6
	DefaultGapExtension    = 1
	DefaultFullLengthBonus = 5
)

// Default returns the default scoring parameters.
func Default() *Aligner {
	return &Aligner{
		Match:           DefaultMatch,
		Mismatch:        DefaultMismatch,
		GapOpen:         DefaultGapOpen,
		GapExtension:    DefaultGapExtension,
		FullLengthBonus: DefaultFullLengthBonus,
	}
}

// Validate checks that the parameters can be used for alignment.
func (a *Aligner) Validate() error {
	switch {
	case a.Match <= 0:
		return fmt.Errorf("%w: match score %v must be positive", ErrInvalidScore, a.Match)
	case a.Mismatch < 0:
		return fmt.Errorf("%w: mismatch penalty %v is negative", ErrInvalidScore, a.Mismatch)
	case a.GapOpen < 0:
		return fmt.Errorf("%w: gap open penalty %v is negative", ErrInvalidScore, a.GapOpen)
	case a.GapExtension < 0:
		return fmt.Errorf("%w: gap extension penalty %v is negative", ErrInvalidScore, a.GapExtension)
	case a.FullLengthBonus < 0:
		return fmt.Errorf("%w: full length bonus %v is negative", ErrInvalidScore, a.FullLengthBonus)
	}
	return nil
}

// GapScore returns the score of a gap of the given length.
func (a *Aligner) GapScore(length int) int32 {
	if length <= 0 {
		return 0
	}
	return -(a.GapOpen + int32(length)*a.GapExtension)
}

// Rate is a fraction of the sequence length with a lower bound.
type Rate struct {
	Fraction float64 `yaml:"fraction"`
	Min      int32   `yaml:"min"`
}

// Evaluate returns the bound for a sequence of the given length.
func (r Rate) Evaluate(length int) int32 {
	return int32(r.Fraction*float64(length)) + r.Min
}

// ErrorModel bounds the number of edits the WFA aligner looks for.
type ErrorModel struct {
	Mismatches Rate `yaml:"mismatches"`
	Gaps       Rate `yaml:"gaps"`
	GapLength  Rate `yaml:"gap_length"`
}

// DefaultErrorModel allows about 3% mismatches, 5% gaps, and a total
// gap length of 10% of the sequence length.
func DefaultErrorModel() *ErrorModel {
	return &ErrorModel{
		Mismatches: Rate{Fraction: 0.03, Min: 1},
		Gaps:       Rate{Fraction: 0.05, Min: 1},
		GapLength:  Rate{Fraction: 0.1, Min: 1},
	}
}

// Config is the YAML document read by Load.
type Config struct {
	Aligner    `yaml:",inline"`
	ErrorModel ErrorModel `yaml:"error_model"`
}

// DefaultConfig returns the defaults for all parameters.
func DefaultConfig() *Config {
	return &Config{Aligner: *Default(), ErrorModel: *DefaultErrorModel()}
}

// Load reads a YAML configuration from r and validates it.
func Load(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scoring configuration: %w", err)
	}
	if err := config.Aligner.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFile reads a YAML configuration file.
func LoadFile(filename string) (config *Config, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	return Load(f)
}
