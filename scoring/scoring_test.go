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

package scoring

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	a := Default()
	if a.Match != 1 || a.Mismatch != 4 || a.GapOpen != 6 || a.GapExtension != 1 || a.FullLengthBonus != 5 {
		t.Error("Default failed")
	}
	if err := a.Validate(); err != nil {
		t.Error("Validate of defaults failed")
	}
	if a.GapScore(0) != 0 || a.GapScore(3) != -9 {
		t.Error("GapScore failed")
	}
}

func TestValidate(t *testing.T) {
	a := Default()
	a.Match = 0
	if err := a.Validate(); !errors.Is(err, ErrInvalidScore) {
		t.Error("Validate match failed")
	}
	a = Default()
	a.GapExtension = -1
	if err := a.Validate(); !errors.Is(err, ErrInvalidScore) {
		t.Error("Validate gap extension failed")
	}
}

func TestErrorModel(t *testing.T) {
	model := DefaultErrorModel()
	if model.Mismatches.Evaluate(100) != 4 || model.Gaps.Evaluate(100) != 6 || model.GapLength.Evaluate(100) != 11 {
		t.Error("Evaluate 1 failed")
	}
	if model.Mismatches.Evaluate(4) != 1 || model.GapLength.Evaluate(4) != 1 {
		t.Error("Evaluate 2 failed")
	}
}

func TestLoad(t *testing.T) {
	config, err := Load(strings.NewReader("mismatch: 2\nfull_length_bonus: 0\nerror_model:\n  gaps: {fraction: 0.1, min: 2}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if config.Match != 1 || config.Mismatch != 2 || config.FullLengthBonus != 0 || config.GapOpen != 6 {
		t.Error("Load scores failed")
	}
	if config.ErrorModel.Gaps != (Rate{Fraction: 0.1, Min: 2}) || config.ErrorModel.Mismatches != DefaultErrorModel().Mismatches {
		t.Error("Load error model failed")
	}

	config, err = Load(strings.NewReader(""))
	if err != nil || *config != *DefaultConfig() {
		t.Error("Load of an empty document failed")
	}

	if _, err := Load(strings.NewReader("match: 0\n")); !errors.Is(err, ErrInvalidScore) {
		t.Error("Load of invalid scores failed")
	}
	if _, err := Load(strings.NewReader("match: [1\n")); err == nil {
		t.Error("Load of invalid YAML failed")
	}
}

func TestLoadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "scoring")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "scoring.yaml")
	if err := ioutil.WriteFile(filename, []byte("gap_open: 8\n"), 0644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadFile(filename)
	if err != nil || config.GapOpen != 8 {
		t.Error("LoadFile failed")
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile of a missing file failed")
	}
}
