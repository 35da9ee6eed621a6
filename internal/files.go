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

package internal

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// MappedFile is a read-only memory mapping of a file.
type MappedFile struct {
	data []byte
	file *os.File
}

// MapFile maps the given file into memory for reading.
func MapFile(filename string) (result *MappedFile, err error) {
	pathname, err := FullPathname(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if stat.Size() == 0 {
		return &MappedFile{file: file}, nil
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &MappedFile{data: data, file: file}, nil
}

// Data returns the mapped contents. The slice is only valid until Close.
func (m *MappedFile) Data() []byte {
	return m.data
}

// Close unmaps and closes the file.
func (m *MappedFile) Close() (err error) {
	if m.data != nil {
		err = unix.Munmap(m.data)
		m.data = nil
	}
	if m.file != nil {
		if nerr := m.file.Close(); err == nil {
			err = nerr
		}
		m.file = nil
	}
	return err
}

// FullPathname returns filename as an absolute path.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}
