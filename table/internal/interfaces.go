// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package internal provides the row-level file format readers and
// writers used by scans and commits. It is internal to the table
// package and carries no stability guarantees.
package internal

import (
	"context"
	"fmt"
	stdio "io"
	"iter"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/io"
)

// RowReader reads the rows of a single file in file order. Rows yielded
// by the iterator may share backing state with the reader and must be
// copied before being retained past the yield.
type RowReader interface {
	stdio.Closer
	// Schema is the file schema as resolved against the read schema.
	Schema() *iceberg.Schema
	// Rows iterates the file's rows in order. Iteration stops at the
	// first error, which is yielded with a nil row.
	Rows() iter.Seq2[iceberg.StructLike, error]
}

// RowWriter writes rows to a single file. Close must be called for the
// file contents to be complete.
type RowWriter interface {
	// Write appends a row. The row is consumed before Write returns and
	// may be reused by the caller.
	Write(row iceberg.StructLike) error
	stdio.Closer
}

// OpenRows opens the named file for reading rows with the given
// expected schema, dispatching on the file format.
func OpenRows(ctx context.Context, fs io.IO, path string, format iceberg.FileFormat, sc *iceberg.Schema) (RowReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening file '%s': %s", iceberg.ErrIOFailure, path, err.Error())
	}

	switch format {
	case iceberg.AvroFile:
		rdr, err := newAvroRowReader(f, path, sc)
		if err != nil {
			f.Close()

			return nil, err
		}

		return rdr, nil
	case iceberg.ArrowFile:
		rdr, err := newArrowRowReader(f, path, sc)
		if err != nil {
			f.Close()

			return nil, err
		}

		return rdr, nil
	default:
		f.Close()

		return nil, fmt.Errorf("%w: no row reader for format %s", iceberg.ErrUnsupportedFormat, format)
	}
}

// NewRowWriter creates a row file at the given path in the requested
// format, overwriting any existing file.
func NewRowWriter(fs io.IO, path string, format iceberg.FileFormat, sc *iceberg.Schema) (RowWriter, error) {
	out, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating file '%s': %s", iceberg.ErrIOFailure, path, err.Error())
	}

	switch format {
	case iceberg.AvroFile:
		w, err := newAvroRowWriter(out, sc)
		if err != nil {
			out.Close()

			return nil, err
		}

		return w, nil
	case iceberg.ArrowFile:
		return newArrowRowWriter(out, sc)
	default:
		out.Close()

		return nil, fmt.Errorf("%w: no row writer for format %s", iceberg.ErrUnsupportedFormat, format)
	}
}
