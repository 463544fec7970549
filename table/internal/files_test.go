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

package internal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/io"
	"github.com/cjjnjust/incubator-iceberg/table/internal"
)

var rowFileSchema = iceberg.NewSchema(0,
	iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
	iceberg.NestedField{ID: 2, Name: "data", Type: iceberg.PrimitiveTypes.String, Required: false},
	iceberg.NestedField{ID: 3, Name: "score", Type: iceberg.PrimitiveTypes.Float64, Required: false},
)

func writeRows(t *testing.T, fs io.IO, path string, format iceberg.FileFormat, rows []*iceberg.Record) {
	t.Helper()

	w, err := internal.NewRowWriter(fs, path, format, rowFileSchema)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	require.NoError(t, w.Close())
}

func readBack(t *testing.T, fs io.IO, path string, format iceberg.FileFormat) []*iceberg.Record {
	t.Helper()

	rdr, err := internal.OpenRows(context.Background(), fs, path, format, rowFileSchema)
	require.NoError(t, err)
	defer rdr.Close()

	var out []*iceberg.Record
	for row, err := range rdr.Rows() {
		require.NoError(t, err)
		out = append(out, iceberg.CopyStruct(row))
	}

	return out
}

func TestRowFileRoundTrip(t *testing.T) {
	rows := []*iceberg.Record{
		iceberg.RecordOf(int64(29), "a", 1.5),
		iceberg.RecordOf(int64(43), nil, nil),
		iceberg.RecordOf(int64(61), "c", -0.25),
	}

	for _, format := range []iceberg.FileFormat{iceberg.AvroFile, iceberg.ArrowFile} {
		t.Run(string(format), func(t *testing.T) {
			fs := io.NewInMemoryFS()
			path := "mem://wh/data/part-0." + string(format)

			writeRows(t, fs, path, format, rows)
			back := readBack(t, fs, path, format)

			require.Len(t, back, len(rows))
			for i, row := range back {
				assert.Equal(t, rows[i].Get(0), row.Get(0))
				assert.Equal(t, rows[i].Get(1), row.Get(1))
				assert.Equal(t, rows[i].Get(2), row.Get(2))
			}
		})
	}
}

func TestRowWriterRejectsBadRows(t *testing.T) {
	fs := io.NewInMemoryFS()

	w, err := internal.NewRowWriter(fs, "mem://wh/x.avro", iceberg.AvroFile, rowFileSchema)
	require.NoError(t, err)
	defer w.Close()

	// wrong width
	err = w.Write(iceberg.RecordOf(int64(1)))
	assert.ErrorIs(t, err, iceberg.ErrSchemaMismatch)

	// null in a required column
	err = w.Write(iceberg.RecordOf(nil, "a", 1.0))
	assert.ErrorIs(t, err, iceberg.ErrSchemaMismatch)
}

func TestOpenRowsUnsupportedFormat(t *testing.T) {
	fs := io.NewInMemoryFS()
	require.NoError(t, fs.WriteFile("mem://wh/x.orc", []byte("orc bytes")))

	_, err := internal.OpenRows(context.Background(), fs, "mem://wh/x.orc", iceberg.OrcFile, rowFileSchema)
	assert.ErrorIs(t, err, iceberg.ErrUnsupportedFormat)
}

func TestOpenRowsMissingFile(t *testing.T) {
	fs := io.NewInMemoryFS()

	_, err := internal.OpenRows(context.Background(), fs, "mem://wh/missing.avro", iceberg.AvroFile, rowFileSchema)
	assert.ErrorIs(t, err, iceberg.ErrIOFailure)
}

func TestOpenRowsCorruptAvro(t *testing.T) {
	fs := io.NewInMemoryFS()
	require.NoError(t, fs.WriteFile("mem://wh/bad.avro", []byte("definitely not avro")))

	_, err := internal.OpenRows(context.Background(), fs, "mem://wh/bad.avro", iceberg.AvroFile, rowFileSchema)
	assert.ErrorIs(t, err, iceberg.ErrDataCorruption)
}

func TestAvroRenamedColumnResolvesByFieldID(t *testing.T) {
	// the file was written before field 2 was renamed; the stored
	// field-id, not the name, identifies the column
	renamed := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
		iceberg.NestedField{ID: 2, Name: "info", Type: iceberg.PrimitiveTypes.String, Required: false},
		iceberg.NestedField{ID: 3, Name: "score", Type: iceberg.PrimitiveTypes.Float64, Required: false},
	)

	fs := io.NewInMemoryFS()
	writeRows(t, fs, "mem://wh/renamed.avro", iceberg.AvroFile, []*iceberg.Record{
		iceberg.RecordOf(int64(29), "a", 1.5),
		iceberg.RecordOf(int64(43), nil, nil),
	})

	rdr, err := internal.OpenRows(context.Background(), fs, "mem://wh/renamed.avro", iceberg.AvroFile, renamed)
	require.NoError(t, err)
	defer rdr.Close()

	var got []any
	for row, err := range rdr.Rows() {
		require.NoError(t, err)
		got = append(got, row.Get(1))
	}
	assert.Equal(t, []any{"a", nil}, got)
}

func TestAvroMissingOptionalColumnReadsNull(t *testing.T) {
	// a file written before a column was added must read back with
	// nulls in that column
	oldSchema := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
	)

	fs := io.NewInMemoryFS()
	w, err := internal.NewRowWriter(fs, "mem://wh/old.avro", iceberg.AvroFile, oldSchema)
	require.NoError(t, err)
	require.NoError(t, w.Write(iceberg.RecordOf(int64(100))))
	require.NoError(t, w.Close())

	rdr, err := internal.OpenRows(context.Background(), fs, "mem://wh/old.avro", iceberg.AvroFile, rowFileSchema)
	require.NoError(t, err)
	defer rdr.Close()

	for row, err := range rdr.Rows() {
		require.NoError(t, err)
		assert.Equal(t, int64(100), row.Get(0))
		assert.Nil(t, row.Get(1))
		assert.Nil(t, row.Get(2))
	}
}
