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

package deletes_test

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/io"
	"github.com/cjjnjust/incubator-iceberg/table/deletes"
	"github.com/cjjnjust/incubator-iceberg/table/internal"
)

var filterReadSchema = iceberg.NewSchema(0,
	iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
	iceberg.NestedField{ID: 2, Name: "data", Type: iceberg.PrimitiveTypes.String, Required: false},
)

const dataFilePath = "mem://wh/data/part-0.avro"

// the canonical seven-row data file used throughout
func baseRows() []*iceberg.Record {
	ids := []int64{29, 43, 61, 89, 100, 121, 122}
	data := []string{"a", "b", "c", "d", "e", "f", "g"}

	rows := make([]*iceberg.Record, len(ids))
	for i := range ids {
		rows[i] = iceberg.RecordOf(ids[i], data[i])
	}

	return rows
}

func rowSeq(rows []*iceberg.Record) iter.Seq2[iceberg.StructLike, error] {
	return func(yield func(iceberg.StructLike, error) bool) {
		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}
}

func writeDeleteRows(t *testing.T, fs io.IO, path string, sc *iceberg.Schema, rows []*iceberg.Record) {
	t.Helper()

	w, err := internal.NewRowWriter(fs, path, iceberg.AvroFile, sc)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	require.NoError(t, w.Close())
}

func dataFile(t *testing.T, count int64) iceberg.DataFile {
	t.Helper()

	df, err := iceberg.NewDataFileBuilder(dataFilePath, iceberg.AvroFile).
		WithRecordCount(count).
		Build()
	require.NoError(t, err)

	return df
}

func posDeleteFile(t *testing.T, fs io.IO, path string, byPath map[string][]int64) iceberg.DataFile {
	t.Helper()

	var rows []*iceberg.Record
	var n int64
	for target, positions := range byPath {
		for _, pos := range positions {
			rows = append(rows, iceberg.RecordOf(target, pos))
			n++
		}
	}
	writeDeleteRows(t, fs, path, iceberg.PositionalDeleteSchema, rows)

	df, err := iceberg.NewPositionDeleteFileBuilder(path, iceberg.AvroFile).
		WithRecordCount(n).
		Build()
	require.NoError(t, err)

	return df
}

func eqDeleteFile(t *testing.T, fs io.IO, path string, fieldIDs []int, keys []*iceberg.Record) iceberg.DataFile {
	t.Helper()

	deleteSchema, err := filterReadSchema.SelectByIDs(fieldIDs...)
	require.NoError(t, err)
	writeDeleteRows(t, fs, path, deleteSchema, keys)

	df, err := iceberg.NewEqualityDeleteFileBuilder(path, iceberg.AvroFile, fieldIDs).
		WithRecordCount(int64(len(keys))).
		Build()
	require.NoError(t, err)

	return df
}

func survivorIDs(t *testing.T, filter *deletes.DeleteFilter) []int64 {
	t.Helper()

	var ids []int64
	for row, err := range filter.Filter(rowSeq(baseRows())) {
		require.NoError(t, err)
		ids = append(ids, row.Get(0).(int64))
	}

	return ids
}

func TestDeleteFilterPositionDeletes(t *testing.T) {
	fs := io.NewInMemoryFS()
	pos := posDeleteFile(t, fs, "mem://wh/deletes/pos.avro", map[string][]int64{
		dataFilePath:               {0, 3, 6},
		"mem://wh/data/other.avro": {1, 2},
	})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{pos}, filterReadSchema)
	require.NoError(t, err)

	assert.True(t, filter.HasDeletes())
	// deletes aimed at other data files do not leak in
	assert.Equal(t, []int64{0, 3, 6}, filter.DeletedPositions())
	assert.Equal(t, []int64{43, 61, 100, 121}, survivorIDs(t, filter))
}

func TestDeleteFilterEqualityDeletes(t *testing.T) {
	fs := io.NewInMemoryFS()
	eq := eqDeleteFile(t, fs, "mem://wh/deletes/eq.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a"), iceberg.RecordOf("d"), iceberg.RecordOf("g")})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{eq}, filterReadSchema)
	require.NoError(t, err)

	assert.Equal(t, []int64{43, 61, 100, 121}, survivorIDs(t, filter))
}

func TestDeleteFilterMixed(t *testing.T) {
	fs := io.NewInMemoryFS()
	pos := posDeleteFile(t, fs, "mem://wh/deletes/pos.avro", map[string][]int64{
		dataFilePath: {3, 5},
	})
	eq := eqDeleteFile(t, fs, "mem://wh/deletes/eq.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a")})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{pos, eq}, filterReadSchema)
	require.NoError(t, err)

	assert.Equal(t, []int64{43, 61, 100, 122}, survivorIDs(t, filter))
}

func TestDeleteFilterMergesPositionFiles(t *testing.T) {
	fs := io.NewInMemoryFS()
	posA := posDeleteFile(t, fs, "mem://wh/deletes/pos-a.avro", map[string][]int64{
		dataFilePath: {0, 3},
	})
	posB := posDeleteFile(t, fs, "mem://wh/deletes/pos-b.avro", map[string][]int64{
		dataFilePath: {3, 6},
	})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{posA, posB}, filterReadSchema)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 3, 6}, filter.DeletedPositions())
}

func TestDeleteFilterMergesEqualityGroups(t *testing.T) {
	fs := io.NewInMemoryFS()
	eqA := eqDeleteFile(t, fs, "mem://wh/deletes/eq-a.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a")})
	eqB := eqDeleteFile(t, fs, "mem://wh/deletes/eq-b.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("d"), iceberg.RecordOf("g")})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{eqA, eqB}, filterReadSchema)
	require.NoError(t, err)

	assert.Equal(t, []int64{43, 61, 100, 121}, survivorIDs(t, filter))
}

func TestDeleteFilterMultipleFieldIDSets(t *testing.T) {
	fs := io.NewInMemoryFS()
	eqData := eqDeleteFile(t, fs, "mem://wh/deletes/eq-data.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a"), iceberg.RecordOf("d"), iceberg.RecordOf("g")})
	eqID := eqDeleteFile(t, fs, "mem://wh/deletes/eq-id.avro", []int{1},
		[]*iceberg.Record{iceberg.RecordOf(int64(121)), iceberg.RecordOf(int64(29))})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{eqData, eqID}, filterReadSchema)
	require.NoError(t, err)

	// a row is deleted when any group matches
	assert.Equal(t, []int64{43, 61, 100}, survivorIDs(t, filter))
}

func TestDeleteFilterPositionOutOfRange(t *testing.T) {
	fs := io.NewInMemoryFS()
	pos := posDeleteFile(t, fs, "mem://wh/deletes/pos.avro", map[string][]int64{
		dataFilePath: {7},
	})

	_, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{pos}, filterReadSchema)
	assert.ErrorIs(t, err, iceberg.ErrInvalidDeleteFile)
}

func TestDeleteFilterRejectsDataFileAsDelete(t *testing.T) {
	fs := io.NewInMemoryFS()

	_, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{dataFile(t, 7)}, filterReadSchema)
	assert.ErrorIs(t, err, iceberg.ErrInvalidDeleteFile)
}

func TestDeleteFilterNoDeletesPassesThrough(t *testing.T) {
	fs := io.NewInMemoryFS()

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), nil, filterReadSchema)
	require.NoError(t, err)

	assert.False(t, filter.HasDeletes())
	assert.Equal(t, []int64{29, 43, 61, 89, 100, 121, 122}, survivorIDs(t, filter))
}

func TestDeleteFilterDeletedPredicate(t *testing.T) {
	fs := io.NewInMemoryFS()
	pos := posDeleteFile(t, fs, "mem://wh/deletes/pos.avro", map[string][]int64{
		dataFilePath: {2},
	})
	eq := eqDeleteFile(t, fs, "mem://wh/deletes/eq.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("d")})

	filter, err := deletes.NewDeleteFilter(context.Background(), fs, deletes.NewIndexCache(),
		dataFile(t, 7), []iceberg.DataFile{pos, eq}, filterReadSchema)
	require.NoError(t, err)

	// position match, equality match, and neither
	assert.True(t, filter.Deleted(2, iceberg.RecordOf(int64(61), "c")))
	assert.True(t, filter.Deleted(3, iceberg.RecordOf(int64(89), "d")))
	assert.False(t, filter.Deleted(0, iceberg.RecordOf(int64(29), "a")))
}

func TestIndexCacheSharesIndexes(t *testing.T) {
	fs := io.NewInMemoryFS()
	eq := eqDeleteFile(t, fs, "mem://wh/deletes/eq.avro", []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a")})

	cache := deletes.NewIndexCache()
	first, err := cache.EqualityIndex(context.Background(), fs, eq, filterReadSchema)
	require.NoError(t, err)

	// the file survives deletion because the second lookup is a cache hit
	require.NoError(t, fs.Remove(eq.FilePath()))
	second, err := cache.EqualityIndex(context.Background(), fs, eq, filterReadSchema)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
