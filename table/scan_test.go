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

package table_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/io"
	"github.com/cjjnjust/incubator-iceberg/table"
	tblinternal "github.com/cjjnjust/incubator-iceberg/table/internal"
)

// the canonical seven-row data file used by the delete scenarios
var (
	baseIDs  = []int64{29, 43, 61, 89, 100, 121, 122}
	baseData = []string{"a", "b", "c", "d", "e", "f", "g"}
)

func baseRows() []*iceberg.Record {
	rows := make([]*iceberg.Record, len(baseIDs))
	for i := range baseIDs {
		rows[i] = iceberg.RecordOf(baseIDs[i], baseData[i])
	}

	return rows
}

func newTestTable(t *testing.T, fs io.IO, spec iceberg.PartitionSpec) *table.Table {
	t.Helper()

	meta := table.NewMetadata("mem://wh/tbl", metaTestSchema, spec, nil)

	return table.New(meta, fs)
}

func writeRowFile(t *testing.T, fs io.IO, path string, sc *iceberg.Schema, rows []*iceberg.Record) {
	t.Helper()

	w, err := tblinternal.NewRowWriter(fs, path, iceberg.AvroFile, sc)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	require.NoError(t, w.Close())
}

func dataFile(t *testing.T, fs io.IO, path string, rows []*iceberg.Record) iceberg.DataFile {
	t.Helper()

	writeRowFile(t, fs, path, metaTestSchema, rows)
	df, err := iceberg.NewDataFileBuilder(path, iceberg.AvroFile).
		WithRecordCount(int64(len(rows))).
		Build()
	require.NoError(t, err)

	return df
}

func posDeleteFile(t *testing.T, fs io.IO, path string, target string, positions []int64) iceberg.DataFile {
	t.Helper()

	rows := make([]*iceberg.Record, len(positions))
	for i, pos := range positions {
		rows[i] = iceberg.RecordOf(target, pos)
	}
	writeRowFile(t, fs, path, iceberg.PositionalDeleteSchema, rows)

	df, err := iceberg.NewPositionDeleteFileBuilder(path, iceberg.AvroFile).
		WithRecordCount(int64(len(rows))).
		Build()
	require.NoError(t, err)

	return df
}

func eqDeleteFile(t *testing.T, fs io.IO, path string, sc *iceberg.Schema, fieldIDs []int, keys []*iceberg.Record) iceberg.DataFile {
	t.Helper()

	deleteSchema, err := sc.SelectByIDs(fieldIDs...)
	require.NoError(t, err)
	writeRowFile(t, fs, path, deleteSchema, keys)

	df, err := iceberg.NewEqualityDeleteFileBuilder(path, iceberg.AvroFile, fieldIDs).
		WithRecordCount(int64(len(keys))).
		Build()
	require.NoError(t, err)

	return df
}

func scanRows(t *testing.T, scan *table.Scan) (*iceberg.Schema, []*iceberg.Record) {
	t.Helper()

	sc, rows, err := scan.Rows(context.Background())
	require.NoError(t, err)

	var out []*iceberg.Record
	for row, err := range rows {
		require.NoError(t, err)
		out = append(out, iceberg.CopyStruct(row))
	}

	return sc, out
}

func rowIDs(rows []*iceberg.Record) []int64 {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.Get(0).(int64)
	}

	return ids
}

func TestScanEmptyTable(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	assert.Nil(t, tbl.CurrentSnapshot())

	_, rows := scanRows(t, tbl.Scan())
	assert.Empty(t, rows)
}

func TestAppendAndScan(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	snap := tbl.CurrentSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.SequenceNumber)
	assert.Nil(t, snap.ParentSnapshotID)
	assert.Len(t, snap.ManifestFiles, 1)

	sc, rows := scanRows(t, tbl.Scan())
	assert.True(t, metaTestSchema.Equals(sc))
	assert.Equal(t, baseIDs, rowIDs(rows))
	assert.Equal(t, "a", rows[0].Get(1))
}

func TestScanEqualityDeletes(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	eq := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-0.avro", metaTestSchema, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a"), iceberg.RecordOf("d"), iceberg.RecordOf("g")})
	tbl, err = tbl.NewRowDelta().AddDeletes(eq).Commit(context.Background())
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{43, 61, 100, 121}, rowIDs(rows))
}

func TestScanPositionDeletes(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	const dataPath = "mem://wh/tbl/data/part-0.avro"
	tbl, err := tbl.Append(context.Background(), dataFile(t, fs, dataPath, baseRows()))
	require.NoError(t, err)

	pos := posDeleteFile(t, fs, "mem://wh/tbl/data/pos-0.avro", dataPath, []int64{0, 3, 6})
	tbl, err = tbl.NewRowDelta().AddDeletes(pos).Commit(context.Background())
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{43, 61, 100, 121}, rowIDs(rows))
}

func TestScanMixedDeletes(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	const dataPath = "mem://wh/tbl/data/part-0.avro"
	tbl, err := tbl.Append(context.Background(), dataFile(t, fs, dataPath, baseRows()))
	require.NoError(t, err)

	pos := posDeleteFile(t, fs, "mem://wh/tbl/data/pos-0.avro", dataPath, []int64{3, 5})
	eq := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-0.avro", metaTestSchema, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a")})
	tbl, err = tbl.NewRowDelta().AddDeletes(pos).AddDeletes(eq).Commit(context.Background())
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{43, 61, 100, 122}, rowIDs(rows))
}

func TestScanMultipleEqualitySets(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	eqData := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-data.avro", metaTestSchema, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a"), iceberg.RecordOf("d"), iceberg.RecordOf("g")})
	eqID := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-id.avro", metaTestSchema, []int{1},
		[]*iceberg.Record{iceberg.RecordOf(int64(121)), iceberg.RecordOf(int64(29))})
	tbl, err = tbl.NewRowDelta().AddDeletes(eqData).AddDeletes(eqID).Commit(context.Background())
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{43, 61, 100}, rowIDs(rows))
}

func TestScanProjection(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	eq := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-0.avro", metaTestSchema, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a"), iceberg.RecordOf("d"), iceberg.RecordOf("g")})
	tbl, err = tbl.NewRowDelta().AddDeletes(eq).Commit(context.Background())
	require.NoError(t, err)

	// the delete column is applied even when it is projected away
	sc, rows := scanRows(t, tbl.Scan(table.WithSelectedFields("id")))
	require.Equal(t, 1, sc.NumFields())
	assert.Equal(t, []int64{43, 61, 100, 121}, rowIDs(rows))

	sc, rows = scanRows(t, tbl.Scan(table.WithSelectedFields("data")))
	require.Equal(t, 1, sc.NumFields())
	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = row.Get(0).(string)
	}
	assert.Equal(t, []string{"b", "c", "e", "f"}, values)

	// unknown column
	_, _, err = tbl.Scan(table.WithSelectedFields("nope")).Rows(context.Background())
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)
}

func TestScanRowLimit(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan(table.WithLimit(3)))
	assert.Equal(t, []int64{29, 43, 61}, rowIDs(rows))

	_, rows = scanRows(t, tbl.Scan(table.WithLimit(0)))
	assert.Empty(t, rows)
}

func TestScanSnapshotIsolation(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)
	beforeDeletes := tbl.CurrentSnapshot().SnapshotID

	eq := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-0.avro", metaTestSchema, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a"), iceberg.RecordOf("d"), iceberg.RecordOf("g")})
	tbl, err = tbl.NewRowDelta().AddDeletes(eq).Commit(context.Background())
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{43, 61, 100, 121}, rowIDs(rows))

	// the pre-delete snapshot still reads every row
	pinned, err := tbl.Scan().UseSnapshot(beforeDeletes)
	require.NoError(t, err)
	_, rows = scanRows(t, pinned)
	assert.Equal(t, baseIDs, rowIDs(rows))

	_, err = tbl.Scan().UseSnapshot(999)
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)
}

func TestScanDeleteBeforeDataDoesNotApply(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	// the delete commits at sequence 1, the data at sequence 2
	eq := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-0.avro", metaTestSchema, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a")})
	tbl, err := tbl.NewRowDelta().AddDeletes(eq).Commit(context.Background())
	require.NoError(t, err)

	tbl, err = tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, baseIDs, rowIDs(rows))
}

func TestScanPartitionScoping(t *testing.T) {
	fs := io.NewInMemoryFS()
	spec := iceberg.NewPartitionSpecID(1, iceberg.PartitionField{
		SourceID: 2, FieldID: 1000, Name: "data_bucket",
		Transform: iceberg.BucketTransform{NumBuckets: 16},
	})
	tbl := newTestTable(t, fs, spec)

	bucketOf := func(v string) any {
		out, err := iceberg.BucketTransform{NumBuckets: 16}.Apply(v)
		require.NoError(t, err)

		return out
	}

	writeRowFile(t, fs, "mem://wh/tbl/data/a.avro", metaTestSchema,
		[]*iceberg.Record{iceberg.RecordOf(int64(29), "a")})
	dfA, err := iceberg.NewDataFileBuilder("mem://wh/tbl/data/a.avro", iceberg.AvroFile).
		WithRecordCount(1).
		WithPartition(1, map[int]any{1000: bucketOf("a")}).
		Build()
	require.NoError(t, err)

	writeRowFile(t, fs, "mem://wh/tbl/data/b.avro", metaTestSchema,
		[]*iceberg.Record{iceberg.RecordOf(int64(43), "b")})
	dfB, err := iceberg.NewDataFileBuilder("mem://wh/tbl/data/b.avro", iceberg.AvroFile).
		WithRecordCount(1).
		WithPartition(1, map[int]any{1000: bucketOf("b")}).
		Build()
	require.NoError(t, err)

	tbl, err = tbl.Append(context.Background(), dfA, dfB)
	require.NoError(t, err)

	// an equality delete scoped to b's partition cannot touch a's file,
	// even though its key matches a row there
	deleteSchema, err := metaTestSchema.SelectByIDs(2)
	require.NoError(t, err)
	writeRowFile(t, fs, "mem://wh/tbl/data/eq-b.avro", deleteSchema,
		[]*iceberg.Record{iceberg.RecordOf("a")})
	eqScoped, err := iceberg.NewEqualityDeleteFileBuilder("mem://wh/tbl/data/eq-b.avro", iceberg.AvroFile, []int{2}).
		WithRecordCount(1).
		WithPartition(1, map[int]any{1000: bucketOf("b")}).
		Build()
	require.NoError(t, err)

	tbl, err = tbl.NewRowDelta().AddDeletes(eqScoped).Commit(context.Background())
	require.NoError(t, err)

	_, rows := scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{29, 43}, rowIDs(rows))

	// the same delete scoped to a's partition removes the row
	writeRowFile(t, fs, "mem://wh/tbl/data/eq-a.avro", deleteSchema,
		[]*iceberg.Record{iceberg.RecordOf("a")})
	eqMatching, err := iceberg.NewEqualityDeleteFileBuilder("mem://wh/tbl/data/eq-a.avro", iceberg.AvroFile, []int{2}).
		WithRecordCount(1).
		WithPartition(1, map[int]any{1000: bucketOf("a")}).
		Build()
	require.NoError(t, err)

	tbl, err = tbl.NewRowDelta().AddDeletes(eqMatching).Commit(context.Background())
	require.NoError(t, err)

	_, rows = scanRows(t, tbl.Scan())
	assert.Equal(t, []int64{43}, rowIDs(rows))
}

func TestScanMultipleDataFilesOrdered(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	rows := baseRows()
	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", rows[:3]))
	require.NoError(t, err)
	tbl, err = tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-1.avro", rows[3:]))
	require.NoError(t, err)

	// results come back in commit order regardless of worker scheduling
	_, got := scanRows(t, tbl.Scan(table.WithMaxConcurrency(2)))
	assert.Equal(t, baseIDs, rowIDs(got))
}

func TestScanMissingDataFile(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	df, err := iceberg.NewDataFileBuilder("mem://wh/tbl/data/ghost.avro", iceberg.AvroFile).
		WithRecordCount(7).
		Build()
	require.NoError(t, err)

	tbl, err = tbl.Append(context.Background(), df)
	require.NoError(t, err)

	_, rows, err := tbl.Scan().Rows(context.Background())
	require.NoError(t, err)

	var scanErr error
	for _, err := range rows {
		if err != nil {
			scanErr = err

			break
		}
	}
	assert.ErrorIs(t, scanErr, iceberg.ErrIOFailure)
}

func TestSchemaEvolutionNullEqualityDelete(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	evolved := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
		iceberg.NestedField{ID: 2, Name: "data", Type: iceberg.PrimitiveTypes.String, Required: false},
		iceberg.NestedField{ID: 3, Name: "category", Type: iceberg.PrimitiveTypes.String, Required: false},
	)
	tbl2, err := tbl.AddSchema(evolved)
	require.NoError(t, err)

	// a snapshot is read under the schema it was committed with, so the
	// new column becomes visible with the first commit after evolution
	eqMiss := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-miss.avro", evolved, []int{3},
		[]*iceberg.Record{iceberg.RecordOf("archived")})
	tbl3, err := tbl2.NewRowDelta().AddDeletes(eqMiss).Commit(context.Background())
	require.NoError(t, err)

	// rows from the old file read category as NULL, and a non-null
	// delete key matches none of them
	sc, rows := scanRows(t, tbl3.Scan(table.WithSelectedFields("category")))
	require.Equal(t, 1, sc.NumFields())
	require.Len(t, rows, len(baseIDs))
	for _, row := range rows {
		assert.Nil(t, row.Get(0))
	}

	// an equality delete keyed on NULL category matches every old row
	eqNull := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-null.avro", evolved, []int{3},
		[]*iceberg.Record{iceberg.RecordOf(nil)})
	tbl4, err := tbl2.NewRowDelta().AddDeletes(eqNull).Commit(context.Background())
	require.NoError(t, err)

	_, rows = scanRows(t, tbl4.Scan())
	assert.Empty(t, rows)
}

func TestSchemaEvolutionRename(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	tbl, err := tbl.Append(context.Background(),
		dataFile(t, fs, "mem://wh/tbl/data/part-0.avro", baseRows()))
	require.NoError(t, err)

	// field 2 keeps its id and type but changes name
	renamed := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
		iceberg.NestedField{ID: 2, Name: "info", Type: iceberg.PrimitiveTypes.String, Required: false},
	)
	tbl2, err := tbl.AddSchema(renamed)
	require.NoError(t, err)

	// an equality delete on the renamed column still resolves the
	// pre-rename file's values through the field-id
	eq := eqDeleteFile(t, fs, "mem://wh/tbl/data/eq-0.avro", renamed, []int{2},
		[]*iceberg.Record{iceberg.RecordOf("a")})
	tbl3, err := tbl2.NewRowDelta().AddDeletes(eq).Commit(context.Background())
	require.NoError(t, err)

	sc, rows := scanRows(t, tbl3.Scan(table.WithSelectedFields("info")))
	require.Equal(t, 1, sc.NumFields())

	values := make([]string, len(rows))
	for i, row := range rows {
		require.NotNil(t, row.Get(0))
		values[i] = row.Get(0).(string)
	}
	assert.Equal(t, []string{"b", "c", "d", "e", "f", "g"}, values)
}

func TestAddSchemaValidation(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	_, err := tbl.AddSchema(metaTestSchema)
	assert.ErrorIs(t, err, table.ErrInvalidOperation)

	incompatible := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
		iceberg.NestedField{ID: 2, Name: "data", Type: iceberg.PrimitiveTypes.String, Required: true},
	)
	_, err = tbl.AddSchema(incompatible)
	assert.ErrorIs(t, err, iceberg.ErrSchemaMismatch)
}

func TestRowDeltaValidation(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	_, err := tbl.NewRowDelta().Commit(context.Background())
	assert.ErrorIs(t, err, table.ErrInvalidOperation)

	pos, err := iceberg.NewPositionDeleteFileBuilder("mem://wh/tbl/data/pos.avro", iceberg.AvroFile).
		WithRecordCount(1).
		Build()
	require.NoError(t, err)
	_, err = tbl.NewRowDelta().AddRows(pos).Commit(context.Background())
	assert.ErrorIs(t, err, table.ErrInvalidOperation)

	df, err := iceberg.NewDataFileBuilder("mem://wh/tbl/data/d.avro", iceberg.AvroFile).
		WithRecordCount(1).
		Build()
	require.NoError(t, err)
	_, err = tbl.NewRowDelta().AddDeletes(df).Commit(context.Background())
	assert.ErrorIs(t, err, table.ErrInvalidOperation)

	// equality columns must exist in the table schema at stage time
	eq, err := iceberg.NewEqualityDeleteFileBuilder("mem://wh/tbl/data/eq.avro", iceberg.AvroFile, []int{42}).
		WithRecordCount(1).
		Build()
	require.NoError(t, err)
	_, err = tbl.NewRowDelta().AddDeletes(eq).Commit(context.Background())
	assert.ErrorIs(t, err, iceberg.ErrSchemaMismatch)

	// files must reference a known partition spec
	unknownSpec, err := iceberg.NewDataFileBuilder("mem://wh/tbl/data/p.avro", iceberg.AvroFile).
		WithRecordCount(1).
		WithPartition(9, map[int]any{1000: int32(1)}).
		Build()
	require.NoError(t, err)
	_, err = tbl.NewRowDelta().AddRows(unknownSpec).Commit(context.Background())
	assert.ErrorIs(t, err, table.ErrInvalidOperation)
}

func TestPlanFilesPairsDeletes(t *testing.T) {
	fs := io.NewInMemoryFS()
	tbl := newTestTable(t, fs, *iceberg.UnpartitionedSpec)

	const dataPath = "mem://wh/tbl/data/part-0.avro"
	tbl, err := tbl.Append(context.Background(), dataFile(t, fs, dataPath, baseRows()))
	require.NoError(t, err)

	pos := posDeleteFile(t, fs, "mem://wh/tbl/data/pos-0.avro", dataPath, []int64{0})
	tbl, err = tbl.NewRowDelta().AddDeletes(pos).Commit(context.Background())
	require.NoError(t, err)

	tasks, err := tbl.Scan().PlanFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, dataPath, tasks[0].File.FilePath())
	require.Len(t, tasks[0].DeleteFiles, 1)
	assert.Equal(t, iceberg.EntryContentPosDeletes, tasks[0].DeleteFiles[0].ContentType())
}
