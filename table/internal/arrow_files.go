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

package internal

import (
	"fmt"
	stdio "io"
	"iter"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cjjnjust/incubator-iceberg"
)

// ArrowFieldIDKey is the field metadata key carrying the schema
// field-id on arrow fields, matching the parquet convention.
const ArrowFieldIDKey = "PARQUET:field_id"

func toArrowType(t iceberg.Type) (arrow.DataType, error) {
	switch t.(type) {
	case iceberg.BooleanType:
		return arrow.FixedWidthTypes.Boolean, nil
	case iceberg.Int32Type:
		return arrow.PrimitiveTypes.Int32, nil
	case iceberg.Int64Type:
		return arrow.PrimitiveTypes.Int64, nil
	case iceberg.Float32Type:
		return arrow.PrimitiveTypes.Float32, nil
	case iceberg.Float64Type:
		return arrow.PrimitiveTypes.Float64, nil
	case iceberg.DateType:
		return arrow.FixedWidthTypes.Date32, nil
	case iceberg.StringType:
		return arrow.BinaryTypes.String, nil
	case iceberg.BinaryType:
		return arrow.BinaryTypes.Binary, nil
	}

	return nil, fmt.Errorf("%w: type %s has no arrow representation", iceberg.ErrUnsupportedFormat, t)
}

// ToArrowSchema converts a schema to its arrow equivalent, carrying the
// field-ids in the field metadata.
func ToArrowSchema(sc *iceberg.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, sc.NumFields())
	for _, f := range sc.Fields() {
		dt, err := toArrowType(f.Type)
		if err != nil {
			return nil, err
		}

		fields = append(fields, arrow.Field{
			Name:     f.Name,
			Type:     dt,
			Nullable: !f.Required,
			Metadata: arrow.NewMetadata([]string{ArrowFieldIDKey}, []string{strconv.Itoa(f.ID)}),
		})
	}

	return arrow.NewSchema(fields, nil), nil
}

type arrowRowReader struct {
	f    stdio.Closer
	path string
	sc   *iceberg.Schema
	rdr  *ipc.Reader
}

func newArrowRowReader(f stdio.ReadCloser, path string, sc *iceberg.Schema) (RowReader, error) {
	rdr, err := ipc.NewReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("%w: reading arrow stream of '%s': %s",
			iceberg.ErrDataCorruption, path, err.Error())
	}

	return &arrowRowReader{f: f, path: path, sc: sc, rdr: rdr}, nil
}

func (r *arrowRowReader) Schema() *iceberg.Schema { return r.sc }

func (r *arrowRowReader) Close() error {
	r.rdr.Release()

	return r.f.Close()
}

func columnValue(col arrow.Array, i int) (any, error) {
	if col.IsNull(i) {
		return nil, nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(i), nil
	case *array.Int32:
		return arr.Value(i), nil
	case *array.Int64:
		return arr.Value(i), nil
	case *array.Float32:
		return arr.Value(i), nil
	case *array.Float64:
		return arr.Value(i), nil
	case *array.Date32:
		return int32(arr.Value(i)), nil
	case *array.String:
		return arr.Value(i), nil
	case *array.Binary:
		return arr.Value(i), nil
	}

	return nil, fmt.Errorf("%w: unhandled arrow array type %s",
		iceberg.ErrUnsupportedFormat, col.DataType())
}

func (r *arrowRowReader) Rows() iter.Seq2[iceberg.StructLike, error] {
	return func(yield func(iceberg.StructLike, error) bool) {
		// column positions resolved by field-id so that files written
		// with a different column order still read correctly
		colForField := make([]int, r.sc.NumFields())
		arrSchema := r.rdr.Schema()
		for i, f := range r.sc.Fields() {
			colForField[i] = -1
			for j, af := range arrSchema.Fields() {
				if id, ok := af.Metadata.GetValue(ArrowFieldIDKey); ok && id == strconv.Itoa(f.ID) {
					colForField[i] = j

					break
				}
			}
			if colForField[i] < 0 {
				yield(nil, fmt.Errorf("%w: field %d (%s) not present in '%s'",
					iceberg.ErrSchemaMismatch, f.ID, f.Name, r.path))

				return
			}
		}

		row := iceberg.NewRecord(r.sc.NumFields())
		for r.rdr.Next() {
			rec := r.rdr.Record()
			for i := 0; i < int(rec.NumRows()); i++ {
				for fieldPos, colPos := range colForField {
					v, err := columnValue(rec.Column(colPos), i)
					if err != nil {
						yield(nil, fmt.Errorf("%w in file '%s'", err, r.path))

						return
					}
					row.Set(fieldPos, v)
				}

				if !yield(row, nil) {
					return
				}
			}
		}

		if err := r.rdr.Err(); err != nil {
			yield(nil, fmt.Errorf("%w: reading '%s': %s",
				iceberg.ErrDataCorruption, r.path, err.Error()))
		}
	}
}

type arrowRowWriter struct {
	out  stdio.WriteCloser
	sc   *iceberg.Schema
	w    *ipc.Writer
	bldr *array.RecordBuilder
}

func newArrowRowWriter(out stdio.WriteCloser, sc *iceberg.Schema) (RowWriter, error) {
	arrSchema, err := ToArrowSchema(sc)
	if err != nil {
		out.Close()

		return nil, err
	}

	w := ipc.NewWriter(out, ipc.WithSchema(arrSchema), ipc.WithAllocator(memory.DefaultAllocator))

	return &arrowRowWriter{
		out:  out,
		sc:   sc,
		w:    w,
		bldr: array.NewRecordBuilder(memory.DefaultAllocator, arrSchema),
	}, nil
}

func appendValue(b array.Builder, t iceberg.Type, v any) error {
	if v == nil {
		b.AppendNull()

		return nil
	}

	switch bldr := b.(type) {
	case *array.BooleanBuilder:
		if val, ok := v.(bool); ok {
			bldr.Append(val)

			return nil
		}
	case *array.Int32Builder:
		if val, ok := v.(int32); ok {
			bldr.Append(val)

			return nil
		}
	case *array.Int64Builder:
		if val, ok := v.(int64); ok {
			bldr.Append(val)

			return nil
		}
	case *array.Float32Builder:
		if val, ok := v.(float32); ok {
			bldr.Append(val)

			return nil
		}
	case *array.Float64Builder:
		if val, ok := v.(float64); ok {
			bldr.Append(val)

			return nil
		}
	case *array.Date32Builder:
		if val, ok := v.(int32); ok {
			bldr.Append(arrow.Date32(val))

			return nil
		}
	case *array.StringBuilder:
		if val, ok := v.(string); ok {
			bldr.Append(val)

			return nil
		}
	case *array.BinaryBuilder:
		if val, ok := v.([]byte); ok {
			bldr.Append(val)

			return nil
		}
	}

	return fmt.Errorf("%w: value %v (%T) does not match column type %s",
		iceberg.ErrSchemaMismatch, v, v, t)
}

func (w *arrowRowWriter) Write(row iceberg.StructLike) error {
	if row.Size() != w.sc.NumFields() {
		return fmt.Errorf("%w: row has %d columns, schema has %d",
			iceberg.ErrSchemaMismatch, row.Size(), w.sc.NumFields())
	}

	for i, f := range w.sc.Fields() {
		if err := appendValue(w.bldr.Field(i), f.Type, row.Get(i)); err != nil {
			return fmt.Errorf("column %s: %w", f.Name, err)
		}
	}

	return nil
}

func (w *arrowRowWriter) flush() error {
	rec := w.bldr.NewRecordBatch()
	defer rec.Release()

	if rec.NumRows() == 0 {
		return nil
	}

	return w.w.Write(rec)
}

func (w *arrowRowWriter) Close() error {
	defer w.bldr.Release()

	if err := w.flush(); err != nil {
		w.w.Close()
		w.out.Close()

		return err
	}

	if err := w.w.Close(); err != nil {
		w.out.Close()

		return err
	}

	return w.out.Close()
}
