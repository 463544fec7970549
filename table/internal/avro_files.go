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
	"encoding/json"
	"fmt"
	stdio "io"
	"iter"

	"github.com/hamba/avro/v2/ocf"

	"github.com/cjjnjust/incubator-iceberg"
)

// avroTypeName maps a schema type to the avro primitive used to store
// it. Dates are stored as plain day-count ints so values round-trip as
// integers rather than timestamps.
func avroTypeName(t iceberg.Type) (string, error) {
	switch t.(type) {
	case iceberg.BooleanType:
		return "boolean", nil
	case iceberg.Int32Type, iceberg.DateType:
		return "int", nil
	case iceberg.Int64Type:
		return "long", nil
	case iceberg.Float32Type:
		return "float", nil
	case iceberg.Float64Type:
		return "double", nil
	case iceberg.StringType:
		return "string", nil
	case iceberg.BinaryType:
		return "bytes", nil
	}

	return "", fmt.Errorf("%w: type %s has no avro representation", iceberg.ErrUnsupportedFormat, t)
}

// avroSchemaFor builds the avro record schema JSON for a row file.
// Optional fields become nullable unions with a null default.
func avroSchemaFor(sc *iceberg.Schema) (string, error) {
	type avroField struct {
		Name    string `json:"name"`
		Type    any    `json:"type"`
		Default any    `json:"default,omitempty"`
		FieldID int    `json:"field-id"`
	}

	fields := make([]avroField, 0, sc.NumFields())
	for _, f := range sc.Fields() {
		name, err := avroTypeName(f.Type)
		if err != nil {
			return "", err
		}

		af := avroField{Name: f.Name, Type: name, FieldID: f.ID}
		if !f.Required {
			af.Type = []any{"null", name}
		}
		fields = append(fields, af)
	}

	raw, err := json.Marshal(struct {
		Type   string      `json:"type"`
		Name   string      `json:"name"`
		Fields []avroField `json:"fields"`
	}{Type: "record", Name: "row", Fields: fields})
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// unwrapUnion strips the single-entry map form some decoders use for
// union values, leaving the branch value itself.
func unwrapUnion(v any) any {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		for _, inner := range m {
			return inner
		}
	}

	return v
}

// coerceValue narrows a decoded avro value to the canonical Go type
// for the field's schema type.
func coerceValue(t iceberg.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t.(type) {
	case iceberg.BooleanType:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case iceberg.Int32Type, iceberg.DateType:
		switch n := v.(type) {
		case int:
			return int32(n), nil
		case int32:
			return n, nil
		case int64:
			return int32(n), nil
		}
	case iceberg.Int64Type:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case iceberg.Float32Type:
		switch n := v.(type) {
		case float32:
			return n, nil
		case float64:
			return float32(n), nil
		}
	case iceberg.Float64Type:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case iceberg.StringType:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case iceberg.BinaryType:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}

	return nil, fmt.Errorf("%w: value %v (%T) does not match column type %s",
		iceberg.ErrDataCorruption, v, v, t)
}

type avroRowReader struct {
	f    stdio.Closer
	path string
	sc   *iceberg.Schema
	dec  *ocf.Decoder

	// column name per read-schema field in the file's writer schema,
	// resolved by field-id so renames between write and read still hit
	colNames []string
	row      *iceberg.Record
}

func newAvroRowReader(f stdio.ReadCloser, path string, sc *iceberg.Schema) (RowReader, error) {
	dec, err := ocf.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading avro header of '%s': %s",
			iceberg.ErrDataCorruption, path, err.Error())
	}

	return &avroRowReader{
		f: f, path: path, sc: sc, dec: dec,
		colNames: writerColumnNames(dec.Metadata()["avro.schema"], sc),
		row:      iceberg.NewRecord(sc.NumFields()),
	}, nil
}

// writerColumnNames maps each read-schema field to its name in the
// file's writer schema, matching on the field-id attribute the writer
// embeds. Fields the writer schema does not carry (or files written
// without field-ids) keep the read-schema name.
func writerColumnNames(writerSchema []byte, sc *iceberg.Schema) []string {
	var parsed struct {
		Fields []struct {
			Name    string `json:"name"`
			FieldID int    `json:"field-id"`
		} `json:"fields"`
	}

	byID := make(map[int]string)
	if json.Unmarshal(writerSchema, &parsed) == nil {
		for _, f := range parsed.Fields {
			if f.FieldID != 0 {
				byID[f.FieldID] = f.Name
			}
		}
	}

	names := make([]string, sc.NumFields())
	for i, f := range sc.Fields() {
		if name, ok := byID[f.ID]; ok {
			names[i] = name
		} else {
			names[i] = f.Name
		}
	}

	return names
}

func (r *avroRowReader) Schema() *iceberg.Schema { return r.sc }
func (r *avroRowReader) Close() error            { return r.f.Close() }

func (r *avroRowReader) Rows() iter.Seq2[iceberg.StructLike, error] {
	return func(yield func(iceberg.StructLike, error) bool) {
		fields := r.sc.Fields()
		for r.dec.HasNext() {
			var datum map[string]any
			if err := r.dec.Decode(&datum); err != nil {
				yield(nil, fmt.Errorf("%w: decoding row of '%s': %s",
					iceberg.ErrDataCorruption, r.path, err.Error()))

				return
			}

			for i, f := range fields {
				v, ok := datum[r.colNames[i]]
				if !ok && f.Required {
					yield(nil, fmt.Errorf("%w: required column %s missing in '%s'",
						iceberg.ErrDataCorruption, f.Name, r.path))

					return
				}

				coerced, err := coerceValue(f.Type, unwrapUnion(v))
				if err != nil {
					yield(nil, fmt.Errorf("%w in file '%s'", err, r.path))

					return
				}
				r.row.Set(i, coerced)
			}

			if !yield(r.row, nil) {
				return
			}
		}

		if err := r.dec.Error(); err != nil {
			yield(nil, fmt.Errorf("%w: reading '%s': %s",
				iceberg.ErrDataCorruption, r.path, err.Error()))
		}
	}
}

type avroRowWriter struct {
	out stdio.WriteCloser
	sc  *iceberg.Schema
	enc *ocf.Encoder
}

func newAvroRowWriter(out stdio.WriteCloser, sc *iceberg.Schema) (RowWriter, error) {
	schemaJSON, err := avroSchemaFor(sc)
	if err != nil {
		return nil, err
	}

	enc, err := ocf.NewEncoder(schemaJSON, out, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return nil, err
	}

	return &avroRowWriter{out: out, sc: sc, enc: enc}, nil
}

func (w *avroRowWriter) Write(row iceberg.StructLike) error {
	if row.Size() != w.sc.NumFields() {
		return fmt.Errorf("%w: row has %d columns, schema has %d",
			iceberg.ErrSchemaMismatch, row.Size(), w.sc.NumFields())
	}

	datum := make(map[string]any, w.sc.NumFields())
	for i, f := range w.sc.Fields() {
		v := row.Get(i)
		if v == nil && f.Required {
			return fmt.Errorf("%w: null value for required column %s",
				iceberg.ErrSchemaMismatch, f.Name)
		}
		datum[f.Name] = v
	}

	return w.enc.Encode(datum)
}

func (w *avroRowWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		w.out.Close()

		return err
	}

	return w.out.Close()
}
