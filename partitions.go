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

package iceberg

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

const (
	PartitionDataIDStart   = 1000
	InitialPartitionSpecID = 0
)

// UnpartitionedSpec is the default unpartitioned spec which can be used
// for comparisons or to just provide a convenience for referencing the
// same unpartitioned spec object.
var UnpartitionedSpec = &PartitionSpec{id: 0}

// PartitionField represents how one partition value is derived from the
// source column by transformation.
type PartitionField struct {
	// SourceID is the source column id of the table's schema
	SourceID int `json:"source-id"`
	// FieldID is the partition field id across all the table partition specs
	FieldID int `json:"field-id"`
	// Name is the name of the partition field itself
	Name string `json:"name"`
	// Transform is the transform used to produce the partition value
	Transform Transform `json:"transform"`
}

func (p *PartitionField) String() string {
	return fmt.Sprintf("%d: %s: %s(%d)", p.FieldID, p.Name, p.Transform, p.SourceID)
}

func (p PartitionField) MarshalJSON() ([]byte, error) {
	type Alias PartitionField

	return json.Marshal(struct {
		Alias
		Transform string `json:"transform"`
	}{Alias: Alias(p), Transform: p.Transform.String()})
}

func (p *PartitionField) UnmarshalJSON(b []byte) error {
	type Alias PartitionField
	aux := struct {
		TransformString string `json:"transform"`
		*Alias
	}{Alias: (*Alias)(p)}

	err := json.Unmarshal(b, &aux)
	if err != nil {
		return err
	}

	if p.Transform, err = ParseTransform(aux.TransformString); err != nil {
		return err
	}

	return nil
}

// PartitionSpec captures the transformation from table data to
// partition values.
type PartitionSpec struct {
	// any change to a PartitionSpec will produce a new spec id
	id     int
	fields []PartitionField
}

func NewPartitionSpec(fields ...PartitionField) PartitionSpec {
	return NewPartitionSpecID(InitialPartitionSpecID, fields...)
}

func NewPartitionSpecID(id int, fields ...PartitionField) PartitionSpec {
	return PartitionSpec{id: id, fields: fields}
}

func (ps *PartitionSpec) ID() int        { return ps.id }
func (ps *PartitionSpec) NumFields() int { return len(ps.fields) }

func (ps *PartitionSpec) IsUnpartitioned() bool {
	if len(ps.fields) == 0 {
		return true
	}
	for _, f := range ps.fields {
		if _, ok := f.Transform.(VoidTransform); !ok {
			return false
		}
	}

	return true
}

// Fields returns the partition fields in this spec.
func (ps *PartitionSpec) Fields() iter.Seq[PartitionField] {
	return slices.Values(ps.fields)
}

func (ps *PartitionSpec) Field(i int) PartitionField { return ps.fields[i] }

// CompatibleWith returns true if this partition spec is considered
// compatible with the passed in partition spec, meaning equivalent
// field lists regardless of the spec id.
func (ps *PartitionSpec) CompatibleWith(other *PartitionSpec) bool {
	if ps == other {
		return true
	}

	if len(ps.fields) != len(other.fields) {
		return false
	}

	return slices.EqualFunc(ps.fields, other.fields, func(left, right PartitionField) bool {
		return left.SourceID == right.SourceID && left.Name == right.Name &&
			left.Transform == right.Transform
	})
}

// Equals returns true iff the field lists are the same AND the spec id
// is the same between this partition spec and the provided one.
func (ps PartitionSpec) Equals(other PartitionSpec) bool {
	return ps.id == other.id && slices.EqualFunc(ps.fields, other.fields,
		func(left, right PartitionField) bool {
			return left.SourceID == right.SourceID && left.FieldID == right.FieldID &&
				left.Name == right.Name && left.Transform == right.Transform
		})
}

func (ps PartitionSpec) String() string {
	out := "["
	for i, f := range ps.fields {
		if i > 0 {
			out += ", "
		}
		out += "\n\t" + f.String()
	}
	if len(ps.fields) > 0 {
		out += "\n"
	}

	return out + "]"
}

func (ps PartitionSpec) MarshalJSON() ([]byte, error) {
	if ps.fields == nil {
		ps.fields = []PartitionField{}
	}

	return json.Marshal(struct {
		ID     int              `json:"spec-id"`
		Fields []PartitionField `json:"fields"`
	}{ps.id, ps.fields})
}

func (ps *PartitionSpec) UnmarshalJSON(b []byte) error {
	aux := struct {
		ID     int              `json:"spec-id"`
		Fields []PartitionField `json:"fields"`
	}{ID: ps.id, Fields: ps.fields}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	ps.id, ps.fields = aux.ID, aux.Fields

	return nil
}

// PartitionValues evaluates this spec against a row under the given
// schema, returning a mapping of partition field id to transformed
// partition value.
func (ps *PartitionSpec) PartitionValues(schema *Schema, row StructLike) (map[int]any, error) {
	out := make(map[int]any, len(ps.fields))
	for _, f := range ps.fields {
		pos, ok := schema.FieldIndexByID(f.SourceID)
		if !ok {
			return nil, fmt.Errorf("%w: partition source field %d not in schema %d",
				ErrSchemaMismatch, f.SourceID, schema.ID)
		}

		v, err := f.Transform.Apply(row.Get(pos))
		if err != nil {
			return nil, err
		}
		out[f.FieldID] = v
	}

	return out, nil
}

// PartitionValuesEqual compares two partition value maps under this
// spec using the canonical literal equality contract.
func (ps *PartitionSpec) PartitionValuesEqual(a, b map[int]any) bool {
	for _, f := range ps.fields {
		if !LiteralsEqual(a[f.FieldID], b[f.FieldID]) {
			return false
		}
	}

	return true
}
