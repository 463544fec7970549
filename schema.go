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
	"slices"
	"strings"
	"sync"
)

// NestedField describes a single column in a schema. The ID is the
// stable identity of the column: names may change across schema
// versions, field-ids never do.
type NestedField struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Required bool   `json:"required"`
	Doc      string `json:"doc,omitempty"`
}

func (n NestedField) String() string {
	req := "optional"
	if n.Required {
		req = "required"
	}

	return fmt.Sprintf("%d: %s: %s %s", n.ID, n.Name, req, n.Type)
}

func (n NestedField) Equals(other NestedField) bool {
	return n.ID == other.ID && n.Name == other.Name &&
		n.Required == other.Required && n.Type.Equals(other.Type)
}

func (n NestedField) MarshalJSON() ([]byte, error) {
	type Alias NestedField

	return json.Marshal(struct {
		Alias
		Type string `json:"type"`
	}{Alias: Alias(n), Type: n.Type.Type()})
}

func (n *NestedField) UnmarshalJSON(b []byte) error {
	type Alias NestedField
	aux := struct {
		TypeName string `json:"type"`
		*Alias
	}{Alias: (*Alias)(n)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	typ, err := TypeFromString(aux.TypeName)
	if err != nil {
		return err
	}
	n.Type = typ

	return nil
}

// Schema is an ordered list of fields, identified by a schema id.
// Lookup structures are built lazily and shared, so a *Schema is safe
// for concurrent readers once constructed.
type Schema struct {
	ID int `json:"schema-id"`

	fields []NestedField

	once      sync.Once
	idToField map[int]NestedField
	idToPos   map[int]int
	nameToID  map[string]int
}

// NewSchema constructs a new schema with the provided fields. Field ids
// must be unique; this is validated lazily by the lookup index.
func NewSchema(id int, fields ...NestedField) *Schema {
	return &Schema{ID: id, fields: fields}
}

func (s *Schema) index() {
	s.once.Do(func() {
		s.idToField = make(map[int]NestedField, len(s.fields))
		s.idToPos = make(map[int]int, len(s.fields))
		s.nameToID = make(map[string]int, len(s.fields))
		for i, f := range s.fields {
			s.idToField[f.ID] = f
			s.idToPos[f.ID] = i
			s.nameToID[f.Name] = f.ID
		}
	})
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("table {")
	for _, f := range s.fields {
		b.WriteString("\n\t")
		b.WriteString(f.String())
	}
	b.WriteString("\n}")

	return b.String()
}

func (s *Schema) NumFields() int          { return len(s.fields) }
func (s *Schema) Field(i int) NestedField { return s.fields[i] }
func (s *Schema) Fields() []NestedField   { return slices.Clone(s.fields) }

func (s *Schema) FieldIDs() []int {
	ids := make([]int, len(s.fields))
	for i, f := range s.fields {
		ids[i] = f.ID
	}

	return ids
}

func (s *Schema) FindFieldByID(id int) (NestedField, bool) {
	s.index()
	f, ok := s.idToField[id]

	return f, ok
}

func (s *Schema) FindFieldByName(name string) (NestedField, bool) {
	s.index()
	if id, ok := s.nameToID[name]; ok {
		return s.idToField[id], true
	}

	return NestedField{}, false
}

func (s *Schema) FindFieldByNameCaseInsensitive(name string) (NestedField, bool) {
	for _, f := range s.fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}

	return NestedField{}, false
}

// FindColumnName returns the current name for a field-id.
func (s *Schema) FindColumnName(fieldID int) (string, bool) {
	if f, ok := s.FindFieldByID(fieldID); ok {
		return f.Name, true
	}

	return "", false
}

// FieldIndexByID returns the physical column position of a field-id in
// this schema, resolving delete schemas against evolved data files.
func (s *Schema) FieldIndexByID(id int) (int, bool) {
	s.index()
	pos, ok := s.idToPos[id]

	return pos, ok
}

func (s *Schema) HighestFieldID() int {
	id := 0
	for _, f := range s.fields {
		id = max(id, f.ID)
	}

	return id
}

// Select returns a new schema containing only the named columns, in the
// order given. A single "*" selects every column.
func (s *Schema) Select(caseSensitive bool, names ...string) (*Schema, error) {
	if slices.Contains(names, "*") {
		return s, nil
	}

	fields := make([]NestedField, 0, len(names))
	for _, name := range names {
		var (
			f  NestedField
			ok bool
		)
		if caseSensitive {
			f, ok = s.FindFieldByName(name)
		} else {
			f, ok = s.FindFieldByNameCaseInsensitive(name)
		}
		if !ok {
			return nil, fmt.Errorf("%w: could not find column %q in schema", ErrInvalidArgument, name)
		}
		fields = append(fields, f)
	}

	return NewSchema(s.ID, fields...), nil
}

// SelectByIDs returns a new schema containing the fields with the given
// ids, in the order given. Unknown ids are a schema mismatch: they
// reference columns this schema no longer carries.
func (s *Schema) SelectByIDs(ids ...int) (*Schema, error) {
	fields := make([]NestedField, 0, len(ids))
	for _, id := range ids {
		f, ok := s.FindFieldByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: field id %d not found in schema %d", ErrSchemaMismatch, id, s.ID)
		}
		fields = append(fields, f)
	}

	return NewSchema(s.ID, fields...), nil
}

// Equals compares the field lists, ignoring the schema ids.
func (s *Schema) Equals(other *Schema) bool {
	if other == nil {
		return false
	}
	if s == other {
		return true
	}

	return slices.EqualFunc(s.fields, other.fields, func(a, b NestedField) bool {
		return a.Equals(b)
	})
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string        `json:"type"`
		ID     int           `json:"schema-id"`
		Fields []NestedField `json:"fields"`
	}{Type: "struct", ID: s.ID, Fields: s.fields})
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	aux := struct {
		ID     int           `json:"schema-id"`
		Fields []NestedField `json:"fields"`
	}{}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	s.ID, s.fields = aux.ID, aux.Fields

	return nil
}

// CheckSchemaCompatible validates that next is a legal evolution of
// prev: a field-id keeps its type, and a required field may become
// optional but an optional field can never become required.
func CheckSchemaCompatible(prev, next *Schema) error {
	seen := make(map[int]bool, next.NumFields())
	for _, f := range next.Fields() {
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate field id %d", ErrInvalidSchema, f.ID)
		}
		seen[f.ID] = true

		old, ok := prev.FindFieldByID(f.ID)
		if !ok {
			continue
		}
		if !old.Type.Equals(f.Type) {
			return fmt.Errorf("%w: cannot change type of field %d (%s) from %s to %s",
				ErrInvalidSchema, f.ID, f.Name, old.Type, f.Type)
		}
		if f.Required && !old.Required {
			return fmt.Errorf("%w: cannot change field %d (%s) from optional to required",
				ErrInvalidSchema, f.ID, f.Name)
		}
	}

	return nil
}
