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
	"fmt"
	"hash/maphash"
	"strings"
)

// StructLike represents a single row independent of the physical
// encoding it was decoded from. Field access is positional; field-id
// to position resolution is the schema's job.
type StructLike interface {
	// Size returns the number of columns in this row.
	Size() int
	// Get returns the value in the requested column,
	// will panic if pos is out of bounds.
	Get(pos int) any
	// Set changes the value in the column indicated,
	// will panic if pos is out of bounds.
	Set(pos int, val any)
}

// Record is the generic boxed-slice implementation of StructLike that
// the row sources produce.
type Record struct {
	vals []any
}

// NewRecord creates an empty record with the given number of columns.
func NewRecord(size int) *Record {
	return &Record{vals: make([]any, size)}
}

// RecordOf wraps the given values as a record without copying.
func RecordOf(vals ...any) *Record {
	return &Record{vals: vals}
}

func (r *Record) Size() int            { return len(r.vals) }
func (r *Record) Get(pos int) any      { return r.vals[pos] }
func (r *Record) Set(pos int, val any) { r.vals[pos] = val }

func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range r.vals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", v)
	}
	b.WriteByte(')')

	return b.String()
}

// CopyStruct materializes any StructLike into a standalone Record.
// Rows handed out by readers are transient; anything retained beyond
// the current iteration must be copied.
func CopyStruct(s StructLike) *Record {
	out := NewRecord(s.Size())
	for i := 0; i < s.Size(); i++ {
		out.vals[i] = s.Get(i)
	}

	return out
}

// StructProjection is a positional view of a wrapped row re-mapped
// through field-ids. It performs no copies: Get forwards to the
// underlying row using positions resolved once at construction.
type StructProjection struct {
	positions []int
	wrapped   StructLike
}

// NewStructProjection resolves each field of the projected schema
// against the struct schema by field-id. A projected field whose id is
// not present in structSchema is a schema mismatch: the column was
// dropped or never existed in the file being read.
func NewStructProjection(structSchema, projectedSchema *Schema) (*StructProjection, error) {
	positions := make([]int, projectedSchema.NumFields())
	for i, f := range projectedSchema.Fields() {
		pos, ok := structSchema.FieldIndexByID(f.ID)
		if !ok {
			return nil, fmt.Errorf("%w: field %d (%s) not present in struct schema",
				ErrSchemaMismatch, f.ID, f.Name)
		}
		positions[i] = pos
	}

	return &StructProjection{positions: positions}, nil
}

// Wrap points this projection at a new underlying row and returns the
// projection itself for chained use. The returned view shares the
// projection's state, so copy the row before retaining it.
func (p *StructProjection) Wrap(s StructLike) *StructProjection {
	p.wrapped = s

	return p
}

func (p *StructProjection) Size() int       { return len(p.positions) }
func (p *StructProjection) Get(pos int) any { return p.wrapped.Get(p.positions[pos]) }
func (p *StructProjection) Set(int, any) {
	panic("cannot set a value through a struct projection")
}

var structSeed = maphash.MakeSeed()

// StructLikeSet is a set of rows using the canonical structural
// equality contract: an ordered tuple of typed field values where NULL
// is a distinct comparable value equal only to NULL. Rows added to the
// set are copied, so transient reader rows are safe to insert.
type StructLikeSet struct {
	width int
	elems map[uint64][]*Record
	size  int
}

// NewStructLikeSet creates a set for rows with the given column count.
func NewStructLikeSet(width int) *StructLikeSet {
	return &StructLikeSet{width: width, elems: make(map[uint64][]*Record)}
}

// hash panics on values outside the literal encoding: every value in
// the set comes from a reader that only produces encodable types, so a
// failure here is a bug, and dropping the row would silently
// under-delete.
func (s *StructLikeSet) hash(row StructLike) uint64 {
	var b strings.Builder
	for i := 0; i < row.Size(); i++ {
		enc, err := EncodeLiteral(row.Get(i))
		if err != nil {
			panic(fmt.Sprintf("unencodable value %v (%T) in struct-like set", row.Get(i), row.Get(i)))
		}
		b.WriteString(enc)
		b.WriteByte(0x1f)
	}

	return maphash.String(structSeed, b.String())
}

func (s *StructLikeSet) equal(a, b StructLike) bool {
	if a.Size() != b.Size() {
		return false
	}
	for i := 0; i < a.Size(); i++ {
		if !LiteralsEqual(a.Get(i), b.Get(i)) {
			return false
		}
	}

	return true
}

// Add inserts a copy of the row. Inserting an equal row twice is a
// no-op.
func (s *StructLikeSet) Add(row StructLike) {
	h := s.hash(row)
	for _, e := range s.elems[h] {
		if s.equal(e, row) {
			return
		}
	}
	s.elems[h] = append(s.elems[h], CopyStruct(row))
	s.size++
}

func (s *StructLikeSet) Contains(row StructLike) bool {
	h := s.hash(row)
	for _, e := range s.elems[h] {
		if s.equal(e, row) {
			return true
		}
	}

	return false
}

func (s *StructLikeSet) Len() int { return s.size }

// Members returns the stored rows in unspecified order.
func (s *StructLikeSet) Members() []*Record {
	out := make([]*Record, 0, s.size)
	for _, bucket := range s.elems {
		out = append(out, bucket...)
	}

	return out
}

// Equals reports whether both sets hold the same rows.
func (s *StructLikeSet) Equals(other *StructLikeSet) bool {
	if s.size != other.size {
		return false
	}
	for _, m := range s.Members() {
		if !other.Contains(m) {
			return false
		}
	}

	return true
}
