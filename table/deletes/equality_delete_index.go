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

package deletes

import (
	"fmt"
	"slices"

	"github.com/cjjnjust/incubator-iceberg"
)

// EqualityDeleteIndex holds the delete keys of equality delete files
// that share one equality field-id set. A data row is deleted when its
// values for those fields, taken in field-id order, equal a stored key.
// NULL is a comparable value here: a NULL key field matches only a NULL
// row value.
//
// The index is immutable once built and safe for concurrent readers.
// Callers resolve rows to keys themselves, typically through a
// StructProjection onto DeleteSchema.
type EqualityDeleteIndex struct {
	fieldIDs     []int
	deleteSchema *iceberg.Schema
	keys         *iceberg.StructLikeSet
}

// NewEqualityDeleteIndex creates an empty index for the given equality
// field-ids resolved against the schema the data files are read with.
// An id that does not resolve means the delete file references a column
// the current schema no longer has.
func NewEqualityDeleteIndex(readSchema *iceberg.Schema, fieldIDs []int) (*EqualityDeleteIndex, error) {
	if len(fieldIDs) == 0 {
		return nil, fmt.Errorf("%w: equality delete file without equality field ids",
			iceberg.ErrInvalidDeleteFile)
	}

	ids := slices.Clone(fieldIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	deleteSchema, err := readSchema.SelectByIDs(ids...)
	if err != nil {
		return nil, err
	}

	return &EqualityDeleteIndex{
		fieldIDs:     ids,
		deleteSchema: deleteSchema,
		keys:         iceberg.NewStructLikeSet(deleteSchema.NumFields()),
	}, nil
}

// FieldIDs returns the sorted equality field-ids this index matches on.
func (idx *EqualityDeleteIndex) FieldIDs() []int { return idx.fieldIDs }

// DeleteSchema is the projection of the read schema onto the equality
// fields, in sorted field-id order.
func (idx *EqualityDeleteIndex) DeleteSchema() *iceberg.Schema { return idx.deleteSchema }

// Add inserts a delete key given under DeleteSchema. The key is copied.
func (idx *EqualityDeleteIndex) Add(key iceberg.StructLike) {
	idx.keys.Add(key)
}

// Contains reports whether the key, given under DeleteSchema, matches a
// stored delete key.
func (idx *EqualityDeleteIndex) Contains(key iceberg.StructLike) bool {
	return idx.keys.Contains(key)
}

func (idx *EqualityDeleteIndex) Len() int { return idx.keys.Len() }

// Keys returns the stored delete keys in unspecified order.
func (idx *EqualityDeleteIndex) Keys() []*iceberg.Record { return idx.keys.Members() }
