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
	"context"
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/io"
)

// eqGroup is one equality field-id set applying to the data file, with
// the merged keys of every delete file in the set and a projection from
// the read schema onto the delete schema. The projection is mutable
// scratch state, which keeps the filter single-goroutine.
type eqGroup struct {
	index *EqualityDeleteIndex
	proj  *iceberg.StructProjection
}

// DeleteFilter decides, for one data file, whether a row is deleted.
// It merges the positions of every applicable position delete file
// into one sorted slice and groups equality delete files by their
// field-id sets. The filter is a pure predicate over (position, row);
// it is not safe for concurrent use because the equality projections
// are reused across calls.
type DeleteFilter struct {
	dataFilePath string
	positions    []int64
	eqGroups     []eqGroup
}

// NewDeleteFilter builds the filter for dataFile from the delete files
// the planner matched to it. Position deletes targeting other data
// files are dropped here; equality delete files are indexed through
// the shared cache so each file is parsed once per scan.
//
// When the data file's row count is known, any deleted position at or
// past it makes the delete file invalid.
func NewDeleteFilter(ctx context.Context, fs io.IO, cache *IndexCache, dataFile iceberg.DataFile, deleteFiles []iceberg.DataFile, readSchema *iceberg.Schema) (*DeleteFilter, error) {
	f := &DeleteFilter{dataFilePath: dataFile.FilePath()}

	eqByKey := make(map[string][]iceberg.DataFile)
	eqKeys := make([]string, 0)

	for _, df := range deleteFiles {
		switch df.ContentType() {
		case iceberg.EntryContentPosDeletes:
			idx, err := cache.PositionIndex(ctx, fs, df)
			if err != nil {
				return nil, err
			}
			f.positions = append(f.positions, idx.Get(dataFile.FilePath())...)
		case iceberg.EntryContentEqDeletes:
			key := eqGroupKey(df.EqualityFieldIDs())
			if _, ok := eqByKey[key]; !ok {
				eqKeys = append(eqKeys, key)
			}
			eqByKey[key] = append(eqByKey[key], df)
		default:
			return nil, fmt.Errorf("%w: '%s' is not a delete file",
				iceberg.ErrInvalidDeleteFile, df.FilePath())
		}
	}

	sort.Slice(f.positions, func(i, j int) bool { return f.positions[i] < f.positions[j] })
	f.positions = dedupeSorted(f.positions)

	if n := dataFile.Count(); n > 0 && len(f.positions) > 0 {
		if last := f.positions[len(f.positions)-1]; last >= n {
			return nil, fmt.Errorf("%w: position %d out of range for '%s' with %d rows",
				iceberg.ErrInvalidDeleteFile, last, dataFile.FilePath(), n)
		}
	}

	// deterministic group order keeps evaluation stable across runs
	for _, key := range eqKeys {
		group := eqByKey[key]
		merged, err := cache.EqualityIndex(ctx, fs, group[0], readSchema)
		if err != nil {
			return nil, err
		}

		if len(group) > 1 {
			// cached indexes are shared; merging copies into a fresh one
			combined, err := NewEqualityDeleteIndex(readSchema, merged.FieldIDs())
			if err != nil {
				return nil, err
			}
			for _, df := range group {
				idx, err := cache.EqualityIndex(ctx, fs, df, readSchema)
				if err != nil {
					return nil, err
				}
				for _, k := range idx.Keys() {
					combined.Add(k)
				}
			}
			merged = combined
		}

		proj, err := iceberg.NewStructProjection(readSchema, merged.DeleteSchema())
		if err != nil {
			return nil, err
		}

		f.eqGroups = append(f.eqGroups, eqGroup{index: merged, proj: proj})
	}

	return f, nil
}

func eqGroupKey(fieldIDs []int) string {
	ids := make([]int, len(fieldIDs))
	copy(ids, fieldIDs)
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return strings.Join(parts, ",")
}

func dedupeSorted(positions []int64) []int64 {
	out := positions[:0]
	for i, pos := range positions {
		if i == 0 || pos != positions[i-1] {
			out = append(out, pos)
		}
	}

	return out
}

// HasDeletes reports whether any delete could apply to the data file.
func (f *DeleteFilter) HasDeletes() bool {
	return len(f.positions) > 0 || len(f.eqGroups) > 0
}

// DeletedPositions returns the sorted merged positions deleted from
// the data file.
func (f *DeleteFilter) DeletedPositions() []int64 { return f.positions }

// Deleted reports whether the row at the given file position is
// deleted, by position or by matching any equality delete key.
func (f *DeleteFilter) Deleted(pos int64, row iceberg.StructLike) bool {
	i := sort.Search(len(f.positions), func(i int) bool { return f.positions[i] >= pos })
	if i < len(f.positions) && f.positions[i] == pos {
		return true
	}

	for _, g := range f.eqGroups {
		if g.index.Contains(g.proj.Wrap(row)) {
			return true
		}
	}

	return false
}

// Filter wraps a row iterator, assigning file positions in iteration
// order starting at zero and yielding only rows that survive the
// deletes. The input must iterate the data file from the beginning.
func (f *DeleteFilter) Filter(rows iter.Seq2[iceberg.StructLike, error]) iter.Seq2[iceberg.StructLike, error] {
	if !f.HasDeletes() {
		return rows
	}

	return func(yield func(iceberg.StructLike, error) bool) {
		var pos int64
		for row, err := range rows {
			if err != nil {
				yield(nil, err)

				return
			}

			if !f.Deleted(pos, row) && !yield(row, nil) {
				return
			}
			pos++
		}
	}
}
