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

// Package deletes implements the read-side handling of delete files:
// indexes over position and equality deletes and the per-file filter
// that reconciles them against data rows during a scan.
package deletes

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"

	"github.com/cjjnjust/incubator-iceberg"
)

// PositionDeleteIndex is an immutable index over position delete
// records, answering whether a given row ordinal of a given data file
// is deleted. Implementations are safe for concurrent readers.
type PositionDeleteIndex interface {
	// IsDeleted returns true if the position is marked deleted in the
	// given file.
	IsDeleted(filePath string, position int64) bool
	// Get returns the sorted deleted positions for the given file path,
	// or nil if the file has none.
	Get(filePath string) []int64
	// Files iterates the file paths that have position deletes.
	Files() iter.Seq[string]
	// CountForFile returns the number of deleted positions recorded for
	// the file.
	CountForFile(filePath string) int
	// Count returns the total number of positions across all files.
	Count() int
	IsEmpty() bool
}

// sortedPositionDeleteIndex keeps per-file sorted position slices and
// answers lookups by binary search. Sparse deletes stay cheap and Get
// returns the backing slice without copying.
type sortedPositionDeleteIndex struct {
	byPath map[string][]int64
	count  int
}

func (idx *sortedPositionDeleteIndex) IsDeleted(filePath string, position int64) bool {
	positions := idx.byPath[filePath]
	i := sort.Search(len(positions), func(i int) bool { return positions[i] >= position })

	return i < len(positions) && positions[i] == position
}

func (idx *sortedPositionDeleteIndex) Get(filePath string) []int64 {
	return idx.byPath[filePath]
}

func (idx *sortedPositionDeleteIndex) Files() iter.Seq[string] {
	return maps.Keys(idx.byPath)
}

func (idx *sortedPositionDeleteIndex) CountForFile(filePath string) int {
	return len(idx.byPath[filePath])
}

func (idx *sortedPositionDeleteIndex) Count() int { return idx.count }

func (idx *sortedPositionDeleteIndex) IsEmpty() bool { return idx.count == 0 }

// PositionDeleteIndexBuilder accumulates position deletes in any order
// and builds an immutable index. Duplicate positions are recorded once,
// so re-adding the same delete is idempotent.
type PositionDeleteIndexBuilder struct {
	byPath map[string][]int64
	err    error
}

func NewPositionDeleteIndexBuilder() *PositionDeleteIndexBuilder {
	return &PositionDeleteIndexBuilder{byPath: make(map[string][]int64)}
}

// Add records a deleted position. A negative position poisons the
// builder and surfaces from Build.
func (b *PositionDeleteIndexBuilder) Add(filePath string, position int64) *PositionDeleteIndexBuilder {
	if b.err != nil {
		return b
	}
	if position < 0 {
		b.err = fmt.Errorf("%w: negative position %d for file '%s'",
			iceberg.ErrInvalidDeleteFile, position, filePath)

		return b
	}
	b.byPath[filePath] = append(b.byPath[filePath], position)

	return b
}

// AddAll records multiple deleted positions for one file.
func (b *PositionDeleteIndexBuilder) AddAll(filePath string, positions []int64) *PositionDeleteIndexBuilder {
	for _, pos := range positions {
		b.Add(filePath, pos)
	}

	return b
}

// Build sorts and dedupes the accumulated positions into an immutable
// index.
func (b *PositionDeleteIndexBuilder) Build() (PositionDeleteIndex, error) {
	if b.err != nil {
		return nil, b.err
	}

	idx := &sortedPositionDeleteIndex{byPath: make(map[string][]int64, len(b.byPath))}
	for path, positions := range b.byPath {
		slices.Sort(positions)
		positions = slices.Compact(positions)
		idx.byPath[path] = positions
		idx.count += len(positions)
	}

	return idx, nil
}
