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
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/io"
	"github.com/cjjnjust/incubator-iceberg/table/internal"
)

// IndexCache builds and shares delete file indexes across the scan
// tasks of one scan. A delete file referenced by many data files is
// parsed exactly once; concurrent requests for the same file coalesce
// on a singleflight group. Cached indexes are immutable.
type IndexCache struct {
	group singleflight.Group

	mu  sync.RWMutex
	pos map[string]PositionDeleteIndex
	eq  map[string]*EqualityDeleteIndex
}

func NewIndexCache() *IndexCache {
	return &IndexCache{
		pos: make(map[string]PositionDeleteIndex),
		eq:  make(map[string]*EqualityDeleteIndex),
	}
}

// PositionIndex returns the index over the given position delete file,
// reading and parsing it on first use.
func (c *IndexCache) PositionIndex(ctx context.Context, fs io.IO, file iceberg.DataFile) (PositionDeleteIndex, error) {
	if file.ContentType() != iceberg.EntryContentPosDeletes {
		return nil, fmt.Errorf("%w: '%s' is not a position delete file",
			iceberg.ErrInvalidDeleteFile, file.FilePath())
	}

	c.mu.RLock()
	idx, ok := c.pos[file.FilePath()]
	c.mu.RUnlock()
	if ok {
		return idx, nil
	}

	built, err, _ := c.group.Do("pos:"+file.FilePath(), func() (any, error) {
		c.mu.RLock()
		idx, ok := c.pos[file.FilePath()]
		c.mu.RUnlock()
		if ok {
			return idx, nil
		}

		idx, err := readPositionDeletes(ctx, fs, file)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pos[file.FilePath()] = idx
		c.mu.Unlock()

		return idx, nil
	})
	if err != nil {
		return nil, err
	}

	return built.(PositionDeleteIndex), nil
}

// EqualityIndex returns the key index of the given equality delete
// file resolved against the schema in use, reading and parsing the
// file on first use. The schema id participates in the cache key since
// key resolution depends on it.
func (c *IndexCache) EqualityIndex(ctx context.Context, fs io.IO, file iceberg.DataFile, readSchema *iceberg.Schema) (*EqualityDeleteIndex, error) {
	if file.ContentType() != iceberg.EntryContentEqDeletes {
		return nil, fmt.Errorf("%w: '%s' is not an equality delete file",
			iceberg.ErrInvalidDeleteFile, file.FilePath())
	}

	key := fmt.Sprintf("eq:%s#%d", file.FilePath(), readSchema.ID)

	c.mu.RLock()
	idx, ok := c.eq[key]
	c.mu.RUnlock()
	if ok {
		return idx, nil
	}

	built, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		idx, ok := c.eq[key]
		c.mu.RUnlock()
		if ok {
			return idx, nil
		}

		idx, err := readEqualityDeletes(ctx, fs, file, readSchema)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.eq[key] = idx
		c.mu.Unlock()

		return idx, nil
	})
	if err != nil {
		return nil, err
	}

	return built.(*EqualityDeleteIndex), nil
}

// readPositionDeletes parses a position delete file into an index.
// Rows are (file_path, pos) pairs in any order.
func readPositionDeletes(ctx context.Context, fs io.IO, file iceberg.DataFile) (idx PositionDeleteIndex, err error) {
	rdr, err := internal.OpenRows(ctx, fs, file.FilePath(), file.FileFormat(), iceberg.PositionalDeleteSchema)
	if err != nil {
		return nil, err
	}
	defer func() { err = closeReader(rdr, err) }()

	bldr := NewPositionDeleteIndexBuilder()
	for row, rowErr := range rdr.Rows() {
		if rowErr != nil {
			return nil, rowErr
		}

		path, ok := row.Get(0).(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string file_path in '%s'",
				iceberg.ErrInvalidDeleteFile, file.FilePath())
		}
		pos, ok := row.Get(1).(int64)
		if !ok {
			return nil, fmt.Errorf("%w: non-long pos in '%s'",
				iceberg.ErrInvalidDeleteFile, file.FilePath())
		}

		bldr.Add(path, pos)
	}

	idx, err = bldr.Build()
	if err != nil {
		return nil, fmt.Errorf("%w in '%s'", err, file.FilePath())
	}

	return idx, nil
}

// readEqualityDeletes parses an equality delete file into a key index
// under the delete schema derived from the file's equality field-ids.
func readEqualityDeletes(ctx context.Context, fs io.IO, file iceberg.DataFile, readSchema *iceberg.Schema) (idx *EqualityDeleteIndex, err error) {
	idx, err = NewEqualityDeleteIndex(readSchema, file.EqualityFieldIDs())
	if err != nil {
		return nil, fmt.Errorf("%w: resolving '%s'", err, file.FilePath())
	}

	rdr, err := internal.OpenRows(ctx, fs, file.FilePath(), file.FileFormat(), idx.DeleteSchema())
	if err != nil {
		return nil, err
	}
	defer func() { err = closeReader(rdr, err) }()

	for row, rowErr := range rdr.Rows() {
		if rowErr != nil {
			return nil, rowErr
		}
		idx.Add(row)
	}

	return idx, nil
}

func closeReader(rdr internal.RowReader, err error) error {
	if closeErr := rdr.Close(); closeErr != nil && err == nil {
		return closeErr
	}

	return err
}
