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

package table

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/internal"
	"github.com/cjjnjust/incubator-iceberg/io"
	"github.com/cjjnjust/incubator-iceberg/table/deletes"
	tblinternal "github.com/cjjnjust/incubator-iceberg/table/internal"
)

// rowScan executes the tasks of a planned scan. Rows are read under
// the snapshot's full schema, filtered against the task's delete
// files, and only then projected to the requested columns.
type rowScan struct {
	fs              io.IO
	readSchema      *iceberg.Schema
	projectedSchema *iceberg.Schema
	cache           *deletes.IndexCache
	rowLimit        int64
	concurrency     int
}

// enumeratedRows is the surviving rows of one task, tagged with the
// task's position so results can be put back in plan order. Every task
// produces exactly one element, empty results included, which keeps
// the re-sequencing from stalling on files whose rows were all
// deleted.
type enumeratedRows struct {
	Task internal.Enumerated[FileScanTask]
	Rows []*iceberg.Record
	Err  error
}

// rowsFromTask reads one data file and collects the rows that survive
// its deletes, already projected and copied out of the reader's
// transient state.
func (rs *rowScan) rowsFromTask(ctx context.Context, task FileScanTask) (rows []*iceberg.Record, err error) {
	filter, err := deletes.NewDeleteFilter(ctx, rs.fs, rs.cache, task.File, task.DeleteFiles, rs.readSchema)
	if err != nil {
		return nil, err
	}

	proj, err := iceberg.NewStructProjection(rs.readSchema, rs.projectedSchema)
	if err != nil {
		return nil, err
	}

	rdr, err := tblinternal.OpenRows(ctx, rs.fs, task.File.FilePath(), task.File.FileFormat(), rs.readSchema)
	if err != nil {
		return nil, err
	}
	defer internal.CheckedClose(rdr, &err)

	for row, rowErr := range filter.Filter(rdr.Rows()) {
		if rowErr != nil {
			return nil, rowErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows = append(rows, iceberg.CopyStruct(proj.Wrap(row)))
	}

	return rows, nil
}

func (rs *rowScan) rowsFromTasks(ctx context.Context, tasks []FileScanTask) iter.Seq2[iceberg.StructLike, error] {
	ctx, cancel := context.WithCancelCause(ctx)

	numWorkers := max(1, min(rs.concurrency, len(tasks)))
	taskChan := make(chan internal.Enumerated[FileScanTask], len(tasks))
	results := make(chan enumeratedRows, numWorkers)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-taskChan:
					if !ok {
						return
					}

					rows, err := rs.rowsFromTask(ctx, task.Value)
					if err != nil {
						cancel(err)
						select {
						case results <- enumeratedRows{Task: task, Err: err}:
						case <-ctx.Done():
						}

						return
					}

					select {
					case results <- enumeratedRows{Task: task, Rows: rows}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		for i, t := range tasks {
			taskChan <- internal.Enumerated[FileScanTask]{
				Value: t, Index: i, Last: i == len(tasks)-1,
			}
		}
		close(taskChan)

		wg.Wait()
		close(results)
	}()

	return rs.sequencedRows(ctx, cancel, uint(numWorkers), results)
}

// sequencedRows re-orders per-task results back into plan order and
// flattens them into a bounded row iterator.
func (rs *rowScan) sequencedRows(ctx context.Context, cancel context.CancelCauseFunc, numWorkers uint, results <-chan enumeratedRows) iter.Seq2[iceberg.StructLike, error] {
	sequenced := internal.MakeSequencedChan(numWorkers, results,
		func(left, right *enumeratedRows) bool {
			switch {
			case left.Task.Index < 0:
				return true
			case right.Task.Index < 0:
				return false
			case left.Err != nil || right.Err != nil:
				return true
			default:
				return left.Task.Index < right.Task.Index
			}
		}, func(prev, next *enumeratedRows) bool {
			if next.Err != nil {
				return true
			}

			return next.Task.Index == prev.Task.Index+1
		}, enumeratedRows{Task: internal.Enumerated[FileScanTask]{Index: -1}})

	totalRowCount := int64(0)

	return func(yield func(iceberg.StructLike, error) bool) {
		defer func() {
			for range sequenced {
			}
		}()
		defer cancel(nil)

		for {
			select {
			case <-ctx.Done():
				if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
					yield(nil, err)
				}

				return
			case enum, ok := <-sequenced:
				if !ok {
					return
				}
				if enum.Err != nil {
					yield(nil, enum.Err)

					return
				}

				for _, row := range enum.Rows {
					if rs.rowLimit > 0 && totalRowCount >= rs.rowLimit {
						return
					}
					if !yield(row, nil) {
						return
					}
					totalRowCount++
				}
			}
		}
	}
}

// Rows plans and executes the scan, returning the projected schema and
// an iterator over the surviving rows in deterministic plan order. The
// iterator is single-use; range over the result of a fresh call to
// retry after a failure.
func (scan *Scan) Rows(ctx context.Context) (*iceberg.Schema, iter.Seq2[iceberg.StructLike, error], error) {
	projSchema, err := scan.Projection()
	if err != nil {
		return nil, nil, err
	}

	emptySeq := func(yield func(iceberg.StructLike, error) bool) {}
	if scan.limit == 0 {
		return projSchema, emptySeq, nil
	}

	tasks, err := scan.PlanFiles(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(tasks) == 0 {
		return projSchema, emptySeq, nil
	}

	readSchema, err := scan.readSchema()
	if err != nil {
		return nil, nil, err
	}

	rs := &rowScan{
		fs:              scan.fs,
		readSchema:      readSchema,
		projectedSchema: projSchema,
		cache:           deletes.NewIndexCache(),
		rowLimit:        scan.limit,
		concurrency:     scan.concurrency,
	}

	return projSchema, rs.rowsFromTasks(ctx, tasks), nil
}
