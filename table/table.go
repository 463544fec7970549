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

// Package table implements reading versioned tables with merge-on-read
// delete semantics: scan planning over snapshots and manifests, delete
// reconciliation, and row-level commits of data and delete files.
package table

import (
	"fmt"
	"runtime"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/internal"
	"github.com/cjjnjust/incubator-iceberg/io"
)

// Table is a handle on table metadata plus the IO used to reach the
// table's files. Table values are cheap to copy and immutable; commits
// return a new Table.
type Table struct {
	metadata *Metadata
	fs       io.IO
}

func New(meta *Metadata, fs io.IO) *Table {
	return &Table{metadata: meta, fs: fs}
}

// NewFromLocation loads a table from a metadata JSON file.
func NewFromLocation(metadataPath string, fs io.IO) (*Table, error) {
	f, err := fs.Open(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening metadata '%s': %s",
			iceberg.ErrIOFailure, metadataPath, err.Error())
	}
	defer internal.CheckedClose(f, &err)

	meta, err := ParseMetadata(f)
	if err != nil {
		return nil, err
	}

	return New(meta, fs), nil
}

func (t Table) Metadata() *Metadata             { return t.metadata }
func (t Table) FS() io.IO                       { return t.fs }
func (t Table) Location() string                { return t.metadata.Location }
func (t Table) Schema() *iceberg.Schema         { return t.metadata.CurrentSchema() }
func (t Table) Schemas() []*iceberg.Schema      { return t.metadata.Schemas }
func (t Table) Spec() iceberg.PartitionSpec     { return t.metadata.DefaultSpec() }
func (t Table) Properties() iceberg.Properties  { return t.metadata.Props }
func (t Table) CurrentSnapshot() *Snapshot      { return t.metadata.CurrentSnapshot() }
func (t Table) SnapshotByID(id int64) *Snapshot { return t.metadata.SnapshotByID(id) }

func (t Table) Equals(other Table) bool {
	return t.metadata.UUID == other.metadata.UUID &&
		t.metadata.LastSequenceNumber == other.metadata.LastSequenceNumber
}

func (t Table) String() string {
	return fmt.Sprintf("table at %s (%s)", t.metadata.Location, t.metadata.UUID)
}

// ScanOption configures a table scan.
type ScanOption func(*Scan)

// WithSelectedFields limits the scan's projection to the named columns.
// "*" selects everything.
func WithSelectedFields(fields ...string) ScanOption {
	return func(s *Scan) {
		s.selectedFields = fields
	}
}

// WithSnapshotID pins the scan to a specific snapshot rather than the
// current one.
func WithSnapshotID(n int64) ScanOption {
	return func(s *Scan) {
		s.snapshotID = &n
	}
}

func WithCaseSensitive(b bool) ScanOption {
	return func(s *Scan) {
		s.caseSensitive = b
	}
}

// WithLimit requests at most n rows from the scan. ScanNoLimit (the
// default) reads everything.
func WithLimit(n int64) ScanOption {
	return func(s *Scan) {
		s.limit = n
	}
}

// WithMaxConcurrency caps the parallelism of planning and reading.
func WithMaxConcurrency(n int) ScanOption {
	return func(s *Scan) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Scan starts building a scan of the table.
func (t Table) Scan(opts ...ScanOption) *Scan {
	s := &Scan{
		metadata:       t.metadata,
		fs:             t.fs,
		selectedFields: []string{"*"},
		caseSensitive:  true,
		limit:          ScanNoLimit,
		concurrency:    runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewRowDelta starts a row-delta commit against this table version,
// accumulating data and delete files for one new snapshot.
func (t Table) NewRowDelta() *RowDelta {
	return newRowDelta(t)
}
