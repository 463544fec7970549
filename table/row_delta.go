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
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/internal"
)

// RowDelta accumulates data files and delete files for one commit.
// Committing writes a manifest with the new entries at the next
// sequence number and produces a snapshot holding the parent's
// manifests plus the new one. Under the default sequence comparator
// the delta's deletes govern every data file at or below the delta's
// own sequence number.
type RowDelta struct {
	table   Table
	added   []iceberg.DataFile
	deletes []iceberg.DataFile
	err     error
}

func newRowDelta(t Table) *RowDelta {
	return &RowDelta{table: t}
}

// AddRows stages a data file for the commit.
func (d *RowDelta) AddRows(file iceberg.DataFile) *RowDelta {
	if d.err != nil {
		return d
	}
	if file.ContentType() != iceberg.EntryContentData {
		d.err = fmt.Errorf("%w: AddRows requires a data file, got %s",
			ErrInvalidOperation, file.ContentType())

		return d
	}

	d.added = append(d.added, file)

	return d
}

// AddDeletes stages a position or equality delete file for the commit.
func (d *RowDelta) AddDeletes(file iceberg.DataFile) *RowDelta {
	if d.err != nil {
		return d
	}

	switch file.ContentType() {
	case iceberg.EntryContentPosDeletes:
	case iceberg.EntryContentEqDeletes:
		// fail at commit-build time rather than scan time when the
		// equality columns do not exist in the table schema
		if _, err := d.table.Schema().SelectByIDs(file.EqualityFieldIDs()...); err != nil {
			d.err = fmt.Errorf("cannot stage '%s': %w", file.FilePath(), err)

			return d
		}
	default:
		d.err = fmt.Errorf("%w: AddDeletes requires a delete file, got %s",
			ErrInvalidOperation, file.ContentType())

		return d
	}

	d.deletes = append(d.deletes, file)

	return d
}

func (d *RowDelta) validate() error {
	if d.err != nil {
		return d.err
	}
	if len(d.added) == 0 && len(d.deletes) == 0 {
		return fmt.Errorf("%w: empty row delta", ErrInvalidOperation)
	}

	for _, f := range append(d.added[:len(d.added):len(d.added)], d.deletes...) {
		if _, ok := d.table.Metadata().SpecByID(f.SpecID()); !ok {
			return fmt.Errorf("%w: file '%s' references unknown partition spec %d",
				ErrInvalidOperation, f.FilePath(), f.SpecID())
		}
	}

	return nil
}

// Commit writes the manifest and returns the table at the new
// snapshot. The receiver must not be reused after Commit.
func (d *RowDelta) Commit(ctx context.Context) (*Table, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta := d.table.Metadata()
	seq := meta.LastSequenceNumber + 1
	snapshotID := rand.Int64N(1<<62) + 1

	entries := make([]iceberg.ManifestEntry, 0, len(d.added)+len(d.deletes))
	for _, f := range d.added {
		entries = append(entries, iceberg.NewManifestEntry(iceberg.EntryStatusADDED, snapshotID, seq, f))
	}
	for _, f := range d.deletes {
		entries = append(entries, iceberg.NewManifestEntry(iceberg.EntryStatusADDED, snapshotID, seq, f))
	}

	manifestPath := fmt.Sprintf("%s/metadata/%s-m0.avro", meta.Location, uuid.New())
	if err := d.writeManifest(manifestPath, entries); err != nil {
		return nil, err
	}

	manifests := make([]string, 0, 1)
	var parentID *int64
	if parent := meta.CurrentSnapshot(); parent != nil {
		manifests = append(manifests, parent.ManifestFiles...)
		parentID = &parent.SnapshotID
	}
	manifests = append(manifests, manifestPath)

	schemaID := meta.CurrentSchemaID
	newMeta := meta.clone()
	newMeta.Snapshots = append(newMeta.Snapshots, Snapshot{
		SnapshotID:       snapshotID,
		ParentSnapshotID: parentID,
		SequenceNumber:   seq,
		TimestampMs:      time.Now().UnixMilli(),
		SchemaID:         &schemaID,
		ManifestFiles:    manifests,
	})
	newMeta.CurrentSnapshotID = &snapshotID
	newMeta.LastSequenceNumber = seq
	newMeta.LastUpdatedMs = time.Now().UnixMilli()

	return New(newMeta, d.table.fs), nil
}

func (d *RowDelta) writeManifest(path string, entries []iceberg.ManifestEntry) (err error) {
	out, err := d.table.fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating manifest '%s': %s",
			iceberg.ErrIOFailure, path, err.Error())
	}
	defer internal.CheckedClose(out, &err)

	return iceberg.WriteManifest(out, entries)
}

// Append commits the given data files as a new snapshot. It is the
// data-only shorthand for a row delta.
func (t Table) Append(ctx context.Context, files ...iceberg.DataFile) (*Table, error) {
	delta := t.NewRowDelta()
	for _, f := range files {
		delta.AddRows(f)
	}

	return delta.Commit(ctx)
}

// AddSchema commits a schema evolution. The new schema must keep every
// surviving field's id and type and may not make an optional column
// required; it becomes the current schema for subsequent operations.
func (t Table) AddSchema(sc *iceberg.Schema) (*Table, error) {
	if _, ok := t.metadata.SchemaByID(sc.ID); ok {
		return nil, fmt.Errorf("%w: schema id %d already exists", ErrInvalidOperation, sc.ID)
	}
	if err := iceberg.CheckSchemaCompatible(t.Schema(), sc); err != nil {
		return nil, err
	}

	newMeta := t.metadata.clone()
	newMeta.Schemas = append(newMeta.Schemas, sc)
	newMeta.CurrentSchemaID = sc.ID
	newMeta.LastUpdatedMs = time.Now().UnixMilli()

	return New(newMeta, t.fs), nil
}
