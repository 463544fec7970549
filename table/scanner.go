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
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/internal"
	"github.com/cjjnjust/incubator-iceberg/io"
)

const ScanNoLimit = -1

// Scan describes a read of one table snapshot. Scans are immutable;
// the With-style methods return modified copies so a planned scan can
// be reused and re-run, always against the snapshot it was bound to.
type Scan struct {
	metadata       *Metadata
	fs             io.IO
	selectedFields []string
	caseSensitive  bool
	snapshotID     *int64
	limit          int64
	concurrency    int
}

// UseRowLimit returns a copy of the scan returning at most n rows.
func (scan *Scan) UseRowLimit(n int64) *Scan {
	out := *scan
	out.limit = n

	return &out
}

// UseSnapshot returns a copy of the scan pinned to the given snapshot.
func (scan *Scan) UseSnapshot(id int64) (*Scan, error) {
	if scan.metadata.SnapshotByID(id) == nil {
		return nil, fmt.Errorf("%w: cannot scan unknown snapshot id %d",
			iceberg.ErrInvalidArgument, id)
	}

	out := *scan
	out.snapshotID = &id

	return &out, nil
}

// Snapshot returns the snapshot this scan reads, or nil when the table
// has no snapshots yet.
func (scan *Scan) Snapshot() *Snapshot {
	if scan.snapshotID != nil {
		return scan.metadata.SnapshotByID(*scan.snapshotID)
	}

	return scan.metadata.CurrentSnapshot()
}

// readSchema is the full schema of the scanned snapshot. Rows are read
// and delete keys resolved under this schema; the projection applies
// only afterwards.
func (scan *Scan) readSchema() (*iceberg.Schema, error) {
	cur := scan.metadata.CurrentSchema()
	if snap := scan.Snapshot(); snap != nil && snap.SchemaID != nil {
		if sc, ok := scan.metadata.SchemaByID(*snap.SchemaID); ok {
			cur = sc
		}
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: no schema for scan", ErrInvalidMetadata)
	}

	return cur, nil
}

// Projection resolves the scan's selected columns against the schema
// of the scanned snapshot.
func (scan *Scan) Projection() (*iceberg.Schema, error) {
	cur, err := scan.readSchema()
	if err != nil {
		return nil, err
	}

	if slices.Contains(scan.selectedFields, "*") {
		return cur, nil
	}

	return cur.Select(scan.caseSensitive, scan.selectedFields...)
}

// FileScanTask is one unit of scan work: a data file and every delete
// file that could remove rows from it.
type FileScanTask struct {
	File          iceberg.DataFile
	DeleteFiles   []iceberg.DataFile
	Start, Length int64
}

// manifestEntries accumulates the live entries read from manifests by
// concurrent readers.
type manifestEntries struct {
	mu      sync.Mutex
	data    []iceberg.ManifestEntry
	deletes []iceberg.ManifestEntry
}

func (m *manifestEntries) add(e iceberg.ManifestEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e.DataFile().ContentType() {
	case iceberg.EntryContentData:
		m.data = append(m.data, e)
	case iceberg.EntryContentPosDeletes, iceberg.EntryContentEqDeletes:
		m.deletes = append(m.deletes, e)
	default:
		return fmt.Errorf("%w: unknown content type (%s): %s",
			ErrInvalidMetadata, e.DataFile().ContentType(), e)
	}

	return nil
}

func (scan *Scan) readManifest(path string) (entries []iceberg.ManifestEntry, err error) {
	f, err := scan.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening manifest '%s': %s",
			iceberg.ErrIOFailure, path, err.Error())
	}
	defer internal.CheckedClose(f, &err)

	return iceberg.ReadManifest(f)
}

// collectEntries opens the snapshot's manifests concurrently and
// splits the live entries into data and delete entries.
func (scan *Scan) collectEntries(ctx context.Context, snap *Snapshot) (*manifestEntries, error) {
	entries := &manifestEntries{}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(scan.concurrency, len(snap.ManifestFiles))))

	for _, path := range snap.ManifestFiles {
		g.Go(func() error {
			manifestEntries, err := scan.readManifest(path)
			if err != nil {
				return err
			}

			for _, e := range manifestEntries {
				if e.Status == iceberg.EntryStatusDELETED {
					continue
				}
				if err := entries.add(e); err != nil {
					return err
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

// deleteApplies decides whether a delete entry governs a data entry:
// the delete's sequence number must qualify under the metadata's
// comparator, and the files must live in the same partition. Delete
// files written under an unpartitioned spec apply to the whole table.
func (scan *Scan) deleteApplies(del, data iceberg.ManifestEntry) bool {
	if !scan.metadata.SequenceApplies(del.SequenceNumber, data.SequenceNumber) {
		return false
	}

	delSpec, ok := scan.metadata.SpecByID(del.DataFile().SpecID())
	if !ok || delSpec.IsUnpartitioned() {
		return true
	}

	if del.DataFile().SpecID() != data.DataFile().SpecID() {
		return false
	}

	return delSpec.PartitionValuesEqual(del.DataFile().Partition(), data.DataFile().Partition())
}

// PlanFiles resolves the scan to the list of data files to read, each
// paired with its applicable delete files. Tasks come back in a
// deterministic order: by commit sequence, then by file path.
func (scan *Scan) PlanFiles(ctx context.Context) ([]FileScanTask, error) {
	snap := scan.Snapshot()
	if snap == nil {
		return nil, nil
	}

	entries, err := scan.collectEntries(ctx, snap)
	if err != nil {
		return nil, err
	}

	// a data file can only appear once per snapshot
	slices.SortFunc(entries.data, func(a, b iceberg.ManifestEntry) int {
		if c := cmp.Compare(a.SequenceNumber, b.SequenceNumber); c != 0 {
			return c
		}

		return cmp.Compare(a.DataFile().FilePath(), b.DataFile().FilePath())
	})
	entries.data = slices.CompactFunc(entries.data, func(a, b iceberg.ManifestEntry) bool {
		return a.DataFile().FilePath() == b.DataFile().FilePath()
	})

	results := make([]FileScanTask, 0, len(entries.data))
	for _, e := range entries.data {
		var deleteFiles []iceberg.DataFile
		for _, del := range entries.deletes {
			if scan.deleteApplies(del, e) {
				deleteFiles = append(deleteFiles, del.DataFile())
			}
		}

		results = append(results, FileScanTask{
			File:        e.DataFile(),
			DeleteFiles: deleteFiles,
			Start:       0,
			Length:      e.DataFile().FileSizeBytes(),
		})
	}

	return results, nil
}
