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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cjjnjust/incubator-iceberg"
)

var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidMetadata  = iceberg.ErrInvalidMetadata
)

// Snapshot is one committed version of the table. It lists the
// manifest files whose entries make up the version; a child snapshot
// carries its parent's manifests plus the one written by its commit,
// so a snapshot is self-contained for reading.
type Snapshot struct {
	SnapshotID       int64    `json:"snapshot-id"`
	ParentSnapshotID *int64   `json:"parent-snapshot-id,omitempty"`
	SequenceNumber   int64    `json:"sequence-number"`
	TimestampMs      int64    `json:"timestamp-ms"`
	SchemaID         *int     `json:"schema-id,omitempty"`
	ManifestFiles    []string `json:"manifests"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("Snapshot: id=%d, seq=%d, manifests=%d",
		s.SnapshotID, s.SequenceNumber, len(s.ManifestFiles))
}

func (s Snapshot) Equals(other Snapshot) bool {
	return s.SnapshotID == other.SnapshotID &&
		s.SequenceNumber == other.SequenceNumber
}

// SequenceComparator decides whether a delete file committed at
// deleteSeq applies to a data file committed at dataSeq. Keeping the
// comparison a function leaves the >= versus > policy to the metadata
// rather than baking it into the planner.
type SequenceComparator func(deleteSeq, dataSeq int64) bool

// Metadata is the table metadata tree: schemas, partition specs, the
// snapshot log, and table properties. It is treated as immutable; a
// commit produces a new value.
type Metadata struct {
	UUID               uuid.UUID               `json:"table-uuid"`
	Location           string                  `json:"location"`
	LastSequenceNumber int64                   `json:"last-sequence-number"`
	LastUpdatedMs      int64                   `json:"last-updated-ms"`
	Schemas            []*iceberg.Schema       `json:"schemas"`
	CurrentSchemaID    int                     `json:"current-schema-id"`
	Specs              []iceberg.PartitionSpec `json:"partition-specs"`
	DefaultSpecID      int                     `json:"default-spec-id"`
	Snapshots          []Snapshot              `json:"snapshots"`
	CurrentSnapshotID  *int64                  `json:"current-snapshot-id,omitempty"`
	Props              iceberg.Properties      `json:"properties,omitempty"`

	// SequenceCmp is consulted by scan planning. Nil means the default
	// policy: a delete applies when its sequence number is greater than
	// or equal to the data file's.
	SequenceCmp SequenceComparator `json:"-"`
}

// NewMetadata creates the metadata of a fresh table with no snapshots.
func NewMetadata(location string, sc *iceberg.Schema, spec iceberg.PartitionSpec, props iceberg.Properties) *Metadata {
	return &Metadata{
		UUID:            uuid.New(),
		Location:        location,
		LastUpdatedMs:   time.Now().UnixMilli(),
		Schemas:         []*iceberg.Schema{sc},
		CurrentSchemaID: sc.ID,
		Specs:           []iceberg.PartitionSpec{spec},
		DefaultSpecID:   spec.ID(),
		Props:           props,
	}
}

// CurrentSchema returns the schema in effect for new commits.
func (m *Metadata) CurrentSchema() *iceberg.Schema {
	if sc, ok := m.SchemaByID(m.CurrentSchemaID); ok {
		return sc
	}

	return nil
}

func (m *Metadata) SchemaByID(id int) (*iceberg.Schema, bool) {
	for _, sc := range m.Schemas {
		if sc.ID == id {
			return sc, true
		}
	}

	return nil, false
}

// DefaultSpec returns the partition spec in effect for new commits.
func (m *Metadata) DefaultSpec() iceberg.PartitionSpec {
	if spec, ok := m.SpecByID(m.DefaultSpecID); ok {
		return spec
	}

	return *iceberg.UnpartitionedSpec
}

func (m *Metadata) SpecByID(id int) (iceberg.PartitionSpec, bool) {
	for _, spec := range m.Specs {
		if spec.ID() == id {
			return spec, true
		}
	}

	return iceberg.PartitionSpec{}, false
}

func (m *Metadata) CurrentSnapshot() *Snapshot {
	if m.CurrentSnapshotID == nil {
		return nil
	}

	return m.SnapshotByID(*m.CurrentSnapshotID)
}

func (m *Metadata) SnapshotByID(id int64) *Snapshot {
	for i := range m.Snapshots {
		if m.Snapshots[i].SnapshotID == id {
			return &m.Snapshots[i]
		}
	}

	return nil
}

// SequenceApplies reports whether a delete committed at deleteSeq
// governs data committed at dataSeq.
func (m *Metadata) SequenceApplies(deleteSeq, dataSeq int64) bool {
	if m.SequenceCmp != nil {
		return m.SequenceCmp(deleteSeq, dataSeq)
	}

	return deleteSeq >= dataSeq
}

// clone copies the metadata value with fresh slice headers so a commit
// can extend them without aliasing the parent.
func (m *Metadata) clone() *Metadata {
	out := *m
	out.Schemas = append([]*iceberg.Schema(nil), m.Schemas...)
	out.Specs = append([]iceberg.PartitionSpec(nil), m.Specs...)
	out.Snapshots = append([]Snapshot(nil), m.Snapshots...)
	out.Props = m.Props.Clone()

	return &out
}

func (m *Metadata) checkValid() error {
	if len(m.Schemas) == 0 {
		return fmt.Errorf("%w: metadata has no schemas", ErrInvalidMetadata)
	}
	if m.CurrentSchema() == nil {
		return fmt.Errorf("%w: current schema id %d not found", ErrInvalidMetadata, m.CurrentSchemaID)
	}
	if _, ok := m.SpecByID(m.DefaultSpecID); !ok {
		return fmt.Errorf("%w: default spec id %d not found", ErrInvalidMetadata, m.DefaultSpecID)
	}
	if m.CurrentSnapshotID != nil && m.CurrentSnapshot() == nil {
		return fmt.Errorf("%w: current snapshot id %d not found", ErrInvalidMetadata, *m.CurrentSnapshotID)
	}

	return nil
}

// ParseMetadata reads table metadata from its JSON representation.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	var meta Metadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	if err := meta.checkValid(); err != nil {
		return nil, err
	}

	return &meta, nil
}

// WriteMetadata serializes the metadata as JSON.
func WriteMetadata(w io.Writer, meta *Metadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(meta)
}
