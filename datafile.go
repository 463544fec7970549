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
	"slices"
)

// ManifestEntryContent is the kind of file a manifest entry tracks:
// data, position deletes, or equality deletes.
type ManifestEntryContent int8

const (
	EntryContentData       ManifestEntryContent = 0
	EntryContentPosDeletes ManifestEntryContent = 1
	EntryContentEqDeletes  ManifestEntryContent = 2
)

func (m ManifestEntryContent) String() string {
	switch m {
	case EntryContentData:
		return "DATA"
	case EntryContentPosDeletes:
		return "POSITION_DELETES"
	case EntryContentEqDeletes:
		return "EQUALITY_DELETES"
	default:
		return "UNKNOWN"
	}
}

// FileFormat is the physical format of a data or delete file.
type FileFormat string

const (
	AvroFile    FileFormat = "AVRO"
	ArrowFile   FileFormat = "ARROW"
	OrcFile     FileFormat = "ORC"
	ParquetFile FileFormat = "PARQUET"
)

// DataFile is the interface for both data files and delete files in a
// manifest. Descriptors are immutable once created; the snapshot that
// added a file owns it and readers only borrow references.
type DataFile interface {
	// ContentType is the type of the content stored by the file,
	// either Data, Equality deletes, or Position deletes.
	ContentType() ManifestEntryContent
	// FilePath is the full URI for the file, complete with FS scheme.
	FilePath() string
	// FileFormat is the format of the data file.
	FileFormat() FileFormat
	// Partition returns a mapping of partition field id to partition
	// value for each of the partition spec's fields.
	Partition() map[int]any
	// Count is the number of records in the file.
	Count() int64
	// FileSizeBytes is the total file size in bytes.
	FileSizeBytes() int64
	// SpecID is the id of the partition spec the file was written under.
	SpecID() int
	// EqualityFieldIDs returns the field ids used to determine row
	// equality for equality delete files. It is nil for data files and
	// position delete files.
	EqualityFieldIDs() []int
}

type dataFile struct {
	content     ManifestEntryContent
	path        string
	format      FileFormat
	partition   map[int]any
	count       int64
	size        int64
	specID      int
	equalityIDs []int
}

func (d *dataFile) ContentType() ManifestEntryContent { return d.content }
func (d *dataFile) FilePath() string                  { return d.path }
func (d *dataFile) FileFormat() FileFormat            { return d.format }
func (d *dataFile) Count() int64                      { return d.count }
func (d *dataFile) FileSizeBytes() int64              { return d.size }
func (d *dataFile) SpecID() int                       { return d.specID }
func (d *dataFile) EqualityFieldIDs() []int           { return slices.Clone(d.equalityIDs) }

func (d *dataFile) Partition() map[int]any {
	out := make(map[int]any, len(d.partition))
	for k, v := range d.partition {
		out[k] = v
	}

	return out
}

func (d *dataFile) String() string {
	return fmt.Sprintf("%s: %s(%s), records: %d", d.content, d.path, d.format, d.count)
}

// DataFileBuilder builds immutable DataFile descriptors.
type DataFileBuilder struct {
	file dataFile
	err  error
}

// NewDataFileBuilder starts a descriptor for a plain data file.
func NewDataFileBuilder(path string, format FileFormat) *DataFileBuilder {
	b := &DataFileBuilder{file: dataFile{
		content: EntryContentData,
		path:    path,
		format:  format,
		specID:  InitialPartitionSpecID,
	}}
	if path == "" {
		b.err = fmt.Errorf("%w: data file path cannot be empty", ErrInvalidArgument)
	}

	return b
}

// NewPositionDeleteFileBuilder starts a descriptor for a file of
// (file_path, pos) delete rows.
func NewPositionDeleteFileBuilder(path string, format FileFormat) *DataFileBuilder {
	b := NewDataFileBuilder(path, format)
	b.file.content = EntryContentPosDeletes

	return b
}

// NewEqualityDeleteFileBuilder starts a descriptor for an equality
// delete file governed by the given field-id set.
func NewEqualityDeleteFileBuilder(path string, format FileFormat, equalityIDs []int) *DataFileBuilder {
	b := NewDataFileBuilder(path, format)
	b.file.content = EntryContentEqDeletes
	b.file.equalityIDs = slices.Clone(equalityIDs)
	if len(equalityIDs) == 0 {
		b.err = fmt.Errorf("%w: equality delete file requires at least one field id", ErrInvalidArgument)
	}

	return b
}

func (b *DataFileBuilder) WithPartition(specID int, partition map[int]any) *DataFileBuilder {
	b.file.specID = specID
	b.file.partition = partition

	return b
}

func (b *DataFileBuilder) WithRecordCount(n int64) *DataFileBuilder {
	b.file.count = n

	return b
}

func (b *DataFileBuilder) WithFileSizeBytes(n int64) *DataFileBuilder {
	b.file.size = n

	return b
}

func (b *DataFileBuilder) Build() (DataFile, error) {
	if b.err != nil {
		return nil, b.err
	}

	f := b.file
	if f.partition == nil {
		f.partition = map[int]any{}
	}

	return &f, nil
}
