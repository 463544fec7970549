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
	"io"
	"strconv"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// ManifestEntryStatus defines the constants used for the status of a
// manifest entry.
type ManifestEntryStatus int8

const (
	EntryStatusEXISTING ManifestEntryStatus = 0
	EntryStatusADDED    ManifestEntryStatus = 1
	EntryStatusDELETED  ManifestEntryStatus = 2
)

func (s ManifestEntryStatus) String() string {
	switch s {
	case EntryStatusEXISTING:
		return "EXISTING"
	case EntryStatusADDED:
		return "ADDED"
	case EntryStatusDELETED:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ManifestEntry tracks one data or delete file along with the snapshot
// and sequence number of the commit that produced it. The sequence
// number is what orders delete files against data files: a delete file
// only governs data committed at or before its own sequence number.
type ManifestEntry struct {
	Status         ManifestEntryStatus
	SnapshotID     int64
	SequenceNumber int64

	file DataFile
}

func NewManifestEntry(status ManifestEntryStatus, snapshotID, sequenceNumber int64, file DataFile) ManifestEntry {
	return ManifestEntry{
		Status:         status,
		SnapshotID:     snapshotID,
		SequenceNumber: sequenceNumber,
		file:           file,
	}
}

func (e ManifestEntry) DataFile() DataFile { return e.file }

func (e ManifestEntry) String() string {
	return fmt.Sprintf("%s: seq=%d %s", e.Status, e.SequenceNumber, e.file)
}

const manifestEntrySchemaJSON = `{
	"type": "record",
	"name": "manifest_entry",
	"fields": [
		{"name": "status", "type": "int"},
		{"name": "snapshot_id", "type": "long"},
		{"name": "sequence_number", "type": "long"},
		{"name": "data_file", "type": {
			"type": "record",
			"name": "data_file",
			"fields": [
				{"name": "content", "type": "int"},
				{"name": "file_path", "type": "string"},
				{"name": "file_format", "type": "string"},
				{"name": "partition", "type": {"type": "map", "values": "string"}},
				{"name": "record_count", "type": "long"},
				{"name": "file_size_in_bytes", "type": "long"},
				{"name": "spec_id", "type": "int"},
				{"name": "equality_ids", "type": {"type": "array", "items": "int"}}
			]
		}}
	]
}`

var manifestEntrySchema = avro.MustParse(manifestEntrySchemaJSON)

type dataFileMsg struct {
	Content       int32             `avro:"content"`
	FilePath      string            `avro:"file_path"`
	FileFormat    string            `avro:"file_format"`
	Partition     map[string]string `avro:"partition"`
	RecordCount   int64             `avro:"record_count"`
	FileSizeBytes int64             `avro:"file_size_in_bytes"`
	SpecID        int32             `avro:"spec_id"`
	EqualityIDs   []int32           `avro:"equality_ids"`
}

type manifestEntryMsg struct {
	Status         int32       `avro:"status"`
	SnapshotID     int64       `avro:"snapshot_id"`
	SequenceNumber int64       `avro:"sequence_number"`
	DataFile       dataFileMsg `avro:"data_file"`
}

func toDataFileMsg(f DataFile) (dataFileMsg, error) {
	part := make(map[string]string, len(f.Partition()))
	for id, v := range f.Partition() {
		enc, err := EncodeLiteral(v)
		if err != nil {
			return dataFileMsg{}, fmt.Errorf("cannot encode partition value for field %d of %s: %w",
				id, f.FilePath(), err)
		}
		part[strconv.Itoa(id)] = enc
	}

	eqIDs := make([]int32, 0, len(f.EqualityFieldIDs()))
	for _, id := range f.EqualityFieldIDs() {
		eqIDs = append(eqIDs, int32(id))
	}

	return dataFileMsg{
		Content:       int32(f.ContentType()),
		FilePath:      f.FilePath(),
		FileFormat:    string(f.FileFormat()),
		Partition:     part,
		RecordCount:   f.Count(),
		FileSizeBytes: f.FileSizeBytes(),
		SpecID:        int32(f.SpecID()),
		EqualityIDs:   eqIDs,
	}, nil
}

func fromDataFileMsg(msg dataFileMsg) (DataFile, error) {
	part := make(map[int]any, len(msg.Partition))
	for k, enc := range msg.Partition {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric partition field id %q in %s",
				ErrInvalidMetadata, k, msg.FilePath)
		}
		v, err := DecodeLiteral(enc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad partition value for field %d in %s: %v",
				ErrInvalidMetadata, id, msg.FilePath, err)
		}
		part[id] = v
	}

	var b *DataFileBuilder
	switch ManifestEntryContent(msg.Content) {
	case EntryContentData:
		b = NewDataFileBuilder(msg.FilePath, FileFormat(msg.FileFormat))
	case EntryContentPosDeletes:
		b = NewPositionDeleteFileBuilder(msg.FilePath, FileFormat(msg.FileFormat))
	case EntryContentEqDeletes:
		eqIDs := make([]int, len(msg.EqualityIDs))
		for i, id := range msg.EqualityIDs {
			eqIDs[i] = int(id)
		}
		b = NewEqualityDeleteFileBuilder(msg.FilePath, FileFormat(msg.FileFormat), eqIDs)
	default:
		return nil, fmt.Errorf("%w: unknown content type %d for %s",
			ErrInvalidMetadata, msg.Content, msg.FilePath)
	}

	return b.WithPartition(int(msg.SpecID), part).
		WithRecordCount(msg.RecordCount).
		WithFileSizeBytes(msg.FileSizeBytes).
		Build()
}

// WriteManifest writes entries as an avro object container file.
func WriteManifest(out io.Writer, entries []ManifestEntry) error {
	enc, err := ocf.NewEncoderWithSchema(manifestEntrySchema, out,
		ocf.WithSchemaMarshaler(ocf.FullSchemaMarshaler),
		ocf.WithEncoderSchemaCache(&avro.SchemaCache{}),
		ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return err
	}

	for _, e := range entries {
		fileMsg, err := toDataFileMsg(e.file)
		if err != nil {
			return err
		}

		msg := manifestEntryMsg{
			Status:         int32(e.Status),
			SnapshotID:     e.SnapshotID,
			SequenceNumber: e.SequenceNumber,
			DataFile:       fileMsg,
		}
		if err := enc.Encode(msg); err != nil {
			return err
		}
	}

	return enc.Close()
}

// ReadManifest reads back the entries of an avro manifest file.
func ReadManifest(in io.Reader) ([]ManifestEntry, error) {
	dec, err := ocf.NewDecoder(in, ocf.WithDecoderSchemaCache(&avro.SchemaCache{}))
	if err != nil {
		return nil, fmt.Errorf("%w: opening manifest: %v", ErrInvalidMetadata, err)
	}

	var out []ManifestEntry
	for dec.HasNext() {
		var msg manifestEntryMsg
		if err := dec.Decode(&msg); err != nil {
			return nil, fmt.Errorf("%w: decoding manifest entry: %v", ErrInvalidMetadata, err)
		}

		df, err := fromDataFileMsg(msg.DataFile)
		if err != nil {
			return nil, err
		}

		out = append(out, ManifestEntry{
			Status:         ManifestEntryStatus(msg.Status),
			SnapshotID:     msg.SnapshotID,
			SequenceNumber: msg.SequenceNumber,
			file:           df,
		})
	}

	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %v", ErrInvalidMetadata, err)
	}

	return out, nil
}
