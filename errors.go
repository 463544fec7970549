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

import "errors"

var (
	// ErrInvalidArgument is returned when a caller passes a value that
	// fails validation, such as an unknown snapshot id or column name.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidMetadata is returned when table metadata is internally
	// inconsistent, such as a snapshot referencing an unknown schema.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrInvalidSchema is returned for schemas that violate the field-id
	// rules, such as duplicate ids or tightening a field to required.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidTransform is returned when a transform string cannot be parsed.
	ErrInvalidTransform = errors.New("invalid transform syntax")

	// ErrSchemaMismatch indicates a delete schema field-id that cannot be
	// resolved against the schema a data file is read with.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDataCorruption indicates a malformed row in a data or delete file.
	ErrDataCorruption = errors.New("data corruption")
	// ErrIOFailure indicates the underlying file could not be read.
	ErrIOFailure = errors.New("io failure")
	// ErrInvalidDeleteFile indicates a delete file whose contents cannot
	// apply, such as a position beyond the target file's row count.
	ErrInvalidDeleteFile = errors.New("invalid delete file")
	// ErrUnsupportedFormat is returned when opening a file format that
	// has no registered row source.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
