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

// Package io provides IO abstractions for reading and writing the
// files of a table warehouse independent of the backing storage.
package io

import (
	"fmt"
	"io"
	"net/url"
)

// File is an open, readable file. Readers require seekability so that
// footer-indexed formats can be opened without buffering the payload.
type File interface {
	io.ReadSeekCloser
}

// FileWriter is an open file being written. The contents are not
// guaranteed to be visible to readers until Close returns.
type FileWriter = io.WriteCloser

// IO is the interface to a file store holding table data, delete, and
// metadata files. Implementations must be safe for concurrent use.
type IO interface {
	// Open opens the given file for reading, failing if it does not exist.
	Open(name string) (File, error)
	// Create opens the given file for writing, truncating any existing
	// content and creating parent paths as needed.
	Create(name string) (FileWriter, error)
	// WriteFile atomically writes content to the named file.
	WriteFile(name string, content []byte) error
	// Remove deletes the named file.
	Remove(name string) error
}

// LoadFS takes a map of properties and an optional URI location and
// infers an IO implementation from the URI scheme.
//
// A scheme of "file://" or an empty string results in a LocalFS
// implementation, "mem://" in a fresh in-memory blob bucket. Other
// schemes return an error.
func LoadFS(props map[string]string, location string) (IO, error) {
	if location == "" {
		location = props["warehouse"]
	}

	parsed, err := url.Parse(location)
	if err != nil {
		return nil, err
	}

	switch parsed.Scheme {
	case "file", "":
		return LocalFS{}, nil
	case "mem":
		return NewInMemoryFS(), nil
	default:
		return nil, fmt.Errorf("IO for file '%s' not implemented", location)
	}
}
