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

package io

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

// blobFileIO is an IO implementation backed by a gocloud.dev blob
// bucket. Object keys are the file paths with any scheme and host
// stripped, so the same warehouse-relative paths work across backends.
type blobFileIO struct {
	bucket *blob.Bucket
}

// NewBlobFileIO wraps an already-open bucket as an IO. The caller keeps
// ownership of the bucket's lifetime.
func NewBlobFileIO(bucket *blob.Bucket) IO {
	return &blobFileIO{bucket: bucket}
}

// NewInMemoryFS returns an IO over a fresh in-memory bucket. Useful in
// tests and for staging scans over synthesized files; contents are
// private to the returned IO.
func NewInMemoryFS() IO {
	return &blobFileIO{bucket: memblob.OpenBucket(nil)}
}

func blobKey(name string) string {
	if parsed, err := url.Parse(name); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}

	return strings.TrimPrefix(name, "/")
}

type blobFile struct {
	*bytes.Reader
}

func (blobFile) Close() error { return nil }

func (b *blobFileIO) Open(name string) (File, error) {
	// blob readers do not support ReadAt, so buffer the object. Data
	// and delete files read through here are bounded by scan task size.
	data, err := b.bucket.ReadAll(context.Background(), blobKey(name))
	if err != nil {
		return nil, err
	}

	return blobFile{bytes.NewReader(data)}, nil
}

type blobWriter struct {
	w *blob.Writer
}

func (w blobWriter) Write(p []byte) (int, error) { return w.w.Write(p) }
func (w blobWriter) Close() error                { return w.w.Close() }

func (b *blobFileIO) Create(name string) (FileWriter, error) {
	w, err := b.bucket.NewWriter(context.Background(), blobKey(name), nil)
	if err != nil {
		return nil, err
	}

	return blobWriter{w: w}, nil
}

func (b *blobFileIO) WriteFile(name string, content []byte) error {
	return b.bucket.WriteAll(context.Background(), blobKey(name), content, nil)
}

func (b *blobFileIO) Remove(name string) error {
	return b.bucket.Delete(context.Background(), blobKey(name))
}
