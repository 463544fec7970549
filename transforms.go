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
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/twmb/murmur3"
)

var regexFromBrackets = regexp.MustCompile(`^\w+\[(\d+)\]$`)

// ParseTransform takes the string representation of a transform and
// produces the appropriate Transform object or an error if the string
// is not a valid transform string.
func ParseTransform(s string) (Transform, error) {
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "bucket"):
		matches := regexFromBrackets.FindStringSubmatch(s)
		if len(matches) != 2 {
			break
		}

		n, _ := strconv.Atoi(matches[1])

		return BucketTransform{NumBuckets: n}, nil
	default:
		switch s {
		case "identity":
			return IdentityTransform{}, nil
		case "void":
			return VoidTransform{}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidTransform, s)
}

// Transform is an interface for the transformation types used by
// partition specs to derive a partition value from a source column.
type Transform interface {
	fmt.Stringer
	ResultType(t Type) Type
	// Apply transforms a source value into a partition value.
	// A nil input always maps to nil.
	Apply(v any) (any, error)
}

// IdentityTransform uses the identity function, performing no
// transformation but instead partitioning on the value itself.
type IdentityTransform struct{}

func (IdentityTransform) String() string { return "identity" }

func (IdentityTransform) ResultType(t Type) Type { return t }

func (IdentityTransform) Apply(v any) (any, error) { return v, nil }

// VoidTransform is a transformation that always returns nil.
type VoidTransform struct{}

func (VoidTransform) String() string { return "void" }

func (VoidTransform) ResultType(t Type) Type { return t }

func (VoidTransform) Apply(any) (any, error) { return nil, nil }

// BucketTransform transforms values into a bucket partition value. It
// is parameterized by a number of buckets. Bucket partition transforms
// use a 32-bit murmur3 hash of the source value to produce a positive
// value by mod the bucket number.
type BucketTransform struct {
	NumBuckets int
}

func (t BucketTransform) String() string { return fmt.Sprintf("bucket[%d]", t.NumBuckets) }

func (BucketTransform) ResultType(Type) Type { return PrimitiveTypes.Int32 }

func (t BucketTransform) Apply(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	var h uint32
	switch v := v.(type) {
	case int:
		h = hashInt64(int64(v))
	case int32:
		h = hashInt64(int64(v))
	case int64:
		h = hashInt64(v)
	case string:
		h = murmur3.Sum32([]byte(v))
	case []byte:
		h = murmur3.Sum32(v)
	default:
		return nil, fmt.Errorf("%w: bucket transform does not accept %T", ErrInvalidArgument, v)
	}

	return int32(h&math.MaxInt32) % int32(t.NumBuckets), nil
}

// integers are always hashed as 64-bit little-endian so that int and
// long columns bucket identically.
func hashInt64(v int64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))

	return murmur3.Sum32(buf[:])
}
