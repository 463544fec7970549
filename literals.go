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
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// EncodeLiteral renders a primitive value into a canonical, tagged
// string form. The encoding is stable across processes and is used for
// partition values inside manifests and for structural hashing, so two
// equal values must always produce the same string. NULL encodes as a
// distinct tag so it can be matched without being confused with any
// real value.
func EncodeLiteral(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return "bool:" + strconv.FormatBool(v), nil
	case int:
		return "long:" + strconv.FormatInt(int64(v), 10), nil
	case int32:
		return "long:" + strconv.FormatInt(int64(v), 10), nil
	case int64:
		return "long:" + strconv.FormatInt(v, 10), nil
	case float32:
		return "double:" + strconv.FormatFloat(float64(v), 'g', -1, 64), nil
	case float64:
		return "double:" + strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return "string:" + v, nil
	case []byte:
		return "binary:" + hex.EncodeToString(v), nil
	}

	return "", fmt.Errorf("%w: cannot encode literal of type %T", ErrInvalidArgument, v)
}

// DecodeLiteral parses the canonical string form produced by
// EncodeLiteral. Integer values come back as int64 and floating point
// values as float64; callers needing narrower types coerce via the
// field's schema type.
func DecodeLiteral(s string) (any, error) {
	if s == "null" {
		return nil, nil
	}

	tag, rest, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("%w: malformed literal %q", ErrInvalidArgument, s)
	}

	switch tag {
	case "bool":
		return strconv.ParseBool(rest)
	case "long":
		return strconv.ParseInt(rest, 10, 64)
	case "double":
		return strconv.ParseFloat(rest, 64)
	case "string":
		return rest, nil
	case "binary":
		return hex.DecodeString(rest)
	}

	return nil, fmt.Errorf("%w: unknown literal tag %q", ErrInvalidArgument, tag)
}

// LiteralsEqual implements null-aware structural equality over the
// primitive value domain: nil equals nil, integers compare across
// widths, and byte slices compare by content. This is the single
// comparison contract shared by the equality-delete index, partition
// matching, and struct sets.
func LiteralsEqual(a, b any) bool {
	ea, erra := EncodeLiteral(a)
	eb, errb := EncodeLiteral(b)
	if erra != nil || errb != nil {
		return false
	}

	return ea == eb
}
