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
)

// Type is an interface representing any of the available types in the
// schema model. Currently only primitive types are modeled; nested
// struct, list, and map types are not needed by the read engine.
type Type interface {
	fmt.Stringer
	Type() string
	Equals(Type) bool
}

// PrimitiveType is a type that contains no nested types.
type PrimitiveType interface {
	Type
	primitive()
}

// PrimitiveTypes is a struct providing quick access to instances of all
// the primitive types.
var PrimitiveTypes = struct {
	Bool    PrimitiveType
	Int32   PrimitiveType
	Int64   PrimitiveType
	Float32 PrimitiveType
	Float64 PrimitiveType
	Date    PrimitiveType
	String  PrimitiveType
	Binary  PrimitiveType
}{
	Bool:    BooleanType{},
	Int32:   Int32Type{},
	Int64:   Int64Type{},
	Float32: Float32Type{},
	Float64: Float64Type{},
	Date:    DateType{},
	String:  StringType{},
	Binary:  BinaryType{},
}

type BooleanType struct{}

func (BooleanType) Equals(other Type) bool {
	_, ok := other.(BooleanType)

	return ok
}

func (BooleanType) primitive()     {}
func (BooleanType) Type() string   { return "boolean" }
func (BooleanType) String() string { return "boolean" }

// Int32Type is the "int" 32-bit signed integer type.
type Int32Type struct{}

func (Int32Type) Equals(other Type) bool {
	_, ok := other.(Int32Type)

	return ok
}

func (Int32Type) primitive()     {}
func (Int32Type) Type() string   { return "int" }
func (Int32Type) String() string { return "int" }

// Int64Type is the "long" 64-bit signed integer type.
type Int64Type struct{}

func (Int64Type) Equals(other Type) bool {
	_, ok := other.(Int64Type)

	return ok
}

func (Int64Type) primitive()     {}
func (Int64Type) Type() string   { return "long" }
func (Int64Type) String() string { return "long" }

type Float32Type struct{}

func (Float32Type) Equals(other Type) bool {
	_, ok := other.(Float32Type)

	return ok
}

func (Float32Type) primitive()     {}
func (Float32Type) Type() string   { return "float" }
func (Float32Type) String() string { return "float" }

type Float64Type struct{}

func (Float64Type) Equals(other Type) bool {
	_, ok := other.(Float64Type)

	return ok
}

func (Float64Type) primitive()     {}
func (Float64Type) Type() string   { return "double" }
func (Float64Type) String() string { return "double" }

// DateType represents a calendar date without a timezone or time,
// stored as days since the unix epoch.
type DateType struct{}

func (DateType) Equals(other Type) bool {
	_, ok := other.(DateType)

	return ok
}

func (DateType) primitive()     {}
func (DateType) Type() string   { return "date" }
func (DateType) String() string { return "date" }

type StringType struct{}

func (StringType) Equals(other Type) bool {
	_, ok := other.(StringType)

	return ok
}

func (StringType) primitive()     {}
func (StringType) Type() string   { return "string" }
func (StringType) String() string { return "string" }

type BinaryType struct{}

func (BinaryType) Equals(other Type) bool {
	_, ok := other.(BinaryType)

	return ok
}

func (BinaryType) primitive()     {}
func (BinaryType) Type() string   { return "binary" }
func (BinaryType) String() string { return "binary" }

// TypeFromString returns the primitive type for the given type string
// as it appears in schema JSON, or an error for an unknown type.
func TypeFromString(s string) (Type, error) {
	switch s {
	case "boolean":
		return PrimitiveTypes.Bool, nil
	case "int":
		return PrimitiveTypes.Int32, nil
	case "long":
		return PrimitiveTypes.Int64, nil
	case "float":
		return PrimitiveTypes.Float32, nil
	case "double":
		return PrimitiveTypes.Float64, nil
	case "date":
		return PrimitiveTypes.Date, nil
	case "string":
		return PrimitiveTypes.String, nil
	case "binary":
		return PrimitiveTypes.Binary, nil
	}

	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSchema, s)
}
