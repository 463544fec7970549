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

// Reserved field ids for the columns of position delete files. These
// are Integer.MAX_VALUE - 101 and - 102 per the table spec, so they
// can never collide with user column ids.
const (
	DeleteFilePathFieldID = 2147483546
	DeleteFilePosFieldID  = 2147483545
)

const (
	DeleteFilePathColumnName = "file_path"
	DeleteFilePosColumnName  = "pos"
)

// PositionalDeleteSchema is the fixed row schema of every position
// delete file: the full path of the target data file and the 0-based
// ordinal of the deleted row within it.
var PositionalDeleteSchema = NewSchema(0,
	NestedField{ID: DeleteFilePathFieldID, Name: DeleteFilePathColumnName, Type: PrimitiveTypes.String, Required: true},
	NestedField{ID: DeleteFilePosFieldID, Name: DeleteFilePosColumnName, Type: PrimitiveTypes.Int64, Required: true},
)

// IsMetadataColumn returns true if the field id is one of the reserved
// metadata column ids.
func IsMetadataColumn(fieldID int) bool {
	return fieldID == DeleteFilePathFieldID || fieldID == DeleteFilePosFieldID
}
