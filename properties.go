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

import "maps"

// Properties is a key/value map of string configuration values.
type Properties map[string]string

// Get returns the value for k, or defVal if the key is not present.
func (p Properties) Get(k, defVal string) string {
	if v, ok := p[k]; ok {
		return v
	}

	return defVal
}

func (p Properties) Clone() Properties {
	return maps.Clone(p)
}
