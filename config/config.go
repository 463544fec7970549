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

// Package config loads the optional user configuration file used by
// the CLI and as defaults for scans.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	cfgFile           = ".iceberg-go.yaml"
	defaultMaxWorkers = 5
)

type Config struct {
	// MaxWorkers bounds the parallelism of scan planning and reading.
	MaxWorkers int `yaml:"max-workers"`
	// Warehouse is the default table location root used when a
	// metadata path carries no scheme.
	Warehouse string `yaml:"warehouse"`
	// Output selects the default CLI rendering, "text" or "json".
	Output string `yaml:"output"`
}

// LoadConfig reads the raw config file, preferring the explicit path
// and falling back to the file in the user's home directory. A missing
// file is not an error; defaults apply.
func LoadConfig(configPath string) []byte {
	var path string
	if len(configPath) > 0 {
		path = configPath
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(homeDir, cfgFile)
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return file
}

// ParseConfig decodes a config file, applying defaults for anything
// unset or unparseable.
func ParseConfig(file []byte) Config {
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		cfg = Config{}
	}

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}

	return cfg
}

func fromConfigFiles() Config {
	dir := os.Getenv("GOICEBERG_HOME")
	if dir != "" {
		dir = filepath.Join(dir, cfgFile)
	}

	return ParseConfig(LoadConfig(dir))
}

var EnvConfig = fromConfigFiles()
