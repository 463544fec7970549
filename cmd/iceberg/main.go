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

package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/cjjnjust/incubator-iceberg/config"
	"github.com/cjjnjust/incubator-iceberg/io"
	"github.com/cjjnjust/incubator-iceberg/table"
)

const version = "iceberg 0.1.0"

const usage = `iceberg.

Usage:
  iceberg describe [options] METADATA_PATH
  iceberg schema [options] METADATA_PATH
  iceberg spec [options] METADATA_PATH
  iceberg files [options] METADATA_PATH [--history]
  iceberg scan [options] METADATA_PATH
  iceberg -h | --help | --version

Commands:
  describe    Describe the table behind a metadata file.
  schema      Print the table's current schema.
  spec        Print the table's default partition spec.
  files       List the manifests and files of the current snapshot.
  scan        Read the table's rows, reconciling deletes.

Arguments:
  METADATA_PATH  path to a table metadata JSON file

Options:
  -h --help          show this help message and exit
  --config TEXT      specify the path to the configuration file
  --output TYPE      output type (json/text), overriding the config file
  --columns TEXT     comma separated column names to read [default: *]
  --limit N          maximum number of rows to read [default: -1]
  --snapshot ID      pin the scan to a snapshot id
  --history          include all snapshots, not just the current one`

type Config struct {
	Describe bool `docopt:"describe"`
	Schema   bool `docopt:"schema"`
	Spec     bool `docopt:"spec"`
	Files    bool `docopt:"files"`
	Scan     bool `docopt:"scan"`

	MetadataPath string `docopt:"METADATA_PATH"`

	ConfigPath string `docopt:"--config"`
	Output     string `docopt:"--output"`
	Columns    string `docopt:"--columns"`
	Limit      string `docopt:"--limit"`
	Snapshot   string `docopt:"--snapshot"`
	History    bool   `docopt:"--history"`
}

func parseID(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid numeric argument %q", s)
	}

	return n
}

func main() {
	ctx := context.Background()
	args, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		log.Fatal(err)
	}

	cfg := Config{}
	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	fileCfg := config.ParseConfig(config.LoadConfig(cfg.ConfigPath))

	outputType := cfg.Output
	if outputType == "" {
		outputType = fileCfg.Output
	}

	var output Output
	switch outputType {
	case "text", "":
		output = text{}
	case "json":
		output = jsonOutput{}
	default:
		log.Fatal("unimplemented output type")
	}

	fs, err := io.LoadFS(map[string]string{"warehouse": fileCfg.Warehouse}, cfg.MetadataPath)
	if err != nil {
		output.Error(err)
		os.Exit(1)
	}

	tbl, err := table.NewFromLocation(cfg.MetadataPath, fs)
	if err != nil {
		output.Error(err)
		os.Exit(1)
	}

	switch {
	case cfg.Describe:
		output.DescribeTable(tbl)
	case cfg.Schema:
		output.Schema(tbl.Schema())
	case cfg.Spec:
		output.Spec(tbl.Spec())
	case cfg.Files:
		output.Files(tbl, cfg.History)
	case cfg.Scan:
		opts := []table.ScanOption{
			table.WithMaxConcurrency(fileCfg.MaxWorkers),
		}
		if cfg.Limit != "" {
			opts = append(opts, table.WithLimit(parseID(cfg.Limit)))
		}
		if cols := strings.Split(cfg.Columns, ","); len(cols) > 0 {
			opts = append(opts, table.WithSelectedFields(cols...))
		}
		if cfg.Snapshot != "" {
			opts = append(opts, table.WithSnapshotID(parseID(cfg.Snapshot)))
		}

		sc, rows, err := tbl.Scan(opts...).Rows(ctx)
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}
		output.Rows(sc, rows)
	}
}
