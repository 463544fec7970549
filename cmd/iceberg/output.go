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
	"encoding/json"
	"fmt"
	"iter"
	"log"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/cjjnjust/incubator-iceberg"
	"github.com/cjjnjust/incubator-iceberg/table"
)

type Output interface {
	DescribeTable(*table.Table)
	Schema(*iceberg.Schema)
	Spec(iceberg.PartitionSpec)
	Files(tbl *table.Table, history bool)
	Rows(sc *iceberg.Schema, rows iter.Seq2[iceberg.StructLike, error])
	Text(string)
	Error(error)
}

type text struct{}

func (t text) DescribeTable(tbl *table.Table) {
	meta := tbl.Metadata()

	pterm.DefaultTable.
		WithData(pterm.TableData{
			{"Table UUID", meta.UUID.String()},
			{"Location", meta.Location},
			{"Last sequence number", strconv.FormatInt(meta.LastSequenceNumber, 10)},
			{"Last updated", strconv.FormatInt(meta.LastUpdatedMs, 10)},
			{"Partition Spec", tbl.Spec().String()},
		}).Render()

	t.Schema(tbl.Schema())

	snapshotList := pterm.LeveledList{}
	for _, s := range meta.Snapshots {
		snapshotList = append(snapshotList, pterm.LeveledListItem{
			Level: 0, Text: s.String(),
		})
	}
	snapshotTreeNode := putils.TreeFromLeveledList(snapshotList)
	snapshotTreeNode.Text = "Snapshots"
	pterm.DefaultTree.WithRoot(snapshotTreeNode).Render()

	propData := pterm.TableData{{"key", "value"}}
	for k, v := range tbl.Properties() {
		propData = append(propData, []string{k, v})
	}
	pterm.Println("Properties")
	pterm.DefaultTable.
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(propData).Render()
}

func (text) Schema(sc *iceberg.Schema) {
	data := pterm.TableData{{"id", "name", "type", "required"}}
	for _, f := range sc.Fields() {
		data = append(data, []string{
			strconv.Itoa(f.ID), f.Name, f.Type.String(), strconv.FormatBool(f.Required),
		})
	}

	pterm.Println("Schema", sc.ID)
	pterm.DefaultTable.
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (text) Spec(spec iceberg.PartitionSpec) {
	pterm.Println(spec)
}

func (t text) Files(tbl *table.Table, history bool) {
	var snapshots []table.Snapshot
	if history {
		snapshots = tbl.Metadata().Snapshots
	} else if snap := tbl.CurrentSnapshot(); snap != nil {
		snapshots = []table.Snapshot{*snap}
	}

	fileTree := pterm.LeveledList{}
	for _, snap := range snapshots {
		fileTree = append(fileTree, pterm.LeveledListItem{Level: 0, Text: snap.String()})

		for _, path := range snap.ManifestFiles {
			fileTree = append(fileTree, pterm.LeveledListItem{
				Level: 1, Text: "Manifest: " + path,
			})

			entries, err := readManifest(tbl, path)
			if err != nil {
				t.Error(err)
				os.Exit(1)
			}

			for _, e := range entries {
				fileTree = append(fileTree, pterm.LeveledListItem{
					Level: 2, Text: e.String(),
				})
			}
		}
	}

	node := putils.TreeFromLeveledList(fileTree)
	node.Text = "Files"
	pterm.DefaultTree.WithRoot(node).Render()
}

func (t text) Rows(sc *iceberg.Schema, rows iter.Seq2[iceberg.StructLike, error]) {
	header := make([]string, sc.NumFields())
	for i, f := range sc.Fields() {
		header[i] = f.Name
	}

	data := pterm.TableData{header}
	for row, err := range rows {
		if err != nil {
			t.Error(err)
			os.Exit(1)
		}

		cells := make([]string, row.Size())
		for i := range cells {
			if v := row.Get(i); v != nil {
				cells[i] = fmt.Sprintf("%v", v)
			} else {
				cells[i] = "NULL"
			}
		}
		data = append(data, cells)
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (text) Text(val string) { pterm.Println(val) }

func (text) Error(err error) {
	pterm.Error.Println(err)
}

type jsonOutput struct{}

func (jsonOutput) emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}

func (j jsonOutput) DescribeTable(tbl *table.Table)  { j.emit(tbl.Metadata()) }
func (j jsonOutput) Schema(sc *iceberg.Schema)       { j.emit(sc) }
func (j jsonOutput) Spec(spec iceberg.PartitionSpec) { j.emit(spec) }

func (j jsonOutput) Files(tbl *table.Table, history bool) {
	type manifest struct {
		Path    string   `json:"path"`
		Entries []string `json:"entries"`
	}
	type snapshotFiles struct {
		Snapshot  table.Snapshot `json:"snapshot"`
		Manifests []manifest     `json:"manifests"`
	}

	var snapshots []table.Snapshot
	if history {
		snapshots = tbl.Metadata().Snapshots
	} else if snap := tbl.CurrentSnapshot(); snap != nil {
		snapshots = []table.Snapshot{*snap}
	}

	out := make([]snapshotFiles, 0, len(snapshots))
	for _, snap := range snapshots {
		sf := snapshotFiles{Snapshot: snap}
		for _, path := range snap.ManifestFiles {
			entries, err := readManifest(tbl, path)
			if err != nil {
				j.Error(err)
				os.Exit(1)
			}

			m := manifest{Path: path}
			for _, e := range entries {
				m.Entries = append(m.Entries, e.String())
			}
			sf.Manifests = append(sf.Manifests, m)
		}
		out = append(out, sf)
	}

	j.emit(out)
}

func (j jsonOutput) Rows(sc *iceberg.Schema, rows iter.Seq2[iceberg.StructLike, error]) {
	fields := sc.Fields()

	out := make([]map[string]any, 0)
	for row, err := range rows {
		if err != nil {
			j.Error(err)
			os.Exit(1)
		}

		rec := make(map[string]any, len(fields))
		for i, f := range fields {
			rec[f.Name] = row.Get(i)
		}
		out = append(out, rec)
	}

	j.emit(out)
}

func (j jsonOutput) Text(val string) { j.emit(val) }

func (jsonOutput) Error(err error) {
	json.NewEncoder(os.Stderr).Encode(map[string]string{"error": err.Error()})
}

func readManifest(tbl *table.Table, path string) ([]iceberg.ManifestEntry, error) {
	f, err := tbl.FS().Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return iceberg.ReadManifest(f)
}
