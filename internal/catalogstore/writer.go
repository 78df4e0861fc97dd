/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package catalogstore

import (
	"os"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/golang/snappy"
	"github.com/jackc/pgio"

	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
)

// Datum is one column value of a snapshot row. Value is the raw datum
// image with any varlena header already stripped.
type Datum struct {
	Null  bool
	Value []byte
}

func NullDatum() Datum {
	return Datum{Null: true}
}

func ValueDatum(value []byte) Datum {
	return Datum{Value: value}
}

func Uint32Datum(value uint32) Datum {
	return Datum{Value: pgio.AppendUint32(nil, value)}
}

func Int32Datum(value int32) Datum {
	return Datum{Value: pgio.AppendInt32(nil, value)}
}

func Int16Datum(value int16) Datum {
	return Datum{Value: pgio.AppendUint16(nil, uint16(value))}
}

func BoolDatum(value bool) Datum {
	if value {
		return Datum{Value: []byte{1}}
	}
	return Datum{Value: []byte{0}}
}

func CharDatum(value byte) Datum {
	return Datum{Value: []byte{value}}
}

func NameDatum(value string) Datum {
	return Datum{Value: []byte(value)}
}

type snapshotRow struct {
	keyOid uint32
	datums []Datum
}

// ClassWriter accumulates the rows of one catalog class.
type ClassWriter struct {
	classOid uint32
	columns  []string
	rows     []snapshotRow
}

// Row appends one catalog row keyed by oid. The datum count must match
// the declared column schema.
func (cw *ClassWriter) Row(
	keyOid uint32, datums ...Datum,
) error {

	if len(datums) != len(cw.columns) {
		return errors.Errorf(
			"row for class %d carries %d datums, schema has %d columns",
			cw.classOid, len(datums), len(cw.columns),
		)
	}
	cw.rows = append(cw.rows, snapshotRow{
		keyOid: keyOid,
		datums: datums,
	})
	return nil
}

func (cw *ClassWriter) encode() []byte {
	block := pgio.AppendUint32(nil, cw.classOid)
	block = pgio.AppendUint16(block, uint16(len(cw.columns)))
	for _, column := range cw.columns {
		block = pgio.AppendUint16(block, uint16(len(column)))
		block = append(block, column...)
	}
	block = pgio.AppendUint32(block, uint32(len(cw.rows)))
	for _, row := range cw.rows {
		block = pgio.AppendUint32(block, row.keyOid)
		for _, datum := range row.datums {
			if datum.Null {
				block = append(block, datumNull)
				continue
			}
			block = append(block, datumPresent)
			block = pgio.AppendUint32(block, uint32(len(datum.Value)))
			block = append(block, datum.Value...)
		}
	}
	return block
}

// SnapshotWriter assembles a catalog snapshot file. Class sections are
// snappy compressed; the index and trailer stay uncompressed so a
// reader can locate blocks without inflating anything.
type SnapshotWriter struct {
	classes []*ClassWriter
}

func NewSnapshotWriter() *SnapshotWriter {
	return &SnapshotWriter{}
}

// Class declares a catalog class section with its column schema and
// returns the writer rows go to. Declaring the same class twice makes
// two sections; readers use the first.
func (w *SnapshotWriter) Class(
	class catalog.RegClass, columns ...string,
) *ClassWriter {

	classWriter := &ClassWriter{
		classOid: uint32(class),
		columns:  columns,
	}
	w.classes = append(w.classes, classWriter)
	return classWriter
}

// Bytes renders the complete snapshot image.
func (w *SnapshotWriter) Bytes() []byte {
	file := pgio.AppendUint32(nil, snapshotMagic)
	file = pgio.AppendUint32(file, snapshotVersion)

	entries := make([]indexEntry, 0, len(w.classes))
	for _, classWriter := range w.classes {
		raw := classWriter.encode()
		compressed := snappy.Encode(nil, raw)
		entries = append(entries, indexEntry{
			classOid:         classWriter.classOid,
			blockOffset:      uint64(len(file)),
			compressedLength: uint32(len(compressed)),
			rawLength:        uint32(len(raw)),
		})
		file = append(file, compressed...)
	}

	indexOffset := uint64(len(file))
	file = pgio.AppendUint32(file, uint32(len(entries)))
	for _, entry := range entries {
		file = pgio.AppendUint32(file, entry.classOid)
		file = pgio.AppendUint64(file, entry.blockOffset)
		file = pgio.AppendUint32(file, entry.compressedLength)
		file = pgio.AppendUint32(file, entry.rawLength)
	}

	file = pgio.AppendUint64(file, indexOffset)
	file = pgio.AppendUint32(file, checksum(file))
	file = pgio.AppendUint32(file, snapshotMagic)
	return file
}

// WriteFile writes the snapshot through a temporary file in the target
// directory and swaps it into place with a rename, so readers either
// see the previous snapshot or the complete new one.
func (w *SnapshotWriter) WriteFile(
	path string,
) error {

	image := w.Bytes()

	dir := filepath.Dir(path)
	temp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, 0)
	}
	tempName := temp.Name()

	if _, err := temp.Write(image); err != nil {
		temp.Close()
		os.Remove(tempName)
		return errors.Wrap(err, 0)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempName)
		return errors.Wrap(err, 0)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return errors.Wrap(err, 0)
	}

	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return errors.Wrap(err, 0)
	}
	return nil
}
