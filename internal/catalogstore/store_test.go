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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	spiconfig "github.com/varlenahq/pg-datum-marshal/spi/config"
	"github.com/varlenahq/pg-datum-marshal/spi/sidechannel"
)

func sampleSnapshot() *SnapshotWriter {
	writer := NewSnapshotWriter()

	types := writer.Class(
		catalog.TypeClass, "typname", "typlen", "typbyval", "typalign",
	)
	types.Row(23,
		NameDatum("int4"), Int16Datum(4), BoolDatum(true), CharDatum('i'),
	)
	types.Row(25,
		NameDatum("text"), Int16Datum(-1), BoolDatum(false), CharDatum('i'),
	)

	attributes := writer.Class(
		catalog.AttributeClass, "attname", "atttypid", "attnum",
	)
	attributes.Row(16384, NameDatum("id"), Uint32Datum(23), Int16Datum(1))
	attributes.Row(16384, NameDatum("payload"), Uint32Datum(25), Int16Datum(2))
	attributes.Row(16385, NameDatum("other"), Uint32Datum(23), Int16Datum(1))

	return writer
}

func Test_Snapshot_Round_Trip_From_Bytes(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	row, err := store.FetchCatalogRow(catalog.TypeClass, 23)
	assert.Nil(t, err)
	defer row.Close()

	name, err := row.Name("typname")
	assert.Nil(t, err)
	assert.Equal(t, "int4", name)

	length, err := row.Int16("typlen")
	assert.Nil(t, err)
	assert.Equal(t, int16(4), length)

	byValue, err := row.Bool("typbyval")
	assert.Nil(t, err)
	assert.True(t, byValue)

	alignment, err := row.Char("typalign")
	assert.Nil(t, err)
	assert.Equal(t, byte('i'), alignment)
}

func Test_Snapshot_Scan_Visits_Matching_Rows_In_Order(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	var names []string
	err = store.ScanCatalogRows(
		catalog.AttributeClass, 16384,
		func(row sidechannel.CatalogRow) error {
			name, err := row.Name("attname")
			if err != nil {
				return err
			}
			names = append(names, name)
			return nil
		},
	)
	assert.Nil(t, err)
	assert.Equal(t, []string{"id", "payload"}, names)
}

func Test_Snapshot_Missing_Row_And_Class_Fail(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	_, err = store.FetchCatalogRow(catalog.TypeClass, 999)
	assert.NotNil(t, err)

	_, err = store.FetchCatalogRow(catalog.NamespaceClass, 11)
	assert.NotNil(t, err)
}

func Test_Snapshot_Null_Datums(t *testing.T) {
	writer := NewSnapshotWriter()
	class := writer.Class(catalog.TypeClass, "typname", "typdefault")
	class.Row(23, NameDatum("int4"), NullDatum())

	store, err := NewStoreFromBytes(writer.Bytes())
	assert.Nil(t, err)
	defer store.Close()

	row, err := store.FetchCatalogRow(catalog.TypeClass, 23)
	assert.Nil(t, err)
	defer row.Close()

	_, null, err := row.Datum("typdefault")
	assert.Nil(t, err)
	assert.True(t, null)

	// Typed accessors refuse nulls.
	_, err = row.Name("typdefault")
	assert.NotNil(t, err)
}

func Test_Snapshot_Row_Buffers_Are_Pinned(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	row, err := store.FetchCatalogRow(catalog.TypeClass, 25)
	assert.Nil(t, err)

	view, null, err := row.Datum("typname")
	assert.Nil(t, err)
	assert.False(t, null)
	assert.Equal(t, []byte("text"), view.Bytes(0, view.Length()))

	row.Close()
	assert.Panics(t, func() {
		view.Byte(0)
	})
}

func Test_Snapshot_Row_Misses_Unknown_Columns(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	row, err := store.FetchCatalogRow(catalog.TypeClass, 23)
	assert.Nil(t, err)
	defer row.Close()

	_, _, err = row.Datum("nosuchcolumn")
	assert.NotNil(t, err)
}

func Test_Snapshot_Checksum_Mismatch_Fails(t *testing.T) {
	image := sampleSnapshot().Bytes()
	image[9] ^= 0xFF

	_, err := NewStoreFromBytes(image)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "checksum")
}

func Test_Snapshot_Truncated_Image_Fails(t *testing.T) {
	_, err := NewStoreFromBytes([]byte{0x50, 0x47})
	assert.NotNil(t, err)
}

func Test_Snapshot_File_Round_Trip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.snap")
	assert.Nil(t, sampleSnapshot().WriteFile(path))

	store, err := OpenStore(spiconfig.SnapshotConfig{
		Path:                 path,
		RetryInitialInterval: 10 * time.Millisecond,
		RetryMaxElapsedTime:  time.Second,
	})
	assert.Nil(t, err)

	row, err := store.FetchCatalogRow(catalog.TypeClass, 23)
	assert.Nil(t, err)
	name, err := row.Name("typname")
	assert.Nil(t, err)
	assert.Equal(t, "int4", name)
	row.Close()

	assert.Nil(t, store.Close())
}

func Test_Snapshot_Open_Retries_Then_Gives_Up(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torn.snap")
	image := sampleSnapshot().Bytes()
	image[len(image)-6] ^= 0xFF
	assert.Nil(t, os.WriteFile(path, image, 0o644))

	started := time.Now()
	_, err := OpenStore(spiconfig.SnapshotConfig{
		Path:                 path,
		RetryInitialInterval: 5 * time.Millisecond,
		RetryMaxElapsedTime:  50 * time.Millisecond,
	})
	assert.NotNil(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 5*time.Millisecond)
}

func Test_Snapshot_Missing_File_Fails_Without_Retrying(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.snap")

	started := time.Now()
	_, err := OpenStore(spiconfig.SnapshotConfig{
		Path:                 path,
		RetryInitialInterval: 50 * time.Millisecond,
		RetryMaxElapsedTime:  10 * time.Second,
	})
	assert.NotNil(t, err)
	// A missing file is not a torn-read race; no retry window applies.
	assert.Less(t, time.Since(started), 5*time.Second)
}

func Test_Snapshot_Row_Arity_Is_Enforced(t *testing.T) {
	writer := NewSnapshotWriter()
	class := writer.Class(catalog.TypeClass, "typname", "typlen")
	assert.NotNil(t, class.Row(23, NameDatum("int4")))
	assert.Nil(t, class.Row(23, NameDatum("int4"), Int16Datum(4)))
}

func Test_Snapshot_Invalidation_Fanout(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	received := make([]sidechannel.Invalidation, 0, 1)
	store.OnInvalidation(invalidationFunc(func(inv sidechannel.Invalidation) {
		received = append(received, inv)
	}))

	store.ApplyInvalidation(sidechannel.Invalidation{
		Keys: []catalog.ObjectKey{catalog.NewObjectKey(catalog.TypeClass, 23)},
	})
	assert.Len(t, received, 1)
	assert.Equal(t, uint32(23), received[0].Keys[0].Oid)
}

type invalidationFunc func(invalidation sidechannel.Invalidation)

func (f invalidationFunc) HandleInvalidation(
	invalidation sidechannel.Invalidation,
) {

	f(invalidation)
}

func Test_Snapshot_Describe_Lists_Classes(t *testing.T) {
	store, err := NewStoreFromBytes(sampleSnapshot().Bytes())
	assert.Nil(t, err)
	defer store.Close()

	classes, err := store.Describe()
	assert.Nil(t, err)
	assert.Equal(t, 2, len(classes))

	assert.Equal(t, uint32(catalog.TypeClass), classes[0].ClassOid)
	assert.Equal(t, "pg_type", classes[0].Class)
	assert.Equal(t, []string{"typname", "typlen", "typbyval", "typalign"}, classes[0].Columns)
	assert.Equal(t, 2, classes[0].Rows)

	assert.Equal(t, "pg_attribute", classes[1].Class)
	assert.Equal(t, 3, classes[1].Rows)
}
