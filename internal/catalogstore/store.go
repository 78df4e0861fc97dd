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
	"encoding/binary"
	"os"
	"sort"

	"github.com/cenkalti/backoff/v4"
	"github.com/edsrzf/mmap-go"
	"github.com/go-errors/errors"
	"github.com/golang/snappy"

	"github.com/varlenahq/pg-datum-marshal/internal/logging"
	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	spiconfig "github.com/varlenahq/pg-datum-marshal/spi/config"
	"github.com/varlenahq/pg-datum-marshal/spi/sidechannel"
)

// Store serves catalog rows from a snapshot file. The file is memory
// mapped; class blocks inflate lazily on first access and rows hand
// out pinned views into the inflated block, never into the mapping
// itself, so closing the store cannot pull memory out from under an
// already fetched row.
type Store struct {
	logger *logging.Logger

	mapping mmap.MMap
	file    *os.File
	data    []byte

	classes map[uint32]*classBlock

	handlers []sidechannel.InvalidationHandler
}

// OpenStore maps the snapshot at the configured path. A writer swaps
// snapshots in with an atomic rename, but a reader racing the swap on
// a non-atomic filesystem can still observe a torn image; load
// failures therefore retry with exponential backoff before giving up.
// A path that cannot be opened or mapped at all is not a race and
// fails immediately.
func OpenStore(
	config spiconfig.SnapshotConfig,
) (*Store, error) {

	logger, err := logging.NewLogger("CatalogStore")
	if err != nil {
		return nil, err
	}

	retryPolicy := backoff.NewExponentialBackOff()
	if config.RetryInitialInterval > 0 {
		retryPolicy.InitialInterval = config.RetryInitialInterval
	}
	if config.RetryMaxElapsedTime > 0 {
		retryPolicy.MaxElapsedTime = config.RetryMaxElapsedTime
	}

	var store *Store
	if err := backoff.Retry(func() error {
		file, err := os.Open(config.Path)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, 0))
		}

		mapping, err := mmap.Map(file, mmap.RDONLY, 0)
		if err != nil {
			file.Close()
			return backoff.Permanent(errors.Wrap(err, 0))
		}

		opened := &Store{
			logger:  logger,
			mapping: mapping,
			file:    file,
			data:    mapping,
		}
		if err := opened.load(); err != nil {
			mapping.Unmap()
			file.Close()
			logger.Debugf(
				"snapshot %s not readable yet: %v", config.Path, err,
			)
			return err
		}
		store = opened
		return nil
	}, retryPolicy); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStoreFromBytes serves a snapshot image held in memory, used by
// embedders that receive the snapshot through other means.
func NewStoreFromBytes(
	image []byte,
) (*Store, error) {

	logger, err := logging.NewLogger("CatalogStore")
	if err != nil {
		return nil, err
	}

	store := &Store{
		logger: logger,
		data:   image,
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) load() error {
	data := s.data
	if len(data) < 8+trailerSize {
		return errors.Errorf(
			"snapshot truncated: %d bytes", len(data),
		)
	}
	if binary.BigEndian.Uint32(data) != snapshotMagic {
		return errors.Errorf("snapshot magic mismatch")
	}
	if version := binary.BigEndian.Uint32(data[4:]); version != snapshotVersion {
		return errors.Errorf("unsupported snapshot version %d", version)
	}

	trailer := data[len(data)-trailerSize:]
	if binary.BigEndian.Uint32(trailer[12:]) != snapshotMagic {
		return errors.Errorf("snapshot trailer magic mismatch")
	}
	expected := binary.BigEndian.Uint32(trailer[8:])
	if actual := checksum(data[:len(data)-8]); actual != expected {
		return errors.Errorf(
			"snapshot checksum mismatch: want %08x, have %08x",
			expected, actual,
		)
	}

	indexOffset := binary.BigEndian.Uint64(trailer)
	if indexOffset > uint64(len(data)-trailerSize) {
		return errors.Errorf("snapshot index offset out of range")
	}

	index := data[indexOffset : len(data)-trailerSize]
	if len(index) < 4 {
		return errors.Errorf("snapshot index truncated")
	}
	classCount := binary.BigEndian.Uint32(index)
	index = index[4:]

	s.classes = make(map[uint32]*classBlock, classCount)
	for i := uint32(0); i < classCount; i++ {
		if len(index) < 20 {
			return errors.Errorf("snapshot index entry truncated")
		}
		entry := indexEntry{
			classOid:         binary.BigEndian.Uint32(index),
			blockOffset:      binary.BigEndian.Uint64(index[4:]),
			compressedLength: binary.BigEndian.Uint32(index[12:]),
			rawLength:        binary.BigEndian.Uint32(index[16:]),
		}
		index = index[20:]

		end := entry.blockOffset + uint64(entry.compressedLength)
		if end > indexOffset {
			return errors.Errorf(
				"class block %d exceeds snapshot bounds", entry.classOid,
			)
		}
		if _, present := s.classes[entry.classOid]; present {
			continue
		}
		s.classes[entry.classOid] = &classBlock{
			entry: entry,
		}
	}

	s.logger.Debugf(
		"catalog snapshot loaded: %d classes, %d bytes",
		len(s.classes), len(s.data),
	)
	return nil
}

// class returns the inflated, row-indexed block for a catalog class.
func (s *Store) class(
	classOid uint32,
) (*classBlock, error) {

	block, present := s.classes[classOid]
	if !present {
		return nil, errors.Errorf(
			"catalog class %s not present in snapshot",
			catalog.RegClass(classOid),
		)
	}
	if err := block.inflate(s.data); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *Store) FetchCatalogRow(
	class catalog.RegClass, oid uint32,
) (sidechannel.CatalogRow, error) {

	block, err := s.class(uint32(class))
	if err != nil {
		return nil, err
	}

	refs := block.rows[oid]
	if len(refs) == 0 {
		return nil, errors.Errorf(
			"no row for oid %d in catalog %s", oid, class,
		)
	}
	return block.row(refs[0]), nil
}

func (s *Store) ScanCatalogRows(
	class catalog.RegClass, oid uint32,
	cb func(row sidechannel.CatalogRow) error,
) error {

	block, err := s.class(uint32(class))
	if err != nil {
		return err
	}

	for _, ref := range block.rows[oid] {
		row := block.row(ref)
		err := cb(row)
		row.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// ClassInfo summarizes one catalog class of a snapshot.
type ClassInfo struct {
	ClassOid uint32   `json:"oid"`
	Class    string   `json:"class"`
	Columns  []string `json:"columns"`
	Rows     int      `json:"rows"`
}

// Describe inflates every class block and reports the snapshot
// contents, ordered by class oid.
func (s *Store) Describe() ([]ClassInfo, error) {
	infos := make([]ClassInfo, 0, len(s.classes))
	for classOid, block := range s.classes {
		if err := block.inflate(s.data); err != nil {
			return nil, err
		}

		rows := 0
		for _, refs := range block.rows {
			rows += len(refs)
		}
		infos = append(infos, ClassInfo{
			ClassOid: classOid,
			Class:    catalog.RegClass(classOid).String(),
			Columns:  block.columns,
			Rows:     rows,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ClassOid < infos[j].ClassOid
	})
	return infos, nil
}

func (s *Store) OnInvalidation(
	handler sidechannel.InvalidationHandler,
) {

	s.handlers = append(s.handlers, handler)
}

// ApplyInvalidation fans an invalidation out to every registered
// handler. Embedders call this when the engine reports catalog
// changes; a snapshot swap typically follows a global one.
func (s *Store) ApplyInvalidation(
	invalidation sidechannel.Invalidation,
) {

	for _, handler := range s.handlers {
		handler.HandleInvalidation(invalidation)
	}
}

// Shutdown makes the store participate in injector teardown.
func (s *Store) Shutdown() error {
	return s.Close()
}

func (s *Store) Close() error {
	if s.mapping != nil {
		if err := s.mapping.Unmap(); err != nil {
			return errors.Wrap(err, 0)
		}
		s.mapping = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return errors.Wrap(err, 0)
		}
		s.file = nil
	}
	s.data = nil
	return nil
}

// classBlock is one catalog class section, inflated on demand.
type classBlock struct {
	entry indexEntry

	columns []string
	byName  map[string]int

	// raw is the inflated block image; rows index into it by key oid.
	raw  []byte
	rows map[uint32][]rowRef
}

// rowRef locates one row's datum area inside the inflated block.
type rowRef struct {
	offset int
}

func (cb *classBlock) inflate(
	file []byte,
) error {

	if cb.raw != nil {
		return nil
	}

	start := cb.entry.blockOffset
	compressed := file[start : start+uint64(cb.entry.compressedLength)]
	raw, err := snappy.Decode(
		make([]byte, 0, cb.entry.rawLength), compressed,
	)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	if err := cb.index(raw); err != nil {
		return err
	}
	cb.raw = raw
	return nil
}

func (cb *classBlock) index(
	raw []byte,
) error {

	reader := blockReader{data: raw}

	classOid, err := reader.uint32()
	if err != nil {
		return err
	}
	if classOid != cb.entry.classOid {
		return errors.Errorf(
			"class block oid mismatch: index says %d, block says %d",
			cb.entry.classOid, classOid,
		)
	}

	columnCount, err := reader.uint16()
	if err != nil {
		return err
	}
	cb.columns = make([]string, columnCount)
	cb.byName = make(map[string]int, columnCount)
	for i := range cb.columns {
		name, err := reader.shortString()
		if err != nil {
			return err
		}
		cb.columns[i] = name
		cb.byName[name] = i
	}

	rowCount, err := reader.uint32()
	if err != nil {
		return err
	}
	cb.rows = make(map[uint32][]rowRef, rowCount)
	for i := uint32(0); i < rowCount; i++ {
		keyOid, err := reader.uint32()
		if err != nil {
			return err
		}
		cb.rows[keyOid] = append(cb.rows[keyOid], rowRef{
			offset: reader.pos,
		})
		if err := reader.skipDatums(len(cb.columns)); err != nil {
			return err
		}
	}
	return nil
}

// blockReader walks a raw class block with bounds checking.
type blockReader struct {
	data []byte
	pos  int
}

func (br *blockReader) need(width int) error {
	if br.pos+width > len(br.data) {
		return errors.Errorf(
			"class block truncated at offset %d", br.pos,
		)
	}
	return nil
}

func (br *blockReader) uint16() (uint16, error) {
	if err := br.need(2); err != nil {
		return 0, err
	}
	value := binary.BigEndian.Uint16(br.data[br.pos:])
	br.pos += 2
	return value, nil
}

func (br *blockReader) uint32() (uint32, error) {
	if err := br.need(4); err != nil {
		return 0, err
	}
	value := binary.BigEndian.Uint32(br.data[br.pos:])
	br.pos += 4
	return value, nil
}

func (br *blockReader) shortString() (string, error) {
	length, err := br.uint16()
	if err != nil {
		return "", err
	}
	if err := br.need(int(length)); err != nil {
		return "", err
	}
	value := string(br.data[br.pos : br.pos+int(length)])
	br.pos += int(length)
	return value, nil
}

func (br *blockReader) skipDatums(count int) error {
	for i := 0; i < count; i++ {
		if err := br.need(1); err != nil {
			return err
		}
		flag := br.data[br.pos]
		br.pos++
		if flag == datumNull {
			continue
		}
		length, err := br.uint32()
		if err != nil {
			return err
		}
		if err := br.need(int(length)); err != nil {
			return err
		}
		br.pos += int(length)
	}
	return nil
}
