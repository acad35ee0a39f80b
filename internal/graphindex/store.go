// Package graphindex implements the persistent category graph index (C10
// writer, C11 reader): a single RocksDB database with two column
// families, built once by a writer and served many times by a reader.
// Both roles share the same column-family layout and the same low-level
// get/resolve helpers in this file; only their write access differs.
package graphindex

import (
	"encoding/binary"

	"github.com/linxGnu/grocksdb"

	"github.com/proprietary/wikidice/internal/catrecord"
	"github.com/proprietary/wikidice/internal/catmerge"
	"github.com/proprietary/wikidice/internal/types"
	"github.com/proprietary/wikidice/internal/wikierrors"
)

// Column family names, per spec §6 "Persistent layout".
const (
	cfCategoryLinks = "categorylinks"
	cfIdToName      = "category_id_to_name"
)

// prefixSeekCap bounds the capped-prefix transform registered on the
// categorylinks column family. It is above the length of any real
// category name, so a key's prefix is the whole name and the prefix
// Bloom filter serves exact-name lookups; SearchCategories' shorter
// prefix seeks run in total order and do not use it.
const prefixSeekCap = 256

func idToNameKey(id types.CategoryId) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(id))
	return buf
}

// store holds the open database handle and column family handles shared
// by Writer and Reader. It replaces the source's class-inheritance
// hierarchy (a CategoryTreeIndex base with Reader/Writer subclasses) with
// a single struct embedded in role-typed wrappers, so the hot get/resolve
// path is a direct method call with no virtual dispatch.
type store struct {
	db            *grocksdb.DB
	categoryLinks *grocksdb.ColumnFamilyHandle
	idToName      *grocksdb.ColumnFamilyHandle
	ro            *grocksdb.ReadOptions
	wo            *grocksdb.WriteOptions
}

func columnFamilyOptions() (dbOpts *grocksdb.Options, cfOpts []*grocksdb.Options) {
	dbOpts = grocksdb.NewDefaultOptions()
	dbOpts.SetCreateIfMissing(true)
	dbOpts.SetCreateIfMissingColumnFamilies(true)

	defaultCF := grocksdb.NewDefaultOptions()

	linksCF := grocksdb.NewDefaultOptions()
	linksCF.SetCompression(grocksdb.ZSTDCompression)
	linksCF.SetMergeOperator(catmerge.Operator{})
	linksCF.SetPrefixExtractor(grocksdb.NewCappedPrefixTransform(prefixSeekCap))
	linksCF.SetMemtablePrefixBloomSizeRatio(0.1)
	bbto := grocksdb.NewDefaultBlockBasedTableOptions()
	bbto.SetFilterPolicy(grocksdb.NewBloomFilter(10))
	bbto.SetWholeKeyFiltering(false)
	linksCF.SetBlockBasedTableFactory(bbto)

	idToNameCF := grocksdb.NewDefaultOptions()
	idToNameCF.SetCompression(grocksdb.ZSTDCompression)

	return dbOpts, []*grocksdb.Options{defaultCF, linksCF, idToNameCF}
}

func openStore(path string) (*store, error) {
	dbOpts, cfOpts := columnFamilyOptions()
	cfNames := []string{"default", cfCategoryLinks, cfIdToName}
	db, handles, err := grocksdb.OpenDbColumnFamilies(dbOpts, path, cfNames, cfOpts)
	if err != nil {
		return nil, wikierrors.NewStoreFailure("graphindex.openStore", err)
	}
	return &store{
		db:            db,
		categoryLinks: handles[1],
		idToName:      handles[2],
		ro:            grocksdb.NewDefaultReadOptions(),
		wo:            grocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (s *store) close() {
	s.ro.Destroy()
	s.wo.Destroy()
	s.categoryLinks.Destroy()
	s.idToName.Destroy()
	s.db.Close()
}

// get looks up a category's record by name. A missing key is not an
// error (NotFound, §7): it returns (nil, false, nil).
func (s *store) get(name string) (*catrecord.Record, bool, error) {
	slice, err := s.db.GetCF(s.ro, s.categoryLinks, []byte(name))
	if err != nil {
		return nil, false, wikierrors.NewStoreFailure("graphindex.get", err)
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, false, nil
	}
	rec, err := catrecord.Decode(slice.Data())
	if err != nil {
		return nil, false, wikierrors.NewStoreFailure("graphindex.get:decode", err)
	}
	return rec, true, nil
}

// resolveName maps a CategoryId to its category_name via the
// category_id_to_name column family.
func (s *store) resolveName(id types.CategoryId) (string, bool, error) {
	slice, err := s.db.GetCF(s.ro, s.idToName, idToNameKey(id))
	if err != nil {
		return "", false, wikierrors.NewStoreFailure("graphindex.resolveName", err)
	}
	defer slice.Free()
	if !slice.Exists() {
		return "", false, nil
	}
	return string(slice.Data()), true, nil
}
