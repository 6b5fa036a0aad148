package cache

import (
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"

	"stockops/internal/stock"
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

func (b *BadgerStore) Put(it stock.Item) error {
	bytes, err := encodeItem(it)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(it.ID), bytes)
	})
}

func (b *BadgerStore) Get(id string) (stock.Item, bool) {
	var it stock.Item
	err := b.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(id))
		if e != nil {
			return e
		}
		v, e := item.ValueCopy(nil)
		if e != nil {
			return e
		}
		it, e = decodeItem(v)
		return e
	})
	if err != nil {
		return stock.Item{}, false
	}
	return it, true
}

func (b *BadgerStore) Delete(id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(id))
	})
}

func (b *BadgerStore) Range(fn func(it stock.Item) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			v, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			it, err := decodeItem(v)
			if err != nil {
				return err
			}
			if err := fn(it); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) ReplaceAll(items []stock.Item) error {
	return b.db.Update(func(txn *badger.Txn) error {
		// Collect keys first to avoid mutating while iterating.
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		var toDelete [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			toDelete = append(toDelete, iter.Item().KeyCopy(nil))
		}
		iter.Close()
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for _, it := range items {
			bytes, err := encodeItem(it)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(it.ID), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) Len() int {
	n := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	})
	return n
}
