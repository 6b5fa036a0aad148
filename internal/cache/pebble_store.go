package cache

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"stockops/internal/stock"
)

// PebbleStore implements Store on PebbleDB, for deployments where the
// snapshot should survive a process restart.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func encodeItem(it stock.Item) ([]byte, error) { return json.Marshal(it) }

func decodeItem(val []byte) (stock.Item, error) {
	var it stock.Item
	if err := json.Unmarshal(val, &it); err != nil {
		return stock.Item{}, err
	}
	return it, nil
}

func (p *PebbleStore) Put(it stock.Item) error {
	b, err := encodeItem(it)
	if err != nil {
		return err
	}
	return p.db.Set([]byte(it.ID), b, pebble.Sync)
}

func (p *PebbleStore) Get(id string) (stock.Item, bool) {
	v, closer, err := p.db.Get([]byte(id))
	if err != nil {
		return stock.Item{}, false
	}
	defer closer.Close()
	it, err := decodeItem(v)
	if err != nil {
		return stock.Item{}, false
	}
	return it, true
}

func (p *PebbleStore) Delete(id string) error {
	return p.db.Delete([]byte(id), pebble.Sync)
}

func (p *PebbleStore) Range(fn func(it stock.Item) error) error {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		v := append([]byte(nil), iter.Value()...)
		it, err := decodeItem(v)
		if err != nil {
			return err
		}
		if err := fn(it); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll swaps the cache contents atomically with one batch:
// existing keys are deleted, then the new snapshot is written.
func (p *PebbleStore) ReplaceAll(items []stock.Item) error {
	wb := p.db.NewBatch()
	defer wb.Close()

	iter, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	for iter.First(); iter.Valid(); iter.Next() {
		k := append([]byte(nil), iter.Key()...)
		if err := wb.Delete(k, nil); err != nil {
			iter.Close()
			return err
		}
	}
	iter.Close()

	for _, it := range items {
		b, err := encodeItem(it)
		if err != nil {
			return err
		}
		if err := wb.Set([]byte(it.ID), b, nil); err != nil {
			return err
		}
	}
	return wb.Commit(pebble.Sync)
}

func (p *PebbleStore) Len() int {
	n := 0
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return 0
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n
}
