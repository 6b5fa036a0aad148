// Package bulk applies one operator action across a selection of stock
// items. Each id is handled independently: partial failure never rolls
// back the ids that succeeded.
package bulk

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"stockops/internal/export"
	"stockops/internal/metrics"
	"stockops/internal/stock"
)

// Action is an operator bulk intent.
type Action string

const (
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
	ActionDelete  Action = "delete"
	ActionExport  Action = "export"
)

// ParseAction validates a wire action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionEnable, ActionDisable, ActionDelete, ActionExport:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown bulk action %q", s)
}

// Failure is one id the action could not be applied to.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result aggregates per-id outcomes. A mixed result is returned as
// data, never as an error, so callers can report item by item.
type Result struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
	CSV       []byte    `json:"-"` // set only for ActionExport
}

// ListingStore is the per-item remote contract bulk actions run on.
type ListingStore interface {
	SetPublished(ctx context.Context, kind stock.Kind, id string, published bool) error
	DeleteListing(ctx context.Context, kind stock.Kind, id string) error
}

// maxInFlight bounds concurrent per-item calls to the remote store.
const maxInFlight = 8

// Coordinator runs bulk actions. Writes to the same id are serialized
// so overlapping selections cannot interleave partial writes.
type Coordinator struct {
	store ListingStore
	mets  *metrics.Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator wires the coordinator. mets may be nil.
func NewCoordinator(store ListingStore, mets *metrics.Registry) *Coordinator {
	return &Coordinator{store: store, mets: mets, locks: make(map[string]*sync.Mutex)}
}

func (c *Coordinator) idLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// Apply runs action over the selection, resolving each id against the
// caller's current item view. The selection is cleared before Apply
// returns, whatever the outcome; the caller re-fetches the source
// collections to observe authoritative post-action state.
func (c *Coordinator) Apply(ctx context.Context, sel *Selection, action Action, items []stock.Item) (Result, error) {
	ids := sel.IDs()
	defer sel.Clear()

	index := make(map[string]stock.Item, len(items))
	for _, it := range items {
		index[it.ID] = it
	}

	switch action {
	case ActionExport:
		return c.applyExport(ids, index)
	case ActionEnable, ActionDisable, ActionDelete:
		return c.applyRemote(ctx, ids, action, index)
	}
	return Result{}, fmt.Errorf("unknown bulk action %q", action)
}

func (c *Coordinator) applyExport(ids []string, index map[string]stock.Item) (Result, error) {
	var res Result
	selected := make([]stock.Item, 0, len(ids))
	for _, id := range ids {
		it, ok := index[id]
		if !ok {
			res.Failed = append(res.Failed, Failure{ID: id, Reason: "not found"})
			continue
		}
		selected = append(selected, it)
		res.Succeeded = append(res.Succeeded, id)
	}
	csvBytes, err := export.Stock(selected)
	if err != nil {
		return Result{}, fmt.Errorf("render export: %w", err)
	}
	res.CSV = csvBytes
	c.count(res)
	return res, nil
}

func (c *Coordinator) applyRemote(ctx context.Context, ids []string, action Action, index map[string]stock.Item) (Result, error) {
	var res Result
	var resMu sync.Mutex
	succeed := func(id string) {
		resMu.Lock()
		res.Succeeded = append(res.Succeeded, id)
		resMu.Unlock()
	}
	fail := func(id, reason string) {
		resMu.Lock()
		res.Failed = append(res.Failed, Failure{ID: id, Reason: reason})
		resMu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)
	for _, id := range ids {
		id := id
		it, ok := index[id]
		if !ok {
			fail(id, "not found")
			continue
		}
		g.Go(func() error {
			lock := c.idLock(id)
			lock.Lock()
			defer lock.Unlock()

			var err error
			switch action {
			case ActionEnable:
				err = c.store.SetPublished(ctx, it.Kind, id, true)
			case ActionDisable:
				err = c.store.SetPublished(ctx, it.Kind, id, false)
			case ActionDelete:
				err = c.store.DeleteListing(ctx, it.Kind, id)
			}
			if err != nil {
				fail(id, err.Error())
			} else {
				succeed(id)
			}
			// Best effort: one failed id never aborts the rest.
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(res.Succeeded)
	sort.Slice(res.Failed, func(i, j int) bool { return res.Failed[i].ID < res.Failed[j].ID })
	c.count(res)
	return res, nil
}

func (c *Coordinator) count(res Result) {
	if c.mets == nil {
		return
	}
	c.mets.BulkItemsSucceeded.Add(float64(len(res.Succeeded)))
	c.mets.BulkItemsFailed.Add(float64(len(res.Failed)))
}
