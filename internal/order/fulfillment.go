package order

import (
	"context"
	"fmt"
	"log"
	"sync"

	"stockops/internal/metrics"
	"stockops/internal/notify"
	"stockops/internal/status"
)

// StatusUpdater is the remote store operation Fulfillment depends on.
// expect carries the status the caller believes the order is in so the
// server can reject a concurrent move with a conflict.
type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id string, expect, target status.Status) error
}

// FulfillmentError wraps a failure of the remote status update. The
// local order is guaranteed unchanged when it is returned.
type FulfillmentError struct {
	OrderID string
	Target  status.Status
	Err     error
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("fulfillment: order %s -> %s: %v", e.OrderID, e.Target, e.Err)
}

func (e *FulfillmentError) Unwrap() error { return e.Err }

// Fulfillment applies status transitions: validate locally, push to the
// remote store, then record the event and publish a notification.
// Transitions on the same order are serialized within one instance.
type Fulfillment struct {
	store StatusUpdater
	pub   notify.Writer
	mets  *metrics.Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFulfillment wires the controller. pub and mets may be nil.
func NewFulfillment(store StatusUpdater, pub notify.Writer, mets *metrics.Registry) *Fulfillment {
	return &Fulfillment{
		store: store,
		pub:   pub,
		mets:  mets,
		locks: make(map[string]*sync.Mutex),
	}
}

func (f *Fulfillment) orderLock(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		l = &sync.Mutex{}
		f.locks[id] = l
	}
	return l
}

// ApplyTransition moves o to target. It returns a
// *status.InvalidTransitionError before any network call when the move
// is not in the transition table (a request to stay in place included),
// and a *FulfillmentError with the order unchanged when the remote
// update fails. No retry is attempted; that is the caller's call.
func (f *Fulfillment) ApplyTransition(ctx context.Context, o *Order, target status.Status) error {
	lock := f.orderLock(o.ID)
	lock.Lock()
	defer lock.Unlock()

	cur := o.CurrentStatus()
	if err := status.ValidateTransition(cur, target); err != nil {
		if f.mets != nil {
			f.mets.TransitionsRejected.Inc()
		}
		return err
	}

	if err := f.store.UpdateOrderStatus(ctx, o.ID, cur, target); err != nil {
		if f.mets != nil {
			f.mets.FulfillmentFailures.Inc()
		}
		return &FulfillmentError{OrderID: o.ID, Target: target, Err: err}
	}

	now := NowUnix()
	o.Events = append(o.Events, StatusEvent{Status: target, At: now})
	if f.mets != nil {
		f.mets.TransitionsApplied.Inc()
	}

	if f.pub != nil {
		ev := notify.Event{OrderID: o.ID, From: string(cur), To: string(target), At: now}
		if err := f.pub.Append(ev); err != nil {
			// The transition is committed remotely; losing the
			// notification must not undo it.
			if f.mets != nil {
				f.mets.NotifyErrors.Inc()
			}
			log.Printf("notify failed order=%s from=%s to=%s err=%v", o.ID, cur, target, err)
		}
	}
	return nil
}
