package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stockops/internal/notify"
	"stockops/internal/status"
)

// fakeStore records update calls and can be told to fail, or to behave
// like a server that enforces its own view of the current status.
type fakeStore struct {
	mu      sync.Mutex
	calls   int
	failErr error
	server  status.Status // when set, reject updates whose expect mismatches
}

var errConflict = errors.New("conflicting transition")

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, id string, expect, target status.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failErr != nil {
		return s.failErr
	}
	if s.server != "" {
		if expect != s.server {
			return errConflict
		}
		s.server = target
	}
	return nil
}

func withClock(t *testing.T, now int64) {
	t.Helper()
	old := NowUnix
	NowUnix = func() int64 { return now }
	t.Cleanup(func() { NowUnix = old })
}

func TestApplyTransition_IllegalRejectedLocally(t *testing.T) {
	withClock(t, 100)
	st := &fakeStore{}
	f := NewFulfillment(st, nil, nil)
	o := New("o1", 4200, "buyer1")

	err := f.ApplyTransition(context.Background(), o, status.Shipped)
	var ite *status.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("want InvalidTransitionError, got %v", err)
	}
	if len(ite.Legal) != 3 {
		t.Fatalf("error should list the legal set from pending, got %v", ite.Legal)
	}
	if st.calls != 0 {
		t.Fatal("illegal transition must not reach the store")
	}
	if o.CurrentStatus() != status.Pending || len(o.Events) != 1 {
		t.Fatalf("order must be unchanged: %+v", o)
	}
}

func TestApplyTransition_Success(t *testing.T) {
	withClock(t, 200)
	st := &fakeStore{}
	f := NewFulfillment(st, nil, nil)
	o := New("o1", 4200, "buyer1")

	if err := f.ApplyTransition(context.Background(), o, status.Confirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.CurrentStatus() != status.Confirmed {
		t.Fatalf("status = %s, want confirmed", o.CurrentStatus())
	}
	if o.Progress() != 30 {
		t.Fatalf("progress = %d, want 30", o.Progress())
	}
	if got := o.Events[len(o.Events)-1]; got.At != 200 {
		t.Fatalf("event timestamp = %d, want 200", got.At)
	}
}

func TestApplyTransition_SecondIdenticalTargetRejected(t *testing.T) {
	withClock(t, 300)
	f := NewFulfillment(&fakeStore{}, nil, nil)
	o := New("o1", 100, "b")

	if err := f.ApplyTransition(context.Background(), o, status.Confirmed); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	err := f.ApplyTransition(context.Background(), o, status.Confirmed)
	var ite *status.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("second identical apply should be InvalidTransition, got %v", err)
	}
}

func TestApplyTransition_StoreFailureLeavesOrderUnchanged(t *testing.T) {
	withClock(t, 400)
	cause := errors.New("upstream timeout")
	st := &fakeStore{failErr: cause}
	f := NewFulfillment(st, nil, nil)
	o := New("o1", 100, "b")

	err := f.ApplyTransition(context.Background(), o, status.Confirmed)
	var fe *FulfillmentError
	if !errors.As(err, &fe) {
		t.Fatalf("want FulfillmentError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("FulfillmentError must carry the underlying cause")
	}
	if o.CurrentStatus() != status.Pending || len(o.Events) != 1 {
		t.Fatalf("order must be unchanged after failure: %+v", o)
	}
}

type memWriter struct {
	mu     sync.Mutex
	events []notify.Event
	fail   bool
}

func (w *memWriter) Append(e notify.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("sink down")
	}
	w.events = append(w.events, e)
	return nil
}

func TestApplyTransition_PublishesEvent(t *testing.T) {
	withClock(t, 500)
	pub := &memWriter{}
	f := NewFulfillment(&fakeStore{}, pub, nil)
	o := New("o9", 100, "b")

	if err := f.ApplyTransition(context.Background(), o, status.Confirmed); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("want 1 event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.OrderID != "o9" || e.From != "pending" || e.To != "confirmed" || e.At != 500 {
		t.Fatalf("bad event: %+v", e)
	}
}

func TestApplyTransition_NotifyFailureDoesNotUndo(t *testing.T) {
	withClock(t, 600)
	f := NewFulfillment(&fakeStore{}, &memWriter{fail: true}, nil)
	o := New("o1", 100, "b")

	if err := f.ApplyTransition(context.Background(), o, status.Confirmed); err != nil {
		t.Fatalf("publish failure must not fail the transition: %v", err)
	}
	if o.CurrentStatus() != status.Confirmed {
		t.Fatalf("status = %s, want confirmed", o.CurrentStatus())
	}
}

func TestApplyTransition_ConcurrentCallersSerialize(t *testing.T) {
	withClock(t, 700)
	// The fake server enforces expect == its own status, so if two
	// goroutines both read pending only one update can land.
	st := &fakeStore{server: status.Pending}
	f := NewFulfillment(st, nil, nil)
	o := New("o1", 100, "b")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.ApplyTransition(context.Background(), o, status.Confirmed)
		}()
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var ite *status.InvalidTransitionError
		if errors.As(err, &ite) {
			rejected++
		}
	}
	if ok != 1 || rejected != 1 {
		t.Fatalf("want exactly one success and one local rejection, got %v", errs)
	}
	if o.CurrentStatus() != status.Confirmed || len(o.Events) != 2 {
		t.Fatalf("order should have moved exactly once: %+v", o)
	}
}

func TestFullForwardWalk(t *testing.T) {
	withClock(t, 800)
	f := NewFulfillment(&fakeStore{server: status.Pending}, nil, nil)
	o := New("o1", 100, "b")

	for {
		next, okStep := status.RecommendedNext(o.CurrentStatus())
		if !okStep {
			break
		}
		if err := f.ApplyTransition(context.Background(), o, next); err != nil {
			t.Fatalf("walk %s -> %s: %v", o.CurrentStatus(), next, err)
		}
	}
	if o.CurrentStatus() != status.Delivered || o.Progress() != 100 {
		t.Fatalf("walk should end delivered at 100%%, got %s/%d", o.CurrentStatus(), o.Progress())
	}
	if len(o.Events) != 5 {
		t.Fatalf("want 5 events (opening + 4 moves), got %d", len(o.Events))
	}
}
