package order

import (
	"testing"

	"stockops/internal/status"
)

func TestCurrentStatus_FollowsLastEvent(t *testing.T) {
	o := &Order{ID: "o1", Events: []StatusEvent{
		{Status: status.Pending, At: 1},
		{Status: status.Confirmed, At: 2},
		{Status: status.Preparing, At: 3},
	}}
	if o.CurrentStatus() != status.Preparing {
		t.Fatalf("current = %s, want preparing", o.CurrentStatus())
	}
	if o.Progress() != 50 {
		t.Fatalf("progress = %d, want 50", o.Progress())
	}
}

func TestCurrentStatus_EmptyHistoryReadsPending(t *testing.T) {
	o := &Order{ID: "o1"}
	if o.CurrentStatus() != status.Pending {
		t.Fatalf("current = %s, want pending", o.CurrentStatus())
	}
}

func TestNew_OpensPending(t *testing.T) {
	old := NowUnix
	NowUnix = func() int64 { return 42 }
	defer func() { NowUnix = old }()

	o := New("o1", 990, "buyer")
	if len(o.Events) != 1 || o.Events[0].Status != status.Pending || o.Events[0].At != 42 {
		t.Fatalf("opening event wrong: %+v", o.Events)
	}
	if o.Payment != PaymentPending {
		t.Fatalf("payment = %s, want pending", o.Payment)
	}
}
