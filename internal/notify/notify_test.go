package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestFileWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(dir, "status.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	e1 := Event{OrderID: "o1", From: "pending", To: "confirmed", At: 100}
	e2 := Event{OrderID: "o2", From: "confirmed", To: "preparing", At: 101}
	if err := w.Append(e1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := w.Append(e2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "status.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []Event
	s := bufio.NewScanner(f)
	for s.Scan() {
		var e Event
		if err := json.Unmarshal(s.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, e)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[0] != e1 || got[1] != e2 {
		t.Fatalf("journal mismatch: %+v", got)
	}
}

type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_KeyedByOrder(t *testing.T) {
	fk := &fakeKafkaWriter{}
	kw := NewKafkaWriterWith(fk)
	e := Event{OrderID: "o42", From: "shipped", To: "delivered", At: 7}
	if err := kw.Append(e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != "o42" {
		t.Fatalf("message key = %q, want order id", fk.msgs[0].Key)
	}
}

func TestKafkaWriter_Failure(t *testing.T) {
	kw := NewKafkaWriterWith(&fakeKafkaWriter{fail: true})
	if err := kw.Append(Event{OrderID: "o1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMultiWriter_StopsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(dir, "status.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	failing := NewKafkaWriterWith(&fakeKafkaWriter{fail: true})
	mw := NewMultiWriter(failing, fw)
	if err := mw.Append(Event{OrderID: "o1", From: "pending", To: "confirmed"}); err == nil {
		t.Fatal("expected fan-out error")
	}
	if _, err := os.Stat(filepath.Join(dir, "status.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("file sink should not have been reached")
	}
}
