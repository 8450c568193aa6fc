package directory

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/coregx/wsbus/txn"
)

type fakeWorker struct {
	alive bool
}

func (w *fakeWorker) Start()           {}
func (w *fakeWorker) RequestShutdown() { w.alive = false }
func (w *fakeWorker) Join()            {}
func (w *fakeWorker) IsAlive() bool    { return w.alive }

func newFakeLoader(spawns *int) Loader {
	return func(path []string) (Worker, *txn.Queue, *txn.Queue, error) {
		*spawns++
		return &fakeWorker{alive: true}, txn.NewQueue(8), txn.NewQueue(8), nil
	}
}

func TestDirectory_LazySpawnAndReuse(t *testing.T) {
	spawns := 0
	d := New(newFakeLoader(&spawns), zerolog.Nop())

	rec1, err := d.Lookup([]string{"foo", "bar"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if spawns != 1 {
		t.Fatalf("spawns = %d, want 1", spawns)
	}

	rec2, err := d.Lookup([]string{"foo", "bar"})
	if err != nil {
		t.Fatalf("second Lookup: %v", err)
	}
	if rec2 != rec1 {
		t.Fatal("expected second lookup to return the same record")
	}
	if spawns != 1 {
		t.Fatalf("spawns after reuse = %d, want still 1", spawns)
	}

	// Kill the worker; next lookup must spawn a fresh record.
	rec1.Worker.(*fakeWorker).alive = false
	rec3, err := d.Lookup([]string{"foo", "bar"})
	if err != nil {
		t.Fatalf("third Lookup: %v", err)
	}
	if rec3 == rec1 {
		t.Fatal("expected a fresh record after worker death")
	}
	if spawns != 2 {
		t.Fatalf("spawns after respawn = %d, want 2", spawns)
	}
}

func TestDirectory_LookupNotFound(t *testing.T) {
	d := New(func(path []string) (Worker, *txn.Queue, *txn.Queue, error) {
		return nil, nil, nil, ErrNotFound
	}, zerolog.Nop())

	_, err := d.Lookup([]string{"missing"})
	if err != ErrNotFound {
		t.Fatalf("Lookup err = %v, want ErrNotFound", err)
	}
}

func TestDirectory_Add(t *testing.T) {
	d := New(nil, zerolog.Nop())

	rec := &ServiceRecord{Worker: &fakeWorker{alive: true}, Path: "x"}
	if !d.Add("x", rec) {
		t.Fatal("expected Add to succeed for a fresh, alive record")
	}
	if d.Add("x", rec) {
		t.Fatal("expected Add to fail on duplicate name")
	}

	dead := &ServiceRecord{Worker: &fakeWorker{alive: false}, Path: "y"}
	if d.Add("y", dead) {
		t.Fatal("expected Add to fail for a dead record")
	}
}

func TestDirectory_JoinAllShutsDownEveryWorker(t *testing.T) {
	spawns := 0
	d := New(newFakeLoader(&spawns), zerolog.Nop())

	rec1, _ := d.Lookup([]string{"a"})
	rec2, _ := d.Lookup([]string{"nested", "b"})

	d.JoinAll()

	if rec1.Worker.IsAlive() {
		t.Fatal("expected rec1 worker to be shut down")
	}
	if rec2.Worker.IsAlive() {
		t.Fatal("expected rec2 worker to be shut down")
	}
}
