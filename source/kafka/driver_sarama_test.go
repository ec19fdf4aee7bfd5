package kafka

import (
	"sync/atomic"
	"testing"

	"geomagd/internal/wire"
)

func TestSaramaDriver_OnAck_Enqueue(t *testing.T) {
	d := &SaramaDriver{}
	d.ackCh = make(chan recordID, 1)

	d.OnAck(&wire.Ack{Checkpoint: wire.Checkpoint{Topic: "obs.raw", Partition: 1, Offset: 42}})

	rec := <-d.ackCh
	if rec.topic != "obs.raw" || rec.partition != 1 || rec.offset != 42 {
		t.Fatalf("unexpected record enqueued: %+v", rec)
	}
}

func TestSaramaDriver_ResolveRunsPendingMark(t *testing.T) {
	d := &SaramaDriver{}
	d.pending = make(map[recordID]func())

	var called int32
	rec := recordID{"obs.raw", 2, 99}
	d.pending[rec] = func() { atomic.AddInt32(&called, 1) }

	d.resolve(rec)
	if atomic.LoadInt32(&called) != 1 {
		t.Fatal("pending mark was not executed exactly once")
	}
	if len(d.pending) != 0 {
		t.Fatal("resolved record must be removed from pending")
	}

	// resolving an unknown record is a no-op
	d.resolve(recordID{"obs.raw", 2, 100})
	if atomic.LoadInt32(&called) != 1 {
		t.Fatal("unknown record must not re-run a callback")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CommitMode != CommitAuto {
		t.Fatalf("commit_mode = %q, want auto", cfg.CommitMode)
	}
	if cfg.StartFrom != "newest" {
		t.Fatalf("start_from = %q, want newest", cfg.StartFrom)
	}
}

func TestRegistry_UnknownDriver(t *testing.T) {
	if _, err := NewAdapter("bogus"); err == nil {
		t.Fatal("want error for unregistered driver")
	}
}
