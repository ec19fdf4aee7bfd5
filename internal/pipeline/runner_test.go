package pipeline

import (
	"testing"
	"time"

	"geomagd/internal/adjusted"
	"geomagd/internal/timeseries"
	"geomagd/internal/wire"
	"geomagd/sink"
)

type captureSink struct {
	pushed []*wire.Frame
	ackFn  sink.EmitFn
}

func (c *captureSink) Configure(any) error { return nil }
func (c *captureSink) Push(f *wire.Frame) error {
	c.pushed = append(c.pushed, f)
	if c.ackFn != nil {
		c.ackFn(f.Checkpoint)
	}
	return nil
}
func (c *captureSink) Close() error           { return nil }
func (c *captureSink) BindAck(fn sink.EmitFn) { c.ackFn = fn }

var frameStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func obsTrace(channel string, data []float64) timeseries.Trace {
	return timeseries.Trace{
		Stats: timeseries.Stats{
			Station:    "BOU",
			Channel:    channel,
			DataType:   "variation",
			Starttime:  frameStart,
			SampleRate: 1,
		},
		Data: data,
	}
}

func makeFrame(t *testing.T, channels ...string) *wire.Frame {
	t.Helper()
	var st timeseries.Stream
	for i, ch := range channels {
		base := float64(i+1) * 1000
		st = append(st, obsTrace(ch, []float64{base, base + 1, base + 2}))
	}
	raw, err := timeseries.EncodeJSON(st)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return &wire.Frame{
		Value:      raw,
		Ts:         frameStart,
		Checkpoint: wire.Checkpoint{Topic: "obs.raw", Partition: 1, Offset: 42},
	}
}

func newTestRunner(t *testing.T) (*Runner, *captureSink, *[]wire.Checkpoint) {
	t.Helper()
	algo, err := adjusted.New(adjusted.Config{})
	if err != nil {
		t.Fatalf("adjusted.New: %v", err)
	}
	r := NewRunner(algo, adjusted.Identity(4))

	var acks []wire.Checkpoint
	r.SubscribeAck(func(a *wire.Ack) { acks = append(acks, a.Checkpoint) })

	cs := &captureSink{}
	cs.BindAck(r.Ack)
	r.AddSink(cs)
	return r, cs, &acks
}

func TestRunner_AdjustsAndForwards(t *testing.T) {
	r, cs, acks := newTestRunner(t)

	if err := r.pushFrame(makeFrame(t, "H", "E", "Z", "F")); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 1 {
		t.Fatalf("expected 1 pushed frame, got %d", len(cs.pushed))
	}
	out, err := timeseries.DecodeJSON(cs.pushed[0].Value)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	for _, ch := range []string{"X", "Y", "Z", "F"} {
		if _, ok := out.First(ch); !ok {
			t.Fatalf("output missing channel %s", ch)
		}
	}
	x, _ := out.First("X")
	if x.Stats.DataType != "adjusted" {
		t.Fatalf("output data_type = %q", x.Stats.DataType)
	}
	// identity calibration: X mirrors H
	if x.Data[0] != 1000 {
		t.Fatalf("X[0] = %v, want 1000", x.Data[0])
	}
	if len(*acks) != 1 || (*acks)[0].Offset != 42 {
		t.Fatalf("sink ack not propagated: %v", *acks)
	}
}

func TestRunner_InsufficientCoverageSkipsAndAcks(t *testing.T) {
	r, cs, acks := newTestRunner(t)

	// only H present: no availability tier is satisfied
	if err := r.pushFrame(makeFrame(t, "H")); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 0 {
		t.Fatalf("skipped frame must not reach sinks, got %d", len(cs.pushed))
	}
	if len(*acks) != 1 {
		t.Fatalf("skipped frame must still be acked, got %v", *acks)
	}
}

func TestRunner_ProcessFailureAcksWithoutOutput(t *testing.T) {
	r, cs, acks := newTestRunner(t)

	// F alone passes the availability check but the matrix transform then
	// fails on the missing vector channels; no partial output may escape.
	if err := r.pushFrame(makeFrame(t, "F")); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 0 {
		t.Fatalf("failed frame must not reach sinks, got %d", len(cs.pushed))
	}
	if len(*acks) != 1 {
		t.Fatalf("failed frame must be acked, got %v", *acks)
	}
}

func TestRunner_BadPayloadAcksWithoutOutput(t *testing.T) {
	r, cs, acks := newTestRunner(t)

	f := &wire.Frame{Value: []byte("{broken"), Checkpoint: wire.Checkpoint{Topic: "obs.raw", Offset: 7}}
	if err := r.pushFrame(f); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 0 {
		t.Fatal("poison frame must not reach sinks")
	}
	if len(*acks) != 1 || (*acks)[0].Offset != 7 {
		t.Fatalf("poison frame must be acked, got %v", *acks)
	}
}

func TestRunner_StartWithoutSource(t *testing.T) {
	algo, err := adjusted.New(adjusted.Config{})
	if err != nil {
		t.Fatalf("adjusted.New: %v", err)
	}
	r := NewRunner(algo, adjusted.Identity(4))
	if err := r.Start(t.Context()); err == nil {
		t.Fatal("Start must fail without a source")
	}
}
