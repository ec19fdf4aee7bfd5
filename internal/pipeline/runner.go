package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"geomagd/internal/adjusted"
	"geomagd/internal/logging"
	"geomagd/internal/telemetry"
	"geomagd/internal/timeseries"
	"geomagd/internal/wire"
	"geomagd/sink"
	srckafka "geomagd/source/kafka"
)

// Runner drives one pass per frame: decode the raw channel batch, check
// that enough channels are covered, apply the calibration, and push the
// adjusted batch to every sink. Frames that cannot be processed are acked
// and dropped so a poison frame never wedges the partition.
type Runner struct {
	source srckafka.Adapter
	algo   *adjusted.Adjusted
	cal    adjusted.Calibration
	sinks  []sink.Adapter

	mu   sync.Mutex
	subs []func(*wire.Ack)
}

func NewRunner(algo *adjusted.Adjusted, cal adjusted.Calibration) *Runner {
	return &Runner{algo: algo, cal: cal}
}

func (r *Runner) AddSink(s sink.Adapter)       { r.sinks = append(r.sinks, s) }
func (r *Runner) SetSource(s srckafka.Adapter) { r.source = s }

// Calibration returns the transform the runner was compiled with.
func (r *Runner) Calibration() adjusted.Calibration { return r.cal }

func (r *Runner) SubscribeAck(fn func(*wire.Ack)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

func (r *Runner) Ack(cp wire.Checkpoint) {
	ack := &wire.Ack{Checkpoint: cp}

	r.mu.Lock()
	handlers := append([]func(*wire.Ack){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range handlers {
		fn(ack)
	}
}

/*──────── frame routing ───────*/

func (r *Runner) pushFrame(f *wire.Frame) error {
	st, err := timeseries.DecodeJSON(f.Value)
	if err != nil {
		telemetry.FramesFailed.Inc()
		logging.L().Error("runner: bad frame payload", "offset", f.Checkpoint.Offset, "err", err)
		r.Ack(f.Checkpoint)
		return nil
	}

	start, end := st.Starttime(), st.Endtime()
	if !r.algo.CanProduceData(start, end, st) {
		telemetry.FramesSkipped.Inc()
		logging.L().Debug("runner: insufficient coverage, skipping frame",
			"start", start, "end", end, "offset", f.Checkpoint.Offset)
		r.Ack(f.Checkpoint)
		return nil
	}

	began := time.Now()
	out, err := r.algo.Process(r.cal, st)
	if err != nil {
		telemetry.FramesFailed.Inc()
		logging.L().Error("runner: process failed", "offset", f.Checkpoint.Offset, "err", err)
		r.Ack(f.Checkpoint)
		return nil
	}
	telemetry.ProcessDuration.Observe(time.Since(began).Seconds())

	payload, err := timeseries.EncodeJSON(out)
	if err != nil {
		return err
	}
	adjustedFrame := &wire.Frame{
		Key:        f.Key,
		Value:      payload,
		Ts:         f.Ts,
		Checkpoint: f.Checkpoint,
	}
	for _, s := range r.sinks {
		if err := s.Push(adjustedFrame); err != nil {
			return err
		}
	}
	telemetry.FramesProcessed.Inc()
	return nil
}

func (r *Runner) Start(ctx context.Context) error {
	if r.source == nil {
		return errors.New("runner: no source configured")
	}
	go func() { _ = r.source.Run(ctx, r.pushFrame) }()
	return nil
}

func (r *Runner) Close() error {
	var first error
	if r.source != nil {
		first = r.source.Close()
	}
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
