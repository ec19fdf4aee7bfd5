// Package wire defines the frame and checkpoint types passed between the
// source, the pipeline runner, and the sinks.
package wire

import "time"

// Checkpoint identifies one consumed record so the source can commit its
// offset once every sink has durably handled the frame.
type Checkpoint struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Frame is one observation batch in flight: an opaque payload (JSON-encoded
// channel batch) plus the checkpoint it came from.
type Frame struct {
	Key        []byte
	Value      []byte
	Headers    map[string][]byte
	Ts         time.Time
	Checkpoint Checkpoint
}

// Ack notifies the source that a frame's checkpoint is resolved.
type Ack struct {
	Checkpoint Checkpoint
}
