package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"

	"geomagd/internal/logging"
	"geomagd/internal/wire"
)

type recordID struct {
	topic     string
	partition int32
	offset    int64
}

// SaramaDriver consumes observation frames from a Kafka consumer group.
// In auto mode offsets are marked as soon as a frame is emitted; in e2e
// mode the mark is deferred until the pipeline acks the frame.
type SaramaDriver struct {
	cfg   Config
	mode  CommitMode
	cl    sarama.Client
	group sarama.ConsumerGroup

	mu      sync.Mutex
	pending map[recordID]func()

	ackCh chan recordID
}

func (d *SaramaDriver) Configure(config Config) error {
	d.cfg, d.mode = config, config.CommitMode
	d.pending = make(map[recordID]func())
	d.ackCh = make(chan recordID, 1024)

	ver, err := sarama.ParseKafkaVersion(config.Version)
	if err != nil {
		return err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.Consumer.Return.Errors = true
	if config.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if config.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = config.SASLUser, config.SASLPass
	}
	switch config.StartFrom {
	case "oldest":
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if d.cl, err = sarama.NewClient(config.Brokers, sc); err != nil {
		return err
	}
	d.group, err = sarama.NewConsumerGroupFromClient(config.GroupID, d.cl)
	return err
}

func (d *SaramaDriver) Run(ctx context.Context, emit EmitFunc) error {
	handler := &groupHandler{driver: d, emit: emit}

	for {
		if err := d.group.Consume(ctx, d.cfg.Topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (d *SaramaDriver) Close() error {
	_ = d.group.Close()
	return d.cl.Close()
}

// OnAck receives resolved checkpoints from the runner.
func (d *SaramaDriver) OnAck(ack *wire.Ack) {
	if ack == nil {
		return
	}
	rec := recordID{ack.Checkpoint.Topic, ack.Checkpoint.Partition, ack.Checkpoint.Offset}
	select {
	case d.ackCh <- rec:
	default:
		logging.L().Warn("sarama-driver: ack channel full; dropping ack",
			"topic", rec.topic, "partition", rec.partition, "offset", rec.offset)
	}
}

func (d *SaramaDriver) resolve(rec recordID) {
	d.mu.Lock()
	cb, ok := d.pending[rec]
	if ok {
		delete(d.pending, rec)
	}
	d.mu.Unlock()
	if ok {
		cb()
	}
}

type groupHandler struct {
	driver *SaramaDriver
	emit   EmitFunc
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.driver.mu.Lock()
	defer h.driver.mu.Unlock()

	dropped := len(h.driver.pending)
	h.driver.pending = make(map[recordID]func())
	if dropped > 0 {
		logging.L().Info("sarama-driver: rebalance cleared pending marks", "count", dropped)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(
	sess sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	for {
		select {
		case <-sess.Context().Done():
			return sess.Context().Err()

		case rec := <-h.driver.ackCh:
			h.driver.resolve(rec)

		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			frame := &wire.Frame{
				Key:     msg.Key,
				Value:   msg.Value,
				Headers: toHeaderMap(msg.Headers),
				Ts:      msg.Timestamp,
				Checkpoint: wire.Checkpoint{
					Topic:     msg.Topic,
					Partition: msg.Partition,
					Offset:    msg.Offset,
				},
			}
			if err := h.emit(frame); err != nil {
				return err
			}

			if h.driver.mode == CommitAuto {
				sess.MarkMessage(msg, "")
				continue
			}
			rec := recordID{msg.Topic, msg.Partition, msg.Offset}
			h.driver.mu.Lock()
			h.driver.pending[rec] = func() { sess.MarkMessage(msg, "") }
			h.driver.mu.Unlock()
		}
	}
}

func toHeaderMap(src []*sarama.RecordHeader) map[string][]byte {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(src))
	for _, h := range src {
		out[string(h.Key)] = h.Value
	}
	return out
}
