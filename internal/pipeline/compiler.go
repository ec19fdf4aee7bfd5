package pipeline

import (
	"fmt"
	"time"

	"geomagd/internal/adjusted"
	"geomagd/internal/config"
	"geomagd/internal/logging"
	"geomagd/internal/telemetry"
	"geomagd/internal/wire"
	"geomagd/sink"
	ksink "geomagd/sink/kafka"
	"geomagd/sink/stdout"
	srckafka "geomagd/source/kafka"
)

// Compile builds a Runner from a pipeline YAML: algorithm + calibration
// state first, then the source and sinks.
func Compile(path string) (*Runner, error) {
	cfg, confPath, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}

	/*──────── algorithm + calibration ───────*/
	acfg, err := config.LoadAdjusted(cfg.Adjusted)
	if err != nil {
		return nil, err
	}
	algo, err := adjusted.New(acfg)
	if err != nil {
		return nil, err
	}
	res, err := adjusted.LoadState(acfg.Statefile, algo.Channels())
	if err != nil {
		return nil, fmt.Errorf("calibration state: %w", err)
	}
	if res.Defaulted {
		telemetry.StateLoadFallbacks.Inc()
		if res.Reason != nil {
			logging.L().Warn("calibration statefile unreadable; using identity baseline",
				"statefile", acfg.Statefile, "err", res.Reason)
		} else {
			logging.L().Info("no calibration statefile; using identity baseline")
		}
	} else {
		logging.L().Info("calibration state loaded",
			"statefile", acfg.Statefile,
			"dimension", res.Calibration.Dim(),
			"pier_correction", res.Calibration.PierCorrection)
	}
	r := NewRunner(algo, res.Calibration)

	/*──────── source (Kafka only for v0.1) ───────*/
	if cfg.Source.Kind != "kafka" {
		return nil, fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
	kc, err := config.LoadKafkaConfig(confPath)
	if err != nil {
		return nil, err
	}

	src, err := srckafka.NewAdapter(cfg.Source.Driver)
	if err != nil {
		return nil, err
	}
	if err = src.Configure(kc); err != nil {
		return nil, err
	}
	r.SetSource(src)

	// driver may want acks back for offset commits
	if aw, ok := src.(interface{ OnAck(*wire.Ack) }); ok {
		r.SubscribeAck(aw.OnAck)
	}

	/*──────── sinks ───────*/
	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return nil, err
		}

		switch name {
		case "stdout":
			delay := time.Duration(cfg.Debug.PerFrameDelayMS) * time.Millisecond
			err = sDrv.Configure(stdout.Config{
				DelayMS:      int(delay / time.Millisecond),
				PrintCounter: cfg.Debug.PrintCounter,
				BatchSize:    cfg.Debug.AckBatchSize,
				FlushMS:      cfg.Debug.AckFlushMS,
			})
		case "kafka":
			err = sDrv.Configure(ksink.Config{
				Brokers: cfg.SinkConfigs.Kafka.Brokers,
				Topic:   cfg.SinkConfigs.Kafka.Topic,
				Acks:    cfg.SinkConfigs.Kafka.Acks,
			})
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return nil, err
		}

		if ackAware, ok := sDrv.(sink.AckAware); ok {
			ackAware.BindAck(r.Ack)
		}
		r.AddSink(sDrv)
	}
	return r, nil
}
