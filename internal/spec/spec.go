package spec

import "geomagd/internal/adjusted"

// KafkaSinkSpec configures the adjusted-data producer sink.
type KafkaSinkSpec struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int16    `yaml:"required_acks"` // 0,1,-1
}

type sinkConfigs struct {
	Kafka  KafkaSinkSpec `yaml:"kafka"`
	Stdout any           `yaml:"stdout"`
}

type debugSection struct {
	PerFrameDelayMS int  `yaml:"per_frame_delay_ms"`
	PrintCounter    bool `yaml:"print_counter"`
	AckBatchSize    int  `yaml:"ack_batch_size"`
	AckFlushMS      int  `yaml:"ack_flush_ms"`
}

// AdjustedSpec is the YAML shape of the algorithm block. Env vars overlay
// it in config.LoadAdjusted.
type AdjustedSpec struct {
	InChannels  []string `yaml:"in_channels" koanf:"in_channels"`
	OutChannels []string `yaml:"out_channels" koanf:"out_channels"`
	Statefile   string   `yaml:"statefile" koanf:"statefile"`
	DataType    string   `yaml:"data_type" koanf:"data_type"`
	Location    string   `yaml:"location" koanf:"location"`
}

func (s AdjustedSpec) Config() adjusted.Config {
	return adjusted.Config{
		InChannels:  s.InChannels,
		OutChannels: s.OutChannels,
		Statefile:   s.Statefile,
		DataType:    s.DataType,
		Location:    s.Location,
	}
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source struct {
		Kind   string `yaml:"kind"`
		Driver string `yaml:"driver"`
		Config string `yaml:"config"`
	} `yaml:"source"`

	Adjusted AdjustedSpec `yaml:"adjusted"`

	Sinks       []string     `yaml:"sinks"`
	SinkConfigs sinkConfigs  `yaml:"sink_configs"`
	Debug       debugSection `yaml:"debug"`
}
